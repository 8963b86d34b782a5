package tuple

import "sketchagg/core"

type intersection struct{}

func (intersection) Combine(a, b *Sketch) (*Sketch, error) {
	if err := a.Intersect(b); err != nil {
		return nil, err
	}
	return a, nil
}

// NewIntersectDoubleSummarySketch intersects two double summary sketches.
// Values of shared keys combine by the configured mode.
func NewIntersectDoubleSummarySketch(opts ...core.Option) *core.SetOperation[*Sketch] {
	return core.NewSetOperation[*Sketch]("tuple_double_intersect", Engine{NumValues: 1}, intersection{}, opts...)
}
