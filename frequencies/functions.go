package frequencies

import "sketchagg/core"

var (
	dataSignature = core.Signature{
		Name:   "items_sketch",
		Input:  core.DataInput,
		Params: []core.Param{core.ParamSize},
	}
	unionSignature = core.Signature{
		Name:   "items_union",
		Input:  core.SketchInput,
		Params: []core.Param{core.ParamSize},
	}
)

// NewDataToItemsSketch counts items: (item, [maxMapSize]).
func NewDataToItemsSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{}, dataSignature, opts...)
}

// NewUnionItemsSketch unions serialized item sketches: (sketch, [maxMapSize]).
func NewUnionItemsSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{}, unionSignature, opts...)
}
