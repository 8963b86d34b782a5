package core

import "go.uber.org/zap"

// Comparer derives statistics from two summaries.
type Comparer[S any] interface {
	// Observations is the number of retained samples in a summary.
	Observations(S) int
	Compare(a, b S) ([]float64, error)
}

// Comparison is a pure function of two serialized summaries.
type Comparison[S any] struct {
	name     string
	engine   Engine[S]
	comparer Comparer[S]
	config   Config
	logger   *zap.Logger
}

func NewComparison[S any](name string, engine Engine[S], comparer Comparer[S], opts ...Option) *Comparison[S] {
	o := buildOptions(opts)
	return &Comparison[S]{
		name:     name,
		engine:   engine,
		comparer: comparer,
		config:   engine.Defaults().Overlay(o.defaults),
		logger:   o.logger.With(zap.String("function", name)),
	}
}

// Evaluate returns nil when either input is absent or holds fewer than two
// observations.
func (comparison *Comparison[S]) Evaluate(a, b []byte) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}
	first, err := comparison.engine.Deserialize(a, comparison.config)
	if err != nil {
		return nil, decodeFailure(err, "%s: deserializing first sketch", comparison.name)
	}
	second, err := comparison.engine.Deserialize(b, comparison.config)
	if err != nil {
		return nil, decodeFailure(err, "%s: deserializing second sketch", comparison.name)
	}
	na, nb := comparison.comparer.Observations(first), comparison.comparer.Observations(second)
	if na < 2 || nb < 2 {
		comparison.logger.Debug("too few observations", zap.Int("first", na), zap.Int("second", nb))
		return nil, nil
	}
	return comparison.comparer.Compare(first, second)
}
