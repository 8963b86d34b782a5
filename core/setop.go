package core

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Combiner builds one summary out of two. It may modify a.
type Combiner[S any] interface {
	Combine(a, b S) (S, error)
}

// SetOperation is a pure function of two serialized summaries that returns
// a serialized summary.
type SetOperation[S any] struct {
	name     string
	engine   Engine[S]
	combiner Combiner[S]
	config   Config
	logger   *zap.Logger
}

func NewSetOperation[S any](name string, engine Engine[S], combiner Combiner[S], opts ...Option) *SetOperation[S] {
	o := buildOptions(opts)
	return &SetOperation[S]{
		name:     name,
		engine:   engine,
		combiner: combiner,
		config:   engine.Defaults().Overlay(o.defaults),
		logger:   o.logger.With(zap.String("function", name)),
	}
}

// Evaluate combines a and b. An absent or empty input is skipped. With both
// absent the result is an empty summary.
func (op *SetOperation[S]) Evaluate(a, b []byte) ([]byte, error) {
	return op.evaluate(a, b, op.config)
}

// EvaluateWithSeed is Evaluate for summaries built with seed.
func (op *SetOperation[S]) EvaluateWithSeed(a, b []byte, seed uint64) ([]byte, error) {
	config := op.config
	config.Seed = seed
	return op.evaluate(a, b, config)
}

func (op *SetOperation[S]) evaluate(a, b []byte, config Config) ([]byte, error) {
	var (
		result S
		have   bool
	)
	for i, serialized := range [][]byte{a, b} {
		if len(serialized) == 0 {
			continue
		}
		summary, err := op.engine.Deserialize(serialized, config)
		if err != nil {
			return nil, decodeFailure(err, "%s: deserializing input %d", op.name, i+1)
		}
		if !have {
			result, have = summary, true
			continue
		}
		result, err = op.combiner.Combine(result, summary)
		if err != nil {
			return nil, decodeFailure(err, "%s: combining inputs", op.name)
		}
	}
	if !have {
		op.logger.Debug("no inputs, returning an empty summary")
		empty, err := op.engine.Build(config)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: building empty summary", op.name)
		}
		result = empty
	}
	serialized, err := op.engine.Serialize(result)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: serializing result", op.name)
	}
	return serialized, nil
}
