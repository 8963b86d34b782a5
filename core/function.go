package core

import "github.com/cockroachdb/errors"

// AggregationBuffer is a buffer handed out by a Function.
type AggregationBuffer interface {
	Bound() bool
	Ignored() int
}

// Function is the type-erased form of an Evaluator, for hosts that hold
// functions of different summary types side by side.
type Function interface {
	Name() string
	// RecordShape is the intermediate record column PARTIAL2 and FINAL
	// expect.
	RecordShape() Field
	Init(phase Phase, inputs []Field) (Field, error)
	NewBuffer() AggregationBuffer
	Reset(AggregationBuffer) error
	Update(AggregationBuffer, Row) error
	Merge(AggregationBuffer, *Record) error
	TerminatePartial(AggregationBuffer) (*Record, error)
	Terminate(AggregationBuffer) ([]byte, error)
	Close()
}

// Function returns evaluator behind the Function interface.
func (evaluator *Evaluator[S]) Function() Function {
	return &function[S]{evaluator: evaluator}
}

type function[S any] struct {
	evaluator *Evaluator[S]
}

func (fn *function[S]) buffer(agg AggregationBuffer) (*Buffer[S], error) {
	buf, ok := agg.(*Buffer[S])
	if !ok {
		return nil, errors.AssertionFailedf("%s: foreign aggregation buffer %T", fn.evaluator.sig.Name, agg)
	}
	return buf, nil
}

func (fn *function[S]) Name() string {
	return fn.evaluator.Name()
}

func (fn *function[S]) RecordShape() Field {
	return fn.evaluator.sig.RecordShape()
}

func (fn *function[S]) Init(phase Phase, inputs []Field) (Field, error) {
	return fn.evaluator.Init(phase, inputs)
}

func (fn *function[S]) NewBuffer() AggregationBuffer {
	return fn.evaluator.NewBuffer()
}

func (fn *function[S]) Reset(agg AggregationBuffer) error {
	buf, err := fn.buffer(agg)
	if err != nil {
		return err
	}
	return fn.evaluator.Reset(buf)
}

func (fn *function[S]) Update(agg AggregationBuffer, row Row) error {
	buf, err := fn.buffer(agg)
	if err != nil {
		return err
	}
	return fn.evaluator.Update(buf, row)
}

func (fn *function[S]) Merge(agg AggregationBuffer, record *Record) error {
	buf, err := fn.buffer(agg)
	if err != nil {
		return err
	}
	return fn.evaluator.Merge(buf, record)
}

func (fn *function[S]) TerminatePartial(agg AggregationBuffer) (*Record, error) {
	buf, err := fn.buffer(agg)
	if err != nil {
		return nil, err
	}
	return fn.evaluator.TerminatePartial(buf)
}

func (fn *function[S]) Terminate(agg AggregationBuffer) ([]byte, error) {
	buf, err := fn.buffer(agg)
	if err != nil {
		return nil, err
	}
	return fn.evaluator.Terminate(buf)
}

func (fn *function[S]) Close() {
	fn.evaluator.Close()
}
