package core

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type state uint8

const (
	uninitialized state = iota
	active
	terminated
)

// Evaluator drives one aggregate function through a single phase. It holds
// no per-group state; that lives in the buffers it creates.
type Evaluator[S any] struct {
	engine   Engine[S]
	sig      Signature
	defaults Config
	logger   *zap.Logger

	state  state
	phase  Phase
	inputs []Field
}

func NewEvaluator[S any](engine Engine[S], sig Signature, opts ...Option) *Evaluator[S] {
	o := buildOptions(opts)
	return &Evaluator[S]{
		engine:   engine,
		sig:      sig,
		defaults: engine.Defaults().Overlay(o.defaults),
		logger:   o.logger.With(zap.String("function", sig.Name)),
	}
}

func (evaluator *Evaluator[S]) Name() string {
	return evaluator.sig.Name
}

func (evaluator *Evaluator[S]) Signature() Signature {
	return evaluator.sig
}

func (evaluator *Evaluator[S]) Phase() Phase {
	return evaluator.phase
}

// Init fixes the phase and checks the input shapes. It returns the shape of
// what TerminatePartial or Terminate will produce.
func (evaluator *Evaluator[S]) Init(phase Phase, inputs []Field) (Field, error) {
	name := evaluator.sig.Name
	switch evaluator.state {
	case active:
		return Field{}, errors.AssertionFailedf("%s: evaluator already initialized", name)
	case terminated:
		return Field{}, errors.AssertionFailedf("%s: evaluator closed", name)
	}
	if !phase.valid() {
		return Field{}, schemaMismatchf("%s: unknown phase %s", name, phase)
	}
	if err := evaluator.engine.Validate(evaluator.defaults); err != nil {
		return Field{}, errors.Mark(errors.Wrapf(err, "%s: default configuration", name), ErrInvalidArgument)
	}

	var err error
	if phase.consumesRows() {
		err = evaluator.sig.checkRaw(inputs)
	} else {
		err = evaluator.sig.checkPartial(inputs)
	}
	if err != nil {
		return Field{}, err
	}

	evaluator.phase = phase
	evaluator.inputs = inputs
	evaluator.state = active
	evaluator.logger.Debug("initialized", zap.Stringer("phase", phase), zap.Int("columns", len(inputs)))

	if phase == Partial1 || phase == Partial2 {
		return evaluator.sig.RecordShape(), nil
	}
	return Field{Name: "sketch", Kind: KindBytes}, nil
}

// NewBuffer returns an empty, unbound buffer.
func (evaluator *Evaluator[S]) NewBuffer() *Buffer[S] {
	return &Buffer[S]{owner: evaluator}
}

// Reset returns buf to its empty state.
func (evaluator *Evaluator[S]) Reset(buf *Buffer[S]) error {
	if err := evaluator.check("reset", buf); err != nil {
		return err
	}
	buf.reset()
	return nil
}

// Update folds one raw row into buf. Rows with a null key or value are
// skipped.
func (evaluator *Evaluator[S]) Update(buf *Buffer[S], row Row) error {
	if err := evaluator.check("update", buf, Partial1, Complete); err != nil {
		return err
	}
	name := evaluator.sig.Name
	if len(row) != len(evaluator.inputs) {
		return schemaMismatchf("%s: row has %d columns, expected %d", name, len(row), len(evaluator.inputs))
	}
	if row[0] == nil {
		return nil
	}

	values := make([]float64, evaluator.sig.Values)
	for i := range values {
		v := row[1+i]
		if v == nil {
			return nil
		}
		f, ok := floatValue(v)
		if !ok {
			return schemaMismatchf("%s: value column %d holds %T", name, 1+i, v)
		}
		values[i] = f
	}

	config, supplied := evaluator.parseConfig(buf, row[1+evaluator.sig.Values:])
	if !buf.bound {
		summary, err := evaluator.engine.Build(config)
		if err != nil {
			return errors.Wrapf(err, "%s: building summary", name)
		}
		buf.bind(summary, config)
	} else {
		for _, param := range supplied {
			if !param.same(config, buf.config) {
				evaluator.ignore(buf, errors.Newf("row configuration %+v differs from bound %+v", config, buf.config))
				break
			}
		}
	}

	if evaluator.sig.Input == SketchInput {
		return evaluator.union(buf, row[0])
	}

	key, ok := KeyBytes(row[0])
	if !ok {
		return schemaMismatchf("%s: key column holds %T", name, row[0])
	}
	if len(key) == 0 {
		return nil
	}
	summary, err := evaluator.engine.Update(buf.summary, key, values)
	if err != nil {
		return errors.Wrapf(err, "%s: updating summary", name)
	}
	buf.summary = summary
	return nil
}

func (evaluator *Evaluator[S]) union(buf *Buffer[S], value interface{}) error {
	name := evaluator.sig.Name
	serialized, ok := value.([]byte)
	if !ok {
		return schemaMismatchf("%s: sketch column holds %T", name, value)
	}
	if len(serialized) == 0 {
		return nil
	}
	incoming, err := evaluator.engine.Deserialize(serialized, buf.config)
	if err != nil {
		return decodeFailure(err, "%s: deserializing sketch", name)
	}
	merged, err := evaluator.engine.Merge(buf.summary, incoming)
	if err != nil {
		return decodeFailure(err, "%s: merging sketch", name)
	}
	buf.summary = merged
	return nil
}

// parseConfig reads the trailing configuration columns over the evaluator
// defaults. Columns that do not parse or do not validate are ignored.
// supplied lists the parameters taken from non-null columns.
func (evaluator *Evaluator[S]) parseConfig(buf *Buffer[S], columns Row) (config Config, supplied []Param) {
	config = evaluator.defaults
	for i, value := range columns {
		if value == nil || i >= len(evaluator.sig.Params) {
			continue
		}
		param := evaluator.sig.Params[i]
		next, err := param.apply(config, value)
		if err == nil {
			err = evaluator.engine.Validate(next)
		}
		if err != nil {
			evaluator.ignore(buf, errors.Wrapf(err, "%s column", param))
			continue
		}
		config = next
		supplied = append(supplied, param)
	}
	return config, supplied
}

func (evaluator *Evaluator[S]) ignore(buf *Buffer[S], err error) {
	buf.ignored++
	evaluator.logger.Debug("ignoring configuration",
		zap.Error(errors.Mark(err, ErrInvalidArgument)),
		zap.Int("ignored", buf.ignored))
}

func (evaluator *Evaluator[S]) recordConfig(record *Record) Config {
	config := evaluator.defaults
	config.Size = int(record.Size)
	if record.HasMode {
		config.Mode = Mode(record.Mode)
	}
	return config
}

// Merge folds an intermediate record into buf. A nil record is a no-op.
func (evaluator *Evaluator[S]) Merge(buf *Buffer[S], record *Record) error {
	if err := evaluator.check("merge", buf, Partial2, Final); err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	name := evaluator.sig.Name
	if record.HasMode != evaluator.sig.ModeInRecord {
		return decodeFailuref("%s: record mode presence is %t, expected %t", name, record.HasMode, evaluator.sig.ModeInRecord)
	}

	config := evaluator.recordConfig(record)
	if !buf.bound {
		if err := evaluator.engine.Validate(config); err != nil {
			return decodeFailure(err, "%s: record configuration", name)
		}
		summary, err := evaluator.engine.Deserialize(record.Sketch, config)
		if err != nil {
			return decodeFailure(err, "%s: deserializing partial", name)
		}
		buf.bind(summary, config)
		return nil
	}

	if config != buf.config {
		evaluator.ignore(buf, errors.Newf("partial configuration %+v differs from bound %+v", config, buf.config))
	}
	incoming, err := evaluator.engine.Deserialize(record.Sketch, buf.config)
	if err != nil {
		return decodeFailure(err, "%s: deserializing partial", name)
	}
	merged, err := evaluator.engine.Merge(buf.summary, incoming)
	if err != nil {
		return decodeFailure(err, "%s: merging partial", name)
	}
	buf.summary = merged
	return nil
}

// TerminatePartial returns the intermediate record for buf, or nil if buf
// never bound.
func (evaluator *Evaluator[S]) TerminatePartial(buf *Buffer[S]) (*Record, error) {
	if err := evaluator.check("terminatePartial", buf); err != nil {
		return nil, err
	}
	if !buf.bound {
		return nil, nil
	}
	serialized, err := evaluator.engine.Serialize(buf.summary)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: serializing summary", evaluator.sig.Name)
	}
	record := &Record{Size: int32(buf.config.Size), Sketch: serialized}
	if evaluator.sig.ModeInRecord {
		record.HasMode = true
		record.Mode = string(buf.config.Mode)
	}
	return record, nil
}

// Terminate returns the serialized summary for buf, or nil if buf never
// bound.
func (evaluator *Evaluator[S]) Terminate(buf *Buffer[S]) ([]byte, error) {
	if err := evaluator.check("terminate", buf); err != nil {
		return nil, err
	}
	if !buf.bound {
		return nil, nil
	}
	serialized, err := evaluator.engine.Serialize(buf.summary)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: serializing summary", evaluator.sig.Name)
	}
	return serialized, nil
}

// Estimate returns the engine estimate for buf. ok is false if buf never
// bound.
func (evaluator *Evaluator[S]) Estimate(buf *Buffer[S]) (estimate float64, ok bool) {
	if buf == nil || !buf.bound {
		return 0, false
	}
	return evaluator.engine.Estimate(buf.summary), true
}

// Close ends the evaluator. Buffers it created must not be used again.
func (evaluator *Evaluator[S]) Close() {
	evaluator.state = terminated
}

func (evaluator *Evaluator[S]) check(op string, buf *Buffer[S], phases ...Phase) error {
	name := evaluator.sig.Name
	switch evaluator.state {
	case uninitialized:
		return errors.AssertionFailedf("%s: %s before init", name, op)
	case terminated:
		return errors.AssertionFailedf("%s: %s after close", name, op)
	}
	if buf == nil || buf.owner != evaluator {
		return errors.AssertionFailedf("%s: %s on a buffer from another evaluator", name, op)
	}
	if len(phases) == 0 {
		return nil
	}
	for _, phase := range phases {
		if evaluator.phase == phase {
			return nil
		}
	}
	return errors.AssertionFailedf("%s: %s not allowed in phase %s", name, op, evaluator.phase)
}
