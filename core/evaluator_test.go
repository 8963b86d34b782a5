package core

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newSetEvaluator(t *testing.T, phase Phase, opts ...Option) *Evaluator[*keySet] {
	t.Helper()
	evaluator := NewEvaluator[*keySet](setEngine{}, setSignature, opts...)
	inputs := setRawInputs
	if !phase.consumesRows() {
		inputs = []Field{setSignature.RecordShape()}
	}
	_, err := evaluator.Init(phase, inputs)
	require.NoError(t, err)
	return evaluator
}

func summaryKeys(t *testing.T, buf *Buffer[*keySet]) map[string]float64 {
	t.Helper()
	set, ok := buf.Summary()
	require.True(t, ok)
	return set.keys
}

func TestInitShapes(t *testing.T) {
	recordShape := Field{Name: "set_sketch", Kind: KindRecord, Fields: []Field{
		{Name: "size", Kind: KindInt32},
		{Name: "mode", Kind: KindString},
		{Name: "sketch", Kind: KindBytes},
	}}
	assert.Empty(t, cmp.Diff(recordShape, setSignature.RecordShape()))

	for _, tc := range []struct {
		name   string
		phase  Phase
		inputs []Field
		want   Field
		err    bool
	}{
		{"partial1 all columns", Partial1, setRawInputs, recordShape, false},
		{"partial1 no config", Partial1, setRawInputs[:2], recordShape, false},
		{"complete", Complete, setRawInputs[:3], Field{Name: "sketch", Kind: KindBytes}, false},
		{"partial2", Partial2, []Field{recordShape}, recordShape, false},
		{"final renamed record", Final, []Field{{Name: "x", Kind: KindRecord, Fields: recordShape.Fields}}, Field{Name: "sketch", Kind: KindBytes}, false},
		{"missing value", Partial1, setRawInputs[:1], Field{}, true},
		{"too many columns", Partial1, append(setRawInputs[:5:5], Field{Kind: KindInt64}), Field{}, true},
		{"list key", Partial1, []Field{{Kind: KindFloat64List}, {Kind: KindFloat64}}, Field{}, true},
		{"string value", Complete, []Field{{Kind: KindInt64}, {Kind: KindString}}, Field{}, true},
		{"float size", Partial1, []Field{{Kind: KindInt64}, {Kind: KindFloat64}, {Kind: KindFloat64}}, Field{}, true},
		{"raw in final", Final, setRawInputs, Field{}, true},
		{"record without mode", Partial2, []Field{{Kind: KindRecord, Fields: []Field{{Kind: KindInt32}, {Kind: KindBytes}}}}, Field{}, true},
		{"unknown phase", Phase(9), setRawInputs, Field{}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			evaluator := NewEvaluator[*keySet](setEngine{}, setSignature)
			got, err := evaluator.Init(tc.phase, tc.inputs)
			if tc.err {
				assert.True(t, errors.Is(err, ErrSchemaMismatch), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tc.want, got))
		})
	}
}

func TestInitTwice(t *testing.T) {
	evaluator := newSetEvaluator(t, Partial1)
	_, err := evaluator.Init(Partial1, setRawInputs)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestInitInvalidDefaults(t *testing.T) {
	evaluator := NewEvaluator[*keySet](setEngine{}, setSignature, WithDefaults(Config{Size: 1000}))
	_, err := evaluator.Init(Partial1, setRawInputs)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestUnionRequiresBytes(t *testing.T) {
	evaluator := NewEvaluator[*keySet](setEngine{}, setUnionSignature)
	_, err := evaluator.Init(Complete, []Field{{Kind: KindString}})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestCallsBeforeInit(t *testing.T) {
	evaluator := NewEvaluator[*keySet](setEngine{}, setSignature)
	buf := evaluator.NewBuffer()
	assert.True(t, errors.HasAssertionFailure(evaluator.Update(buf, Row{"a", 1.0})))
	assert.True(t, errors.HasAssertionFailure(evaluator.Reset(buf)))
	_, err := evaluator.Terminate(buf)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestClose(t *testing.T) {
	evaluator := newSetEvaluator(t, Complete)
	buf := evaluator.NewBuffer()
	require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, nil, nil, nil}))
	evaluator.Close()

	assert.True(t, errors.HasAssertionFailure(evaluator.Update(buf, Row{"b", 1.0, nil, nil, nil})))
	_, err := evaluator.Terminate(buf)
	assert.True(t, errors.HasAssertionFailure(err))
	_, err = evaluator.Init(Complete, setRawInputs)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestPhaseGating(t *testing.T) {
	partial1 := newSetEvaluator(t, Partial1)
	assert.True(t, errors.HasAssertionFailure(partial1.Merge(partial1.NewBuffer(), &Record{})))

	final := newSetEvaluator(t, Final)
	assert.True(t, errors.HasAssertionFailure(final.Update(final.NewBuffer(), Row{"a", 1.0, nil, nil, nil})))
}

func TestForeignBuffer(t *testing.T) {
	a := newSetEvaluator(t, Complete)
	b := newSetEvaluator(t, Complete)
	err := a.Update(b.NewBuffer(), Row{"a", 1.0, nil, nil, nil})
	assert.True(t, errors.HasAssertionFailure(err))
	assert.True(t, errors.HasAssertionFailure(a.Reset(nil)))
}

func TestNullPropagation(t *testing.T) {
	evaluator := newSetEvaluator(t, Partial1)
	buf := evaluator.NewBuffer()

	record, err := evaluator.TerminatePartial(buf)
	require.NoError(t, err)
	assert.Nil(t, record)
	result, err := evaluator.Terminate(buf)
	require.NoError(t, err)
	assert.Nil(t, result)
	_, ok := evaluator.Estimate(buf)
	assert.False(t, ok)

	// null key, null value: skipped before binding
	require.NoError(t, evaluator.Update(buf, Row{nil, 1.0, nil, nil, nil}))
	require.NoError(t, evaluator.Update(buf, Row{"a", nil, int32(16), nil, nil}))
	assert.False(t, buf.Bound())
	record, err = evaluator.TerminatePartial(buf)
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestEmptyKeyBindsWithoutAdding(t *testing.T) {
	evaluator := newSetEvaluator(t, Complete)
	buf := evaluator.NewBuffer()
	require.NoError(t, evaluator.Update(buf, Row{"", 1.0, int32(16), nil, nil}))
	assert.True(t, buf.Bound())
	assert.Equal(t, 16, buf.Config().Size)
	assert.Empty(t, summaryKeys(t, buf))

	result, err := evaluator.Terminate(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("set|"), result)
}

func TestUpdateAndTerminate(t *testing.T) {
	evaluator := newSetEvaluator(t, Complete)
	buf := evaluator.NewBuffer()
	for _, row := range []Row{
		{"a", 1.0, nil, nil, nil},
		{"b", int64(2), nil, nil, nil},
		{"a", float32(0.5), nil, nil, nil},
		{int64(7), 1.0, nil, nil, nil},
	} {
		require.NoError(t, evaluator.Update(buf, row))
	}
	keys := summaryKeys(t, buf)
	assert.Equal(t, 1.5, keys["a"])
	assert.Equal(t, 2.0, keys["b"])
	assert.Len(t, keys, 3)

	estimate, ok := evaluator.Estimate(buf)
	assert.True(t, ok)
	assert.Equal(t, 3.0, estimate)

	assert.True(t, errors.Is(evaluator.Update(buf, Row{"a", "x", nil, nil, nil}), ErrSchemaMismatch))
	assert.True(t, errors.Is(evaluator.Update(buf, Row{[]int{1}, 1.0, nil, nil, nil}), ErrSchemaMismatch))
	assert.True(t, errors.Is(evaluator.Update(buf, Row{"a", 1.0}), ErrSchemaMismatch))
}

func TestFirstRowConfigurationWins(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	evaluator := newSetEvaluator(t, Partial1, WithLogger(zap.New(core)))
	buf := evaluator.NewBuffer()

	require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, int32(16), nil, "Max"}))
	require.NoError(t, evaluator.Update(buf, Row{"a", 3.0, int32(32), nil, "Sum"}))
	require.NoError(t, evaluator.Update(buf, Row{"a", 2.0, nil, nil, nil}))

	assert.Equal(t, Config{Size: 16, Sampling: 1, Mode: "Max", Seed: DefaultSeed}, buf.Config())
	assert.Equal(t, 1, buf.Ignored())
	assert.Equal(t, 3.0, summaryKeys(t, buf)["a"])

	record, err := evaluator.TerminatePartial(buf)
	require.NoError(t, err)
	assert.Equal(t, int32(16), record.Size)
	assert.True(t, record.HasMode)
	assert.Equal(t, "Max", record.Mode)

	entries := logs.FilterMessage("ignoring configuration").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "set_sketch", entries[0].ContextMap()["function"])
}

// Only the columns a later row supplies are compared with the bound
// configuration.
func TestLaterRowComparesSuppliedColumns(t *testing.T) {
	evaluator := newSetEvaluator(t, Partial1)
	buf := evaluator.NewBuffer()
	size := int32(setEngine{}.Defaults().Size)

	require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, nil, nil, "Max"}))
	require.NoError(t, evaluator.Update(buf, Row{"b", 1.0, size, nil, nil}))
	require.NoError(t, evaluator.Update(buf, Row{"c", 1.0, nil, 1.0, "Max"}))
	assert.Equal(t, 0, buf.Ignored())

	require.NoError(t, evaluator.Update(buf, Row{"d", 1.0, size, nil, "Sum"}))
	assert.Equal(t, 1, buf.Ignored())
	assert.Equal(t, Mode("Max"), buf.Config().Mode)
}

func TestInvalidConfigurationKeepsDefault(t *testing.T) {
	evaluator := newSetEvaluator(t, Partial1)
	buf := evaluator.NewBuffer()

	require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, int32(1000), 1.5, "Median"}))
	assert.Equal(t, setEngine{}.Defaults(), buf.Config())
	assert.Equal(t, 3, buf.Ignored())

	// a sampling of 0.5 is accepted by the parser and stays bound
	other := evaluator.NewBuffer()
	require.NoError(t, evaluator.Update(other, Row{"a", 1.0, int64(4), float32(0.5), nil}))
	assert.Equal(t, Config{Size: 4, Sampling: 0.5, Mode: "Sum", Seed: DefaultSeed}, other.Config())
	assert.Equal(t, 0, other.Ignored())
}

func TestWithDefaults(t *testing.T) {
	evaluator := newSetEvaluator(t, Partial1, WithDefaults(Config{Size: 32, Mode: "Max"}))
	buf := evaluator.NewBuffer()
	require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, nil, nil, nil}))
	assert.Equal(t, Config{Size: 32, Sampling: 1, Mode: "Max", Seed: DefaultSeed}, buf.Config())
}

func TestResetThenTerminateIsNull(t *testing.T) {
	for _, phase := range []Phase{Partial1, Complete} {
		evaluator := newSetEvaluator(t, phase)
		buf := evaluator.NewBuffer()
		require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, int32(16), nil, "Max"}))
		require.NoError(t, evaluator.Update(buf, Row{"a", 1.0, int32(32), nil, nil}))
		require.True(t, buf.Bound())

		require.NoError(t, evaluator.Reset(buf))
		assert.False(t, buf.Bound())
		assert.Equal(t, 0, buf.Ignored())
		assert.Equal(t, Config{}, buf.Config())
		record, err := evaluator.TerminatePartial(buf)
		require.NoError(t, err)
		assert.Nil(t, record)
		result, err := evaluator.Terminate(buf)
		require.NoError(t, err)
		assert.Nil(t, result)

		// rebinding after reset takes the new row's configuration
		require.NoError(t, evaluator.Update(buf, Row{"b", 1.0, int32(32), nil, nil}))
		assert.Equal(t, 32, buf.Config().Size)
	}
}

func partialOf(t *testing.T, rows ...Row) *Record {
	t.Helper()
	evaluator := newSetEvaluator(t, Partial1)
	buf := evaluator.NewBuffer()
	for _, row := range rows {
		require.NoError(t, evaluator.Update(buf, row))
	}
	record, err := evaluator.TerminatePartial(buf)
	require.NoError(t, err)
	return record
}

func TestMerge(t *testing.T) {
	first := partialOf(t, Row{"a", 1.0, int32(16), nil, nil}, Row{"b", 2.0, nil, nil, nil})
	second := partialOf(t, Row{"b", 3.0, nil, nil, nil}, Row{"c", 4.0, nil, nil, nil})

	final := newSetEvaluator(t, Final)
	buf := final.NewBuffer()
	require.NoError(t, final.Merge(buf, nil))
	assert.False(t, buf.Bound())

	require.NoError(t, final.Merge(buf, first))
	assert.Equal(t, 16, buf.Config().Size)
	require.NoError(t, final.Merge(buf, nil))
	require.NoError(t, final.Merge(buf, second))

	// second was built with size 8, which is ignored
	assert.Equal(t, 1, buf.Ignored())
	assert.Equal(t, map[string]float64{"a": 1, "b": 5, "c": 4}, summaryKeys(t, buf))

	result, err := final.Terminate(buf)
	require.NoError(t, err)
	assert.Equal(t, `set|"a"=1;"b"=5;"c"=4;`, string(result))
}

func TestMergeOrderDoesNotMatter(t *testing.T) {
	records := []*Record{
		partialOf(t, Row{"a", 1.0, nil, nil, nil}),
		partialOf(t, Row{"a", 2.0, nil, nil, nil}, Row{"b", 1.0, nil, nil, nil}),
		partialOf(t, Row{"c", 5.0, nil, nil, nil}),
	}
	terminate := func(order ...int) []byte {
		final := newSetEvaluator(t, Final)
		buf := final.NewBuffer()
		for _, i := range order {
			require.NoError(t, final.Merge(buf, records[i]))
		}
		result, err := final.Terminate(buf)
		require.NoError(t, err)
		return result
	}
	want := terminate(0, 1, 2)
	assert.Equal(t, want, terminate(2, 1, 0))
	assert.Equal(t, want, terminate(1, 2, 0))
}

func TestPartial2EmitsRecord(t *testing.T) {
	partial2 := newSetEvaluator(t, Partial2)
	buf := partial2.NewBuffer()
	require.NoError(t, partial2.Merge(buf, partialOf(t, Row{"a", 1.0, nil, nil, "Max"})))
	require.NoError(t, partial2.Merge(buf, partialOf(t, Row{"a", 4.0, nil, nil, "Max"})))

	record, err := partial2.TerminatePartial(buf)
	require.NoError(t, err)
	assert.Equal(t, &Record{Size: 8, HasMode: true, Mode: "Max", Sketch: []byte(`set|"a"=4;`)}, record)
}

func TestMergeDecodeFailures(t *testing.T) {
	final := newSetEvaluator(t, Final)

	err := final.Merge(final.NewBuffer(), &Record{Size: 8, Sketch: []byte("set|")})
	assert.True(t, errors.Is(err, ErrDecodeFailure), "mode presence: %v", err)

	err = final.Merge(final.NewBuffer(), &Record{Size: 8, HasMode: true, Mode: "Sum", Sketch: []byte("garbage")})
	assert.True(t, errors.Is(err, ErrDecodeFailure), "unbound: %v", err)

	err = final.Merge(final.NewBuffer(), &Record{Size: 999, HasMode: true, Mode: "Sum", Sketch: []byte("set|")})
	assert.True(t, errors.Is(err, ErrDecodeFailure), "config: %v", err)

	buf := final.NewBuffer()
	require.NoError(t, final.Merge(buf, &Record{Size: 8, HasMode: true, Mode: "Sum", Sketch: []byte("set|")}))
	err = final.Merge(buf, &Record{Size: 8, HasMode: true, Mode: "Sum", Sketch: []byte("garbage")})
	assert.True(t, errors.Is(err, ErrDecodeFailure), "bound: %v", err)
}

func TestUnionInput(t *testing.T) {
	evaluator := NewEvaluator[*keySet](setEngine{}, setUnionSignature)
	_, err := evaluator.Init(Complete, []Field{{Kind: KindBytes}, {Kind: KindInt64}})
	require.NoError(t, err)

	buf := evaluator.NewBuffer()
	require.NoError(t, evaluator.Update(buf, Row{nil, nil}))
	assert.False(t, buf.Bound())
	require.NoError(t, evaluator.Update(buf, Row{[]byte(`set|"a"=1;`), int64(16)}))
	require.NoError(t, evaluator.Update(buf, Row{[]byte{}, nil}))
	require.NoError(t, evaluator.Update(buf, Row{[]byte(`set|"a"=2;"b"=1;`), nil}))
	assert.Equal(t, map[string]float64{"a": 3, "b": 1}, summaryKeys(t, buf))
	assert.Equal(t, 16, buf.Config().Size)

	err = evaluator.Update(buf, Row{[]byte("nope"), nil})
	assert.True(t, errors.Is(err, ErrDecodeFailure))
	err = evaluator.Update(buf, Row{"set|", nil})
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestFunctionAdapter(t *testing.T) {
	evaluator := NewEvaluator[*keySet](setEngine{}, setSignature)
	fn := evaluator.Function()
	assert.Equal(t, "set_sketch", fn.Name())
	assert.Empty(t, cmp.Diff(setSignature.RecordShape(), fn.RecordShape()))

	_, err := fn.Init(Partial1, setRawInputs[:2])
	require.NoError(t, err)
	buf := fn.NewBuffer()
	require.NoError(t, fn.Update(buf, Row{"a", 1.0}))
	assert.True(t, buf.Bound())
	assert.Equal(t, 0, buf.Ignored())

	record, err := fn.TerminatePartial(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte(`set|"a"=1;`), record.Sketch)
	result, err := fn.Terminate(buf)
	require.NoError(t, err)
	assert.Equal(t, record.Sketch, result)
	require.NoError(t, fn.Reset(buf))
	assert.False(t, buf.Bound())

	other := NewEvaluator[*keySet](setEngine{}, setUnionSignature).Function()
	foreign := other.NewBuffer()
	assert.True(t, errors.HasAssertionFailure(fn.Update(foreign, Row{"a", 1.0})))
	assert.True(t, errors.HasAssertionFailure(fn.Merge(foreign, nil)))
	assert.True(t, errors.HasAssertionFailure(fn.Reset(foreign)))

	type strangeBuffer struct{ AggregationBuffer }
	_, err = fn.Terminate(strangeBuffer{})
	assert.True(t, errors.HasAssertionFailure(err))

	fn.Close()
	assert.True(t, errors.HasAssertionFailure(fn.Update(buf, Row{"a", 1.0})))
}

func TestParsePhase(t *testing.T) {
	for _, phase := range []Phase{Partial1, Partial2, Final, Complete} {
		parsed, err := ParsePhase(phase.String())
		require.NoError(t, err)
		assert.Equal(t, phase, parsed)
	}
	parsed, err := ParsePhase("partial2")
	require.NoError(t, err)
	assert.Equal(t, Partial2, parsed)
	_, err = ParsePhase("partial3")
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Equal(t, "Phase(7)", Phase(7).String())
}
