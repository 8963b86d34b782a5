package functions

import (
	"sort"

	"github.com/cockroachdb/errors"
	"sketchagg/core"
	"sketchagg/frequencies"
	"sketchagg/hll"
	"sketchagg/tuple"
)

var ErrUnknownFunction = errors.New("unknown function")

// Summary is what describe reports about a serialized sketch.
type Summary struct {
	Estimate float64
	Retained int
}

// Spec is a registered aggregate function.
type Spec struct {
	Name  string
	Input core.InputKind
	// Inputs is the raw column shape hosts feed in PARTIAL1 and COMPLETE,
	// without the optional configuration columns.
	Inputs   []core.Field
	New      func(opts ...core.Option) core.Function
	Describe func(serialized []byte, overrides core.Config) (Summary, error)
}

func describe[S any](engine core.Engine[S]) func([]byte, core.Config) (Summary, error) {
	return func(serialized []byte, overrides core.Config) (Summary, error) {
		config := engine.Defaults().Overlay(overrides)
		summary, err := engine.Deserialize(serialized, config)
		if err != nil {
			return Summary{}, errors.Mark(errors.Wrap(err, "deserializing sketch"), core.ErrDecodeFailure)
		}
		return Summary{Estimate: engine.Estimate(summary), Retained: engine.RetainedCount(summary)}, nil
	}
}

var (
	keyInputs    = []core.Field{{Name: "key", Kind: core.KindString}}
	valueInputs  = []core.Field{{Name: "key", Kind: core.KindString}, {Name: "value", Kind: core.KindFloat64}}
	sketchInputs = []core.Field{{Name: "sketch", Kind: core.KindBytes}}
)

func erase[S any](build func(...core.Option) *core.Evaluator[S]) func(...core.Option) core.Function {
	return func(opts ...core.Option) core.Function {
		return build(opts...).Function()
	}
}

var registry = map[string]Spec{
	"hll_sketch": {
		Input: core.DataInput, Inputs: keyInputs,
		New: erase(hll.NewDataToSketch), Describe: describe[*hll.Sketch](hll.Engine{}),
	},
	"hll_union": {
		Input: core.SketchInput, Inputs: sketchInputs,
		New: erase(hll.NewUnionSketch), Describe: describe[*hll.Sketch](hll.Engine{}),
	},
	"tuple_double_sketch": {
		Input: core.DataInput, Inputs: valueInputs,
		New: erase(tuple.NewDataToDoubleSummarySketch), Describe: describe[*tuple.Sketch](tuple.Engine{NumValues: 1}),
	},
	"tuple_double_mode_sketch": {
		Input: core.DataInput, Inputs: valueInputs,
		New: erase(tuple.NewDataToDoubleSummaryWithModeSketch), Describe: describe[*tuple.Sketch](tuple.Engine{NumValues: 1}),
	},
	"tuple_double_union": {
		Input: core.SketchInput, Inputs: sketchInputs,
		New: erase(tuple.NewUnionDoubleSummarySketch), Describe: describe[*tuple.Sketch](tuple.Engine{NumValues: 1}),
	},
	"tuple_double_mode_union": {
		Input: core.SketchInput, Inputs: sketchInputs,
		New: erase(tuple.NewUnionDoubleSummaryWithModeSketch), Describe: describe[*tuple.Sketch](tuple.Engine{NumValues: 1}),
	},
	"items_sketch": {
		Input: core.DataInput, Inputs: keyInputs,
		New: erase(frequencies.NewDataToItemsSketch), Describe: describe[*frequencies.Sketch](frequencies.Engine{}),
	},
	"items_union": {
		Input: core.SketchInput, Inputs: sketchInputs,
		New: erase(frequencies.NewUnionItemsSketch), Describe: describe[*frequencies.Sketch](frequencies.Engine{}),
	},
}

func Lookup(name string) (Spec, error) {
	spec, ok := registry[name]
	if !ok {
		return Spec{}, errors.Wrapf(ErrUnknownFunction, "%q", name)
	}
	spec.Name = name
	return spec, nil
}

// Combination is a two-input function over serialized sketches.
type Combination interface {
	Evaluate(a, b []byte) ([]byte, error)
	EvaluateWithSeed(a, b []byte, seed uint64) ([]byte, error)
}

// SetOperationSpec is a registered set operation. Its results read back
// with Describe.
type SetOperationSpec struct {
	Name     string
	New      func(opts ...core.Option) Combination
	Describe func(serialized []byte, overrides core.Config) (Summary, error)
}

var setOperations = map[string]SetOperationSpec{
	"tuple_double_intersect": {
		New: func(opts ...core.Option) Combination {
			return tuple.NewIntersectDoubleSummarySketch(opts...)
		},
		Describe: describe[*tuple.Sketch](tuple.Engine{NumValues: 1}),
	},
}

func LookupSetOperation(name string) (SetOperationSpec, error) {
	spec, ok := setOperations[name]
	if !ok {
		return SetOperationSpec{}, errors.Wrapf(ErrUnknownFunction, "%q", name)
	}
	spec.Name = name
	return spec, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
