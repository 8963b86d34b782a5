package tuple

import (
	"fmt"

	"sketchagg/core"
)

var (
	doubleSignature = core.Signature{
		Name:   "tuple_double_sketch",
		Input:  core.DataInput,
		Values: 1,
		Params: []core.Param{core.ParamSize, core.ParamSampling},
	}
	doubleModeSignature = core.Signature{
		Name:         "tuple_double_mode_sketch",
		Input:        core.DataInput,
		Values:       1,
		Params:       []core.Param{core.ParamSize, core.ParamSampling, core.ParamMode},
		ModeInRecord: true,
	}
	doubleUnionSignature = core.Signature{
		Name:   "tuple_double_union",
		Input:  core.SketchInput,
		Params: []core.Param{core.ParamSize},
	}
	doubleModeUnionSignature = core.Signature{
		Name:         "tuple_double_mode_union",
		Input:        core.SketchInput,
		Params:       []core.Param{core.ParamSize, core.ParamMode},
		ModeInRecord: true,
	}
)

// NewDataToDoubleSummarySketch: (key, value, [nominal], [sampling]),
// values summed per key.
func NewDataToDoubleSummarySketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{NumValues: 1}, doubleSignature, opts...)
}

// NewDataToDoubleSummaryWithModeSketch: (key, value, [nominal], [sampling],
// [mode]).
func NewDataToDoubleSummaryWithModeSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{NumValues: 1}, doubleModeSignature, opts...)
}

// NewUnionDoubleSummarySketch: (sketch, [nominal]).
func NewUnionDoubleSummarySketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{NumValues: 1}, doubleUnionSignature, opts...)
}

// NewUnionDoubleSummaryWithModeSketch: (sketch, [nominal], [mode]).
func NewUnionDoubleSummaryWithModeSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{NumValues: 1}, doubleModeUnionSignature, opts...)
}

// NewDataToArrayOfDoublesSketch: (key, v1..vn, [nominal], [sampling],
// [seed]), each column summed per key.
func NewDataToArrayOfDoublesSketch(numValues int, opts ...core.Option) *core.Evaluator[*Sketch] {
	sig := core.Signature{
		Name:   fmt.Sprintf("tuple_array%d_sketch", numValues),
		Input:  core.DataInput,
		Values: numValues,
		Params: []core.Param{core.ParamSize, core.ParamSampling, core.ParamSeed},
	}
	return core.NewEvaluator[*Sketch](Engine{NumValues: numValues}, sig, opts...)
}

// NewUnionArrayOfDoublesSketch: (sketch, [nominal], [seed]).
func NewUnionArrayOfDoublesSketch(numValues int, opts ...core.Option) *core.Evaluator[*Sketch] {
	sig := core.Signature{
		Name:   fmt.Sprintf("tuple_array%d_union", numValues),
		Input:  core.SketchInput,
		Params: []core.Param{core.ParamSize, core.ParamSeed},
	}
	return core.NewEvaluator[*Sketch](Engine{NumValues: numValues}, sig, opts...)
}
