package hll

import "sketchagg/core"

var (
	dataSignature = core.Signature{
		Name:         "hll_sketch",
		Input:        core.DataInput,
		Params:       []core.Param{core.ParamSize, core.ParamMode},
		ModeInRecord: true,
	}
	unionSignature = core.Signature{
		Name:         "hll_union",
		Input:        core.SketchInput,
		Params:       []core.Param{core.ParamSize, core.ParamMode},
		ModeInRecord: true,
	}
)

// NewDataToSketch builds sketches from keys: (key, [lgK], [mode]).
func NewDataToSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{}, dataSignature, opts...)
}

// NewUnionSketch unions serialized sketches: (sketch, [lgK], [mode]).
func NewUnionSketch(opts ...core.Option) *core.Evaluator[*Sketch] {
	return core.NewEvaluator[*Sketch](Engine{}, unionSignature, opts...)
}
