package core

// Engine is a mergeable summary. The evaluator treats summaries as opaque
// values of type S and only moves them through these operations.
type Engine[S any] interface {
	// Defaults is the configuration used when a row or record leaves a
	// field unset.
	Defaults() Config
	Validate(Config) error
	Build(Config) (S, error)
	Update(summary S, key []byte, values []float64) (S, error)
	Merge(dst, src S) (S, error)
	// Serialize produces the compact form. Equal summaries serialize to
	// equal bytes.
	Serialize(S) ([]byte, error)
	Deserialize([]byte, Config) (S, error)
	Estimate(S) float64
	RetainedCount(S) int
}

// InputKind says what the key column of a raw row carries.
type InputKind uint8

const (
	// DataInput rows carry a key to add to the summary.
	DataInput InputKind = iota
	// SketchInput rows carry a serialized summary to union in.
	SketchInput
)

// Signature binds an engine to a named function.
type Signature struct {
	Name   string
	Input  InputKind
	Values int
	// Params lists the optional trailing configuration columns in order.
	Params       []Param
	ModeInRecord bool
}

// RecordShape is the shape of the intermediate record this function emits
// and accepts.
func (sig Signature) RecordShape() Field {
	fields := []Field{{Name: "size", Kind: KindInt32}}
	if sig.ModeInRecord {
		fields = append(fields, Field{Name: "mode", Kind: KindString})
	}
	fields = append(fields, Field{Name: "sketch", Kind: KindBytes})
	return Field{Name: sig.Name, Kind: KindRecord, Fields: fields}
}

func (sig Signature) checkRaw(inputs []Field) error {
	least, most := 1+sig.Values, 1+sig.Values+len(sig.Params)
	if len(inputs) < least || len(inputs) > most {
		return schemaMismatchf("%s: expected %d to %d columns, got %d", sig.Name, least, most, len(inputs))
	}
	switch sig.Input {
	case SketchInput:
		if inputs[0].Kind != KindBytes {
			return schemaMismatchf("%s: sketch column must be bytes, got %s", sig.Name, inputs[0].Kind)
		}
	default:
		if !inputs[0].Kind.key() {
			return schemaMismatchf("%s: unsupported key column %s", sig.Name, inputs[0].Kind)
		}
	}
	for i := 1; i <= sig.Values; i++ {
		if !inputs[i].Kind.numeric() {
			return schemaMismatchf("%s: value column %d must be numeric, got %s", sig.Name, i, inputs[i].Kind)
		}
	}
	for i, field := range inputs[least:] {
		param := sig.Params[i]
		if !param.accepts(field.Kind) {
			return schemaMismatchf("%s: %s column cannot be %s", sig.Name, param, field.Kind)
		}
	}
	return nil
}

func (sig Signature) checkPartial(inputs []Field) error {
	if len(inputs) != 1 {
		return schemaMismatchf("%s: expected a single record column, got %d", sig.Name, len(inputs))
	}
	if want := sig.RecordShape(); !inputs[0].SameShape(want) {
		return schemaMismatchf("%s: expected %s, got %s", sig.Name, want, inputs[0])
	}
	return nil
}
