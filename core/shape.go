package core

import (
	"fmt"
	"strings"
)

type Kind uint8

const (
	KindInt32 Kind = iota + 1
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindRecord
	KindFloat64List
)

var kindNames = map[Kind]string{
	KindInt32:       "int32",
	KindInt64:       "int64",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindString:      "string",
	KindBytes:       "bytes",
	KindRecord:      "record",
	KindFloat64List: "list<float64>",
}

func (kind Kind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(kind))
}

func (kind Kind) numeric() bool {
	switch kind {
	case KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	}
	return false
}

func (kind Kind) key() bool {
	return kind.numeric() || kind == KindString || kind == KindBytes
}

// Field describes one column. Record fields carry their ordered sub-fields.
type Field struct {
	Name   string
	Kind   Kind
	Fields []Field
}

func (field Field) String() string {
	var sb strings.Builder
	if field.Name != "" {
		sb.WriteString(field.Name)
		sb.WriteByte(' ')
	}
	sb.WriteString(field.Kind.String())
	if field.Kind == KindRecord {
		sb.WriteByte('(')
		for i, sub := range field.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(sub.String())
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// SameShape compares kinds recursively and ignores names.
func (field Field) SameShape(other Field) bool {
	if field.Kind != other.Kind || len(field.Fields) != len(other.Fields) {
		return false
	}
	for i := range field.Fields {
		if !field.Fields[i].SameShape(other.Fields[i]) {
			return false
		}
	}
	return true
}
