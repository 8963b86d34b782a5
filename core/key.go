package core

import (
	"encoding/binary"
	"math"
)

// Row is one input row: key column, value columns, then optional
// configuration columns. A nil entry is a null.
type Row []interface{}

var canonicalNaN = math.Float64bits(math.NaN())

// KeyBytes canonicalises a key value. Integers become 8-byte little-endian
// int64, floats their float64 bits with -0 folded into 0 and a single NaN,
// strings their UTF-8 bytes. ok is false for unsupported types.
func KeyBytes(value interface{}) (key []byte, ok bool) {
	if n, isInt := intValue(value); isInt {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, true
	}
	switch v := value.(type) {
	case float32:
		return floatKey(float64(v)), true
	case float64:
		return floatKey(v), true
	case string:
		return []byte(v), true
	case []byte:
		return v, true
	}
	return nil, false
}

func floatKey(f float64) []byte {
	bits := math.Float64bits(f)
	if f == 0 {
		bits = 0
	} else if math.IsNaN(f) {
		bits = canonicalNaN
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, bits)
	return buf
}

func intValue(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func floatValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if n, ok := intValue(value); ok {
		return float64(n), true
	}
	return 0, false
}
