package core

import "fmt"

// Record is the intermediate value exchanged between phases. Mode is only
// meaningful when HasMode is set.
type Record struct {
	Size    int32
	HasMode bool
	Mode    string
	Sketch  []byte
}

func (record *Record) String() string {
	if record == nil {
		return "null"
	}
	if record.HasMode {
		return fmt.Sprintf("(%d, %s, %d bytes)", record.Size, record.Mode, len(record.Sketch))
	}
	return fmt.Sprintf("(%d, %d bytes)", record.Size, len(record.Sketch))
}
