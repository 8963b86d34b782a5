package core

import (
	"zombiezen.com/go/capnproto2"
)

// Record layout: a data word holding the size (bits 0-31) and the has-mode
// flag (bit 32), a text pointer for the mode and a data pointer for the
// serialized summary.
const (
	recordSizeOffset capnp.DataOffset = 0
	recordModeBit    capnp.BitOffset  = 32
	recordModePtr    uint16           = 0
	recordSketchPtr  uint16           = 1
)

var recordObjectSize = capnp.ObjectSize{DataSize: 8, PointerCount: 2}

func RecordToBytes(record *Record) ([]byte, error) {
	msg, seg, err := capnp.NewMessage(capnp.SingleSegment(nil))
	if err != nil {
		return nil, err
	}
	root, err := capnp.NewRootStruct(seg, recordObjectSize)
	if err != nil {
		return nil, err
	}

	root.SetUint32(recordSizeOffset, uint32(record.Size))
	root.SetBit(recordModeBit, record.HasMode)
	if record.HasMode {
		if err := root.SetText(recordModePtr, record.Mode); err != nil {
			return nil, err
		}
	}
	if err := root.SetData(recordSketchPtr, record.Sketch); err != nil {
		return nil, err
	}
	return msg.Marshal()
}

func BytesToRecord(buf []byte) (*Record, error) {
	msg, err := capnp.Unmarshal(buf)
	if err != nil {
		return nil, decodeFailure(err, "unmarshaling record")
	}
	rootPtr, err := msg.RootPtr()
	if err != nil {
		return nil, decodeFailure(err, "reading record root")
	}
	root := rootPtr.Struct()
	if !root.IsValid() {
		return nil, decodeFailuref("record root is not a struct")
	}

	record := &Record{
		Size:    int32(root.Uint32(recordSizeOffset)),
		HasMode: root.Bit(recordModeBit),
	}
	if record.HasMode {
		modePtr, err := root.Ptr(recordModePtr)
		if err != nil {
			return nil, decodeFailure(err, "reading record mode")
		}
		record.Mode = modePtr.Text()
	}
	sketchPtr, err := root.Ptr(recordSketchPtr)
	if err != nil {
		return nil, decodeFailure(err, "reading record sketch")
	}
	record.Sketch = append([]byte(nil), sketchPtr.Data()...)
	return record, nil
}
