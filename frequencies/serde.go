package frequencies

import (
	"github.com/cockroachdb/errors"
	"github.com/tinylib/msgp/msgp"
)

const serialVersion uint8 = 1

// Layout: [version, maxMapSize, streamLength, offset, [[item, count]...]]
// with items in lexical order.

func (sketch *Sketch) MarshalMsg(b []byte) ([]byte, error) {
	items := sketch.sortedItems()
	o := msgp.AppendArrayHeader(b, 5)
	o = msgp.AppendUint8(o, serialVersion)
	o = msgp.AppendInt(o, sketch.maxMapSize)
	o = msgp.AppendInt64(o, sketch.streamLength)
	o = msgp.AppendInt64(o, sketch.offset)
	o = msgp.AppendArrayHeader(o, uint32(len(items)))
	for _, item := range items {
		o = msgp.AppendArrayHeader(o, 2)
		o = msgp.AppendString(o, item)
		o = msgp.AppendInt64(o, sketch.counts[item])
	}
	return o, nil
}

// UnmarshalMsg loads the counters in b into sketch, purging if sketch has
// a smaller map than the one b was written with.
func (sketch *Sketch) UnmarshalMsg(b []byte) ([]byte, error) {
	sz, o, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, errors.Wrap(err, "reading header")
	}
	if sz != 5 {
		return b, errors.Newf("expected 5 header fields, got %d", sz)
	}
	version, o, err := msgp.ReadUint8Bytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading version")
	}
	if version != serialVersion {
		return b, errors.Newf("unsupported serial version %d", version)
	}
	if _, o, err = msgp.ReadIntBytes(o); err != nil {
		return b, errors.Wrap(err, "reading map size")
	}
	streamLength, o, err := msgp.ReadInt64Bytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading stream length")
	}
	offset, o, err := msgp.ReadInt64Bytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading offset")
	}
	if streamLength < 0 || offset < 0 {
		return b, errors.Newf("negative stream length %d or offset %d", streamLength, offset)
	}
	count, o, err := msgp.ReadArrayHeaderBytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading item count")
	}

	sketch.counts = make(map[string]int64, count)
	sketch.streamLength = streamLength
	sketch.offset = offset
	for i := uint32(0); i < count; i++ {
		width, rest, err := msgp.ReadArrayHeaderBytes(o)
		if err != nil {
			return b, errors.Wrapf(err, "reading item %d", i)
		}
		if width != 2 {
			return b, errors.Newf("item %d has %d fields", i, width)
		}
		var item string
		item, rest, err = msgp.ReadStringBytes(rest)
		if err != nil {
			return b, errors.Wrapf(err, "reading item %d", i)
		}
		var v int64
		v, rest, err = msgp.ReadInt64Bytes(rest)
		if err != nil {
			return b, errors.Wrapf(err, "reading item %d", i)
		}
		if v <= 0 {
			return b, errors.Newf("item %d has count %d", i, v)
		}
		sketch.add(item, v)
		o = rest
	}
	return o, nil
}
