package tuple

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/tinylib/msgp/msgp"
)

const serialVersion uint8 = 1

// Layout: [version, seedHash, theta, numValues, [[hash, v1..vn]...]] with
// entries in hash order. Only the compacted entries are written.

func seedHash(seed uint64) uint16 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	return uint16(xxhash.Sum64(buf[:]))
}

// MarshalMsg appends the compact form of sketch to b.
func (sketch *Sketch) MarshalMsg(b []byte) ([]byte, error) {
	theta, hashes := sketch.compacted()
	o := msgp.AppendArrayHeader(b, 5)
	o = msgp.AppendUint8(o, serialVersion)
	o = msgp.AppendUint16(o, seedHash(sketch.seed))
	o = msgp.AppendUint64(o, theta)
	o = msgp.AppendInt(o, sketch.numValues)
	o = msgp.AppendArrayHeader(o, uint32(len(hashes)))
	for _, hash := range hashes {
		o = msgp.AppendArrayHeader(o, uint32(1+sketch.numValues))
		o = msgp.AppendUint64(o, hash)
		for _, v := range sketch.entries[hash] {
			o = msgp.AppendFloat64(o, v)
		}
	}
	return o, nil
}

// UnmarshalMsg replaces the entries and theta of sketch with those in b.
// The seed and numValues of sketch must match the ones b was written with.
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
	hash, o, err := msgp.ReadUint16Bytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading seed hash")
	}
	if hash != seedHash(sketch.seed) {
		return b, errors.Newf("seed hash %d does not match %d", hash, seedHash(sketch.seed))
	}
	theta, o, err := msgp.ReadUint64Bytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading theta")
	}
	if theta == 0 || theta > MaxTheta {
		return b, errors.Newf("theta %d out of range", theta)
	}
	numValues, o, err := msgp.ReadIntBytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading value count")
	}
	if numValues != sketch.numValues {
		return b, errors.Newf("sketch holds %d values per key, expected %d", numValues, sketch.numValues)
	}
	count, o, err := msgp.ReadArrayHeaderBytes(o)
	if err != nil {
		return b, errors.Wrap(err, "reading entry count")
	}

	entries := make(map[uint64][]float64, count)
	for i := uint32(0); i < count; i++ {
		width, rest, err := msgp.ReadArrayHeaderBytes(o)
		if err != nil {
			return b, errors.Wrapf(err, "reading entry %d", i)
		}
		if int(width) != 1+numValues {
			return b, errors.Newf("entry %d has %d fields", i, width)
		}
		var entryHash uint64
		entryHash, rest, err = msgp.ReadUint64Bytes(rest)
		if err != nil {
			return b, errors.Wrapf(err, "reading entry %d", i)
		}
		if entryHash == 0 || entryHash >= theta {
			return b, errors.Newf("entry %d hash above theta", i)
		}
		values := make([]float64, numValues)
		for j := range values {
			values[j], rest, err = msgp.ReadFloat64Bytes(rest)
			if err != nil {
				return b, errors.Wrapf(err, "reading entry %d", i)
			}
		}
		entries[entryHash] = values
		o = rest
	}

	sketch.theta = theta
	sketch.entries = entries
	return o, nil
}
