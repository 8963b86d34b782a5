package storage

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	for _, key := range []Key{
		{Stage: StageMap, Group: "", Partition: 0},
		{Stage: StageMap, Group: "emea", Partition: 7},
		{Stage: StageCombine, Group: "a/b\x00c", Partition: 1<<40 + 3},
	} {
		decoded, err := KeyFromBytes(key.Bytes())
		require.NoError(t, err)
		assert.Equal(t, key, decoded)
	}

	_, err := KeyFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = KeyFromBytes(append(Key{Group: "ab"}.Bytes(), 0))
	assert.Error(t, err)
}

func TestKeyOrdering(t *testing.T) {
	a := string(Key{Stage: StageMap, Group: "g", Partition: 2}.Bytes())
	b := string(Key{Stage: StageMap, Group: "g", Partition: 256}.Bytes())
	c := string(Key{Stage: StageCombine, Group: "a", Partition: 0}.Bytes())
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func testBackend(t *testing.T, backend Backend) {
	put := func(stage Stage, group string, partition int64, buf string) {
		require.NoError(t, backend.Put(Key{Stage: stage, Group: group, Partition: partition}, []byte(buf)))
	}
	put(StageMap, "g1", 1, "a")
	put(StageMap, "g1", 0, "b")
	put(StageMap, "g2", 0, "c")
	put(StageMap, "g10", 3, "d")
	put(StageCombine, "g1", 0, "e")

	buf, err := backend.Get(Key{Stage: StageMap, Group: "g1", Partition: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), buf)

	_, err = backend.Get(Key{Stage: StageMap, Group: "g3", Partition: 0})
	assert.True(t, errors.Is(err, ErrNotFound))

	var seen []string
	err = backend.IterateGroup(StageMap, "g1", func(key Key, buf []byte) error {
		seen = append(seen, string(buf))
		assert.Equal(t, "g1", key.Group)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, seen)

	var groups []string
	err = backend.IterateKeys(StageMap, func(key Key) error {
		groups = append(groups, key.Group)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g1", "g2", "g10"}, groups)

	stop := errors.New("stop")
	err = backend.IterateKeys(StageMap, func(Key) error { return stop })
	assert.True(t, errors.Is(err, stop))

	err = backend.Merge(Key{Stage: StageCombine, Group: "g1", Partition: 1}, []byte("f"), []Key{
		{Stage: StageMap, Group: "g1", Partition: 0},
		{Stage: StageMap, Group: "g1", Partition: 1},
	})
	require.NoError(t, err)
	seen = nil
	require.NoError(t, backend.IterateGroup(StageMap, "g1", func(key Key, buf []byte) error {
		seen = append(seen, string(buf))
		return nil
	}))
	assert.Empty(t, seen)
	buf, err = backend.Get(Key{Stage: StageCombine, Group: "g1", Partition: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), buf)

	require.NoError(t, backend.Delete(Key{Stage: StageMap, Group: "g2", Partition: 0}))
	_, err = backend.Get(Key{Stage: StageMap, Group: "g2", Partition: 0})
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, backend.Close())
}

func TestInMemoryBackend(t *testing.T) {
	testBackend(t, NewInMemoryBackend())
}
