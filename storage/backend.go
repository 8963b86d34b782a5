package storage

import (
	"encoding/binary"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Stage is the phase boundary a partial record was written at.
type Stage uint8

const (
	// StageMap holds PARTIAL1 output, one record per (group, partition).
	StageMap Stage = iota + 1
	// StageCombine holds PARTIAL2 output, one record per (group, combiner).
	StageCombine
)

var ErrNotFound = errors.New("partial record not found")

// Key addresses one partial record.
type Key struct {
	Stage     Stage
	Group     string
	Partition int64
}

// Bytes encodes key so that keys sort by stage, group, then partition:
// <1 byte stage> <4 bytes group length> <group> <8 bytes partition>.
func (key Key) Bytes() []byte {
	buf := make([]byte, 5+len(key.Group)+8)
	buf[0] = byte(key.Stage)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(key.Group)))
	copy(buf[5:], key.Group)
	binary.BigEndian.PutUint64(buf[5+len(key.Group):], uint64(key.Partition))
	return buf
}

func KeyFromBytes(buf []byte) (Key, error) {
	if len(buf) < 13 {
		return Key{}, errors.Newf("key of %d bytes is too short", len(buf))
	}
	n := int(binary.BigEndian.Uint32(buf[1:5]))
	if len(buf) != 5+n+8 {
		return Key{}, errors.Newf("key of %d bytes does not hold a group of %d bytes", len(buf), n)
	}
	return Key{
		Stage:     Stage(buf[0]),
		Group:     string(buf[5 : 5+n]),
		Partition: int64(binary.BigEndian.Uint64(buf[5+n:])),
	}, nil
}

// GroupPrefix is the key prefix shared by every partition of group.
func GroupPrefix(stage Stage, group string) []byte {
	key := Key{Stage: stage, Group: group}.Bytes()
	return key[:5+len(group)]
}

func StagePrefix(stage Stage) []byte {
	return []byte{byte(stage)}
}

type Backend interface {
	Get(Key) ([]byte, error)
	Put(Key, []byte) error
	Delete(Key) error
	// Merge writes buf under key and deletes consumed in one step.
	Merge(key Key, buf []byte, consumed []Key) error

	// IterateGroup visits the partitions of a group in partition order.
	IterateGroup(stage Stage, group string, fn func(Key, []byte) error) error
	// IterateKeys visits every key of a stage in key order.
	IterateKeys(stage Stage, fn func(Key) error) error

	Close() error
}

type InMemoryBackend struct {
	records map[string][]byte
	mutex   sync.Mutex
}

func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{
		records: make(map[string][]byte),
	}
}

func (backend *InMemoryBackend) Get(key Key) ([]byte, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	buf, ok := backend.records[string(key.Bytes())]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s/%d", key.Group, key.Partition)
	}
	return buf, nil
}

func (backend *InMemoryBackend) Put(key Key, buf []byte) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.records[string(key.Bytes())] = buf
	return nil
}

func (backend *InMemoryBackend) Delete(key Key) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	delete(backend.records, string(key.Bytes()))
	return nil
}

func (backend *InMemoryBackend) Merge(key Key, buf []byte, consumed []Key) error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	for _, old := range consumed {
		delete(backend.records, string(old.Bytes()))
	}
	backend.records[string(key.Bytes())] = buf
	return nil
}

type memEntry struct {
	key Key
	buf []byte
}

// snapshot copies the entries under prefix in key order so that callbacks
// run without the lock held.
func (backend *InMemoryBackend) snapshot(prefix []byte) ([]memEntry, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	var raw []string
	for k := range backend.records {
		if strings.HasPrefix(k, string(prefix)) {
			raw = append(raw, k)
		}
	}
	sort.Strings(raw)
	entries := make([]memEntry, 0, len(raw))
	for _, k := range raw {
		key, err := KeyFromBytes([]byte(k))
		if err != nil {
			return nil, err
		}
		entries = append(entries, memEntry{key: key, buf: backend.records[k]})
	}
	return entries, nil
}

func (backend *InMemoryBackend) IterateGroup(stage Stage, group string, fn func(Key, []byte) error) error {
	entries, err := backend.snapshot(GroupPrefix(stage, group))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fn(entry.key, entry.buf); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) IterateKeys(stage Stage, fn func(Key) error) error {
	entries, err := backend.snapshot(StagePrefix(stage))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := fn(entry.key); err != nil {
			return err
		}
	}
	return nil
}

func (backend *InMemoryBackend) Close() error {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()
	backend.records = nil
	return nil
}
