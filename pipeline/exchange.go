package pipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/ristretto"
	"sketchagg/core"
	"sketchagg/storage"
)

type CacheConfig struct {
	Enabled     bool
	NumCounters int64
	MaxCost     int64
}

// Exchange hands intermediate records from one phase to the next. Records
// are stored encoded in the backend; decoded records are cached.
type Exchange struct {
	backend      storage.Backend
	cacheEnabled bool
	recordCache  *ristretto.Cache
}

func NewExchange(backend storage.Backend, cacheConfig CacheConfig) (*Exchange, error) {
	exchange := &Exchange{
		backend:      backend,
		cacheEnabled: cacheConfig.Enabled,
	}
	if !cacheConfig.Enabled {
		return exchange, nil
	}
	recordCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheConfig.NumCounters,
		MaxCost:     cacheConfig.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating record cache")
	}
	exchange.recordCache = recordCache
	return exchange, nil
}

func cacheKey(key storage.Key) string {
	return string(key.Bytes())
}

func recordCost(record *core.Record) int64 {
	return int64(len(record.Sketch) + len(record.Mode) + 8)
}

func (exchange *Exchange) Get(key storage.Key) (*core.Record, error) {
	if exchange.cacheEnabled {
		record, found := exchange.recordCache.Get(cacheKey(key))
		if found {
			return record.(*core.Record), nil
		}
	}
	buf, err := exchange.backend.Get(key)
	if err != nil {
		return nil, err
	}
	return core.BytesToRecord(buf)
}

func (exchange *Exchange) Put(key storage.Key, record *core.Record) error {
	buf, err := core.RecordToBytes(record)
	if err != nil {
		return errors.Wrapf(err, "encoding record for group %q", key.Group)
	}
	if exchange.cacheEnabled {
		exchange.recordCache.Set(cacheKey(key), record, recordCost(record))
	}
	return exchange.backend.Put(key, buf)
}

func (exchange *Exchange) Delete(key storage.Key) error {
	if exchange.cacheEnabled {
		exchange.recordCache.Del(cacheKey(key))
	}
	return exchange.backend.Delete(key)
}

// Merge stores record under key and drops the records it was built from.
func (exchange *Exchange) Merge(key storage.Key, record *core.Record, consumed []storage.Key) error {
	buf, err := core.RecordToBytes(record)
	if err != nil {
		return errors.Wrapf(err, "encoding record for group %q", key.Group)
	}
	if exchange.cacheEnabled {
		exchange.recordCache.Set(cacheKey(key), record, recordCost(record))
		for _, old := range consumed {
			exchange.recordCache.Del(cacheKey(old))
		}
	}
	return exchange.backend.Merge(key, buf, consumed)
}

// IterateGroup visits the records of group in partition order.
func (exchange *Exchange) IterateGroup(stage storage.Stage, group string, fn func(storage.Key, *core.Record) error) error {
	return exchange.backend.IterateGroup(stage, group, func(key storage.Key, buf []byte) error {
		if exchange.cacheEnabled {
			if record, found := exchange.recordCache.Get(cacheKey(key)); found {
				return fn(key, record.(*core.Record))
			}
		}
		record, err := core.BytesToRecord(buf)
		if err != nil {
			return errors.Wrapf(err, "group %q partition %d", key.Group, key.Partition)
		}
		return fn(key, record)
	})
}

// Groups lists the groups with records at stage in key order.
func (exchange *Exchange) Groups(stage storage.Stage) ([]string, error) {
	var groups []string
	err := exchange.backend.IterateKeys(stage, func(key storage.Key) error {
		if n := len(groups); n == 0 || groups[n-1] != key.Group {
			groups = append(groups, key.Group)
		}
		return nil
	})
	return groups, err
}

func (exchange *Exchange) Close() error {
	if exchange.cacheEnabled {
		exchange.recordCache.Close()
	}
	return exchange.backend.Close()
}
