package storage

import (
	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v2"
	"go.uber.org/zap"
)

// OpenBadger opens a badger database at path, or an in-memory one.
func OpenBadger(path string, inMemory bool, logger *zap.Logger) (*badger.DB, error) {
	if inMemory {
		path = ""
	}
	option := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(NewBadgerLogger(logger))
	db, err := badger.Open(option)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger at %q", path)
	}
	return db, nil
}

func TestBadgerDB() *badger.DB {
	db, err := OpenBadger("", true, zap.NewNop())
	if err != nil {
		panic(err)
	}
	return db
}

type BadgerBackend struct {
	db *badger.DB
}

func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

func (backend *BadgerBackend) Close() error {
	return backend.db.Close()
}

func (backend *BadgerBackend) txnGet(key []byte) ([]byte, error) {
	var buf []byte
	err := backend.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	return buf, err
}

func (backend *BadgerBackend) txnPut(key, buf []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf)
	})
}

func (backend *BadgerBackend) txnDelete(key []byte) error {
	return backend.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (backend *BadgerBackend) Get(key Key) ([]byte, error) {
	buf, err := backend.txnGet(key.Bytes())
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%s/%d", key.Group, key.Partition)
	}
	return buf, err
}

func (backend *BadgerBackend) Put(key Key, buf []byte) error {
	return backend.txnPut(key.Bytes(), buf)
}

func (backend *BadgerBackend) Delete(key Key) error {
	return backend.txnDelete(key.Bytes())
}

func mergeTxnFunc(txn *badger.Txn, key []byte, buf []byte, delKeys [][]byte) error {
	for _, delKey := range delKeys {
		if err := txn.Delete(delKey); err != nil {
			return err
		}
	}
	return txn.Set(key, buf)
}

func (backend *BadgerBackend) Merge(key Key, buf []byte, consumed []Key) error {
	delKeys := make([][]byte, len(consumed))
	for i, old := range consumed {
		delKeys[i] = old.Bytes()
	}
	return backend.db.Update(func(txn *badger.Txn) error {
		return mergeTxnFunc(txn, key.Bytes(), buf, delKeys)
	})
}

func (backend *BadgerBackend) iterate(prefix []byte, withValues bool, fn func(Key, []byte) error) error {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = prefix
	iterOpts.PrefetchValues = withValues
	return backend.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			key, err := KeyFromBytes(item.KeyCopy(nil))
			if err != nil {
				return err
			}
			var buf []byte
			if withValues {
				if buf, err = item.ValueCopy(nil); err != nil {
					return err
				}
			}
			if err := fn(key, buf); err != nil {
				return err
			}
		}
		return nil
	})
}

func (backend *BadgerBackend) IterateGroup(stage Stage, group string, fn func(Key, []byte) error) error {
	return backend.iterate(GroupPrefix(stage, group), true, fn)
}

func (backend *BadgerBackend) IterateKeys(stage Stage, fn func(Key) error) error {
	return backend.iterate(StagePrefix(stage), false, func(key Key, _ []byte) error {
		return fn(key)
	})
}
