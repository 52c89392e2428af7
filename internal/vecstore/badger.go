package vecstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "vec:"

// ErrNotFound is returned by Get for an unknown sample.
var ErrNotFound = errors.New("vector not found")

// BadgerStore keeps records in Badger under "vec:<sample>".
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens or creates a store in dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func key(sample string) []byte {
	return []byte(keyPrefix + sample)
}

// Put stores r, replacing any previous vector of the same sample.
func (s *BadgerStore) Put(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(r.Sample), data)
	})
}

// Get loads the vector of a sample.
func (s *BadgerStore) Get(sample string) (Record, error) {
	var r Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(sample))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s: %w", sample, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &r)
		})
	})
	return r, err
}

// Each calls fn for every stored vector in key order.
func (s *BadgerStore) Each(fn func(Record) error) error {
	prefix := []byte(keyPrefix)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Record
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &r)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
