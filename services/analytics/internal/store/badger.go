package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore is an embedded key-value implementation: one key per content
// id, the record stored as JSON. Mutations run inside a single Badger
// transaction; a store-wide mutex serializes them so optimistic transaction
// conflicts can never drop an event.
type BadgerStore struct {
	mu sync.Mutex
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database at dir.
// An empty dir opens an in-memory database, used by tests.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at %q: %v", ErrUnavailable, dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Load(_ context.Context) (map[string]ContentRecord, error) {
	data := make(map[string]ContentRecord)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			rec, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			data[string(item.KeyCopy(nil))] = rec
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: load: %v", ErrUnavailable, err)
	}
	return data, nil
}

func (s *BadgerStore) Save(_ context.Context, data map[string]ContentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		// Full-snapshot replace: drop existing keys, then write the new set.
		it := txn.NewIterator(badger.IteratorOptions{})
		var stale [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for id, rec := range data {
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(id), raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *BadgerStore) WithContent(_ context.Context, id string, mutate Mutator) (ContentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := NewContentRecord()
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		switch {
		case err == nil:
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if rec, err = decodeRecord(raw); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound):
			// first event for this clip
		default:
			return err
		}

		rec = mutate(rec)
		if rec.Users == nil {
			rec.Users = make(map[string]UserProgress)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set([]byte(id), raw)
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return ContentRecord{}, err
		}
		return ContentRecord{}, fmt.Errorf("%w: with content: %v", ErrUnavailable, err)
	}
	return rec, nil
}

func (s *BadgerStore) Content(_ context.Context, id string) (ContentRecord, bool, error) {
	rec := NewContentRecord()
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if rec, err = decodeRecord(raw); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return ContentRecord{}, false, err
		}
		return ContentRecord{}, false, fmt.Errorf("%w: get: %v", ErrUnavailable, err)
	}
	if !found {
		return ContentRecord{}, false, nil
	}
	return rec, true, nil
}
