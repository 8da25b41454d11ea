package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/allusionapp/allusion-server/internal/store"
)

// Entity provides JSON CRUD for one record type under a key prefix, with
// optional unique secondary indexes.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
}

type index[T any] struct {
	name   string
	keyGen func(*T) []string
	lookup func(string) string // applied to GetByIndex values; nil means identity
}

// NewEntity creates a new Entity for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// WithIndex adds a unique secondary index. lookup may be nil.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string, lookup func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen, lookup: lookup})
	return e
}

// Create stores a new record.
// Returns store.ErrAlreadyExists if the id or any index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		exists, err := keyExists(txn, entityKey(e.prefix, id))
		if err != nil {
			return err
		}
		if exists {
			return store.ErrAlreadyExists
		}
		if err := e.checkIndexes(txn, v, nil); err != nil {
			return err
		}
		if err := txn.Set(entityKey(e.prefix, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, id, v)
	})
}

// Get retrieves a record by id.
// Returns store.ErrNotFound if it does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	var v T
	if err := e.store.get(ctx, entityKey(e.prefix, id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByIndex retrieves a record through a secondary index.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookup != nil {
			value = idx.lookup(value)
			break
		}
	}

	var id string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(e.prefix, indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return e.Get(ctx, id)
}

// Update replaces an existing record and moves its index entries.
// Returns store.ErrNotFound if it does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		if err := readJSON(txn, entityKey(e.prefix, id), &old); err != nil {
			return err
		}
		if err := e.checkIndexes(txn, v, &old); err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, &old); err != nil {
			return err
		}
		if err := txn.Set(entityKey(e.prefix, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.writeIndexes(txn, id, v)
	})
}

// Delete removes a record and its index entries. Deleting a missing
// record is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		err := readJSON(txn, entityKey(e.prefix, id), &old)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := e.deleteIndexes(txn, &old); err != nil {
			return err
		}
		return txn.Delete(entityKey(e.prefix, id))
	})
}

// List iterates over all records in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}
				if strings.HasPrefix(string(it.Item().Key()[len(e.prefix):]), indexInfix) {
					continue
				}

				var v T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &v)
				})
				if err != nil {
					yield(nil, err)
					return err
				}
				if !yield(&v, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// checkIndexes fails with store.ErrAlreadyExists when v would take an index
// value held by another record. Values already held by old are allowed.
func (e *Entity[T]) checkIndexes(txn *badger.Txn, v, old *T) error {
	for _, idx := range e.indexes {
		owned := map[string]bool{}
		if old != nil {
			for _, k := range idx.keyGen(old) {
				owned[k] = true
			}
		}
		for _, k := range idx.keyGen(v) {
			if owned[k] {
				continue
			}
			exists, err := keyExists(txn, indexKey(e.prefix, idx.name, k))
			if err != nil {
				return fmt.Errorf("failed to check index key: %w", err)
			}
			if exists {
				return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already in use", idx.name, k))
			}
		}
	}
	return nil
}

func (e *Entity[T]) writeIndexes(txn *badger.Txn, id string, v *T) error {
	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(v) {
			if err := txn.Set(indexKey(e.prefix, idx.name, k), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, v *T) error {
	for _, idx := range e.indexes {
		for _, k := range idx.keyGen(v) {
			if err := txn.Delete(indexKey(e.prefix, idx.name, k)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}
