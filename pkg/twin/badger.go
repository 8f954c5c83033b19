package twin

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "twin:"

// Badger is a Store backed by BadgerDB. Records are msgpack-encoded under
// "twin:<slug>".
type Badger struct {
	db *badger.DB
}

var _ Store = (*Badger)(nil)

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without disk persistence.
	InMemory bool
}

// NewBadger opens a BadgerDB-backed Store.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("twin: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(slogLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("twin: open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func slugKey(slug string) []byte {
	return []byte(keyPrefix + slug)
}

func (b *Badger) Create(_ context.Context, t *Twin) error {
	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("twin: encode %s: %w", t.Slug, err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(slugKey(t.Slug))
		if err == nil {
			return ErrSlugTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(slugKey(t.Slug), data)
	})
}

func (b *Badger) Get(_ context.Context, slug string) (*Twin, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(slugKey(slug))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var t Twin
	if err := msgpack.Unmarshal(val, &t); err != nil {
		return nil, fmt.Errorf("twin: decode %s: %w", slug, err)
	}
	return &t, nil
}

func (b *Badger) Exists(_ context.Context, slug string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(slugKey(slug))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (b *Badger) Delete(_ context.Context, slug string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(slugKey(slug))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) List(_ context.Context) iter.Seq2[*Twin, error] {
	prefix := []byte(keyPrefix)
	return func(yield func(*Twin, error) bool) {
		err := b.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = prefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				val, err := it.Item().ValueCopy(nil)
				if err != nil {
					if !yield(nil, err) {
						return nil
					}
					continue
				}
				var t Twin
				if err := msgpack.Unmarshal(val, &t); err != nil {
					slog.Warn("skipping malformed twin record", "key", string(it.Item().Key()), "error", err)
					continue
				}
				if !yield(&t, nil) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(nil, err)
		}
	}
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogLogger routes badger warnings and errors to slog and drops the rest.
type slogLogger struct{}

func (slogLogger) Errorf(f string, v ...any)   { slog.Error(fmt.Sprintf("badger: "+f, v...)) }
func (slogLogger) Warningf(f string, v ...any) { slog.Warn(fmt.Sprintf("badger: "+f, v...)) }
func (slogLogger) Infof(string, ...any)        {}
func (slogLogger) Debugf(string, ...any)       {}
