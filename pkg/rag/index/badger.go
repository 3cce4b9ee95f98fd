package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/store"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	manifestKey   = []byte("manifest")
	passagePrefix = []byte("passage:")
)

// BadgerOptions configures the on-disk index.
type BadgerOptions struct {
	// Dir is the directory holding the index. Required unless InMemory.
	Dir string

	// InMemory keeps everything in memory, for tests.
	InMemory bool

	// ReadOnly opens an existing index under a shared directory lock. Any
	// number of read-only handles may coexist; a writer needs the directory
	// to itself.
	ReadOnly bool

	// Logger receives badger warnings and errors. Nil discards them.
	Logger logger.ILogger
}

// ErrIndexLocked means another process holds the index directory.
var ErrIndexLocked = errors.New("document index is locked by another process")

// BadgerIndex stores msgpack-encoded records in BadgerDB and answers
// queries with an exact cosine scan.
type BadgerIndex struct {
	db       *badger.DB
	readOnly bool
	mu       sync.Mutex // serializes Upsert/DeleteSource manifest updates
}

var _ Writer = (*BadgerIndex)(nil)

func OpenBadger(opts BadgerOptions) (*BadgerIndex, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("index: BadgerOptions.Dir is required for on-disk mode")
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{log: log})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	if opts.ReadOnly {
		dbOpts = dbOpts.WithReadOnly(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		if strings.Contains(err.Error(), "directory lock") {
			return nil, fmt.Errorf("%w: %s: %v", ErrIndexLocked, opts.Dir, err)
		}
		return nil, fmt.Errorf("open badger index: %w", err)
	}
	return &BadgerIndex{db: db, readOnly: opts.ReadOnly}, nil
}

func (b *BadgerIndex) Close() error {
	return b.db.Close()
}

func (b *BadgerIndex) Manifest(_ context.Context) (*Manifest, error) {
	var m Manifest
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(manifestKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &m)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrIndexUnavailable
	}
	if err != nil {
		return nil, err
	}
	if m.Passages == 0 {
		return nil, ErrIndexUnavailable
	}
	return &m, nil
}

func (b *BadgerIndex) Search(ctx context.Context, vector []float32, k int) ([]store.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	if _, err := b.Manifest(ctx); err != nil {
		return nil, err
	}

	var scored []store.Passage
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = passagePrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(passagePrefix); it.ValidForPrefix(passagePrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			p := rec.Passage
			p.Score = Cosine(vector, rec.Vector)
			scored = append(scored, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topK(scored, k), nil
}

func (b *BadgerIndex) Upsert(ctx context.Context, model string, records []Record) error {
	if b.readOnly {
		return ErrReadOnly
	}
	if len(records) == 0 {
		return nil
	}
	dim := len(records[0].Vector)
	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: mixed vector dimensions %d and %d", ErrEmbeddingMismatch, dim, len(r.Vector))
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.Manifest(ctx)
	if errors.Is(err, ErrIndexUnavailable) {
		m = &Manifest{}
	} else if err != nil {
		return err
	}
	if err := CheckCompatible(m, model, dim); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		added := 0
		for _, r := range records {
			key := append(append([]byte(nil), passagePrefix...), r.Passage.ID...)
			if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
				added++
			}
			val, err := msgpack.Marshal(&r)
			if err != nil {
				return err
			}
			if err := txn.Set(key, val); err != nil {
				return err
			}
		}
		m.EmbeddingModel = model
		m.Dimension = dim
		m.Passages += added
		m.UpdatedAt = time.Now().UTC()
		val, err := msgpack.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(manifestKey, val)
	})
}

func (b *BadgerIndex) DeleteSource(ctx context.Context, source string) (int, error) {
	if b.readOnly {
		return 0, ErrReadOnly
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	m, err := b.Manifest(ctx)
	if errors.Is(err, ErrIndexUnavailable) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	var keys [][]byte
	err = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = passagePrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(passagePrefix); it.ValidForPrefix(passagePrefix); it.Next() {
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if rec.Passage.Source == source {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		m.Passages -= len(keys)
		m.UpdatedAt = time.Now().UTC()
		val, err := msgpack.Marshal(m)
		if err != nil {
			return err
		}
		return txn.Set(manifestKey, val)
	})
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// badgerLogger forwards badger warnings and errors to the application logger.
type badgerLogger struct {
	log logger.ILogger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.log.Error("INDEX", strings.TrimSpace(fmt.Sprintf(f, v...)), map[string]interface{}{"backend": "badger"})
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.log.Warn("INDEX", strings.TrimSpace(fmt.Sprintf(f, v...)), map[string]interface{}{"backend": "badger"})
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
