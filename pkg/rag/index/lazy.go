package index

import (
	"context"
	"errors"
	"sync"

	"ai-finance-assistant-be/pkg/store"
)

// Opener builds the concrete index on first use.
type Opener func(ctx context.Context) (Index, error)

// Lazy defers opening an index until the first query. A failed open is
// retried on the next call, so an index built while the server runs
// becomes visible without a restart.
type Lazy struct {
	open Opener

	mu  sync.Mutex
	idx Index
}

var _ Writer = (*Lazy)(nil)

// ErrReadOnly is returned by writes through a Lazy whose index cannot be written.
var ErrReadOnly = errors.New("document index is read-only")

func NewLazy(open Opener) *Lazy {
	return &Lazy{open: open}
}

func (l *Lazy) get(ctx context.Context) (Index, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idx != nil {
		return l.idx, nil
	}
	idx, err := l.open(ctx)
	if err != nil {
		if errors.Is(err, ErrIndexUnavailable) {
			return nil, err
		}
		return nil, errors.Join(ErrIndexUnavailable, err)
	}
	l.idx = idx
	return idx, nil
}

func (l *Lazy) Manifest(ctx context.Context) (*Manifest, error) {
	idx, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Manifest(ctx)
}

func (l *Lazy) Search(ctx context.Context, vector []float32, k int) ([]store.Passage, error) {
	idx, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(ctx, vector, k)
}

func (l *Lazy) writer(ctx context.Context) (Writer, error) {
	idx, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	w, ok := idx.(Writer)
	if !ok {
		return nil, ErrReadOnly
	}
	return w, nil
}

func (l *Lazy) Upsert(ctx context.Context, model string, records []Record) error {
	w, err := l.writer(ctx)
	if err != nil {
		return err
	}
	return w.Upsert(ctx, model, records)
}

func (l *Lazy) DeleteSource(ctx context.Context, source string) (int, error) {
	w, err := l.writer(ctx)
	if err != nil {
		return 0, err
	}
	return w.DeleteSource(ctx, source)
}

// Close releases the underlying index when it implements io.Closer.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.idx.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
