package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/internal/repository/implementation"
	"ai-finance-assistant-be/pkg/database"
	"ai-finance-assistant-be/pkg/rag/index"
)

// IndexHandle is an opened retrieval index with its release func.
type IndexHandle struct {
	Index index.Writer
	Close func() error

	// ReadOnly is set when writes through Index fail with index.ErrReadOnly.
	ReadOnly bool
}

// OpenIndex opens the configured backend. The badger directory is opened on
// first use so the server starts even while another process holds it or
// before anything has been ingested. readOnly only applies to badger; a
// read-only handle shares the directory with other readers but keeps
// writers out until it is closed.
func OpenIndex(cfg *config.Config, log logger.ILogger, readOnly bool) (*IndexHandle, error) {
	switch cfg.Index.Backend {
	case "badger", "":
		dir := filepath.Clean(cfg.Index.PersistPath)
		lazy := index.NewLazy(func(context.Context) (index.Index, error) {
			if readOnly {
				if _, err := os.Stat(dir); err != nil {
					return nil, fmt.Errorf("%w: %v", index.ErrIndexUnavailable, err)
				}
			} else if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
			return index.OpenBadger(index.BadgerOptions{Dir: dir, ReadOnly: readOnly, Logger: log})
		})
		return &IndexHandle{Index: lazy, Close: lazy.Close, ReadOnly: readOnly}, nil

	case "pgvector":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := database.Open(ctx, DatabaseOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("connect pgvector index: %w", err)
		}
		return &IndexHandle{
			Index: implementation.NewPassageRepository(db),
			Close: func() error { return database.Close(db) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported VECTORSTORE_BACKEND: %s", cfg.Index.Backend)
	}
}

// DatabaseOptions maps the database section of cfg to connection options.
func DatabaseOptions(cfg *config.Config) database.Options {
	return database.Options{
		DSN:          cfg.Database.Connection,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}
