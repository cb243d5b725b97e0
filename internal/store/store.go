package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned by Load when no snapshot exists for the key
	ErrNotFound = errors.New("snapshot not found")
	// ErrUnavailable reports a backend that cannot accept writes
	ErrUnavailable = errors.New("storage unavailable")
)

// Backend persists opaque snapshot documents under a key
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Backend             string
	Path                string
	FirestoreProject    string
	FirestoreCollection string
}

// Open creates the backend named by opts.Backend
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "sqlite", "":
		if err := ensureDir(filepath.Dir(opts.Path)); err != nil {
			return nil, err
		}
		return NewSQLite(opts.Path)
	case "diskv":
		if err := ensureDir(opts.Path); err != nil {
			return nil, err
		}
		return NewDiskv(opts.Path), nil
	case "firestore":
		return NewFirestore(ctx, opts.FirestoreProject, opts.FirestoreCollection)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
