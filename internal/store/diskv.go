package store

import (
	"context"
	"fmt"

	"github.com/peterbourgon/diskv/v3"
)

// Diskv keeps each snapshot as a flat file under a base directory
type Diskv struct {
	d *diskv.Diskv
}

// NewDiskv creates a diskv backend rooted at basePath
func NewDiskv(basePath string) *Diskv {
	return &Diskv{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

func (s *Diskv) Load(_ context.Context, key string) ([]byte, error) {
	if !s.d.Has(key) {
		return nil, ErrNotFound
	}
	val, err := s.d.Read(key)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return val, nil
}

func (s *Diskv) Save(_ context.Context, key string, data []byte) error {
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *Diskv) Close() error {
	return nil
}
