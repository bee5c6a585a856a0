package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// Diskv stores each key as one file under a base directory.
type Diskv struct {
	d *diskv.Diskv
}

// NewDiskv returns a file-per-key store rooted at basePath.
func NewDiskv(basePath string) (*Diskv, error) {
	if err := os.MkdirAll(basePath, 0700); err != nil {
		return nil, fmt.Errorf("create diskv directory: %w", err)
	}
	return &Diskv{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
		FilePerm:     0600,
		PathPerm:     0700,
		// writes go to a temp file and are renamed into place
		TempDir: filepath.Join(basePath, ".tmp"),
	})}, nil
}

func (s *Diskv) Get(_ context.Context, key string) ([]byte, bool, error) {
	if !s.d.Has(key) {
		return nil, false, nil
	}
	val, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (s *Diskv) Put(_ context.Context, key string, value []byte) error {
	return s.d.WriteString(key, string(value))
}

func (s *Diskv) Close() error { return nil }
