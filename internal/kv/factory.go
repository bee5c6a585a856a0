package kv

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"

	"github.com/hpungsan/tabshelf/internal/db"
)

// Factory builds a Store from a DSN. baseDir is the tabshelf home directory.
type Factory func(dsn, baseDir string) (Store, error)

var registry = struct {
	mu        sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register adds or replaces the factory for scheme.
func Register(scheme string, f Factory) {
	scheme = normalizeScheme(scheme)
	if scheme == "" || f == nil {
		return
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.factories[scheme] = f
}

func lookup(scheme string) (Factory, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	f, ok := registry.factories[normalizeScheme(scheme)]
	return f, ok
}

func init() {
	Register("sqlite", func(dsn, baseDir string) (Store, error) {
		path, err := dsnPath(dsn)
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = filepath.Join(baseDir, db.FileName)
		}
		return OpenSQLite(path)
	})
	Register("diskv", func(dsn, baseDir string) (Store, error) {
		path, err := dsnPath(dsn)
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = filepath.Join(baseDir, "documents")
		}
		return NewDiskv(path)
	})
	Register("memory", func(string, string) (Store, error) {
		return NewMemory(), nil
	})
	pg := func(dsn, _ string) (Store, error) { return NewPostgres(dsn) }
	Register("postgres", pg)
	Register("postgresql", pg)
}

// Open builds the Store selected by dsn's scheme.
// An empty dsn means sqlite in baseDir.
func Open(dsn, baseDir string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "sqlite://"
	}
	scheme, _, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("storage dsn must look like scheme://...: %q", dsn)
	}
	f, ok := lookup(scheme)
	if !ok {
		return nil, fmt.Errorf("unsupported storage scheme: %s", scheme)
	}
	return f(dsn, baseDir)
}

// dsnPath returns the filesystem path after scheme://, with ~ expanded.
func dsnPath(dsn string) (string, error) {
	_, rest, _ := strings.Cut(dsn, "://")
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", nil
	}
	return homedir.Expand(rest)
}

func normalizeScheme(scheme string) string {
	return strings.ToLower(strings.TrimSpace(scheme))
}
