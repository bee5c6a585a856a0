package kv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// exerciseStore runs the shared contract against one backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "tabCollections"); err != nil || found {
		t.Fatalf("Get(missing) = (found=%v, err=%v), want (false, nil)", found, err)
	}

	if err := s.Put(ctx, "tabCollections", []byte(`{"tabCollections":[]}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "tabCollections", []byte(`{"tabCollections":[{"id":"1"}]}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, found, err := s.Get(ctx, "tabCollections")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || string(got) != `{"tabCollections":[{"id":"1"}]}` {
		t.Errorf("Get() = (%q, %v), want latest value", got, found)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	v := []byte("abc")
	if err := m.Put(ctx, "k", v); err != nil {
		t.Fatal(err)
	}
	v[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", got)
	}
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	exerciseStore(t, s)
}

func TestDiskv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	s, err := NewDiskv(dir)
	if err != nil {
		t.Fatalf("NewDiskv() error = %v", err)
	}
	exerciseStore(t, s)

	if _, err := os.Stat(filepath.Join(dir, "tabCollections")); err != nil {
		t.Errorf("expected one file per key: %v", err)
	}
}

func TestDiskv_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := NewDiskv(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatal(err)
	}

	s2, err := NewDiskv(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, found, err := s2.Get(ctx, "k")
	if err != nil || !found || string(got) != "v1" {
		t.Errorf("Get() = (%q, %v, %v)", got, found, err)
	}
}

func TestPostgres_RequiresDSN(t *testing.T) {
	if _, err := NewPostgres("  "); err == nil {
		t.Error("NewPostgres(empty) expected error")
	}
}

func TestPostgres_Integration(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("TABSHELF_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("set TABSHELF_TEST_POSTGRES_DSN to run Postgres integration tests")
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}
	s.tableName = "tabshelf_documents_test"
	t.Cleanup(func() {
		if conn, err := sql.Open("postgres", dsn); err == nil {
			_, _ = conn.Exec(`DROP TABLE IF EXISTS "tabshelf_documents_test"`)
			conn.Close()
		}
	})
	exerciseStore(t, s)
}

func TestQuoteIdentifier(t *testing.T) {
	if got := quoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("quoteIdentifier() = %s", got)
	}
}

func TestOpen_Schemes(t *testing.T) {
	base := t.TempDir()

	cases := []struct {
		dsn  string
		want string
	}{
		{"", "*kv.SQLite"},
		{"sqlite://" + filepath.Join(base, "x.db"), "*kv.SQLite"},
		{"diskv://" + filepath.Join(base, "d"), "*kv.Diskv"},
		{"memory://", "*kv.Memory"},
		{"postgres://user@localhost/db", "*kv.Postgres"},
	}
	for _, tc := range cases {
		s, err := Open(tc.dsn, base)
		if err != nil {
			t.Fatalf("Open(%q) error = %v", tc.dsn, err)
		}
		if got := typeName(s); got != tc.want {
			t.Errorf("Open(%q) = %s, want %s", tc.dsn, got, tc.want)
		}
		_ = s.Close()
	}
}

func TestOpen_DefaultSQLiteInBaseDir(t *testing.T) {
	base := t.TempDir()
	s, err := Open("", base)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(base, "tabshelf.db")); err != nil {
		t.Errorf("default database not created in base dir: %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	for _, dsn := range []string{"no-scheme", "redis://localhost"} {
		if _, err := Open(dsn, t.TempDir()); err == nil {
			t.Errorf("Open(%q) expected error", dsn)
		}
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *SQLite:
		return "*kv.SQLite"
	case *Diskv:
		return "*kv.Diskv"
	case *Memory:
		return "*kv.Memory"
	case *Postgres:
		return "*kv.Postgres"
	}
	return "unknown"
}
