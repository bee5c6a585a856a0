package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
)

func withBaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	SetBaseDir(dir)
	t.Cleanup(func() { SetBaseDir("") })
	return dir
}

func TestExport_DefaultPathJSON(t *testing.T) {
	base := withBaseDir(t)
	ctx := context.Background()
	store, _ := newTestStore(t, coll("a", "Work", tab("https://mail.google.com", "Gmail")), coll("b", "Play"))

	out, err := Export(ctx, store, config.DefaultConfig(), ExportInput{})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)
	require.Equal(t, fixedNow.Unix(), out.ExportedAt)
	require.Equal(t, filepath.Join(base, "exports", "collections-2026-03-01T120000.json"), out.Path)

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	list, err := collection.DecodeDocument(data)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids(list))

	info, err := os.Stat(out.Path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExport_Markdown(t *testing.T) {
	withBaseDir(t)
	store, _ := newTestStore(t, coll("a", "Work", tab("https://mail.google.com", "Gmail")))

	out, err := Export(context.Background(), store, config.DefaultConfig(), ExportInput{Format: ExportMarkdown})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(out.Path, ".md"))

	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), "## Work")
	require.Contains(t, string(data), "https://mail.google.com")
}

func TestExport_Rejections(t *testing.T) {
	withBaseDir(t)
	store, _ := newTestStore(t)
	cfg := config.DefaultConfig()
	ctx := context.Background()

	_, err := Export(ctx, store, cfg, ExportInput{Format: "yaml"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Export(ctx, store, cfg, ExportInput{Path: "/tmp/out.json"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "outside allowed dirs")

	dir := t.TempDir()
	cfg.AllowedPaths = []string{dir}
	_, err = Export(ctx, store, cfg, ExportInput{Path: filepath.Join(dir, "out.md")})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "extension must match format")

	out, err := Export(ctx, store, cfg, ExportInput{Path: filepath.Join(dir, "out.json")})
	require.NoError(t, err)
	require.Zero(t, out.Count)
}

func TestExport_OverwritesAtomically(t *testing.T) {
	withBaseDir(t)
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	path := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0600))

	store, _ := newTestStore(t, coll("a", "A"))
	_, err := Export(context.Background(), store, cfg, ExportInput{Path: path})
	if err != nil && errors.Is(err, errors.ErrInvalidRequest) && strings.Contains(err.Error(), "Windows") {
		t.Skip("overwrite unsupported on windows")
	}
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"tabCollections"`)

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.Empty(t, leftovers)
}
