package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
)

const importDoc = `{"tabCollections":[
 {"id":"x","name":"X","createdAt":"2024-01-02T03:04:05Z","tabs":[{"url":"https://x","title":"X","favIconUrl":null}]},
 {"id":"a","name":"already here","createdAt":"2024-01-02T03:04:05Z","tabs":[]},
 {"id":"1700000000000","name":"Legacy","createdAt":"2023-11-14T22:13:20.000Z","tabs":[]}
]}`

func writeImport(t *testing.T, body string) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	return path, cfg
}

func TestImport_Merge(t *testing.T) {
	withBaseDir(t)
	path, cfg := writeImport(t, importDoc)
	store, gw := newTestStore(t, coll("a", "A"))

	out, err := Import(context.Background(), store, cfg, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 1, out.Skipped)
	require.Equal(t, []string{"x", "1700000000000", "a"}, gw.ids())

	a, _ := store.Get("a")
	require.Equal(t, "A", a.Name, "existing collections are kept")
}

func TestImport_Replace(t *testing.T) {
	withBaseDir(t)
	path, cfg := writeImport(t, importDoc)
	store, _ := newTestStore(t, coll("a", "A"), coll("b", "B"))

	out, err := Import(context.Background(), store, cfg, ImportInput{Path: path, Mode: ImportModeReplace})
	require.NoError(t, err)
	require.Equal(t, 3, out.Imported)
	require.Equal(t, []string{"x", "a", "1700000000000"}, ids(store.Snapshot()))
}

func TestImport_Rejections(t *testing.T) {
	withBaseDir(t)
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"))

	_, err := Import(ctx, store, config.DefaultConfig(), ImportInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	path, cfg := writeImport(t, importDoc)
	_, err = Import(ctx, store, cfg, ImportInput{Path: path, Mode: "rename"})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Import(ctx, store, cfg, ImportInput{Path: filepath.Join(filepath.Dir(path), "missing.json")})
	require.True(t, errors.Is(err, errors.ErrFileNotFound))

	bad, cfg := writeImport(t, `{"tabCollections":[{"id":1}]}`)
	_, err = Import(ctx, store, cfg, ImportInput{Path: bad})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	dup, cfg := writeImport(t, `{"tabCollections":[{"id":"q","name":"1","tabs":[]},{"id":"q","name":"2","tabs":[]}]}`)
	_, err = Import(ctx, store, cfg, ImportInput{Path: dup})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	require.Zero(t, gw.saveCount())
}

func TestImport_PersistenceFailureRollsBack(t *testing.T) {
	withBaseDir(t)
	path, cfg := writeImport(t, importDoc)
	store, gw := newTestStore(t, coll("a", "A"))

	gw.failOnce()
	_, err := Import(context.Background(), store, cfg, ImportInput{Path: path, Mode: ImportModeReplace})
	require.True(t, errors.Is(err, errors.ErrPersistenceFailed))
	require.Equal(t, []string{"a"}, ids(store.Snapshot()))
}

func TestExportImport_RoundTrip(t *testing.T) {
	withBaseDir(t)
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}

	src, _ := newTestStore(t, coll("a", "A", tab("https://a", "A")), coll("b", "B"))
	exp, err := Export(ctx, src, cfg, ExportInput{Path: filepath.Join(dir, "backup.json")})
	require.NoError(t, err)

	dst, _ := newTestStore(t)
	out, err := Import(ctx, dst, cfg, ImportInput{Path: exp.Path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, src.Snapshot(), dst.Snapshot())
}
