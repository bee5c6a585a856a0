package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// fakeGateway records saves and can fail the next N of them.
type fakeGateway struct {
	mu        sync.Mutex
	persisted []collection.Collection
	saves     int
	loads     int
	failNext  int
	failErr   error
}

func (g *fakeGateway) Load(context.Context) []collection.Collection {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loads++
	return collection.CloneList(g.persisted)
}

func (g *fakeGateway) Save(_ context.Context, list []collection.Collection) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext > 0 {
		g.failNext--
		err := g.failErr
		if err == nil {
			err = stderrors.New("disk full")
		}
		return errors.NewPersistenceFailed(err)
	}
	g.saves++
	g.persisted = collection.CloneList(list)
	return nil
}

func (g *fakeGateway) failOnce() {
	g.mu.Lock()
	g.failNext = 1
	g.mu.Unlock()
}

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

func (g *fakeGateway) ids() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ids(g.persisted)
}

func ids(list []collection.Collection) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func coll(id, name string, tabs ...collection.TabEntry) collection.Collection {
	if tabs == nil {
		tabs = []collection.TabEntry{}
	}
	return collection.Collection{ID: id, Name: name, CreatedAt: time.Unix(1700000000, 0).UTC(), Tabs: tabs}
}

func tab(url, title string) collection.TabEntry {
	return collection.TabEntry{URL: url, Title: title}
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestStore returns a hydrated store whose gateway already holds list.
func newTestStore(t *testing.T, list ...collection.Collection) (*Store, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{persisted: collection.CloneList(list)}
	seq := 0
	store := NewStore(gw,
		WithLogger(DiscardLogger),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() (string, error) {
			seq++
			return fmt.Sprintf("new-%d", seq), nil
		}),
	)
	store.Reload(context.Background())
	return store, gw
}

func TestStore_ReloadHydrates(t *testing.T) {
	gw := &fakeGateway{persisted: []collection.Collection{coll("a", "A")}}
	store := NewStore(gw, WithLogger(DiscardLogger))
	require.False(t, store.Loaded())
	require.Empty(t, store.Snapshot())

	store.Reload(context.Background())
	require.True(t, store.Loaded())
	require.Equal(t, []string{"a"}, ids(store.Snapshot()))
}

func TestStore_SnapshotIsDeepCopy(t *testing.T) {
	store, _ := newTestStore(t, coll("a", "A", tab("https://a", "A")))

	snap := store.Snapshot()
	snap[0].Name = "mutated"
	snap[0].Tabs[0].Title = "mutated"

	got, err := store.Get("a")
	require.NoError(t, err)
	require.Equal(t, "A", got.Name)
	require.Equal(t, "A", got.Tabs[0].Title)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get("nope")
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateFromOpenTabs_Prepends(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"))

	out, err := store.CreateFromOpenTabs(ctx, CreateInput{
		Name: "  Research  ",
		Tabs: []collection.TabEntry{tab("https://x", "X"), tab("https://y", "Y"), tab("https://x", "X again")},
	})
	require.NoError(t, err)
	require.Equal(t, "new-1", out.Collection.ID)
	require.Equal(t, "Research", out.Collection.Name)
	require.Equal(t, fixedNow, out.Collection.CreatedAt)
	require.Len(t, out.Collection.Tabs, 2, "tabs are deduplicated by url")

	require.Equal(t, []string{"new-1", "a"}, ids(store.Snapshot()))
	require.Equal(t, []string{"new-1", "a"}, gw.ids())
}

func TestCreateFromOpenTabs_Validation(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t)

	_, err := store.CreateFromOpenTabs(ctx, CreateInput{Name: "x"})
	require.True(t, errors.Is(err, errors.ErrValidationRejected))

	_, err = store.CreateFromOpenTabs(ctx, CreateInput{Name: "   ", Tabs: []collection.TabEntry{tab("https://a", "")}})
	require.True(t, errors.Is(err, errors.ErrValidationRejected))

	_, err = store.CreateFromOpenTabs(ctx, CreateInput{Name: "x", Tabs: []collection.TabEntry{tab("", "blank")}})
	require.True(t, errors.Is(err, errors.ErrValidationRejected))

	require.Zero(t, gw.saveCount())
}

func TestCreateEmpty(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	out, err := store.CreateEmpty(ctx, "Later")
	require.NoError(t, err)
	require.NotNil(t, out.Collection.Tabs)
	require.Empty(t, out.Collection.Tabs)

	_, err = store.CreateEmpty(ctx, "")
	require.True(t, errors.Is(err, errors.ErrValidationRejected))
}

func TestCreate_IDGeneratorFailure(t *testing.T) {
	gw := &fakeGateway{}
	store := NewStore(gw, WithLogger(DiscardLogger), WithIDGenerator(func() (string, error) {
		return "", stderrors.New("entropy exhausted")
	}))
	_, err := store.CreateEmpty(context.Background(), "x")
	require.True(t, errors.Is(err, errors.ErrInternal))
}

func TestCreate_DefaultIDsAreULIDs(t *testing.T) {
	store := NewStore(&fakeGateway{}, WithLogger(DiscardLogger))
	out, err := store.CreateEmpty(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, out.Collection.ID, 26)
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "Work"))

	out, err := store.Rename(ctx, RenameInput{ID: "a", Name: " Office "})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.Equal(t, "Office", out.Collection.Name)
	require.Equal(t, 1, gw.saveCount())

	_, err = store.Rename(ctx, RenameInput{ID: "missing", Name: "x"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRename_NoOpLaw(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "Work"))

	for _, name := range []string{"Work", "", "   ", " Work "} {
		out, err := store.Rename(ctx, RenameInput{ID: "a", Name: name})
		require.NoError(t, err, name)
		require.False(t, out.Changed, name)
		require.Equal(t, "Work", out.Collection.Name)
	}
	require.Zero(t, gw.saveCount(), "no-op renames must not write")
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"), coll("b", "B"))

	out, err := store.Delete(ctx, "a")
	require.NoError(t, err)
	require.True(t, out.Deleted)
	require.Equal(t, []string{"b"}, gw.ids())
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"))

	out, err := store.Delete(ctx, "gone")
	require.NoError(t, err)
	require.False(t, out.Deleted)
	require.Equal(t, []string{"a"}, ids(store.Snapshot()))
	require.Zero(t, gw.saveCount())
}

func TestAddTab_Deduplicates(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"))
	entry := tab("https://go.dev", "Go")

	out, err := store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: entry})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.Equal(t, 1, gw.saveCount())

	_, err = store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: entry})
	require.True(t, errors.Is(err, errors.ErrDuplicate))
	require.Equal(t, 1, gw.saveCount(), "duplicate must not write")

	c, err := store.Get("a")
	require.NoError(t, err)
	require.Len(t, c.Tabs, 1)
}

func TestAddTab_Errors(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, coll("a", "A"))

	_, err := store.AddTab(ctx, AddTabInput{CollectionID: "zzz", Tab: tab("https://x", "")})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: tab("", "")})
	require.True(t, errors.Is(err, errors.ErrValidationRejected))
}

func TestAddTab_AppendsInOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, coll("a", "A", tab("https://1", "1")))

	_, err := store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: tab("https://2", "2")})
	require.NoError(t, err)
	_, err = store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: tab("https://3", "3")})
	require.NoError(t, err)

	c, _ := store.Get("a")
	require.Equal(t, "https://1", c.Tabs[0].URL)
	require.Equal(t, "https://2", c.Tabs[1].URL)
	require.Equal(t, "https://3", c.Tabs[2].URL)
}

func TestDeleteTab(t *testing.T) {
	ctx := context.Background()
	// legacy documents may hold the same url twice
	store, gw := newTestStore(t, coll("a", "A", tab("https://x", "1"), tab("https://y", "2"), tab("https://x", "3")))

	out, err := store.DeleteTab(ctx, DeleteTabInput{CollectionID: "a", URL: "https://x"})
	require.NoError(t, err)
	require.Equal(t, 2, out.Removed)
	require.Len(t, out.Collection.Tabs, 1)

	out, err = store.DeleteTab(ctx, DeleteTabInput{CollectionID: "a", URL: "https://x"})
	require.NoError(t, err)
	require.Zero(t, out.Removed)
	require.Equal(t, 1, gw.saveCount())

	_, err = store.DeleteTab(ctx, DeleteTabInput{CollectionID: "zzz", URL: "https://x"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRenameTab(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A", tab("https://x", "Old")))

	out, err := store.RenameTab(ctx, RenameTabInput{CollectionID: "a", URL: "https://x", Title: " New "})
	require.NoError(t, err)
	require.True(t, out.Changed)
	require.Equal(t, "New", out.Collection.Tabs[0].Title)

	out, err = store.RenameTab(ctx, RenameTabInput{CollectionID: "a", URL: "https://x", Title: "  "})
	require.NoError(t, err)
	require.False(t, out.Changed)
	require.Equal(t, 1, gw.saveCount())

	_, err = store.RenameTab(ctx, RenameTabInput{CollectionID: "a", URL: "https://nope", Title: "x"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRollbackOnPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	initial := []collection.Collection{
		coll("a", "A", tab("https://x", "X")),
		coll("b", "B"),
	}

	cases := []struct {
		name string
		op   func(s *Store) error
	}{
		{"create", func(s *Store) error {
			_, err := s.CreateEmpty(ctx, "C")
			return err
		}},
		{"rename", func(s *Store) error {
			_, err := s.Rename(ctx, RenameInput{ID: "a", Name: "Z"})
			return err
		}},
		{"delete", func(s *Store) error {
			_, err := s.Delete(ctx, "b")
			return err
		}},
		{"add tab", func(s *Store) error {
			_, err := s.AddTab(ctx, AddTabInput{CollectionID: "b", Tab: tab("https://y", "Y")})
			return err
		}},
		{"delete tab", func(s *Store) error {
			_, err := s.DeleteTab(ctx, DeleteTabInput{CollectionID: "a", URL: "https://x"})
			return err
		}},
		{"rename tab", func(s *Store) error {
			_, err := s.RenameTab(ctx, RenameTabInput{CollectionID: "a", URL: "https://x", Title: "Q"})
			return err
		}},
		{"replace all", func(s *Store) error {
			return s.ReplaceAll(ctx, nil)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, gw := newTestStore(t, initial...)
			before := store.Snapshot()

			gw.failOnce()
			err := tc.op(store)
			require.True(t, errors.Is(err, errors.ErrPersistenceFailed), "err = %v", err)
			require.Equal(t, before, store.Snapshot())

			// the next save goes through
			require.NoError(t, tc.op(store))
		})
	}
}

func TestPrependMissing(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, coll("a", "A"))

	added, err := store.PrependMissing(ctx, []collection.Collection{coll("x", "X"), coll("a", "dup"), coll("y", "Y")})
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, []string{"x", "y", "a"}, ids(store.Snapshot()))

	added, err = store.PrependMissing(ctx, []collection.Collection{coll("a", "A")})
	require.NoError(t, err)
	require.Zero(t, added)
}

func TestStore_ConcurrentMutationsSerialize(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("a", "A"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AddTab(ctx, AddTabInput{CollectionID: "a", Tab: tab(fmt.Sprintf("https://%d", i), "")})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, _ := store.Get("a")
	require.Len(t, c.Tabs, 20)
	require.Equal(t, 20, gw.saveCount())
	require.Len(t, gw.persisted[0].Tabs, 20)
}
