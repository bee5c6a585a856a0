package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
)

func TestReorder_MovesBeforeTarget(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("A", "a"), coll("B", "b"), coll("C", "c"))

	out, err := store.Reorder(ctx, ReorderInput{DraggedID: "C", BeforeID: "A"})
	require.NoError(t, err)
	require.Equal(t, []string{"C", "A", "B"}, out.Order)
	require.Equal(t, 2, out.From)
	require.Equal(t, 0, out.To)
	require.Equal(t, []string{"C", "A", "B"}, gw.ids())
}

func TestReorder_DownwardMove(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, coll("A", "a"), coll("B", "b"), coll("C", "c"), coll("D", "d"))

	// A is removed first, so D's index is found in [B,C,D]
	out, err := store.Reorder(ctx, ReorderInput{DraggedID: "A", BeforeID: "D"})
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C", "A", "D"}, out.Order)
}

func TestReorder_OrderPreservation(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("A", "a"), coll("B", "b"), coll("C", "c"), coll("D", "d"), coll("E", "e"))

	moves := []ReorderInput{
		{DraggedID: "E", BeforeID: "A"},
		{DraggedID: "B", BeforeID: "E"},
		{DraggedID: "A", BeforeID: "D"},
		{DraggedID: "C", BeforeID: "B"},
		{DraggedID: "D", BeforeID: "C"},
	}
	for _, m := range moves {
		_, err := store.Reorder(ctx, m)
		require.NoError(t, err)
		require.Equal(t, ids(store.Snapshot()), gw.ids(), "after %+v", m)
	}
}

func TestReorder_Errors(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("A", "a"), coll("B", "b"))

	_, err := store.Reorder(ctx, ReorderInput{DraggedID: "A", BeforeID: "A"})
	require.True(t, errors.Is(err, errors.ErrValidationRejected))

	_, err = store.Reorder(ctx, ReorderInput{DraggedID: "X", BeforeID: "A"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = store.Reorder(ctx, ReorderInput{DraggedID: "A", BeforeID: "X"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	require.Zero(t, gw.saveCount())
	require.Equal(t, []string{"A", "B"}, ids(store.Snapshot()))
}

func TestReorder_PersistenceFailureReloads(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("A", "a"), coll("B", "b"), coll("C", "c"))
	loadsBefore := gw.loads

	gw.failOnce()
	_, err := store.Reorder(ctx, ReorderInput{DraggedID: "C", BeforeID: "A"})
	require.True(t, errors.Is(err, errors.ErrPersistenceFailed))

	require.Equal(t, []string{"A", "B", "C"}, ids(store.Snapshot()))
	require.Equal(t, loadsBefore+1, gw.loads, "failure path reloads from the gateway")
}

func TestReorder_ReloadAdoptsPersistedState(t *testing.T) {
	ctx := context.Background()
	store, gw := newTestStore(t, coll("A", "a"), coll("B", "b"))

	// another writer changed the document behind the store's back
	gw.mu.Lock()
	gw.persisted = []collection.Collection{coll("B", "b"), coll("A", "a"), coll("Z", "z")}
	gw.mu.Unlock()

	gw.failOnce()
	_, err := store.Reorder(ctx, ReorderInput{DraggedID: "B", BeforeID: "A"})
	require.True(t, errors.Is(err, errors.ErrPersistenceFailed))
	require.Equal(t, []string{"B", "A", "Z"}, ids(store.Snapshot()))
}

func TestRemoveInsertAt(t *testing.T) {
	list := []collection.Collection{coll("A", ""), coll("B", ""), coll("C", "")}
	removed := removeAt(list, 1)
	require.Equal(t, []string{"A", "C"}, ids(removed))
	require.Equal(t, []string{"A", "B", "C"}, ids(list), "input is not modified")

	require.Equal(t, []string{"A", "B", "C"}, ids(insertAt(removed, 1, list[1])))
	require.Equal(t, []string{"B", "A", "C"}, ids(insertAt(removed, 0, list[1])))
	require.Equal(t, []string{"A", "C", "B"}, ids(insertAt(removed, 2, list[1])))
}
