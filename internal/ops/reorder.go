package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// ReorderInput moves DraggedID to sit immediately before BeforeID.
type ReorderInput struct {
	DraggedID string
	BeforeID  string
}

// ReorderOutput reports the resulting order of ids.
type ReorderOutput struct {
	Order []string `json:"order"`
	From  int      `json:"from"`
	To    int      `json:"to"`
}

// Reorder removes the dragged collection, finds the target again in the
// shortened list, and inserts the dragged one before it. If the save fails
// the splice is reversed and the list is reloaded from the gateway.
func (s *Store) Reorder(ctx context.Context, input ReorderInput) (*ReorderOutput, error) {
	if input.DraggedID == input.BeforeID {
		return nil, errors.NewValidationRejected("cannot move a collection before itself")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from := collection.IndexOf(s.list, input.DraggedID)
	if from < 0 {
		return nil, errors.NewNotFound("collection", input.DraggedID)
	}
	if collection.IndexOf(s.list, input.BeforeID) < 0 {
		return nil, errors.NewNotFound("collection", input.BeforeID)
	}

	dragged := s.list[from]
	s.list = removeAt(s.list, from)

	to := collection.IndexOf(s.list, input.BeforeID)
	if to < 0 {
		s.list = insertAt(s.list, from, dragged)
		return nil, errors.NewInternal(fmt.Errorf("reorder target %s vanished after removal", input.BeforeID))
	}
	s.list = insertAt(s.list, to, dragged)

	if err := s.gateway.Save(ctx, s.list); err != nil {
		s.logger.Printf("[store] reorder save failed, reverting and reloading: %v", err)
		s.list = removeAt(s.list, to)
		s.list = insertAt(s.list, from, dragged)
		s.reloadLocked(ctx)
		return nil, asPersistenceFailed(err)
	}

	order := make([]string, len(s.list))
	for i, c := range s.list {
		order[i] = c.ID
	}
	s.logger.Printf("[store] moved %s from %d to %d", input.DraggedID, from, to)
	return &ReorderOutput{Order: order, From: from, To: to}, nil
}

func removeAt(list []collection.Collection, i int) []collection.Collection {
	out := make([]collection.Collection, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func insertAt(list []collection.Collection, i int, c collection.Collection) []collection.Collection {
	out := make([]collection.Collection, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, c)
	return append(out, list[i:]...)
}
