package drag

import (
	"context"
	"log"
	"sync"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/ops"
)

// Mutator is the part of the Collection Store a drop can change.
type Mutator interface {
	AddTab(ctx context.Context, input ops.AddTabInput) (*ops.TabOutput, error)
	Reorder(ctx context.Context, input ops.ReorderInput) (*ops.ReorderOutput, error)
}

// Action is what a drop did.
type Action string

const (
	ActionAddTab   Action = "add_tab"
	ActionReorder  Action = "reorder"
	ActionRejected Action = "rejected"
)

// DropResult reports the outcome of Drop. Err is set when the store refused
// the mutation; Duplicate is the expected, non-fatal refusal of AddTab.
type DropResult struct {
	Action     Action                 `json:"action"`
	TargetID   string                 `json:"target_id"`
	Duplicate  bool                   `json:"duplicate,omitempty"`
	Collection *collection.Collection `json:"collection,omitempty"`
	Order      []string               `json:"order,omitempty"`
	Err        error                  `json:"-"`
}

// Coordinator owns the current drag session.
type Coordinator struct {
	mu      sync.Mutex
	session Session
	store   Mutator
	markers Markers
	logger  *log.Logger
}

// NewCoordinator returns an idle coordinator. A nil logger means log.Default.
func NewCoordinator(store Mutator, markers Markers, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{session: None(), store: store, markers: markers, logger: logger}
}

// Current returns the session in progress.
func (c *Coordinator) Current() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// StartCollection begins dragging a card. Drags starting on an interactive
// element inside the card are refused.
func (c *Coordinator) StartCollection(id string, origin Origin) bool {
	if origin.Interactive() {
		c.logger.Printf("[drag] start ignored on interactive element %q", origin)
		return false
	}
	if id == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Reordering(id)
	c.markers.Mark(id, MarkerDragging)
	c.logger.Printf("[drag] reordering %s", id)
	return true
}

// StartTab begins dragging an open tab.
func (c *Coordinator) StartTab(payload collection.TabEntry) bool {
	if payload.URL == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = InsertingTab(payload)
	c.logger.Printf("[drag] inserting tab %s", payload.URL)
	return true
}

// Begin installs s as the current session, for sessions rebuilt from
// transfer data.
func (c *Coordinator) Begin(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	if s.Kind == KindReordering {
		c.markers.Mark(s.CollectionID, MarkerDragging)
	}
}

// Over computes the affordance of targetID for the current session and
// updates its highlight.
func (c *Coordinator) Over(targetID string) Affordance {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.session.carriesTab():
		c.markers.Unmark(targetID, MarkerReorderTarget)
		c.markers.Mark(targetID, MarkerTabTarget)
		return AcceptsTabInsert
	case c.session.reorders(targetID):
		c.markers.Unmark(targetID, MarkerTabTarget)
		c.markers.Mark(targetID, MarkerReorderTarget)
		return AcceptsReorder
	default:
		c.markers.Unmark(targetID, MarkerTabTarget, MarkerReorderTarget)
		return Rejects
	}
}

// Leave clears the target highlights on targetID.
func (c *Coordinator) Leave(targetID string) {
	c.markers.Unmark(targetID, MarkerTabTarget, MarkerReorderTarget)
}

// Drop resolves the session against targetID: a tab payload adds the tab,
// otherwise a different collection id reorders, otherwise nothing happens.
// The session stays set until End.
func (c *Coordinator) Drop(ctx context.Context, targetID string) DropResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.markers.Unmark(targetID, MarkerTabTarget, MarkerReorderTarget)
	s := c.session
	res := DropResult{TargetID: targetID}

	switch {
	case s.carriesTab():
		res.Action = ActionAddTab
		out, err := c.store.AddTab(ctx, ops.AddTabInput{CollectionID: targetID, Tab: s.Payload})
		if errors.Is(err, errors.ErrDuplicate) {
			c.logger.Printf("[drag] %s already in %s", s.Payload.URL, targetID)
			c.markers.Flash(targetID, MarkerDuplicate, DuplicateFlash)
			res.Duplicate = true
			return res
		}
		if err != nil {
			c.logger.Printf("[drag] add tab to %s failed: %v", targetID, err)
			res.Err = err
			return res
		}
		c.markers.Flash(targetID, MarkerSuccess, SuccessFlash)
		res.Collection = &out.Collection

	case s.reorders(targetID):
		res.Action = ActionReorder
		out, err := c.store.Reorder(ctx, ops.ReorderInput{DraggedID: s.CollectionID, BeforeID: targetID})
		if err != nil {
			c.logger.Printf("[drag] move %s before %s failed: %v", s.CollectionID, targetID, err)
			res.Err = err
			return res
		}
		res.Order = out.Order

	default:
		res.Action = ActionRejected
		c.logger.Printf("[drag] drop ignored on %s (session %s)", targetID, s.Kind)
	}
	return res
}

// End clears the session and every drag highlight, whatever the drop did.
func (c *Coordinator) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = None()
	c.markers.ClearAll()
}

// WithSession runs fn with s installed and always ends the session after.
func (c *Coordinator) WithSession(s Session, fn func(*Coordinator) error) error {
	c.Begin(s)
	defer c.End()
	return fn(c)
}
