package view

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hpungsan/tabshelf/internal/collection"
)

// DefaultLimit is the number of tabs a collapsed card shows.
const DefaultLimit = 5

// CardView is the view-model of one collection card. It owns the card's
// expansion state.
type CardView struct {
	Collection collection.Collection
	Expanded   bool
	Limit      int
}

// NewCard returns a collapsed card.
func NewCard(c collection.Collection, limit int) *CardView {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &CardView{Collection: c, Limit: limit}
}

// VisibleTabs returns the tabs shown under the current expansion.
func (v *CardView) VisibleTabs() []collection.TabEntry {
	if v.Expanded || len(v.Collection.Tabs) <= v.Limit {
		return v.Collection.Tabs
	}
	return v.Collection.Tabs[:v.Limit]
}

// HiddenCount is the number of tabs behind the toggle.
func (v *CardView) HiddenCount() int {
	return len(v.Collection.Tabs) - len(v.VisibleTabs())
}

// Toggleable reports whether the card has more tabs than its limit.
func (v *CardView) Toggleable() bool {
	return len(v.Collection.Tabs) > v.Limit
}

// ToggleLabel is the text of the show/hide control, empty when there is none.
func (v *CardView) ToggleLabel() string {
	if !v.Toggleable() {
		return ""
	}
	if v.Expanded {
		return "Show Less"
	}
	return fmt.Sprintf("Show All (%d)", len(v.Collection.Tabs))
}

// OpenAllLabel is the text of the open-all control.
func (v *CardView) OpenAllLabel() string {
	return fmt.Sprintf("Open All (%d)", len(v.Collection.Tabs))
}

// Toggle flips the expansion.
func (v *CardView) Toggle() { v.Expanded = !v.Expanded }

// Refresh swaps in new collection data and keeps the expansion state.
func (v *CardView) Refresh(c collection.Collection) { v.Collection = c }

// SavedAgo renders the creation time relative to now.
func (v *CardView) SavedAgo(now time.Time) string {
	if v.Collection.CreatedAt.IsZero() {
		return "Date unknown"
	}
	return "Saved " + humanize.RelTime(v.Collection.CreatedAt, now, "ago", "from now")
}
