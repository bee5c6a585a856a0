// Package view derives what the new-tab page shows from the collection
// list and the current filter.
package view

import (
	"sync"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/filter"
)

// Status picks the placeholder shown in place of, or above, the cards.
type Status string

const (
	StatusLoading   Status = "loading"
	StatusEmpty     Status = "empty"
	StatusNoResults Status = "no_results"
	StatusCards     Status = "cards"
)

// Placeholder texts.
const (
	LoadingText   = "Loading collections..."
	EmptyText     = "No collections saved yet. Save your open tabs to get started."
	NoResultsText = "No collections match your search."
)

// Text returns the placeholder for s, empty for StatusCards.
func (s Status) Text() string {
	switch s {
	case StatusLoading:
		return LoadingText
	case StatusEmpty:
		return EmptyText
	case StatusNoResults:
		return NoResultsText
	}
	return ""
}

// Viewport is the scroll position the surface restores after re-rendering.
type Viewport interface {
	ScrollOffset() int
	SetScrollOffset(int)
}

// State is one rendered frame of the collection grid.
type State struct {
	Status Status      `json:"status"`
	Term   string      `json:"term"`
	Cards  []*CardView `json:"-"`
	Total  int         `json:"total"`
}

// IDs returns the card ids in display order.
func (s State) IDs() []string {
	out := make([]string, len(s.Cards))
	for i, c := range s.Cards {
		out[i] = c.Collection.ID
	}
	return out
}

// Synchronizer rebuilds cards from the store list and keeps one view-model
// per collection id.
type Synchronizer struct {
	mu       sync.Mutex
	limit    int
	viewport Viewport
	cards    map[string]*CardView
	loaded   bool
	last     State
}

// NewSynchronizer returns a synchronizer that shows limit tabs per collapsed
// card. viewport may be nil.
func NewSynchronizer(limit int, viewport Viewport) *Synchronizer {
	return &Synchronizer{
		limit:    limit,
		viewport: viewport,
		cards:    map[string]*CardView{},
		last:     State{Status: StatusLoading},
	}
}

// Render is a full re-render: every card is rebuilt collapsed, in list order.
func (s *Synchronizer) Render(all []collection.Collection, term string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := 0
	if s.viewport != nil {
		offset = s.viewport.ScrollOffset()
	}

	visible := filter.Collections(all, term)
	cards := make([]*CardView, 0, len(visible))
	s.cards = make(map[string]*CardView, len(visible))
	for _, c := range visible {
		cv := NewCard(c, s.limit)
		cards = append(cards, cv)
		s.cards[c.ID] = cv
	}

	st := State{Status: pickStatus(len(all), len(visible), term), Term: term, Cards: cards, Total: len(all)}
	s.loaded = true
	s.last = st

	if s.viewport != nil {
		s.viewport.SetScrollOffset(offset)
	}
	return st
}

func pickStatus(total, visible int, term string) Status {
	blank := collection.NormalizeTerm(term) == ""
	switch {
	case total == 0 && blank:
		return StatusEmpty
	case visible == 0 && !blank:
		return StatusNoResults
	}
	return StatusCards
}

// RefreshCard re-applies a card-local change and keeps its expansion. It
// returns nil when the card is not on screen.
func (s *Synchronizer) RefreshCard(c collection.Collection) *CardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv, ok := s.cards[c.ID]
	if !ok {
		return nil
	}
	cv.Refresh(c)
	return cv
}

// Toggle flips a card's expansion.
func (s *Synchronizer) Toggle(id string) (*CardView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv, ok := s.cards[id]
	if !ok {
		return nil, false
	}
	cv.Toggle()
	return cv, true
}

// Card returns the view-model for id.
func (s *Synchronizer) Card(id string) (*CardView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cv, ok := s.cards[id]
	return cv, ok
}

// Last returns the most recent frame.
func (s *Synchronizer) Last() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Loaded reports whether Render has run.
func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
