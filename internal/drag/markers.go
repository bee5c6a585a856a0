package drag

import (
	"sort"
	"sync"
	"time"
)

// Marker is a highlight drawn on a card.
type Marker string

const (
	MarkerTabTarget     Marker = "drag-over-target"
	MarkerReorderTarget Marker = "collection-drag-over"
	MarkerDragging      Marker = "dragging-collection"
	MarkerDuplicate     Marker = "drop-duplicate"
	MarkerSuccess       Marker = "drop-success"
)

// For how long the drop feedback markers stay on.
const (
	DuplicateFlash = 1000 * time.Millisecond
	SuccessFlash   = 600 * time.Millisecond
)

// Markers records card highlights. Flash markers expire on their own and
// survive ClearAll.
type Markers interface {
	Mark(id string, m Marker)
	Unmark(id string, ms ...Marker)
	Flash(id string, m Marker, d time.Duration)
	ClearAll()
}

// MarkerSet is an in-memory Markers. The web surface reads it back into
// card classes.
type MarkerSet struct {
	mu      sync.Mutex
	now     func() time.Time
	drag    map[string]map[Marker]bool
	flashes map[string]map[Marker]time.Time
}

var _ Markers = (*MarkerSet)(nil)

// NewMarkerSet returns an empty set. A nil clock means time.Now.
func NewMarkerSet(now func() time.Time) *MarkerSet {
	if now == nil {
		now = time.Now
	}
	return &MarkerSet{
		now:     now,
		drag:    map[string]map[Marker]bool{},
		flashes: map[string]map[Marker]time.Time{},
	}
}

func (s *MarkerSet) Mark(id string, m Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag[id] == nil {
		s.drag[id] = map[Marker]bool{}
	}
	s.drag[id][m] = true
}

// Unmark removes ms from id, or every drag marker when ms is empty.
func (s *MarkerSet) Unmark(id string, ms ...Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ms) == 0 {
		delete(s.drag, id)
		return
	}
	for _, m := range ms {
		delete(s.drag[id], m)
	}
	if len(s.drag[id]) == 0 {
		delete(s.drag, id)
	}
}

func (s *MarkerSet) Flash(id string, m Marker, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.flashes[id] == nil {
		s.flashes[id] = map[Marker]time.Time{}
	}
	s.flashes[id][m] = s.now().Add(d)
}

func (s *MarkerSet) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drag = map[string]map[Marker]bool{}
}

// For returns the live markers on id, sorted.
func (s *MarkerSet) For(id string) []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var out []Marker
	for m := range s.drag[id] {
		out = append(out, m)
	}
	for m, until := range s.flashes[id] {
		if now.Before(until) {
			out = append(out, m)
		} else {
			delete(s.flashes[id], m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Marked returns every id carrying a live marker.
func (s *MarkerSet) Marked() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.drag)+len(s.flashes))
	for id := range s.drag {
		ids = append(ids, id)
	}
	for id := range s.flashes {
		if _, ok := s.drag[id]; !ok {
			ids = append(ids, id)
		}
	}
	s.mu.Unlock()

	out := ids[:0]
	for _, id := range ids {
		if len(s.For(id)) > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
