package ops

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/errors"
)

// Gateway is the persistence the Store writes through.
type Gateway interface {
	Load(ctx context.Context) []collection.Collection
	Save(ctx context.Context, list []collection.Collection) error
}

// Store owns the ordered in-memory collection list. Every mutation saves
// the whole list; on a failed save memory goes back to the last-known-good
// list. A mutex is held across mutate and save, so overlapping mutations run
// one after another.
type Store struct {
	mu      sync.Mutex
	gateway Gateway
	list    []collection.Collection
	loaded  bool

	logger *log.Logger
	now    func() time.Time
	newID  func() (string, error)
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for created-at stamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides ULID generation.
func WithIDGenerator(gen func() (string, error)) StoreOption {
	return func(s *Store) { s.newID = gen }
}

// NewStore returns an unloaded store. Call Reload to hydrate it.
func NewStore(gw Gateway, opts ...StoreOption) *Store {
	s := &Store{
		gateway: gw,
		list:    []collection.Collection{},
		logger:  log.Default(),
		now:     time.Now,
		newID:   generateULID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DiscardLogger drops all store output.
var DiscardLogger = log.New(io.Discard, "", 0)

// Reload replaces memory with the gateway's current document.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadLocked(ctx)
}

func (s *Store) reloadLocked(ctx context.Context) {
	s.list = s.gateway.Load(ctx)
	s.loaded = true
}

// Loaded reports whether the store has been hydrated at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Snapshot returns a deep copy of the list in display order.
func (s *Store) Snapshot() []collection.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.CloneList(s.list)
}

// Get returns a copy of the collection with id.
func (s *Store) Get(id string) (collection.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := collection.IndexOf(s.list, id)
	if idx < 0 {
		return collection.Collection{}, errors.NewNotFound("collection", id)
	}
	return s.list[idx].Clone(), nil
}

// withRollback runs fn against a working copy of the list and commits it
// only if the save succeeds. fn returning changed=false skips the save.
func (s *Store) withRollback(ctx context.Context, fn func(list []collection.Collection) ([]collection.Collection, bool, error)) error {
	working := collection.CloneList(s.list)
	next, changed, err := fn(working)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.gateway.Save(ctx, next); err != nil {
		s.logger.Printf("[store] save failed, keeping previous state: %v", err)
		return asPersistenceFailed(err)
	}
	s.list = next
	return nil
}

func asPersistenceFailed(err error) error {
	if errors.Is(err, errors.ErrPersistenceFailed) {
		return err
	}
	return errors.NewPersistenceFailed(err)
}

// CreateInput contains parameters for creating a collection.
type CreateInput struct {
	Name string
	Tabs []collection.TabEntry
}

// CreateOutput contains the result of a create.
type CreateOutput struct {
	Collection collection.Collection `json:"collection"`
}

// CreateFromOpenTabs prepends a new collection holding tabs.
func (s *Store) CreateFromOpenTabs(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if len(input.Tabs) == 0 {
		return nil, errors.NewValidationRejected("no relevant tabs to save")
	}
	return s.create(ctx, input.Name, input.Tabs)
}

// CreateEmpty prepends a new collection with no tabs.
func (s *Store) CreateEmpty(ctx context.Context, name string) (*CreateOutput, error) {
	return s.create(ctx, name, []collection.TabEntry{})
}

func (s *Store) create(ctx context.Context, name string, tabs []collection.TabEntry) (*CreateOutput, error) {
	name = collection.CleanName(name)
	if name == "" {
		return nil, errors.NewValidationRejected("collection name must not be empty")
	}
	for _, t := range tabs {
		if t.URL == "" {
			return nil, errors.NewValidationRejected("tab url must not be empty")
		}
	}

	id, err := s.newID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if collection.IndexOf(s.list, id) >= 0 {
		return nil, errors.NewInternal(fmt.Errorf("generated id collides: %s", id))
	}

	c := collection.Collection{
		ID:        id,
		Name:      name,
		CreatedAt: s.now().UTC(),
		Tabs:      dedupeTabs(tabs),
	}
	err = s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		return append([]collection.Collection{c.Clone()}, list...), true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[store] created collection %s (%d tabs)", c.ID, len(c.Tabs))
	return &CreateOutput{Collection: c}, nil
}

// dedupeTabs keeps the first tab for each url.
func dedupeTabs(tabs []collection.TabEntry) []collection.TabEntry {
	seen := make(map[string]bool, len(tabs))
	out := make([]collection.TabEntry, 0, len(tabs))
	for _, t := range tabs {
		if seen[t.URL] {
			continue
		}
		seen[t.URL] = true
		out = append(out, t.Clone())
	}
	return out
}

// RenameInput contains parameters for renaming a collection.
type RenameInput struct {
	ID   string
	Name string
}

// RenameOutput reports the collection after the rename.
// Changed is false when the trimmed name was empty or unchanged.
type RenameOutput struct {
	Collection collection.Collection `json:"collection"`
	Changed    bool                  `json:"changed"`
}

// Rename changes a collection's name.
func (s *Store) Rename(ctx context.Context, input RenameInput) (*RenameOutput, error) {
	name := collection.CleanName(input.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.list, input.ID)
	if idx < 0 {
		return nil, errors.NewNotFound("collection", input.ID)
	}
	if name == "" || name == s.list[idx].Name {
		return &RenameOutput{Collection: s.list[idx].Clone()}, nil
	}

	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		list[idx].Name = name
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &RenameOutput{Collection: s.list[idx].Clone(), Changed: true}, nil
}

// DeleteOutput reports whether a collection was removed.
type DeleteOutput struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Delete removes a collection. An unknown id is a logged no-op.
func (s *Store) Delete(ctx context.Context, id string) (*DeleteOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.list, id)
	if idx < 0 {
		s.logger.Printf("[store] delete: collection %s not found", id)
		return &DeleteOutput{ID: id}, nil
	}

	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		return append(list[:idx], list[idx+1:]...), true, nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{ID: id, Deleted: true}, nil
}

// AddTabInput contains parameters for appending a tab.
type AddTabInput struct {
	CollectionID string
	Tab          collection.TabEntry
}

// TabOutput reports the collection after a tab-level change.
type TabOutput struct {
	Collection collection.Collection `json:"collection"`
	Changed    bool                  `json:"changed"`
}

// AddTab appends a tab. A url already in the collection is rejected with DUPLICATE.
func (s *Store) AddTab(ctx context.Context, input AddTabInput) (*TabOutput, error) {
	if input.Tab.URL == "" {
		return nil, errors.NewValidationRejected("tab url must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.list, input.CollectionID)
	if idx < 0 {
		return nil, errors.NewNotFound("collection", input.CollectionID)
	}
	if s.list[idx].HasURL(input.Tab.URL) {
		return nil, errors.NewDuplicate(input.CollectionID, input.Tab.URL)
	}

	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		list[idx].Tabs = append(list[idx].Tabs, input.Tab.Clone())
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &TabOutput{Collection: s.list[idx].Clone(), Changed: true}, nil
}

// DeleteTabInput contains parameters for removing a tab.
type DeleteTabInput struct {
	CollectionID string
	URL          string
}

// DeleteTabOutput reports the collection and how many entries were removed.
type DeleteTabOutput struct {
	Collection collection.Collection `json:"collection"`
	Removed    int                   `json:"removed"`
}

// DeleteTab removes every tab whose url matches. No match is a logged no-op.
func (s *Store) DeleteTab(ctx context.Context, input DeleteTabInput) (*DeleteTabOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.list, input.CollectionID)
	if idx < 0 {
		return nil, errors.NewNotFound("collection", input.CollectionID)
	}

	removed := 0
	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		kept := list[idx].Tabs[:0]
		for _, t := range list[idx].Tabs {
			if t.URL == input.URL {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		list[idx].Tabs = kept
		return list, removed > 0, nil
	})
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		s.logger.Printf("[store] delete tab: %s not in collection %s", input.URL, input.CollectionID)
	}
	return &DeleteTabOutput{Collection: s.list[idx].Clone(), Removed: removed}, nil
}

// RenameTabInput contains parameters for retitling a tab.
type RenameTabInput struct {
	CollectionID string
	URL          string
	Title        string
}

// RenameTab changes the title of the first tab with url.
func (s *Store) RenameTab(ctx context.Context, input RenameTabInput) (*TabOutput, error) {
	title := collection.CleanName(input.Title)

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := collection.IndexOf(s.list, input.CollectionID)
	if idx < 0 {
		return nil, errors.NewNotFound("collection", input.CollectionID)
	}
	tabIdx := s.list[idx].TabIndex(input.URL)
	if tabIdx < 0 {
		return nil, errors.NewNotFound("tab", input.URL)
	}
	if title == "" || title == s.list[idx].Tabs[tabIdx].Title {
		return &TabOutput{Collection: s.list[idx].Clone()}, nil
	}

	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		list[idx].Tabs[tabIdx].Title = title
		return list, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &TabOutput{Collection: s.list[idx].Clone(), Changed: true}, nil
}

// ReplaceAll swaps the whole list in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, list []collection.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withRollback(ctx, func([]collection.Collection) ([]collection.Collection, bool, error) {
		next := collection.CloneList(list)
		if next == nil {
			next = []collection.Collection{}
		}
		return next, true, nil
	})
}

// PrependMissing prepends, in their given order, the collections whose id is
// not already stored. It returns how many were added.
func (s *Store) PrependMissing(ctx context.Context, incoming []collection.Collection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	err := s.withRollback(ctx, func(list []collection.Collection) ([]collection.Collection, bool, error) {
		head := make([]collection.Collection, 0, len(incoming))
		seen := map[string]bool{}
		for _, c := range list {
			seen[c.ID] = true
		}
		for _, c := range incoming {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			head = append(head, c.Clone())
		}
		added = len(head)
		return append(head, list...), added > 0, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// generateULID creates a new ULID string.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
