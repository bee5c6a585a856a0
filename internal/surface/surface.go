// Package surface is the single new-tab page session: it routes gestures to
// the drag coordinator, the editors and the store, then re-derives the view.
package surface

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/drag"
	"github.com/hpungsan/tabshelf/internal/editor"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/filter"
	"github.com/hpungsan/tabshelf/internal/ops"
	"github.com/hpungsan/tabshelf/internal/tabs"
	"github.com/hpungsan/tabshelf/internal/view"
)

// Status durations for warnings and errors. Info and success messages use
// config.StatusDuration.
const (
	WarningDuration = 4 * time.Second
	ErrorDuration   = 5 * time.Second
)

// ReorderStaleText is shown when a reorder drop names a collection that no
// longer exists.
const ReorderStaleText = "That collection no longer exists."

// OpenTabsNoMatchText is shown when the sidebar filter hides every open tab.
const OpenTabsNoMatchText = "No open tabs match search."

// OpenTabsEmptyText is shown when the window has no listable tabs.
const OpenTabsEmptyText = "No open tabs found in this window."

// Prompter asks for a line of text. ok is false when the user cancelled.
type Prompter interface {
	Prompt(ctx context.Context, message, suggestion string) (value string, ok bool)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// Answer is a Prompter and Confirmer with a fixed reply, for surfaces
// where the user already typed the answer into the request.
type Answer struct {
	Value string
	OK    bool
}

func (a Answer) Prompt(context.Context, string, string) (string, bool) { return a.Value, a.OK }
func (a Answer) Confirm(context.Context, string) bool                   { return a.OK }

// Session is one UI session over a Collection Store.
type Session struct {
	mu       sync.Mutex
	store    *ops.Store
	collab   tabs.Collaborator
	cfg      *config.Config
	logger   *log.Logger
	now      func() time.Time
	term     string
	openTerm string
	openTabs []tabs.OpenTab
	openErr  error

	Markers *drag.MarkerSet
	Drag    *drag.Coordinator
	Editors *editor.Editors
	View    *view.Synchronizer
	Status  *view.StatusLine
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for markers and the status line.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithViewport lets the view restore a scroll offset around re-renders.
func WithViewport(vp view.Viewport) Option {
	return func(s *Session) { s.View = view.NewSynchronizer(s.cfg.TabsShownInitially, vp) }
}

// New wires a session. Call Init before serving it.
func New(store *ops.Store, collab tabs.Collaborator, cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if collab == nil {
		collab = tabs.Unavailable{}
	}
	s := &Session{
		store:  store,
		collab: collab,
		cfg:    cfg,
		logger: log.Default(),
		now:    time.Now,
	}
	s.View = view.NewSynchronizer(cfg.TabsShownInitially, nil)
	for _, opt := range opts {
		opt(s)
	}
	s.Markers = drag.NewMarkerSet(s.now)
	s.Drag = drag.NewCoordinator(store, s.Markers, s.logger)
	s.Editors = editor.New(store, s.logger)
	s.Status = view.NewStatusLine(s.now)
	return s
}

// Init hydrates the store and loads the open tabs concurrently, then
// renders the first frame.
func (s *Session) Init(ctx context.Context) view.State {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.store.Reload(ctx)
	}()
	go func() {
		defer wg.Done()
		s.refreshOpenTabs(ctx)
	}()
	wg.Wait()
	return s.Render()
}

// Store returns the Collection Store.
func (s *Session) Store() *ops.Store { return s.store }

// Collaborator returns the tab collaborator.
func (s *Session) Collaborator() tabs.Collaborator { return s.collab }

// Config returns the session config.
func (s *Session) Config() *config.Config { return s.cfg }

// Term returns the collection filter.
func (s *Session) Term() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}

// Render re-renders the grid with the current filter. Before the store is
// hydrated it returns the loading frame.
func (s *Session) Render() view.State {
	if !s.store.Loaded() {
		return view.State{Status: view.StatusLoading}
	}
	return s.View.Render(s.store.Snapshot(), s.Term())
}

// SetFilter changes the collection filter and re-renders.
func (s *Session) SetFilter(term string) view.State {
	s.mu.Lock()
	s.term = term
	s.mu.Unlock()
	return s.Render()
}

// Reload re-reads the store and re-renders.
func (s *Session) Reload(ctx context.Context) view.State {
	s.store.Reload(ctx)
	return s.Render()
}

func (s *Session) info(text string) {
	s.Status.Set(text, view.LevelInfo, s.cfg.StatusDuration())
}

func (s *Session) success(text string) {
	s.Status.Set(text, view.LevelSuccess, s.cfg.StatusDuration())
}

func (s *Session) warn(text string) {
	s.Status.Set(text, view.LevelWarning, WarningDuration)
}

func (s *Session) fail(text string, err error) {
	s.logger.Printf("[surface] %s: %v", text, err)
	s.Status.Set(text, view.LevelError, ErrorDuration)
}

// OpenTabsView is the sidebar list with its filter mask applied.
type OpenTabsView struct {
	Tabs    []tabs.OpenTab `json:"tabs"`
	Visible []bool         `json:"visible"`
	Term    string         `json:"term"`
	Message string         `json:"message,omitempty"`
}

// VisibleTabs returns the tabs whose mask entry is set.
func (v OpenTabsView) VisibleTabs() []tabs.OpenTab {
	out := make([]tabs.OpenTab, 0, len(v.Tabs))
	for i, t := range v.Tabs {
		if v.Visible[i] {
			out = append(out, t)
		}
	}
	return out
}

func (s *Session) refreshOpenTabs(ctx context.Context) {
	open, err := ops.ListOpenTabs(ctx, s.collab, s.cfg)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Printf("[surface] listing open tabs: %v", err)
		s.openTabs = nil
		s.openErr = err
		return
	}
	s.openTabs = open
	s.openErr = nil
}

// OpenTabs reloads the sidebar from the collaborator and applies term.
func (s *Session) OpenTabs(ctx context.Context, term string) (OpenTabsView, error) {
	s.refreshOpenTabs(ctx)
	s.mu.Lock()
	s.openTerm = term
	s.mu.Unlock()
	return s.FilterOpenTabs(term)
}

// FilterOpenTabs re-applies term to the last loaded sidebar list.
func (s *Session) FilterOpenTabs(term string) (OpenTabsView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openTerm = term
	if s.openErr != nil {
		return OpenTabsView{Term: term}, s.openErr
	}
	mask := filter.OpenTabs(s.openTabs, term)
	v := OpenTabsView{Tabs: append([]tabs.OpenTab(nil), s.openTabs...), Visible: mask, Term: term}
	switch {
	case len(s.openTabs) == 0:
		v.Message = OpenTabsEmptyText
	case filter.CountVisible(mask) == 0:
		v.Message = OpenTabsNoMatchText
	}
	return v, nil
}

// SaveOpenTabs prompts for a name and snapshots the window into a new
// collection.
func (s *Session) SaveOpenTabs(ctx context.Context, p Prompter, closeAfter bool) (*ops.SaveOpenTabsOutput, error) {
	suggestion := "Collection " + s.now().Format("1/2/2006")
	name, ok := p.Prompt(ctx, "Enter name for the new collection:", suggestion)
	if !ok || collection.CleanName(name) == "" {
		s.info("Save cancelled.")
		return nil, nil
	}

	s.Status.Set("Saving...", view.LevelInfo, 0)
	out, err := ops.SaveOpenTabs(ctx, s.store, s.collab, s.cfg, ops.SaveOpenTabsInput{Name: name, CloseAfterSave: closeAfter})
	if err != nil {
		if errors.Is(err, errors.ErrValidationRejected) {
			s.warn("No relevant tabs to save.")
		} else {
			s.fail("Error saving. Check console.", err)
		}
		return nil, err
	}

	s.Render()
	if out.CloseError != "" {
		s.warn(fmt.Sprintf("Saved %q, but some tabs could not be closed.", out.Collection.Name))
	} else {
		s.success(fmt.Sprintf("Saved %q!", out.Collection.Name))
	}
	if out.Closed > 0 {
		s.refreshOpenTabs(ctx)
	}
	return out, nil
}

// CreateEmpty prompts for a name and prepends an empty collection.
func (s *Session) CreateEmpty(ctx context.Context, p Prompter) (*ops.CreateOutput, error) {
	name, ok := p.Prompt(ctx, "Enter name for the new collection:", "")
	if !ok || collection.CleanName(name) == "" {
		s.info("Create cancelled.")
		return nil, nil
	}
	out, err := s.store.CreateEmpty(ctx, name)
	if err != nil {
		s.fail("Error creating collection.", err)
		return nil, err
	}
	s.Render()
	s.success(fmt.Sprintf("Created %q.", out.Collection.Name))
	return out, nil
}

// DeleteCollection asks for confirmation, then removes the collection.
func (s *Session) DeleteCollection(ctx context.Context, id string, c Confirmer) (*ops.DeleteOutput, error) {
	existing, err := s.store.Get(id)
	if err != nil {
		// already gone: deleting is idempotent
		return s.store.Delete(ctx, id)
	}
	if !c.Confirm(ctx, fmt.Sprintf("Delete collection %q?\nThis cannot be undone.", existing.Name)) {
		return &ops.DeleteOutput{ID: id}, nil
	}
	out, err := s.store.Delete(ctx, id)
	if err != nil {
		s.fail("Error deleting collection.", err)
		s.Reload(ctx)
		return nil, err
	}
	s.Render()
	return out, nil
}

// DeleteTab removes a tab and refreshes its card in place.
func (s *Session) DeleteTab(ctx context.Context, id, url string) (*ops.DeleteTabOutput, error) {
	out, err := s.store.DeleteTab(ctx, ops.DeleteTabInput{CollectionID: id, URL: url})
	if err != nil {
		s.fail("Error deleting tab.", err)
		return nil, err
	}
	s.View.RefreshCard(out.Collection)
	return out, nil
}

// OpenCollection opens every tab of a collection.
func (s *Session) OpenCollection(ctx context.Context, id string) (*ops.OpenCollectionOutput, error) {
	out, err := ops.OpenCollection(ctx, s.store, s.collab, id)
	if err != nil {
		s.fail("Error opening collection.", err)
		return out, err
	}
	if out.Failed > 0 {
		s.warn(fmt.Sprintf("Opened %d tabs, %d failed.", out.Opened, out.Failed))
	}
	return out, nil
}

// Toggle flips a card between collapsed and expanded.
func (s *Session) Toggle(id string) (*view.CardView, error) {
	cv, ok := s.View.Toggle(id)
	if !ok {
		return nil, errors.NewNotFound("collection", id)
	}
	return cv, nil
}

// Drop resolves the current drag on targetID and updates the view: a tab
// insert refreshes one card, a reorder re-renders the grid.
func (s *Session) Drop(ctx context.Context, targetID string) drag.DropResult {
	res := s.Drag.Drop(ctx, targetID)
	switch {
	case res.Err != nil && res.Action == drag.ActionReorder && errors.Is(res.Err, errors.ErrNotFound):
		// the dragged card or its target was deleted since the page rendered
		s.logger.Printf("[surface] reorder target gone: %v", res.Err)
		s.warn(ReorderStaleText)
		s.Render()
	case res.Err != nil && res.Action == drag.ActionReorder:
		s.fail("Error saving the new collection order. Reloaded.", res.Err)
		s.Render()
	case res.Err != nil:
		s.fail("An error occurred adding the tab.", res.Err)
	case res.Action == drag.ActionAddTab && res.Collection != nil:
		s.View.RefreshCard(*res.Collection)
	case res.Action == drag.ActionReorder:
		s.Render()
	}
	return res
}

// CommitEdit ends an inline edit and refreshes the affected card.
func (s *Session) CommitEdit(ctx context.Context, field editor.Field, token editor.Token, value string) editor.Result {
	res := s.Editors.Commit(ctx, field, token, value)
	switch res.Outcome {
	case editor.OutcomeSaved:
		if c, err := s.store.Get(field.CollectionID); err == nil {
			s.View.RefreshCard(c)
		}
	case editor.OutcomeFailed:
		if field.Kind == editor.TabTitle {
			s.fail("Error saving tab title.", res.Err)
		} else {
			s.fail("Error saving collection name.", res.Err)
		}
	}
	return res
}

// Frame is everything the page needs to draw.
type Frame struct {
	State   view.State
	Status  *view.Message
	Markers map[string][]drag.Marker
	Drag    drag.Session
	Editing []editor.Field
}

// Frame returns the last rendered state without re-rendering, so card
// expansion survives. The first call renders.
func (s *Session) Frame() Frame {
	st := s.View.Last()
	if !s.View.Loaded() {
		st = s.Render()
	}
	f := Frame{
		State:   st,
		Markers: map[string][]drag.Marker{},
		Drag:    s.Drag.Current(),
		Editing: s.Editors.Open(),
	}
	if m, ok := s.Status.Current(); ok {
		f.Status = &m
	}
	for _, id := range s.Markers.Marked() {
		f.Markers[id] = s.Markers.For(id)
	}
	return f
}
