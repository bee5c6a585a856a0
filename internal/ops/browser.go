package ops

import (
	"context"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/config"
	"github.com/hpungsan/tabshelf/internal/errors"
	"github.com/hpungsan/tabshelf/internal/tabs"
)

// SaveOpenTabsInput contains parameters for saving the current window.
type SaveOpenTabsInput struct {
	Name           string
	CloseAfterSave bool
}

// SaveOpenTabsOutput reports the new collection and how many tabs were closed.
type SaveOpenTabsOutput struct {
	Collection collection.Collection `json:"collection"`
	Closed     int                   `json:"closed"`
	CloseError string                `json:"close_error,omitempty"`
}

// RelevantTabs drops internal and pinned tabs and maps the rest to entries
// with a display title.
func RelevantTabs(open []tabs.OpenTab, cfg *config.Config) []collection.TabEntry {
	out := make([]collection.TabEntry, 0, len(open))
	for _, t := range open {
		if t.Pinned || cfg.IsInternalURL(t.URL) {
			continue
		}
		out = append(out, collection.TabEntry{
			URL:        t.URL,
			Title:      collection.DisplayTitle(t.Title, t.URL),
			FavIconURL: collection.StringPtr(t.FavIconURL),
		})
	}
	return out
}

// SaveOpenTabs snapshots the current window into a new collection, then
// optionally closes the tabs whose urls were saved.
func SaveOpenTabs(ctx context.Context, store *Store, collab tabs.Collaborator, cfg *config.Config, input SaveOpenTabsInput) (*SaveOpenTabsOutput, error) {
	if collection.CleanName(input.Name) == "" {
		return nil, errors.NewValidationRejected("collection name must not be empty")
	}

	win, err := collab.CurrentWindow(ctx)
	if err != nil {
		return nil, asCollaboratorError(err)
	}
	open, err := collab.QueryOpenTabs(ctx, win.ID)
	if err != nil {
		return nil, asCollaboratorError(err)
	}

	entries := RelevantTabs(open, cfg)
	created, err := store.CreateFromOpenTabs(ctx, CreateInput{Name: input.Name, Tabs: entries})
	if err != nil {
		return nil, err
	}

	out := &SaveOpenTabsOutput{Collection: created.Collection}
	if !input.CloseAfterSave {
		return out, nil
	}

	saved := make(map[string]bool, len(entries))
	for _, e := range entries {
		saved[e.URL] = true
	}
	var ids []int
	for _, t := range open {
		if t.URL != "" && saved[t.URL] {
			ids = append(ids, t.ID)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}
	// the collection is already saved; a close failure is reported, not returned
	if err := collab.RemoveTabs(ctx, ids); err != nil {
		store.logger.Printf("[store] close after save failed: %v", err)
		out.CloseError = err.Error()
		return out, nil
	}
	out.Closed = len(ids)
	return out, nil
}

// OpenCollectionOutput reports how many tabs were opened.
type OpenCollectionOutput struct {
	Opened  int  `json:"opened"`
	Failed  int  `json:"failed"`
	Focused bool `json:"focused"`
}

// OpenCollection opens every tab of a collection in the background, then
// tries to focus the current window. Per-tab failures are logged and counted.
func OpenCollection(ctx context.Context, store *Store, collab tabs.Collaborator, id string) (*OpenCollectionOutput, error) {
	c, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	out := &OpenCollectionOutput{}
	if len(c.Tabs) == 0 {
		return out, nil
	}

	for _, t := range c.Tabs {
		if t.URL == "" {
			continue
		}
		if _, err := collab.CreateTab(ctx, t.URL, false); err != nil {
			store.logger.Printf("[store] failed to open %s: %v", t.URL, err)
			out.Failed++
			continue
		}
		out.Opened++
	}

	if win, err := collab.CurrentWindow(ctx); err == nil && win.ID != 0 {
		if err := collab.FocusWindow(ctx, win.ID); err == nil {
			out.Focused = true
		}
	}

	if out.Opened == 0 && out.Failed > 0 {
		return out, errors.NewCollaboratorUnavailable(nil)
	}
	return out, nil
}

// ListOpenTabs returns the current window's tabs with internal urls removed.
func ListOpenTabs(ctx context.Context, collab tabs.Collaborator, cfg *config.Config) ([]tabs.OpenTab, error) {
	win, err := collab.CurrentWindow(ctx)
	if err != nil {
		return nil, asCollaboratorError(err)
	}
	open, err := collab.QueryOpenTabs(ctx, win.ID)
	if err != nil {
		return nil, asCollaboratorError(err)
	}
	out := make([]tabs.OpenTab, 0, len(open))
	for _, t := range open {
		if !cfg.IsInternalURL(t.URL) {
			out = append(out, t)
		}
	}
	return out, nil
}

func asCollaboratorError(err error) error {
	if errors.Is(err, errors.ErrCollaboratorUnavailable) {
		return err
	}
	return errors.NewCollaboratorUnavailable(err)
}
