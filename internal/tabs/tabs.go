// Package tabs talks to the host browser's tab API.
package tabs

import (
	"context"

	"github.com/hpungsan/tabshelf/internal/errors"
)

// OpenTab is one tab currently open in the browser.
type OpenTab struct {
	ID         int    `json:"id"`
	WindowID   int    `json:"windowId"`
	URL        string `json:"url"`
	Title      string `json:"title"`
	FavIconURL string `json:"favIconUrl,omitempty"`
	Pinned     bool   `json:"pinned"`
	Active     bool   `json:"active"`
}

// FilterTitle and FilterURL let the sidebar filter match open tabs.
func (t OpenTab) FilterTitle() string { return t.Title }
func (t OpenTab) FilterURL() string   { return t.URL }

// Window is a browser window.
type Window struct {
	ID      int  `json:"id"`
	Focused bool `json:"focused"`
}

// Collaborator is the browser's tab-enumeration API. Every method may fail;
// callers do not retry.
type Collaborator interface {
	QueryOpenTabs(ctx context.Context, windowID int) ([]OpenTab, error)
	CreateTab(ctx context.Context, url string, active bool) (OpenTab, error)
	RemoveTabs(ctx context.Context, ids []int) error
	CurrentWindow(ctx context.Context) (Window, error)
	FocusWindow(ctx context.Context, windowID int) error
}

// Unavailable is a Collaborator for processes with no browser attached.
type Unavailable struct{}

var _ Collaborator = Unavailable{}

func (Unavailable) QueryOpenTabs(context.Context, int) ([]OpenTab, error) {
	return nil, errors.NewCollaboratorUnavailable(nil)
}

func (Unavailable) CreateTab(context.Context, string, bool) (OpenTab, error) {
	return OpenTab{}, errors.NewCollaboratorUnavailable(nil)
}

func (Unavailable) RemoveTabs(context.Context, []int) error {
	return errors.NewCollaboratorUnavailable(nil)
}

func (Unavailable) CurrentWindow(context.Context) (Window, error) {
	return Window{}, errors.NewCollaboratorUnavailable(nil)
}

func (Unavailable) FocusWindow(context.Context, int) error {
	return errors.NewCollaboratorUnavailable(nil)
}
