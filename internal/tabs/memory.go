package tabs

import (
	"context"
	"sync"

	"github.com/hpungsan/tabshelf/internal/errors"
)

// Memory is an in-process browser with a single window. It backs tests and
// the `serve --offline` mode.
type Memory struct {
	mu       sync.Mutex
	windowID int
	nextID   int
	tabs     []OpenTab
	focused  int

	// Fail, when set, is returned from every call.
	Fail error
	// FailCreate makes CreateTab fail for the listed urls only.
	FailCreate map[string]error
}

// NewMemory returns a browser with one window holding tabs. Tab ids and
// window ids are assigned if zero.
func NewMemory(tabs ...OpenTab) *Memory {
	m := &Memory{windowID: 1, nextID: 1}
	for _, t := range tabs {
		m.add(t)
	}
	return m
}

func (m *Memory) add(t OpenTab) OpenTab {
	if t.ID == 0 {
		t.ID = m.nextID
	}
	if t.ID >= m.nextID {
		m.nextID = t.ID + 1
	}
	t.WindowID = m.windowID
	m.tabs = append(m.tabs, t)
	return t
}

func (m *Memory) QueryOpenTabs(_ context.Context, windowID int) ([]OpenTab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, errors.NewCollaboratorUnavailable(m.Fail)
	}
	out := make([]OpenTab, 0, len(m.tabs))
	for _, t := range m.tabs {
		if windowID == 0 || t.WindowID == windowID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) CreateTab(_ context.Context, url string, active bool) (OpenTab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return OpenTab{}, errors.NewCollaboratorUnavailable(m.Fail)
	}
	if err, ok := m.FailCreate[url]; ok {
		return OpenTab{}, errors.NewCollaboratorUnavailable(err)
	}
	return m.add(OpenTab{URL: url, Title: url, Active: active}), nil
}

func (m *Memory) RemoveTabs(_ context.Context, ids []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return errors.NewCollaboratorUnavailable(m.Fail)
	}
	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.tabs[:0]
	for _, t := range m.tabs {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	m.tabs = kept
	return nil
}

func (m *Memory) CurrentWindow(context.Context) (Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return Window{}, errors.NewCollaboratorUnavailable(m.Fail)
	}
	return Window{ID: m.windowID, Focused: m.focused == m.windowID}, nil
}

func (m *Memory) FocusWindow(_ context.Context, windowID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return errors.NewCollaboratorUnavailable(m.Fail)
	}
	m.focused = windowID
	return nil
}

// Tabs returns a copy of every open tab.
func (m *Memory) Tabs() []OpenTab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]OpenTab(nil), m.tabs...)
}

// Focused returns the id of the last focused window, or 0.
func (m *Memory) Focused() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}
