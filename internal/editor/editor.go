// Package editor runs the in-place rename sessions for collection names and
// tab titles.
package editor

import (
	"context"
	stderrors "errors"
	"log"
	"strings"
	"sync"

	"github.com/hpungsan/tabshelf/internal/collection"
	"github.com/hpungsan/tabshelf/internal/ops"
)

// FieldKind is the kind of text being edited.
type FieldKind string

const (
	CollectionName FieldKind = "collection_name"
	TabTitle       FieldKind = "tab_title"
)

// Field identifies one editable text. URL is set for tab titles only.
type Field struct {
	Kind         FieldKind `json:"kind"`
	CollectionID string    `json:"collection_id"`
	URL          string    `json:"url,omitempty"`
}

// Outcome is how an edit ended.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
	OutcomeIgnored   Outcome = "ignored"
)

// Result carries the text to display after an edit. On failure Text is the
// pre-edit value.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Text    string  `json:"text"`
	Err     error   `json:"-"`
}

var (
	ErrAlreadyEditing = stderrors.New("field is already being edited")
	ErrInvalidField   = stderrors.New("invalid editable field")
)

// Committer persists renames.
type Committer interface {
	Rename(ctx context.Context, input ops.RenameInput) (*ops.RenameOutput, error)
	RenameTab(ctx context.Context, input ops.RenameTabInput) (*ops.TabOutput, error)
}

// Token identifies one Begin. Commit and Escape must present the token of
// the session they end.
type Token uint64

type session struct {
	token      Token
	original   string
	suppressed bool
}

// Editors tracks open edit sessions.
type Editors struct {
	mu       sync.Mutex
	sessions map[Field]*session
	last     Token
	store    Committer
	logger   *log.Logger
}

// New returns an Editors committing through store.
func New(store Committer, logger *log.Logger) *Editors {
	if logger == nil {
		logger = log.Default()
	}
	return &Editors{sessions: map[Field]*session{}, store: store, logger: logger}
}

func (f Field) valid() bool {
	switch f.Kind {
	case CollectionName:
		return f.CollectionID != ""
	case TabTitle:
		return f.CollectionID != "" && f.URL != ""
	}
	return false
}

// Begin opens an edit of field showing current. An escaped session for the
// same field is replaced; its late commit no longer matches any token.
func (e *Editors) Begin(field Field, current string) (Token, error) {
	if !field.valid() {
		return 0, ErrInvalidField
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[field]; ok && !s.suppressed {
		return 0, ErrAlreadyEditing
	}
	e.last++
	e.sessions[field] = &session{token: e.last, original: current}
	return e.last, nil
}

// take removes and returns the session for field if token matches it.
func (e *Editors) take(field Field, token Token) (*session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[field]
	if !ok || s.token != token {
		return nil, false
	}
	delete(e.sessions, field)
	return s, true
}

// Editing reports whether field has a live session.
func (e *Editors) Editing(field Field) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[field]
	return ok && !s.suppressed
}

// Open returns every field with a live session.
func (e *Editors) Open() []Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Field, 0, len(e.sessions))
	for f, s := range e.sessions {
		if !s.suppressed {
			out = append(out, f)
		}
	}
	return out
}

// Commit ends the edit with value. An empty or unchanged value cancels
// without touching the store. A stale token is ignored and leaves the
// current session open; otherwise the session is closed in every case.
func (e *Editors) Commit(ctx context.Context, field Field, token Token, value string) Result {
	s, ok := e.take(field, token)
	if !ok || s.suppressed {
		return Result{Outcome: OutcomeIgnored}
	}

	value = strings.TrimSpace(value)
	if value == "" || value == s.original {
		return Result{Outcome: OutcomeCancelled, Text: s.original}
	}

	text, changed, err := e.commit(ctx, field, value)
	if err != nil {
		e.logger.Printf("[edit] saving %s for %s failed: %v", field.Kind, field.CollectionID, err)
		return Result{Outcome: OutcomeFailed, Text: s.original, Err: err}
	}
	if !changed {
		return Result{Outcome: OutcomeCancelled, Text: text}
	}
	return Result{Outcome: OutcomeSaved, Text: text}
}

func (e *Editors) commit(ctx context.Context, field Field, value string) (string, bool, error) {
	if field.Kind == CollectionName {
		out, err := e.store.Rename(ctx, ops.RenameInput{ID: field.CollectionID, Name: value})
		if err != nil {
			return "", false, err
		}
		return out.Collection.Name, out.Changed, nil
	}

	out, err := e.store.RenameTab(ctx, ops.RenameTabInput{CollectionID: field.CollectionID, URL: field.URL, Title: value})
	if err != nil {
		return "", false, err
	}
	if i := out.Collection.TabIndex(field.URL); i >= 0 {
		t := out.Collection.Tabs[i]
		return collection.DisplayTitle(t.Title, t.URL), out.Changed, nil
	}
	return value, out.Changed, nil
}

// Escape abandons the edit. The session is suppressed before reverting so
// the blur that follows is ignored and nothing is saved.
func (e *Editors) Escape(field Field, token Token) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[field]
	if !ok || s.token != token || s.suppressed {
		return Result{Outcome: OutcomeIgnored}
	}
	s.suppressed = true
	return Result{Outcome: OutcomeCancelled, Text: s.original}
}
