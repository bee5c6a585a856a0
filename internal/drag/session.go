// Package drag resolves drag-and-drop gestures on collection cards into
// Collection Store mutations.
package drag

import "github.com/hpungsan/tabshelf/internal/collection"

// Kind is the type of an in-progress drag.
type Kind int

const (
	KindNone Kind = iota
	KindReordering
	KindInsertingTab
)

func (k Kind) String() string {
	switch k {
	case KindReordering:
		return "reordering"
	case KindInsertingTab:
		return "inserting_tab"
	default:
		return "none"
	}
}

// Session is the state of one drag gesture. Build it with None, Reordering
// or InsertingTab.
type Session struct {
	Kind         Kind                `json:"kind"`
	CollectionID string              `json:"collection_id,omitempty"`
	Payload      collection.TabEntry `json:"payload"`
}

// None is the idle session.
func None() Session { return Session{Kind: KindNone} }

// Reordering is a collection card being dragged.
func Reordering(id string) Session {
	return Session{Kind: KindReordering, CollectionID: id}
}

// InsertingTab is an open tab being dragged onto the cards.
func InsertingTab(payload collection.TabEntry) Session {
	return Session{Kind: KindInsertingTab, Payload: payload}
}

// carriesTab reports a tab payload, which wins over a reorder id.
func (s Session) carriesTab() bool {
	return s.Kind == KindInsertingTab || s.Payload.URL != ""
}

// reorders reports whether dropping on targetID moves a collection.
func (s Session) reorders(targetID string) bool {
	return s.CollectionID != "" && s.CollectionID != targetID
}

// Active reports whether a drag is in progress.
func (s Session) Active() bool { return s.Kind != KindNone }

// Origin is the element a card drag started on.
type Origin string

const (
	OriginCard    Origin = "card"
	OriginLink    Origin = "link"
	OriginButton  Origin = "button"
	OriginInput   Origin = "input"
	OriginEditor  Origin = "editor"
	OriginTabList Origin = "tab-list"
	OriginToggle  Origin = "toggle"
)

// Interactive origins never start a card drag.
func (o Origin) Interactive() bool {
	switch o {
	case OriginLink, OriginButton, OriginInput, OriginEditor, OriginTabList, OriginToggle:
		return true
	}
	return false
}

// Affordance is what a card offers while something is dragged over it.
type Affordance string

const (
	AcceptsTabInsert Affordance = "accepts_tab_insert"
	AcceptsReorder   Affordance = "accepts_reorder"
	Rejects          Affordance = "rejects"
)

// DropEffect maps the affordance to the browser's dataTransfer.dropEffect.
func (a Affordance) DropEffect() string {
	switch a {
	case AcceptsTabInsert:
		return "copy"
	case AcceptsReorder:
		return "move"
	default:
		return "none"
	}
}
