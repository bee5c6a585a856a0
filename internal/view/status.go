package view

import (
	"sync"
	"time"
)

// Level is the tone of a status message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is one status line entry. A zero Expires never expires.
type Message struct {
	Text    string    `json:"text"`
	Level   Level     `json:"level"`
	Expires time.Time `json:"-"`
}

// StatusLine holds the sidebar's transient message.
type StatusLine struct {
	mu      sync.Mutex
	now     func() time.Time
	current Message
}

// NewStatusLine returns an empty line. A nil clock means time.Now.
func NewStatusLine(now func() time.Time) *StatusLine {
	if now == nil {
		now = time.Now
	}
	return &StatusLine{now: now}
}

// Set replaces the message. With d > 0 it clears after d unless another
// Set has replaced it by then.
func (s *StatusLine) Set(text string, level Level, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Message{Text: text, Level: level}
	if d > 0 {
		m.Expires = s.now().Add(d)
	}
	s.current = m
}

// Current returns the live message, if any.
func (s *StatusLine) Current() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Text == "" {
		return Message{}, false
	}
	if !s.current.Expires.IsZero() && !s.now().Before(s.current.Expires) {
		s.current = Message{}
		return Message{}, false
	}
	return s.current, true
}

// Clear drops the message.
func (s *StatusLine) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Message{}
}
