package model

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Bounds on the long-lived per-session state. Truncation always drops the
// oldest entries first.
const (
	MaxHistory       = 30
	MaxKeyFacts      = 10
	MaxAdvisorPoints = 10
)

// HistoryMessage is one conversation turn entry.
type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState holds the sticky per-conversation context. It is exclusively
// owned by the session store: the engine reads a snapshot and issues update
// calls, it never mutates a shared instance.
type SessionState struct {
	SessionID     string           `json:"session_id"`
	Crop          string           `json:"crop,omitempty"`
	LocationLabel string           `json:"location_label,omitempty"`
	Lat           *float64         `json:"lat,omitempty"`
	Lon           *float64         `json:"lon,omitempty"`
	History       []HistoryMessage `json:"history"`
	KeyFacts      []string         `json:"key_facts"`
	AdvisorPoints []string         `json:"advisor_points"`
	LastActive    time.Time        `json:"last_active"`
}

// NewSessionState returns an empty session for the given id.
func NewSessionState(sessionID string) *SessionState {
	return &SessionState{
		SessionID:     sessionID,
		History:       []HistoryMessage{},
		KeyFacts:      []string{},
		AdvisorPoints: []string{},
		LastActive:    time.Now(),
	}
}

// Clone returns a deep copy so callers can hold a snapshot without aliasing
// store-owned slices.
func (s *SessionState) Clone() *SessionState {
	cp := *s
	cp.History = append([]HistoryMessage(nil), s.History...)
	cp.KeyFacts = append([]string(nil), s.KeyFacts...)
	cp.AdvisorPoints = append([]string(nil), s.AdvisorPoints...)
	if s.Lat != nil {
		lat := *s.Lat
		cp.Lat = &lat
	}
	if s.Lon != nil {
		lon := *s.Lon
		cp.Lon = &lon
	}
	return &cp
}

// HasLocation reports whether the session carries a stored coordinate.
func (s *SessionState) HasLocation() bool {
	return s.Lat != nil && s.Lon != nil
}

// MemorySummary renders the long-term memory slots as a compact prompt block.
func (s *SessionState) MemorySummary() string {
	var parts []string
	if s.Crop != "" {
		parts = append(parts, "Crop: "+s.Crop)
	}
	if s.LocationLabel != "" {
		parts = append(parts, "Location: "+s.LocationLabel)
	} else if s.HasLocation() {
		parts = append(parts, fmt.Sprintf("Location: Lat %g, Lon %g", *s.Lat, *s.Lon))
	}
	if len(s.KeyFacts) > 0 {
		parts = append(parts, "Key facts: "+strings.Join(s.KeyFacts, " | "))
	}
	if len(s.AdvisorPoints) > 0 {
		parts = append(parts, "Advisor points given: "+strings.Join(s.AdvisorPoints, " | "))
	}
	if len(parts) == 0 {
		return "No long-term memory yet."
	}
	return strings.Join(parts, "\n")
}

// ContextUpdate carries the session fields a turn wants to write back.
// Zero-valued fields are left untouched; a coordinate is only applied when
// both Lat and Lon are present.
type ContextUpdate struct {
	Crop  string
	Lat   *float64
	Lon   *float64
	Label string
}

// SessionStore owns SessionState instances keyed by session id. Get creates
// the session when the id is unseen. Implementations serialize updates per
// session id so concurrent turns cannot lose writes.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*SessionState, error)
	UpdateContext(ctx context.Context, sessionID string, upd ContextUpdate) error
	AppendMessage(ctx context.Context, sessionID, role, content string) error
	UpdateMemory(ctx context.Context, sessionID, userText, assistantText string) error
	Clear(ctx context.Context, sessionID string) error
}
