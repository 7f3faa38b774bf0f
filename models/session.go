package models

import (
	"strings"
	"time"
)

// SessionState is the position of a conversation in the triage cycle.
type SessionState string

const (
	StateWelcome                     SessionState = "WELCOME"
	StateAskingLocation              SessionState = "ASKING_LOCATION"
	StateCollectingSymptoms1         SessionState = "COLLECTING_SYMPTOMS_1"
	StateCollectingSymptoms2         SessionState = "COLLECTING_SYMPTOMS_2"
	StateAwaitingAppointmentDecision SessionState = "AWAITING_APPOINTMENT_DECISION"
	StateTerminal                    SessionState = "TERMINAL"
)

// Valid reports whether s is one of the known states.
func (s SessionState) Valid() bool {
	switch s {
	case StateWelcome, StateAskingLocation, StateCollectingSymptoms1,
		StateCollectingSymptoms2, StateAwaitingAppointmentDecision, StateTerminal:
		return true
	}
	return false
}

// MessageChannel represents the communication channel
type MessageChannel string

const (
	ChannelWeb      MessageChannel = "web"
	ChannelWhatsApp MessageChannel = "whatsapp"
)

// Role of a history entry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type HistoryEntry struct {
	Role string `bson:"role" json:"role"`
	Text string `bson:"text" json:"text"`
}

// Coordinates is the browser geolocation stored by the location-set call.
type Coordinates struct {
	Latitude  float64   `bson:"latitude" json:"latitude"`
	Longitude float64   `bson:"longitude" json:"longitude"`
	Accuracy  float64   `bson:"accuracy,omitempty" json:"accuracy,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Preferences mirrors the user_preferences blob of a chat session.
type Preferences struct {
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// Session is the conversation state for one channel identity.
type Session struct {
	Identity         string         `bson:"_id" json:"identity"`
	Channel          MessageChannel `bson:"channel" json:"channel"`
	State            SessionState   `bson:"state" json:"state"`
	Location         string         `bson:"location,omitempty" json:"location,omitempty"`
	InitialSymptom   string         `bson:"initial_symptom,omitempty" json:"initial_symptom,omitempty"`
	Followup1        string         `bson:"followup_1,omitempty" json:"followup_1,omitempty"`
	Followup2        string         `bson:"followup_2,omitempty" json:"followup_2,omitempty"`
	History          []HistoryEntry `bson:"history" json:"history"`
	AwaitingDecision bool           `bson:"awaiting_decision" json:"awaiting_decision"`
	Preferences      Preferences    `bson:"preferences" json:"preferences"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
	LastActivityAt   time.Time      `bson:"last_activity_at" json:"last_activity_at"`
	Version          int64          `bson:"version" json:"version"`
}

// NewSession returns a fresh WELCOME session for identity.
func NewSession(identity string, channel MessageChannel, now time.Time) *Session {
	return &Session{
		Identity:       identity,
		Channel:        channel,
		State:          StateWelcome,
		History:        []HistoryEntry{},
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Expired reports whether the session has been idle longer than ttl.
// A zero ttl never expires.
func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastActivityAt) > ttl
}

// ClearSymptoms drops the accumulated symptom fragments of the current cycle.
func (s *Session) ClearSymptoms() {
	s.InitialSymptom = ""
	s.Followup1 = ""
	s.Followup2 = ""
}

// CombinedSymptoms joins the non-empty symptom fragments with spaces.
func (s *Session) CombinedSymptoms() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.InitialSymptom, s.Followup1, s.Followup2} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// AppendHistory records a turn and keeps only the last limit entries.
func (s *Session) AppendHistory(role, text string, limit int) {
	s.History = append(s.History, HistoryEntry{Role: role, Text: text})
	if limit > 0 && len(s.History) > limit {
		s.History = append([]HistoryEntry(nil), s.History[len(s.History)-limit:]...)
	}
}

// RecentUserTurns returns up to n of the latest user messages, oldest first.
func (s *Session) RecentUserTurns(n int) []string {
	var out []string
	for i := len(s.History) - 1; i >= 0 && len(out) < n; i-- {
		if s.History[i].Role == RoleUser {
			out = append(out, s.History[i].Text)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]HistoryEntry(nil), s.History...)
	if s.Preferences.Coordinates != nil {
		coords := *s.Preferences.Coordinates
		c.Preferences.Coordinates = &coords
	}
	return &c
}
