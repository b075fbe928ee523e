package domain

import "time"

// Turn is one message in the conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionRecord is the full per-session state persisted to the session
// store. History is a bounded ring: only the most recent turns are kept so
// the serialized payload stays small.
type SessionRecord struct {
	UserID          string            `json:"user_id"`
	SessionID       string            `json:"session_id"`
	Profile         PetProfile        `json:"profile"`
	Consultation    ConsultationState `json:"consultation"`
	LocationSummary string            `json:"location_summary,omitempty"`
	History         []Turn            `json:"history"`
	CreatedAt       time.Time         `json:"created_at"`
	LastActive      time.Time         `json:"last_active"`
	MessageCount    int               `json:"message_count"`
	EmergencyFlag   bool              `json:"emergency_flag"`
}

// NewSessionRecord creates an empty record for a session key.
func NewSessionRecord(userID, sessionID string) *SessionRecord {
	now := time.Now()
	return &SessionRecord{
		UserID:       userID,
		SessionID:    sessionID,
		Consultation: NewConsultationState(),
		CreatedAt:    now,
		LastActive:   now,
	}
}

// AppendTurn adds a turn to the history, dropping the oldest entries when
// the history exceeds limit.
func (r *SessionRecord) AppendTurn(role, text string, limit int) {
	r.History = append(r.History, Turn{Role: role, Text: text, Timestamp: time.Now()})
	if limit > 0 && len(r.History) > limit {
		r.History = r.History[len(r.History)-limit:]
	}
	r.LastActive = time.Now()
}

// Clone returns a deep copy of the record.
func (r *SessionRecord) Clone() *SessionRecord {
	out := *r
	out.Profile = r.Profile.Clone()
	out.Consultation = r.Consultation.Clone()
	out.History = append([]Turn(nil), r.History...)
	return &out
}
