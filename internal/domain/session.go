package domain

import (
	"maps"
	"time"
)

// Session is the per-user record of dialog state and partially collected answers.
type Session struct {
	UserID    string            `json:"userId"`
	State     State             `json:"state"`
	Fields    map[string]string `json:"fields,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// NewSession returns the implicit initial session for a user.
func NewSession(userID string) Session {
	return Session{UserID: userID, State: Idle, Fields: map[string]string{}}
}

// Reset returns the session at Idle with no fields.
func (s Session) Reset() Session {
	return NewSession(s.UserID)
}

// Clone returns a copy whose Fields map is not shared with s.
func (s Session) Clone() Session {
	out := s
	out.Fields = make(map[string]string, len(s.Fields))
	maps.Copy(out.Fields, s.Fields)
	return out
}

// Field returns a collected value and whether it was set.
func (s Session) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// SetField records a value, allocating the map on first use.
func (s *Session) SetField(name, value string) {
	if s.Fields == nil {
		s.Fields = map[string]string{}
	}
	s.Fields[name] = value
}
