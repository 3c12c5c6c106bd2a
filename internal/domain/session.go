// Package domain contains entities without transport or lifecycle logic.
package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID identifies one activation of the companion session.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type SessionState int

const (
	NotActivated SessionState = iota
	Activating
	Activated
	Inactive
	Deactivated
)

var sessionStateNames = map[SessionState]string{
	NotActivated: "not_activated",
	Activating:   "activating",
	Activated:    "activated",
	Inactive:     "inactive",
	Deactivated:  "deactivated",
}

func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s SessionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// IsLive reports whether an activation is in progress or established.
func (s SessionState) IsLive() bool {
	return s == Activating || s == Activated || s == Inactive
}
