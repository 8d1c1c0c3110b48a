// pkg/core/session.go
package core

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a named session does not exist in
// a storage backend.
var ErrSessionNotFound = errors.New("session not found")

// BoardSave is one board slot's tactical content plus its local camera.
// The camera is saved for convenience; loading never replays it through
// history.
type BoardSave struct {
	State  DocumentState `json:"state"`
	Camera Camera        `json:"camera"`
}

// MarkSave is a persisted timeline mark: a label, a clock position and
// the full board snapshot taken at that clock.
type MarkSave struct {
	Board string        `json:"board"`
	Clock float64       `json:"clock"`
	Label string        `json:"label,omitempty"`
	State DocumentState `json:"state"`
}

// Session is a complete saved working set: every board slot, the
// timeline marks and the roster in use.
type Session struct {
	Name    string               `json:"name"`
	SavedAt time.Time            `json:"savedAt"`
	Boards  map[string]BoardSave `json:"boards"`
	Marks   []MarkSave           `json:"marks,omitempty"`
	Roster  []Player             `json:"roster,omitempty"`
}

// SessionInfo is a session listing entry.
type SessionInfo struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
	Boards  int       `json:"boards"`
	Marks   int       `json:"marks"`
}
