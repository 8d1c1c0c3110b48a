// internal/storage/storage.go
package storage

import "github.com/pitchside/tacticsboard/pkg/core"

// Backend is the interface all session storage implementations satisfy.
type Backend interface {
	Init() error
	Close() error

	SaveSession(s *core.Session) error
	LoadSession(name string) (*core.Session, error)
	ListSessions() ([]core.SessionInfo, error)
	DeleteSession(name string) error
}
