// Package link replicates committed commands from a primary board slot to
// a linked secondary slot. Replication is re-submission through the
// secondary's own command bus — never shared document references — so each
// board keeps its own camera, playback state, and undo history.
package link

import (
	"log/slog"
	"sync"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/history"
)

// Conflict describes a replicated command the secondary board rejected.
// The primary commit always stands; the link is disabled so no further
// edits are silently dropped.
type Conflict struct {
	Primary   string
	Secondary string
	Cmd       board.Command
	Err       error
}

// ConflictFunc is notified when replication fails and the link disables.
type ConflictFunc func(Conflict)

type syncLink struct {
	primary   string
	secondary string
	enabled   bool
}

// Synchronizer watches bus commits and replays them across enabled links.
type Synchronizer struct {
	bus    *history.Bus
	logger *slog.Logger

	mu          sync.Mutex
	links       []*syncLink
	replicating bool
	onConflict  ConflictFunc
}

// New creates a synchronizer and hooks it into the bus commit stream.
func New(bus *history.Bus, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{bus: bus, logger: logger}
	bus.OnCommit(s.handleCommit)
	return s
}

// SetConflictHandler registers the conflict notification callback.
func (s *Synchronizer) SetConflictHandler(fn ConflictFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConflict = fn
}

// Link creates (or re-enables) the replication relation from primary to
// secondary. Re-enabling never replays missed edits; only future commands
// flow.
func (s *Synchronizer) Link(primary, secondary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.primary == primary && l.secondary == secondary {
			l.enabled = true
			return
		}
	}
	s.links = append(s.links, &syncLink{
		primary:   primary,
		secondary: secondary,
		enabled:   true,
	})
}

// Unlink disables the replication relation. Both boards remain editable.
func (s *Synchronizer) Unlink(primary, secondary string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.primary == primary && l.secondary == secondary {
			l.enabled = false
		}
	}
}

// Enabled reports whether the given relation is currently replicating.
func (s *Synchronizer) Enabled(primary, secondary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.links {
		if l.primary == primary && l.secondary == secondary {
			return l.enabled
		}
	}
	return false
}

func (s *Synchronizer) handleCommit(boardID string, cmd board.Command, version uint64) {
	s.mu.Lock()
	if s.replicating {
		// this commit is our own replay; never cascade
		s.mu.Unlock()
		return
	}
	var targets []*syncLink
	for _, l := range s.links {
		if l.enabled && l.primary == boardID {
			targets = append(targets, l)
		}
	}
	s.mu.Unlock()

	for _, l := range targets {
		s.mu.Lock()
		s.replicating = true
		s.mu.Unlock()

		_, err := s.bus.Execute(l.secondary, cmd)

		s.mu.Lock()
		s.replicating = false
		onConflict := s.onConflict
		if err != nil {
			l.enabled = false
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Warn("sync conflict, link disabled",
				"primary", l.primary, "secondary", l.secondary,
				"kind", string(cmd.Kind()), "error", err)
			if onConflict != nil {
				onConflict(Conflict{
					Primary:   l.primary,
					Secondary: l.secondary,
					Cmd:       cmd,
					Err:       err,
				})
			}
		}
	}
}
