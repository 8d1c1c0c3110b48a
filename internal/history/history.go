// Package history implements the command bus: every tactical mutation
// funnels through Execute, which applies the command to the slot's
// document, records an invertible history entry, and bumps the slot's
// document version. Each board slot keeps its own linear history, so
// linked boards stay independently undoable.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// ErrUnknownBoard is returned when a board slot has not been registered.
var ErrUnknownBoard = errors.New("unknown board slot")

// Status reports the outcome of an undo/redo request. Hitting either end
// of history is a status, not an error; the UI disables the control.
type Status int

const (
	StatusApplied Status = iota
	StatusNothingToUndo
	StatusNothingToRedo
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNothingToUndo:
		return "nothingToUndo"
	case StatusNothingToRedo:
		return "nothingToRedo"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Entry is one committed command with its precomputed inverse.
type Entry struct {
	Cmd     board.Command
	Inverse board.Command
	At      time.Time
}

// CommitFunc observes successful Execute calls. The synchronizer hooks in
// here; undo/redo are deliberately not observable because histories never
// replicate.
type CommitFunc func(boardID string, cmd board.Command, version uint64)

type slot struct {
	doc     *board.Document
	entries []Entry
	cursor  int
	version uint64
}

// Bus owns all board slots and serializes every mutation. The engine is
// single-writer per slot; the mutex only guards against transport clock
// callbacks arriving on another goroutine.
type Bus struct {
	mu       sync.Mutex
	slots    map[string]*slot
	onCommit []CommitFunc
	logger   *slog.Logger
	now      func() time.Time
}

// NewBus creates an empty command bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		slots:  make(map[string]*slot),
		logger: logger,
		now:    time.Now,
	}
}

// AddBoard registers a board slot with an empty document.
func (b *Bus) AddBoard(boardID string, mode core.Mode) *board.Document {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := board.New(mode)
	b.slots[boardID] = &slot{doc: doc}
	return doc
}

// Board returns the document owned by a slot.
func (b *Bus) Board(boardID string) (*board.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[boardID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}
	return s.doc, nil
}

// Boards lists the registered slot IDs.
func (b *Bus) Boards() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.slots))
	for id := range b.slots {
		ids = append(ids, id)
	}
	return ids
}

// Version returns a slot's current document version.
func (b *Bus) Version(boardID string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[boardID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}
	return s.version, nil
}

// OnCommit registers a commit observer. Observers run after the document
// has mutated and history is recorded, outside the bus lock.
func (b *Bus) OnCommit(fn CommitFunc) {
	b.onCommit = append(b.onCommit, fn)
}

// Execute validates and applies cmd to the slot's document, pushes a
// history entry, discards any redo tail, and returns the new document
// version. On validation failure the document and history are unchanged.
func (b *Bus) Execute(boardID string, cmd board.Command) (uint64, error) {
	b.mu.Lock()
	s, ok := b.slots[boardID]
	if !ok {
		b.mu.Unlock()
		return 0, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}

	inv, err := s.doc.Apply(cmd)
	if err != nil {
		b.mu.Unlock()
		return 0, err
	}

	// discard-on-divergence: anything beyond the cursor is gone for good
	s.entries = append(s.entries[:s.cursor], Entry{
		Cmd:     cmd,
		Inverse: inv,
		At:      b.now(),
	})
	s.cursor = len(s.entries)
	s.version++
	version := s.version
	b.mu.Unlock()

	b.logger.Debug("command committed",
		"board", boardID, "kind", string(cmd.Kind()), "version", version)

	for _, fn := range b.onCommit {
		fn(boardID, cmd, version)
	}
	return version, nil
}

// Undo applies the inverse of the entry before the cursor. At the start
// of history it reports StatusNothingToUndo and changes nothing.
func (b *Bus) Undo(boardID string) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[boardID]
	if !ok {
		return StatusApplied, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}
	if s.cursor == 0 {
		return StatusNothingToUndo, nil
	}

	entry := s.entries[s.cursor-1]
	if _, err := s.doc.Apply(entry.Inverse); err != nil {
		// inverses apply to the exact state their command produced
		return StatusApplied, fmt.Errorf("undo failed: %w", err)
	}
	s.cursor--
	s.version++
	return StatusApplied, nil
}

// Redo re-applies the original command at the cursor. Past the end of
// history it reports StatusNothingToRedo and changes nothing.
func (b *Bus) Redo(boardID string) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[boardID]
	if !ok {
		return StatusApplied, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}
	if s.cursor >= len(s.entries) {
		return StatusNothingToRedo, nil
	}

	entry := s.entries[s.cursor]
	inv, err := s.doc.Apply(entry.Cmd)
	if err != nil {
		return StatusApplied, fmt.Errorf("redo failed: %w", err)
	}
	// the recomputed inverse replaces the stored one; both undo the same
	// state but recomputing keeps entry pairs consistent
	s.entries[s.cursor].Inverse = inv
	s.cursor++
	s.version++
	return StatusApplied, nil
}

// HistoryLen returns (entries, cursor) for a slot. Exposed for status
// display and tests.
func (b *Bus) HistoryLen(boardID string) (int, int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[boardID]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownBoard, boardID)
	}
	return len(s.entries), s.cursor, nil
}
