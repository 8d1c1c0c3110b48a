// Package timeline associates document snapshots and tag labels with
// video clock positions, and answers "what should the board show at time
// T" when scrubbing. Marks snapshot by deep copy, so later edits never
// retroactively alter a saved moment; restoring a mark goes back through
// the command bus so it stays undoable.
package timeline

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/geo"
	"github.com/pitchside/tacticsboard/internal/history"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// Mark is one saved association between a video clock position and a
// document snapshot, with an optional tag label.
type Mark struct {
	Board string             `json:"board"`
	Clock float64            `json:"clock"`
	Label string             `json:"label,omitempty"`
	State core.DocumentState `json:"state"`
	At    time.Time          `json:"at"`

	seq uint64
}

// FormationChecker reports whether a formation name still exists in the
// catalog. Marks recorded before a catalog change may reference dropped
// formations.
type FormationChecker interface {
	Has(name string) bool
}

// RestoreReport lists what a snapshot restore had to drop to stay
// consistent with the current document and catalog. Dropping is never a
// hard failure.
type RestoreReport struct {
	Version          uint64
	DroppedTokens    []uint
	NulledAnchors    []uint
	ClearedFormation string
}

// Clean reports whether the restore applied the snapshot in full.
func (r RestoreReport) Clean() bool {
	return len(r.DroppedTokens) == 0 && len(r.NulledAnchors) == 0 &&
		r.ClearedFormation == ""
}

// Index is the per-board mark store. Marks are kept ordered by clock;
// marks with equal clocks keep insertion order.
type Index struct {
	mu     sync.Mutex
	marks  map[string][]Mark
	seq    uint64
	logger *slog.Logger
}

// NewIndex creates an empty timeline index.
func NewIndex(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		marks:  make(map[string][]Mark),
		logger: logger,
	}
}

// RecordMark snapshots the board's current document and stores a mark at
// the given clock position.
func (x *Index) RecordMark(bus *history.Bus, boardID string, clock float64, label string) (Mark, error) {
	doc, err := bus.Board(boardID)
	if err != nil {
		return Mark{}, fmt.Errorf("recording mark: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	x.seq++
	mark := Mark{
		Board: boardID,
		Clock: clock,
		Label: label,
		State: doc.State(),
		At:    time.Now(),
		seq:   x.seq,
	}

	marks := x.marks[boardID]
	// insert after any existing mark with clock <= this one, so equal
	// clocks stay in insertion order
	idx := sort.Search(len(marks), func(i int) bool { return marks[i].Clock > clock })
	marks = append(marks, Mark{})
	copy(marks[idx+1:], marks[idx:])
	marks[idx] = mark
	x.marks[boardID] = marks

	x.logger.Debug("mark recorded", "board", boardID, "clock", clock, "label", label)
	return mark, nil
}

// ImportMark inserts a previously persisted mark without touching the
// live document. Session loading rebuilds the index through it; insertion
// order of equal clocks follows call order.
func (x *Index) ImportMark(boardID string, clock float64, label string, state core.DocumentState, at time.Time) Mark {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.seq++
	mark := Mark{
		Board: boardID,
		Clock: clock,
		Label: label,
		State: state,
		At:    at,
		seq:   x.seq,
	}

	marks := x.marks[boardID]
	idx := sort.Search(len(marks), func(i int) bool { return marks[i].Clock > clock })
	marks = append(marks, Mark{})
	copy(marks[idx+1:], marks[idx:])
	marks[idx] = mark
	x.marks[boardID] = marks
	return mark
}

// ResolveAt returns the mark with the greatest clock at or before the
// given position. Of marks sharing that clock, the later-inserted one
// wins. Pure lookup: the live document is untouched.
func (x *Index) ResolveAt(boardID string, clock float64) (Mark, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	marks := x.marks[boardID]
	idx := sort.Search(len(marks), func(i int) bool { return marks[i].Clock > clock })
	if idx == 0 {
		return Mark{}, false
	}
	return marks[idx-1], true
}

// Marks returns all marks for a board in timeline order.
func (x *Index) Marks(boardID string) []Mark {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]Mark, len(x.marks[boardID]))
	copy(out, x.marks[boardID])
	return out
}

// Restore submits the mark's snapshot to the board as a RestoreSnapshot
// command, so the restore itself is one undoable history entry. Entities
// no longer valid — tokens outside the pitch, anchors to tokens missing
// from the snapshot, a formation dropped from the catalog — are filtered
// out and reported, never a hard failure.
func (x *Index) Restore(bus *history.Bus, mark Mark, catalog FormationChecker) (RestoreReport, error) {
	st := mark.State
	report := RestoreReport{}

	kept := make(map[uint]bool, len(st.Tokens))
	tokens := make([]core.Token, 0, len(st.Tokens))
	for _, t := range st.Tokens {
		if !geo.InPitch(t.Position) {
			report.DroppedTokens = append(report.DroppedTokens, t.ID)
			continue
		}
		tokens = append(tokens, t)
		kept[t.ID] = true
	}

	arrows := make([]core.Arrow, 0, len(st.Arrows))
	for _, a := range st.Arrows {
		if a.AnchorToken != 0 && !kept[a.AnchorToken] {
			a.AnchorToken = 0
			report.NulledAnchors = append(report.NulledAnchors, a.ID)
		}
		arrows = append(arrows, a)
	}

	if st.Formation != "" && catalog != nil && !catalog.Has(st.Formation) {
		report.ClearedFormation = st.Formation
		st.Formation = ""
	}

	st.Tokens = tokens
	st.Arrows = arrows

	version, err := bus.Execute(mark.Board, board.RestoreSnapshot{State: st})
	if err != nil {
		return report, fmt.Errorf("restoring mark at %.3f: %w", mark.Clock, err)
	}
	report.Version = version

	if !report.Clean() {
		x.logger.Warn("snapshot restored with drops",
			"board", mark.Board, "clock", mark.Clock,
			"droppedTokens", len(report.DroppedTokens),
			"nulledAnchors", len(report.NulledAnchors),
			"clearedFormation", report.ClearedFormation)
	}
	return report, nil
}

// SeekTo moves the transport to the mark's clock position.
func (x *Index) SeekTo(transport Transport, mark Mark) error {
	if transport == nil {
		return nil
	}
	return transport.Seek(mark.Clock)
}
