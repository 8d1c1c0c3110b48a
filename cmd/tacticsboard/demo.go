package main

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/dispatcher"
	"github.com/pitchside/tacticsboard/internal/gesture"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// dispatchDemoEvent routes a demo intent through the dispatcher so the
// demo exercises the same path the presentation shell uses.
func dispatchDemoEvent(intent string, args []string) (any, error) {
	return eventDispatcher.Dispatch(dispatcher.Event{
		Intent:    intent,
		Args:      args,
		Timestamp: time.Now(),
	})
}

// populateDemoData seeds both boards with a full working set: two
// formations, a drag, freehand annotations, a zone, timeline marks and a
// scrub restore. It then saves the session, exports the scenes and
// writes a replayable command log.
func populateDemoData() error {
	logPath := filepath.Join(WorkDir, "demo.cmdlog")
	cmdLog, err := openCommandLog(logPath)
	if err != nil {
		return fmt.Errorf("opening command log: %w", err)
	}
	bus.OnCommit(func(boardID string, cmd board.Command, version uint64) {
		if boardID != mainBoard {
			return
		}
		if err := cmdLog.Record(cmd); err != nil {
			Logger.Warn("Failed to record command", "error", err, "kind", cmd.Kind())
		}
	})

	// formations on both sides, replicated onto the presentation board
	start := time.Now()
	if _, err := dispatchDemoEvent("formation:apply", []string{mainBoard, "home", "4-3-3"}); err != nil {
		return err
	}
	if _, err := dispatchDemoEvent("formation:apply", []string{mainBoard, "away", "4-4-2"}); err != nil {
		return err
	}
	fmt.Println("Applied formations in", time.Since(start))

	doc, err := bus.Board(mainBoard)
	if err != nil {
		return err
	}

	ctl := controllers[mainBoard]

	// editing must be blocked while the match video is running
	transport.Play()
	if err := ctl.BeginStroke("#ffffff", 0.004); !errors.Is(err, gesture.ErrPlaybackActive) {
		return fmt.Errorf("expected editing blocked during playback, got %v", err)
	}
	transport.Pause()

	// drag a home midfielder forward; the drop position snaps to grid
	var midfielder core.Token
	for _, t := range doc.Tokens() {
		if t.Side == core.SideHome && t.Role == core.RoleMidfielder {
			midfielder = t
			break
		}
	}
	if midfielder.ID == 0 {
		return fmt.Errorf("no home midfielder on the board")
	}
	if err := ctl.BeginDrag(midfielder.ID); err != nil {
		return err
	}
	if _, err := ctl.EndDrag(core.Point{
		X: midfielder.Position.X + 0.12,
		Y: midfielder.Position.Y + 0.03,
	}); err != nil {
		return err
	}

	// anchored run arrow from the dragged player
	moved, _ := doc.Token(midfielder.ID)
	if err := ctl.BeginArrow("#f4f4f4", 0.004, core.ArrowSolid, moved.ID); err != nil {
		return err
	}
	arrowFrom := moved.Position
	for i := 0; i <= 8; i++ {
		frac := float64(i) / 8
		if err := ctl.AddPoint(core.Point{
			X: arrowFrom.X + frac*0.15,
			Y: arrowFrom.Y + frac*0.05 + (rand.Float64()-0.5)*0.002,
		}); err != nil {
			return err
		}
	}
	if _, err := ctl.End(); err != nil {
		return err
	}

	// freehand coaching scribble
	if err := ctl.BeginStroke("#ffe066", 0.003); err != nil {
		return err
	}
	for i := 0; i <= 20; i++ {
		frac := float64(i) / 20
		if err := ctl.AddPoint(core.Point{
			X: 0.30 + frac*0.25,
			Y: 0.70 + 0.05*rand.Float64(),
		}); err != nil {
			return err
		}
	}
	if _, err := ctl.End(); err != nil {
		return err
	}

	// pressing zone in the away half
	if _, err := bus.Execute(mainBoard, board.AddZone{Zone: core.Zone{
		Shape:     core.ZoneRectangle,
		Min:       core.Point{X: 0.55, Y: 0.25},
		Max:       core.Point{X: 0.80, Y: 0.75},
		Color:     "#3fa34d",
		FillAlpha: 0.25,
	}}); err != nil {
		return err
	}

	// timeline: mark the opening shape, advance, change it, mark again
	if _, err := dispatchDemoEvent("timeline:mark", []string{mainBoard, "10", "kickoff shape"}); err != nil {
		return err
	}
	transport.Advance(35)

	if _, err := dispatchDemoEvent("formation:apply", []string{mainBoard, "home", "4-2-3-1"}); err != nil {
		return err
	}
	if _, err := dispatchDemoEvent("timeline:mark", []string{mainBoard, "45", "switch to 4-2-3-1"}); err != nil {
		return err
	}

	// undo/redo round trip through the dispatcher
	if status, err := dispatchDemoEvent("board:undo", []string{mainBoard}); err != nil {
		return err
	} else {
		fmt.Println("Undo:", status)
	}
	if status, err := dispatchDemoEvent("board:redo", []string{mainBoard}); err != nil {
		return err
	} else {
		fmt.Println("Redo:", status)
	}

	// scrub back to the kickoff mark; this restores the snapshot as one
	// undoable entry and seeks the transport
	if report, err := dispatchDemoEvent("timeline:restore", []string{mainBoard, "20"}); err != nil {
		return err
	} else {
		fmt.Printf("Restored kickoff shape: %+v\n", report)
	}
	fmt.Println("Transport clock after restore:", transport.CurrentClock())

	// the presentation board followed every primary edit
	pres, err := bus.Board(presentationBoard)
	if err != nil {
		return err
	}
	fmt.Printf("Presentation board mirrors %d tokens, %d arrows, %d strokes, %d zones\n",
		len(pres.Tokens()), len(pres.Arrows()), len(pres.Strokes()), len(pres.Zones()))

	// two scene fetches at the same version; the second is a cache hit
	if _, err := dispatchDemoEvent("scene:get", []string{mainBoard}); err != nil {
		return err
	}
	if _, err := dispatchDemoEvent("scene:get", []string{mainBoard}); err != nil {
		return err
	}
	hits, misses := sceneCache.Stats()
	fmt.Printf("Scene cache: %d hits, %d misses\n", hits, misses)

	if _, err := dispatchDemoEvent("session:save", []string{"demo"}); err != nil {
		return err
	}
	if err := cmdLog.Close(); err != nil {
		return err
	}
	fmt.Println("Wrote command log to", logPath)

	if err := exportSession("demo", ""); err != nil {
		return err
	}

	entries, cursor, err := bus.HistoryLen(mainBoard)
	if err != nil {
		return err
	}
	fmt.Printf("Main board history: %d entries, cursor at %d\n", entries, cursor)
	return nil
}
