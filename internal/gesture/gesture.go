// Package gesture turns pointer gestures into commands. Each board slot
// has one controller running the slot's state machine: Idle → Editing on
// pointer-down, back to Idle on pointer-up with exactly one committed
// command; Idle → Scrubbing → Idle around timeline interaction. An
// abandoned gesture discards its buffer and never touches history.
package gesture

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/geo"
	"github.com/pitchside/tacticsboard/internal/history"
	"github.com/pitchside/tacticsboard/internal/queue"
	"github.com/pitchside/tacticsboard/internal/timeline"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// State is the controller's position in the gesture state machine.
type State int

const (
	StateIdle State = iota
	StateEditing
	StateScrubbing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateScrubbing:
		return "scrubbing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type tool int

const (
	toolNone tool = iota
	toolStroke
	toolArrow
	toolDrag
)

var (
	// ErrGestureInProgress is returned when a gesture starts while
	// another is active.
	ErrGestureInProgress = errors.New("gesture already in progress")
	// ErrNoGesture is returned for points or commits without an active
	// gesture.
	ErrNoGesture = errors.New("no gesture in progress")
	// ErrPlaybackActive is returned when editing is attempted while the
	// transport plays in real mode and draw-while-playing is off.
	ErrPlaybackActive = errors.New("editing blocked during playback")
)

// Config carries the drawing-related settings for one controller.
type Config struct {
	GridSpacing           float64
	SnapEnabled           bool
	PathEpsilon           float64
	HitRadius             float64
	AllowDrawWhilePlaying bool
}

// Controller runs the gesture state machine for one board slot.
type Controller struct {
	boardID   string
	bus       *history.Bus
	transport timeline.Transport
	cfg       Config
	logger    *slog.Logger

	state  State
	active tool
	points *queue.Queue[core.Point]

	color      string
	width      float64
	arrowStyle core.ArrowStyle
	anchor     uint

	dragID   uint
	dragFrom core.Point
}

// NewController wires a controller to its board slot. Transport may be
// nil for boards without video.
func NewController(boardID string, bus *history.Bus, transport timeline.Transport, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		boardID:   boardID,
		bus:       bus,
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		points:    queue.New[core.Point](),
	}
}

// State returns the current gesture state.
func (c *Controller) State() State {
	return c.state
}

// CommitClock reads the transport clock, zero without a transport. The
// clock at the moment of commit is what a mark association uses.
func (c *Controller) CommitClock() float64 {
	if c.transport == nil {
		return 0
	}
	return c.transport.CurrentClock()
}

func (c *Controller) canEdit() error {
	doc, err := c.bus.Board(c.boardID)
	if err != nil {
		return err
	}
	if doc.Mode() != core.ModeReal || c.transport == nil {
		return nil
	}
	if c.transport.Playing() && !c.cfg.AllowDrawWhilePlaying {
		return ErrPlaybackActive
	}
	return nil
}

func (c *Controller) beginDrawing(t tool) error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrGestureInProgress, c.state)
	}
	if err := c.canEdit(); err != nil {
		return err
	}
	c.state = StateEditing
	c.active = t
	c.points.Clear()
	return nil
}

// BeginStroke starts a freehand stroke gesture.
func (c *Controller) BeginStroke(color string, width float64) error {
	if err := c.beginDrawing(toolStroke); err != nil {
		return err
	}
	c.color = color
	c.width = width
	return nil
}

// BeginArrow starts an arrow gesture, optionally anchored to a token.
func (c *Controller) BeginArrow(color string, width float64, style core.ArrowStyle, anchorToken uint) error {
	if err := c.beginDrawing(toolArrow); err != nil {
		return err
	}
	c.color = color
	c.width = width
	c.arrowStyle = style
	c.anchor = anchorToken
	return nil
}

// AddPoint appends a pitch-space point to the in-progress gesture,
// snapping to the grid when enabled. Points outside the pitch are
// ignored rather than aborting the gesture (the pointer may graze the
// edge mid-stroke).
func (c *Controller) AddPoint(p core.Point) error {
	if c.state != StateEditing || (c.active != toolStroke && c.active != toolArrow) {
		return ErrNoGesture
	}
	if !geo.InPitch(p) {
		return nil
	}
	if c.cfg.SnapEnabled {
		p = geo.Snap(p, c.cfg.GridSpacing)
	}
	// a dwelling pointer on a snapped grid keeps emitting the same cell
	if !c.points.Empty() && c.points.Last() == p {
		return nil
	}
	c.points.Push(p)
	return nil
}

// End commits the in-progress drawing gesture as exactly one command and
// returns the new document version. A gesture whose normalized path has
// fewer than two points is abandoned silently: nothing was committed, so
// there is nothing to roll back.
func (c *Controller) End() (uint64, error) {
	if c.state != StateEditing || (c.active != toolStroke && c.active != toolArrow) {
		return 0, ErrNoGesture
	}

	points := geo.NormalizePath(c.points.GetAndEmpty(), c.cfg.PathEpsilon)
	active := c.active
	c.state = StateIdle
	c.active = toolNone

	if len(points) < 2 {
		c.logger.Debug("gesture abandoned", "board", c.boardID, "points", len(points))
		return 0, nil
	}

	var cmd board.Command
	switch active {
	case toolStroke:
		cmd = board.AddStroke{Stroke: core.Stroke{
			Points: points,
			Color:  c.color,
			Width:  c.width,
		}}
	case toolArrow:
		cmd = board.AddArrow{Arrow: core.Arrow{
			Points:      points,
			Style:       c.arrowStyle,
			Color:       c.color,
			Width:       c.width,
			AnchorToken: c.anchor,
		}}
	}
	return c.bus.Execute(c.boardID, cmd)
}

// Cancel abandons the in-progress gesture. The partial buffer is
// discarded and history is untouched.
func (c *Controller) Cancel() {
	c.points.Clear()
	c.state = StateIdle
	c.active = toolNone
	c.dragID = 0
}

// BeginDrag starts moving a token.
func (c *Controller) BeginDrag(tokenID uint) error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrGestureInProgress, c.state)
	}
	if err := c.canEdit(); err != nil {
		return err
	}
	doc, err := c.bus.Board(c.boardID)
	if err != nil {
		return err
	}
	tok, ok := doc.Token(tokenID)
	if !ok {
		return fmt.Errorf("%w: token %d: %w", board.ErrInvalidCommand, tokenID, board.ErrUnknownEntity)
	}
	c.state = StateEditing
	c.active = toolDrag
	c.dragID = tokenID
	c.dragFrom = tok.Position
	return nil
}

// EndDrag commits the token move as one command.
func (c *Controller) EndDrag(to core.Point) (uint64, error) {
	if c.state != StateEditing || c.active != toolDrag {
		return 0, ErrNoGesture
	}
	id, from := c.dragID, c.dragFrom
	c.state = StateIdle
	c.active = toolNone
	c.dragID = 0

	if c.cfg.SnapEnabled {
		to = geo.Snap(to, c.cfg.GridSpacing)
	}
	if to == from {
		// dropped in place, nothing to record
		return 0, nil
	}
	return c.bus.Execute(c.boardID, board.MoveToken{ID: id, From: from, To: to})
}

// EraseAt hit-tests the document around p and erases the nearest entity
// as one command. Returns version zero when nothing is within reach.
func (c *Controller) EraseAt(p core.Point) (uint64, error) {
	if c.state != StateIdle {
		return 0, fmt.Errorf("%w: state %s", ErrGestureInProgress, c.state)
	}
	if err := c.canEdit(); err != nil {
		return 0, err
	}
	doc, err := c.bus.Board(c.boardID)
	if err != nil {
		return 0, err
	}
	id := doc.HitTest(p, c.cfg.HitRadius)
	if id == 0 {
		return 0, nil
	}
	return c.bus.Execute(c.boardID, board.Erase{IDs: []uint{id}})
}

// BeginScrub enters the scrubbing state around timeline interaction.
func (c *Controller) BeginScrub() error {
	if c.state != StateIdle {
		return fmt.Errorf("%w: state %s", ErrGestureInProgress, c.state)
	}
	c.state = StateScrubbing
	return nil
}

// EndScrub leaves the scrubbing state.
func (c *Controller) EndScrub() {
	if c.state == StateScrubbing {
		c.state = StateIdle
	}
}
