package board

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pitchside/tacticsboard/internal/geo"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// Document is the canonical tactical state of one board slot. All
// tactical mutation goes through Apply; there are no entity setters, so
// every change is automatically invertible and undoable. Camera and mode
// are view-local and mutate directly — they are not tactical content and
// never enter history or replication.
//
// A Document is exclusively owned by its board slot and is not safe for
// concurrent use; the command bus serializes access.
type Document struct {
	tokens  map[uint]core.Token
	arrows  map[uint]core.Arrow
	strokes map[uint]core.Stroke
	zones   map[uint]core.Zone

	formation string
	camera    core.Camera
	mode      core.Mode
	nextID    uint
}

// New creates an empty document in the given mode.
func New(mode core.Mode) *Document {
	return &Document{
		tokens:  make(map[uint]core.Token),
		arrows:  make(map[uint]core.Arrow),
		strokes: make(map[uint]core.Stroke),
		zones:   make(map[uint]core.Zone),
		camera:  core.DefaultCamera(),
		mode:    mode,
		nextID:  1,
	}
}

// Apply validates cmd against the document, mutates it atomically, and
// returns the inverse command. On error the document is unchanged and the
// error wraps ErrInvalidCommand.
func (d *Document) Apply(cmd Command) (Command, error) {
	if cmd == nil {
		return nil, fmt.Errorf("%w: nil command", ErrInvalidCommand)
	}
	return cmd.apply(d)
}

// Token returns the token with the given ID.
func (d *Document) Token(id uint) (core.Token, bool) {
	t, ok := d.tokens[id]
	return t, ok
}

// Tokens returns all tokens ordered by ID.
func (d *Document) Tokens() []core.Token {
	out := make([]core.Token, 0, len(d.tokens))
	for _, t := range d.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Arrow returns the arrow with the given ID.
func (d *Document) Arrow(id uint) (core.Arrow, bool) {
	a, ok := d.arrows[id]
	return a, ok
}

// Arrows returns all arrows ordered by ID, with copied point slices.
func (d *Document) Arrows() []core.Arrow {
	out := make([]core.Arrow, 0, len(d.arrows))
	for _, a := range d.arrows {
		a.Points = clonePoints(a.Points)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Strokes returns all strokes ordered by ID, with copied point slices.
func (d *Document) Strokes() []core.Stroke {
	out := make([]core.Stroke, 0, len(d.strokes))
	for _, s := range d.strokes {
		s.Points = clonePoints(s.Points)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Zones returns all zones ordered by ID.
func (d *Document) Zones() []core.Zone {
	out := make([]core.Zone, 0, len(d.zones))
	for _, z := range d.zones {
		out = append(out, z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveAnchor returns the token an arrow is anchored to, if any.
func (d *Document) ResolveAnchor(arrowID uint) (core.Token, bool) {
	a, ok := d.arrows[arrowID]
	if !ok || a.AnchorToken == 0 {
		return core.Token{}, false
	}
	return d.Token(a.AnchorToken)
}

// Formation returns the active formation name, empty if none.
func (d *Document) Formation() string {
	return d.formation
}

// Camera returns the view-local camera.
func (d *Document) Camera() core.Camera {
	return d.camera
}

// SetCamera updates the view-local camera. Not a command: camera state is
// outside undo history by design of the data model.
func (d *Document) SetCamera(cam core.Camera) {
	d.camera = cam
}

// Mode returns the board mode.
func (d *Document) Mode() core.Mode {
	return d.mode
}

// SetMode switches the board between real and virtual mode.
func (d *Document) SetMode(mode core.Mode) {
	d.mode = mode
}

// Empty reports whether the document holds no tactical content.
func (d *Document) Empty() bool {
	return len(d.tokens) == 0 && len(d.arrows) == 0 &&
		len(d.strokes) == 0 && len(d.zones) == 0 && d.formation == ""
}

// State snapshots the tactical content as a deep copy. Later edits to the
// document cannot alter a returned state, which is what timeline marks
// rely on.
func (d *Document) State() core.DocumentState {
	return core.DocumentState{
		Tokens:    d.Tokens(),
		Arrows:    d.Arrows(),
		Strokes:   d.Strokes(),
		Zones:     d.Zones(),
		Formation: d.formation,
		Mode:      d.mode,
		NextID:    d.nextID,
	}
}

// Serialize encodes the tactical content as JSON. Because State orders
// entities by ID, equal documents serialize byte-for-byte equal.
func (d *Document) Serialize() ([]byte, error) {
	return json.Marshal(d.State())
}

// Deserialize replaces the tactical content from serialized form. Camera
// is left alone. This is the persistence entry point, not a command; it
// resets nothing in history terms because the caller owns history.
func (d *Document) Deserialize(data []byte) error {
	var st core.DocumentState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decoding document state: %w", err)
	}
	d.replaceState(st, true)
	return nil
}

// replaceState swaps in the given tactical content. Maps are rebuilt and
// point slices copied so the state remains independent. Mode is only
// adopted when withMode is set (persistence); snapshot restores keep the
// live mode.
func (d *Document) replaceState(st core.DocumentState, withMode bool) {
	d.tokens = make(map[uint]core.Token, len(st.Tokens))
	for _, t := range st.Tokens {
		d.tokens[t.ID] = t
	}
	d.arrows = make(map[uint]core.Arrow, len(st.Arrows))
	for _, a := range st.Arrows {
		a.Points = clonePoints(a.Points)
		d.arrows[a.ID] = a
	}
	d.strokes = make(map[uint]core.Stroke, len(st.Strokes))
	for _, s := range st.Strokes {
		s.Points = clonePoints(s.Points)
		d.strokes[s.ID] = s
	}
	d.zones = make(map[uint]core.Zone, len(st.Zones))
	for _, z := range st.Zones {
		d.zones[z.ID] = z
	}
	d.formation = st.Formation
	if withMode && st.Mode != "" {
		d.mode = st.Mode
	}
	d.nextID = st.NextID
	if d.nextID == 0 {
		d.nextID = 1
	}
}

// HitTargets projects the document into hit-test targets: tokens as
// points, arrows and strokes as polylines, zones as closed rings.
func (d *Document) HitTargets() []geo.Target {
	targets := make([]geo.Target, 0,
		len(d.tokens)+len(d.arrows)+len(d.strokes)+len(d.zones))
	for _, t := range d.tokens {
		targets = append(targets, geo.Target{ID: t.ID, Points: []core.Point{t.Position}})
	}
	for _, a := range d.arrows {
		targets = append(targets, geo.Target{ID: a.ID, Points: a.Points})
	}
	for _, s := range d.strokes {
		targets = append(targets, geo.Target{ID: s.ID, Points: s.Points})
	}
	for _, z := range d.zones {
		targets = append(targets, geo.Target{ID: z.ID, Points: geo.RectRing(z.Min, z.Max)})
	}
	return targets
}

// HitTest returns the nearest entity ID within radius of p, zero if none.
func (d *Document) HitTest(p core.Point, radius float64) uint {
	return geo.HitTest(p, d.HitTargets(), radius)
}

// allocID hands out the next entity ID. IDs are unique across all entity
// kinds of one document, which keeps hit-test tie-breaking unambiguous.
func (d *Document) allocID() uint {
	id := d.nextID
	d.nextID++
	return id
}

// claimID registers an externally chosen ID, bumping the allocator past it.
func (d *Document) claimID(id uint) {
	if id >= d.nextID {
		d.nextID = id + 1
	}
}

func (d *Document) idInUse(id uint) bool {
	if _, ok := d.tokens[id]; ok {
		return true
	}
	if _, ok := d.arrows[id]; ok {
		return true
	}
	if _, ok := d.strokes[id]; ok {
		return true
	}
	_, ok := d.zones[id]
	return ok
}

func clonePoints(points []core.Point) []core.Point {
	out := make([]core.Point, len(points))
	copy(out, points)
	return out
}
