package board

import (
	"fmt"

	"github.com/pitchside/tacticsboard/internal/geo"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// Kind tags a command variant.
type Kind string

const (
	KindAddToken        Kind = "addToken"
	KindMoveToken       Kind = "moveToken"
	KindRemoveToken     Kind = "removeToken"
	KindAddArrow        Kind = "addArrow"
	KindRemoveArrow     Kind = "removeArrow"
	KindAddStroke       Kind = "addStroke"
	KindAddZone         Kind = "addZone"
	KindRemoveZone      Kind = "removeZone"
	KindErase           Kind = "erase"
	KindResetBoard      Kind = "resetBoard"
	KindSetFormation    Kind = "setFormation"
	KindBatch           Kind = "batch"
	KindRestoreSnapshot Kind = "restoreSnapshot"

	// inverse-only kinds, never constructed by callers
	kindRestoreToken    Kind = "restoreToken"
	kindRemoveAdded     Kind = "removeAdded"
	kindRestoreEntities Kind = "restoreEntities"
)

// Command is one atomic, invertible document mutation. Commands are
// immutable once created; apply either mutates the document fully and
// returns the inverse command, or returns an error wrapping
// ErrInvalidCommand with the document untouched.
type Command interface {
	Kind() Kind
	apply(d *Document) (Command, error)
}

// AddToken places a token on the pitch. A zero Token.ID lets the document
// allocate one; a non-zero ID must be unused (replication and restore use
// explicit IDs so both boards agree on identity).
type AddToken struct {
	Token core.Token `json:"token"`
}

func (c AddToken) Kind() Kind { return KindAddToken }

func (c AddToken) apply(d *Document) (Command, error) {
	if !geo.InPitch(c.Token.Position) {
		return nil, fmt.Errorf("%w: token position out of pitch bounds", ErrInvalidCommand)
	}
	if c.Token.ID != 0 && d.idInUse(c.Token.ID) {
		return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, c.Token.ID)
	}

	prevNext := d.nextID
	t := c.Token
	if t.ID == 0 {
		t.ID = d.allocID()
	} else {
		d.claimID(t.ID)
	}
	d.tokens[t.ID] = t
	return removeAdded{EntityKind: KindAddToken, ID: t.ID, PrevNextID: prevNext}, nil
}

// MoveToken relocates a token. It carries both endpoints so it can invert
// itself; From must match the token's current position, which is also how
// a divergent linked board is detected.
type MoveToken struct {
	ID   uint       `json:"id"`
	From core.Point `json:"from"`
	To   core.Point `json:"to"`
}

func (c MoveToken) Kind() Kind { return KindMoveToken }

func (c MoveToken) apply(d *Document) (Command, error) {
	t, ok := d.tokens[c.ID]
	if !ok {
		return nil, fmt.Errorf("%w: token %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
	}
	if t.Position != c.From {
		return nil, fmt.Errorf("%w: token %d is at %v, not %v",
			ErrInvalidCommand, c.ID, t.Position, c.From)
	}
	if !geo.InPitch(c.To) {
		return nil, fmt.Errorf("%w: destination out of pitch bounds", ErrInvalidCommand)
	}

	t.Position = c.To
	d.tokens[c.ID] = t
	return MoveToken{ID: c.ID, From: c.To, To: c.From}, nil
}

// RemoveToken deletes a token and nulls every arrow anchor referencing it
// as part of the same atomic command, so anchors never dangle.
type RemoveToken struct {
	ID uint `json:"id"`
}

func (c RemoveToken) Kind() Kind { return KindRemoveToken }

func (c RemoveToken) apply(d *Document) (Command, error) {
	t, ok := d.tokens[c.ID]
	if !ok {
		return nil, fmt.Errorf("%w: token %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
	}

	var unanchored []uint
	for id, a := range d.arrows {
		if a.AnchorToken == c.ID {
			a.AnchorToken = 0
			d.arrows[id] = a
			unanchored = append(unanchored, id)
		}
	}
	delete(d.tokens, c.ID)
	return restoreToken{Token: t, Anchored: unanchored}, nil
}

// AddArrow commits a movement arrow. Arrows are immutable once committed;
// editing one is a remove/add pair. A zero ID allocates.
type AddArrow struct {
	Arrow core.Arrow `json:"arrow"`
}

func (c AddArrow) Kind() Kind { return KindAddArrow }

func (c AddArrow) apply(d *Document) (Command, error) {
	if len(c.Arrow.Points) < 2 {
		return nil, fmt.Errorf("%w: arrow needs at least 2 points, got %d",
			ErrInvalidCommand, len(c.Arrow.Points))
	}
	if err := geo.ValidatePath(c.Arrow.Points); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if c.Arrow.AnchorToken != 0 {
		if _, ok := d.tokens[c.Arrow.AnchorToken]; !ok {
			return nil, fmt.Errorf("%w: anchor token %d: %w",
				ErrInvalidCommand, c.Arrow.AnchorToken, ErrUnknownEntity)
		}
	}
	if c.Arrow.ID != 0 && d.idInUse(c.Arrow.ID) {
		return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, c.Arrow.ID)
	}

	prevNext := d.nextID
	a := c.Arrow
	a.Points = clonePoints(a.Points)
	if a.ID == 0 {
		a.ID = d.allocID()
	} else {
		d.claimID(a.ID)
	}
	d.arrows[a.ID] = a
	return removeAdded{EntityKind: KindAddArrow, ID: a.ID, PrevNextID: prevNext}, nil
}

// RemoveArrow deletes a committed arrow.
type RemoveArrow struct {
	ID uint `json:"id"`
}

func (c RemoveArrow) Kind() Kind { return KindRemoveArrow }

func (c RemoveArrow) apply(d *Document) (Command, error) {
	a, ok := d.arrows[c.ID]
	if !ok {
		return nil, fmt.Errorf("%w: arrow %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
	}
	delete(d.arrows, c.ID)
	return restoreEntities{Arrows: []core.Arrow{a}}, nil
}

// AddStroke commits a frozen freehand stroke. A zero ID allocates.
type AddStroke struct {
	Stroke core.Stroke `json:"stroke"`
}

func (c AddStroke) Kind() Kind { return KindAddStroke }

func (c AddStroke) apply(d *Document) (Command, error) {
	if len(c.Stroke.Points) < 2 {
		return nil, fmt.Errorf("%w: stroke needs at least 2 points, got %d",
			ErrInvalidCommand, len(c.Stroke.Points))
	}
	if err := geo.ValidatePath(c.Stroke.Points); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if c.Stroke.ID != 0 && d.idInUse(c.Stroke.ID) {
		return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, c.Stroke.ID)
	}

	prevNext := d.nextID
	s := c.Stroke
	s.Points = clonePoints(s.Points)
	if s.ID == 0 {
		s.ID = d.allocID()
	} else {
		d.claimID(s.ID)
	}
	d.strokes[s.ID] = s
	return removeAdded{EntityKind: KindAddStroke, ID: s.ID, PrevNextID: prevNext}, nil
}

// AddZone commits a tactical zone. A zero ID allocates.
type AddZone struct {
	Zone core.Zone `json:"zone"`
}

func (c AddZone) Kind() Kind { return KindAddZone }

func (c AddZone) apply(d *Document) (Command, error) {
	z := c.Zone
	if !geo.InPitch(z.Min) || !geo.InPitch(z.Max) {
		return nil, fmt.Errorf("%w: zone bounds out of pitch", ErrInvalidCommand)
	}
	if z.Min.X > z.Max.X || z.Min.Y > z.Max.Y {
		return nil, fmt.Errorf("%w: zone min/max inverted", ErrInvalidCommand)
	}
	if z.Shape != core.ZoneRectangle && z.Shape != core.ZoneEllipse {
		return nil, fmt.Errorf("%w: unknown zone shape %q", ErrInvalidCommand, z.Shape)
	}
	if z.ID != 0 && d.idInUse(z.ID) {
		return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, z.ID)
	}

	prevNext := d.nextID
	if z.ID == 0 {
		z.ID = d.allocID()
	} else {
		d.claimID(z.ID)
	}
	d.zones[z.ID] = z
	return removeAdded{EntityKind: KindAddZone, ID: z.ID, PrevNextID: prevNext}, nil
}

// RemoveZone deletes a tactical zone.
type RemoveZone struct {
	ID uint `json:"id"`
}

func (c RemoveZone) Kind() Kind { return KindRemoveZone }

func (c RemoveZone) apply(d *Document) (Command, error) {
	z, ok := d.zones[c.ID]
	if !ok {
		return nil, fmt.Errorf("%w: zone %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
	}
	delete(d.zones, c.ID)
	return restoreEntities{Zones: []core.Zone{z}}, nil
}

// Erase deletes a set of entities of any kind in one atomic command. All
// IDs must exist or nothing is erased. Tokens erased here null surviving
// anchors exactly like RemoveToken.
type Erase struct {
	IDs []uint `json:"ids"`
}

func (c Erase) Kind() Kind { return KindErase }

func (c Erase) apply(d *Document) (Command, error) {
	if len(c.IDs) == 0 {
		return nil, fmt.Errorf("%w: erase with no targets", ErrInvalidCommand)
	}
	for _, id := range c.IDs {
		if !d.idInUse(id) {
			return nil, fmt.Errorf("%w: entity %d: %w", ErrInvalidCommand, id, ErrUnknownEntity)
		}
	}

	erased := make(map[uint]bool, len(c.IDs))
	for _, id := range c.IDs {
		erased[id] = true
	}

	inv := restoreEntities{}
	for _, id := range c.IDs {
		if t, ok := d.tokens[id]; ok {
			inv.Tokens = append(inv.Tokens, t)
			delete(d.tokens, id)
			continue
		}
		if a, ok := d.arrows[id]; ok {
			inv.Arrows = append(inv.Arrows, a)
			delete(d.arrows, id)
			continue
		}
		if s, ok := d.strokes[id]; ok {
			inv.Strokes = append(inv.Strokes, s)
			delete(d.strokes, id)
			continue
		}
		if z, ok := d.zones[id]; ok {
			inv.Zones = append(inv.Zones, z)
			delete(d.zones, id)
		}
	}

	// null anchors of surviving arrows that pointed at erased tokens
	for _, t := range inv.Tokens {
		for id, a := range d.arrows {
			if a.AnchorToken == t.ID {
				a.AnchorToken = 0
				d.arrows[id] = a
				inv.Anchored = append(inv.Anchored, anchorRestore{Arrow: id, Token: t.ID})
			}
		}
	}
	return inv, nil
}

// ResetBoard clears all tactical content and the formation selection.
// Camera and mode survive.
type ResetBoard struct{}

func (c ResetBoard) Kind() Kind { return KindResetBoard }

func (c ResetBoard) apply(d *Document) (Command, error) {
	prev := d.State()
	d.replaceState(core.DocumentState{NextID: 1}, false)
	return RestoreSnapshot{State: prev}, nil
}

// SetFormation selects the active formation by name. Validation against
// the catalog happens in the formation package before the command is
// built; the document only records the selection.
type SetFormation struct {
	Name string `json:"name"`
}

func (c SetFormation) Kind() Kind { return KindSetFormation }

func (c SetFormation) apply(d *Document) (Command, error) {
	prev := d.formation
	d.formation = c.Name
	return SetFormation{Name: prev}, nil
}

// Batch applies a sequence of commands as one atomic, one-history-entry
// unit. If any member fails, the applied prefix is rolled back and the
// document is unchanged. Formation application and multi-entity edits are
// expressed this way.
type Batch struct {
	Commands []Command `json:"commands"`
}

func (c Batch) Kind() Kind { return KindBatch }

func (c Batch) apply(d *Document) (Command, error) {
	if len(c.Commands) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidCommand)
	}

	inverses := make([]Command, 0, len(c.Commands))
	for i, sub := range c.Commands {
		inv, err := d.Apply(sub)
		if err != nil {
			// roll back the applied prefix in reverse order
			for j := len(inverses) - 1; j >= 0; j-- {
				if _, rbErr := d.Apply(inverses[j]); rbErr != nil {
					// inverses of just-applied commands cannot fail
					panic(fmt.Sprintf("batch rollback failed: %v", rbErr))
				}
			}
			return nil, fmt.Errorf("batch command %d: %w", i, err)
		}
		inverses = append(inverses, inv)
	}

	// inverse batch runs in reverse order
	rev := make([]Command, len(inverses))
	for i, inv := range inverses {
		rev[len(inverses)-1-i] = inv
	}
	return Batch{Commands: rev}, nil
}

// RestoreSnapshot replaces all tactical content with a saved state. Mode
// and camera are untouched. It is both the inverse of ResetBoard and the
// command a timeline restore submits, which keeps restores undoable.
type RestoreSnapshot struct {
	State core.DocumentState `json:"state"`
}

func (c RestoreSnapshot) Kind() Kind { return KindRestoreSnapshot }

func (c RestoreSnapshot) apply(d *Document) (Command, error) {
	for _, t := range c.State.Tokens {
		if !geo.InPitch(t.Position) {
			return nil, fmt.Errorf("%w: snapshot token %d out of pitch", ErrInvalidCommand, t.ID)
		}
	}
	prev := d.State()
	d.replaceState(c.State, false)
	return RestoreSnapshot{State: prev}, nil
}

// removeAdded is the inverse of the Add* commands: it deletes the added
// entity and rewinds the ID allocator so a later redo allocates the same
// ID and the document serializes identically to its pre-add state.
type removeAdded struct {
	EntityKind Kind
	ID         uint
	PrevNextID uint
}

func (c removeAdded) Kind() Kind { return kindRemoveAdded }

func (c removeAdded) apply(d *Document) (Command, error) {
	switch c.EntityKind {
	case KindAddToken:
		t, ok := d.tokens[c.ID]
		if !ok {
			return nil, fmt.Errorf("%w: token %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
		}
		delete(d.tokens, c.ID)
		d.nextID = c.PrevNextID
		return AddToken{Token: t}, nil
	case KindAddArrow:
		a, ok := d.arrows[c.ID]
		if !ok {
			return nil, fmt.Errorf("%w: arrow %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
		}
		delete(d.arrows, c.ID)
		d.nextID = c.PrevNextID
		return AddArrow{Arrow: a}, nil
	case KindAddStroke:
		s, ok := d.strokes[c.ID]
		if !ok {
			return nil, fmt.Errorf("%w: stroke %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
		}
		delete(d.strokes, c.ID)
		d.nextID = c.PrevNextID
		return AddStroke{Stroke: s}, nil
	case KindAddZone:
		z, ok := d.zones[c.ID]
		if !ok {
			return nil, fmt.Errorf("%w: zone %d: %w", ErrInvalidCommand, c.ID, ErrUnknownEntity)
		}
		delete(d.zones, c.ID)
		d.nextID = c.PrevNextID
		return AddZone{Zone: z}, nil
	default:
		return nil, fmt.Errorf("%w: removeAdded for %q", ErrInvalidCommand, c.EntityKind)
	}
}

// restoreToken is the inverse of RemoveToken: it re-adds the token and
// re-attaches the anchors that were nulled.
type restoreToken struct {
	Token    core.Token
	Anchored []uint
}

func (c restoreToken) Kind() Kind { return kindRestoreToken }

func (c restoreToken) apply(d *Document) (Command, error) {
	if d.idInUse(c.Token.ID) {
		return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, c.Token.ID)
	}
	d.tokens[c.Token.ID] = c.Token
	d.claimID(c.Token.ID)
	for _, id := range c.Anchored {
		if a, ok := d.arrows[id]; ok {
			a.AnchorToken = c.Token.ID
			d.arrows[id] = a
		}
	}
	return RemoveToken{ID: c.Token.ID}, nil
}

// anchorRestore records one nulled arrow anchor for re-attachment.
type anchorRestore struct {
	Arrow uint
	Token uint
}

// restoreEntities is the inverse of Erase and the Remove* annotation
// commands: it re-adds every erased entity and re-attaches nulled anchors.
type restoreEntities struct {
	Tokens   []core.Token
	Arrows   []core.Arrow
	Strokes  []core.Stroke
	Zones    []core.Zone
	Anchored []anchorRestore
}

func (c restoreEntities) Kind() Kind { return kindRestoreEntities }

func (c restoreEntities) apply(d *Document) (Command, error) {
	ids := make([]uint, 0,
		len(c.Tokens)+len(c.Arrows)+len(c.Strokes)+len(c.Zones))
	for _, t := range c.Tokens {
		if d.idInUse(t.ID) {
			return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, t.ID)
		}
		ids = append(ids, t.ID)
	}
	for _, a := range c.Arrows {
		if d.idInUse(a.ID) {
			return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, a.ID)
		}
		ids = append(ids, a.ID)
	}
	for _, s := range c.Strokes {
		if d.idInUse(s.ID) {
			return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, s.ID)
		}
		ids = append(ids, s.ID)
	}
	for _, z := range c.Zones {
		if d.idInUse(z.ID) {
			return nil, fmt.Errorf("%w: entity id %d already in use", ErrInvalidCommand, z.ID)
		}
		ids = append(ids, z.ID)
	}

	for _, t := range c.Tokens {
		d.tokens[t.ID] = t
		d.claimID(t.ID)
	}
	for _, a := range c.Arrows {
		d.arrows[a.ID] = a
		d.claimID(a.ID)
	}
	for _, s := range c.Strokes {
		d.strokes[s.ID] = s
		d.claimID(s.ID)
	}
	for _, z := range c.Zones {
		d.zones[z.ID] = z
		d.claimID(z.ID)
	}
	for _, ar := range c.Anchored {
		if a, ok := d.arrows[ar.Arrow]; ok {
			a.AnchorToken = ar.Token
			d.arrows[a.ID] = a
		}
	}
	return Erase{IDs: ids}, nil
}
