// Package formation holds the read-only formation catalog and turns a
// formation selection into one atomic command batch.
package formation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/history"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// ErrUnknownFormation is returned for a name not in the catalog.
var ErrUnknownFormation = errors.New("unknown formation")

// Catalog is a named set of formation templates. Built-ins are always
// present; a JSON file can add or override entries.
type Catalog struct {
	formations map[string]core.Formation
}

// NewCatalog creates a catalog seeded with the built-in formations.
func NewCatalog() *Catalog {
	c := &Catalog{formations: make(map[string]core.Formation)}
	for _, f := range builtins() {
		c.formations[f.Name] = f
	}
	return c
}

// LoadFile merges formations from a JSON file into the catalog. The file
// holds an array of core.Formation values.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading formation file: %w", err)
	}
	var formations []core.Formation
	if err := json.Unmarshal(data, &formations); err != nil {
		return fmt.Errorf("parsing formation file: %w", err)
	}
	for _, f := range formations {
		if f.Name == "" || len(f.Slots) == 0 {
			return fmt.Errorf("formation file entry missing name or slots")
		}
		c.formations[f.Name] = f
	}
	return nil
}

// Has reports whether a formation name exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.formations[name]
	return ok
}

// Get returns a formation by name.
func (c *Catalog) Get(name string) (core.Formation, error) {
	f, ok := c.formations[name]
	if !ok {
		return core.Formation{}, fmt.Errorf("%w: %q", ErrUnknownFormation, name)
	}
	return f, nil
}

// Names lists catalog entries sorted by name.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.formations))
	for name := range c.formations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply loads a formation onto a board as one atomic command: remove the
// side's existing tokens, add one token per slot, and record the
// selection. Roster entries fill numbers and names positionally; slots
// beyond the roster get bare tokens. All-or-nothing through the bus, and
// a single history entry.
func (c *Catalog) Apply(bus *history.Bus, boardID string, side core.Side, name string, roster []core.Player) (uint64, error) {
	f, err := c.Get(name)
	if err != nil {
		return 0, err
	}
	doc, err := bus.Board(boardID)
	if err != nil {
		return 0, err
	}

	cmds := make([]board.Command, 0, len(f.Slots)+1)
	for _, t := range doc.Tokens() {
		if t.Side == side {
			cmds = append(cmds, board.RemoveToken{ID: t.ID})
		}
	}
	// mirror the away side onto its own half
	for i, slot := range f.Slots {
		pos := slot.Position
		if side == core.SideAway {
			pos = core.Point{X: 1 - pos.X, Y: 1 - pos.Y}
		}
		tok := core.Token{Side: side, Role: slot.Role, Position: pos}
		if i < len(roster) {
			tok.Number = roster[i].Number
			tok.Label = roster[i].Name
		}
		cmds = append(cmds, board.AddToken{Token: tok})
	}
	cmds = append(cmds, board.SetFormation{Name: name})

	return bus.Execute(boardID, board.Batch{Commands: cmds})
}

// builtins returns the standard formations. Positions assume the home
// side attacking left to right; X is depth, Y spans the touchlines.
func builtins() []core.Formation {
	return []core.Formation{
		{
			Name: "4-4-2",
			Slots: []core.FormationSlot{
				{Role: core.RoleGoalkeeper, Position: core.Point{X: 0.06, Y: 0.50}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.18}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.39}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.61}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.82}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.42, Y: 0.18}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.39}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.61}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.42, Y: 0.82}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.40}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.60}},
			},
		},
		{
			Name: "4-3-3",
			Slots: []core.FormationSlot{
				{Role: core.RoleGoalkeeper, Position: core.Point{X: 0.06, Y: 0.50}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.18}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.39}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.61}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.82}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.30}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.36, Y: 0.50}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.70}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.20}},
				{Role: core.RoleForward, Position: core.Point{X: 0.66, Y: 0.50}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.80}},
			},
		},
		{
			Name: "3-5-2",
			Slots: []core.FormationSlot{
				{Role: core.RoleGoalkeeper, Position: core.Point{X: 0.06, Y: 0.50}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.28}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.18, Y: 0.50}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.72}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.12}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.38, Y: 0.32}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.36, Y: 0.50}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.38, Y: 0.68}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.40, Y: 0.88}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.40}},
				{Role: core.RoleForward, Position: core.Point{X: 0.62, Y: 0.60}},
			},
		},
		{
			Name: "4-2-3-1",
			Slots: []core.FormationSlot{
				{Role: core.RoleGoalkeeper, Position: core.Point{X: 0.06, Y: 0.50}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.18}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.39}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.20, Y: 0.61}},
				{Role: core.RoleDefender, Position: core.Point{X: 0.22, Y: 0.82}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.34, Y: 0.40}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.34, Y: 0.60}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.48, Y: 0.25}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.50, Y: 0.50}},
				{Role: core.RoleMidfielder, Position: core.Point{X: 0.48, Y: 0.75}},
				{Role: core.RoleForward, Position: core.Point{X: 0.66, Y: 0.50}},
			},
		},
	}
}
