// Package scene defines the renderable scene description handed to the
// presentation layer. The engine never draws; it emits one Scene per
// board slot per render tick with all geometry already mapped into that
// slot's view space.
package scene

import "github.com/pitchside/tacticsboard/pkg/core"

// EntityKind identifies what a scene entity represents.
type EntityKind string

const (
	KindToken  EntityKind = "token"
	KindArrow  EntityKind = "arrow"
	KindStroke EntityKind = "stroke"
	KindZone   EntityKind = "zone"
)

// Style carries everything the renderer needs beyond geometry.
type Style struct {
	Color     string  `json:"color"`
	Width     float64 `json:"width,omitempty"`
	Dashed    bool    `json:"dashed,omitempty"`
	Zigzag    bool    `json:"zigzag,omitempty"`
	FillAlpha float64 `json:"fillAlpha,omitempty"`
	Label     string  `json:"label,omitempty"`

	// Shape is "rect" or "ellipse" for zones, empty otherwise.
	Shape string `json:"shape,omitempty"`
}

// Entity is one drawable item in view-space coordinates.
type Entity struct {
	Kind   EntityKind   `json:"kind"`
	ID     uint         `json:"id"`
	Points []core.Point `json:"points"`
	Style  Style        `json:"style"`

	// Action distinguishes anchored arrows ("run") from free ones
	// ("pass"). Empty for non-arrow entities.
	Action string `json:"action,omitempty"`
}

// Scene is the full drawable state of one board slot.
type Scene struct {
	Board    string      `json:"board"`
	Version  uint64      `json:"version"`
	Camera   core.Camera `json:"camera"`
	Entities []Entity    `json:"entities"`
}
