// pkg/core/annotation.go
package core

// ArrowStyle selects how an arrow shaft is rendered.
type ArrowStyle string

const (
	ArrowSolid  ArrowStyle = "solid"
	ArrowDashed ArrowStyle = "dashed"
	ArrowZigzag ArrowStyle = "zigzag"
)

// Arrow is a committed movement arrow. Arrows are immutable once
// committed; an edit is expressed as a remove/add command pair.
type Arrow struct {
	ID     uint       `json:"id"`
	Points []Point    `json:"points"`
	Style  ArrowStyle `json:"style"`
	Color  string     `json:"color"`
	Width  float64    `json:"width"`

	// AnchorToken back-references the token the arrow starts from.
	// Zero means unanchored. Removing the token nulls this field as
	// part of the same command, so it never dangles.
	AnchorToken uint `json:"anchorToken,omitempty"`
}

// Anchored reports whether the arrow is attached to a token. Anchored
// arrows represent a player run; unanchored arrows represent a pass or
// free annotation.
func (a Arrow) Anchored() bool {
	return a.AnchorToken != 0
}

// Stroke is a committed freehand annotation. The point list is frozen on
// pointer release; in-progress strokes live outside the Document.
type Stroke struct {
	ID     uint    `json:"id"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// ZoneShape selects the outline of a tactical zone.
type ZoneShape string

const (
	ZoneRectangle ZoneShape = "rectangle"
	ZoneEllipse   ZoneShape = "ellipse"
)

// Zone is a rectangular or elliptical highlighted region of the pitch,
// defined by its bounding box corners.
type Zone struct {
	ID        uint      `json:"id"`
	Shape     ZoneShape `json:"shape"`
	Min       Point     `json:"min"`
	Max       Point     `json:"max"`
	Color     string    `json:"color"`
	FillAlpha float64   `json:"fillAlpha"`
}
