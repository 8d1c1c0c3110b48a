// Package render exports a drawable scene from a board document. All
// geometry is mapped into the requesting slot's view space; the same
// document rendered under two cameras yields two different scenes over
// identical tactical content.
package render

import (
	"strconv"

	"github.com/pitchside/tacticsboard/internal/board"
	"github.com/pitchside/tacticsboard/internal/geo"
	"github.com/pitchside/tacticsboard/pkg/core"
	"github.com/pitchside/tacticsboard/pkg/scene"
)

// Theme supplies the side-derived colors used when an entity carries no
// explicit color of its own.
type Theme struct {
	HomeColor    string
	AwayColor    string
	NeutralColor string
	StrokeColor  string
	ZoneColor    string
}

// DefaultTheme matches the stock board palette.
func DefaultTheme() Theme {
	return Theme{
		HomeColor:    "#d62828",
		AwayColor:    "#1d4e89",
		NeutralColor: "#f4a300",
		StrokeColor:  "#ffffff",
		ZoneColor:    "#3fa34d",
	}
}

func (t Theme) sideColor(side core.Side) string {
	switch side {
	case core.SideHome:
		return t.HomeColor
	case core.SideAway:
		return t.AwayColor
	default:
		return t.NeutralColor
	}
}

// Exporter turns documents into scenes under a fixed theme.
type Exporter struct {
	theme Theme
}

// NewExporter creates an exporter. A zero theme falls back to the
// default palette.
func NewExporter(theme Theme) *Exporter {
	if theme == (Theme{}) {
		theme = DefaultTheme()
	}
	return &Exporter{theme: theme}
}

// Export builds the scene for one board slot. Entity order is tokens,
// arrows, strokes, zones, each ascending by ID, so output is
// deterministic for a given document state.
func (e *Exporter) Export(boardID string, version uint64, doc *board.Document) scene.Scene {
	cam := doc.Camera()
	s := scene.Scene{
		Board:    boardID,
		Version:  version,
		Camera:   cam,
		Entities: []scene.Entity{},
	}

	for _, tok := range doc.Tokens() {
		color := tok.Color
		if color == "" {
			color = e.theme.sideColor(tok.Side)
		}
		label := tok.Label
		if label == "" && tok.Number != 0 {
			label = strconv.Itoa(tok.Number)
		}
		s.Entities = append(s.Entities, scene.Entity{
			Kind:   scene.KindToken,
			ID:     tok.ID,
			Points: []core.Point{geo.ToView(tok.Position, cam)},
			Style:  scene.Style{Color: color, Label: label},
		})
	}

	for _, a := range doc.Arrows() {
		action := "pass"
		if a.Anchored() {
			action = "run"
		}
		s.Entities = append(s.Entities, scene.Entity{
			Kind:   scene.KindArrow,
			ID:     a.ID,
			Points: geo.PathToView(a.Points, cam),
			Style: scene.Style{
				Color:  a.Color,
				Width:  a.Width,
				Dashed: a.Style == core.ArrowDashed,
				Zigzag: a.Style == core.ArrowZigzag,
			},
			Action: action,
		})
	}

	for _, st := range doc.Strokes() {
		color := st.Color
		if color == "" {
			color = e.theme.StrokeColor
		}
		s.Entities = append(s.Entities, scene.Entity{
			Kind:   scene.KindStroke,
			ID:     st.ID,
			Points: geo.PathToView(st.Points, cam),
			Style:  scene.Style{Color: color, Width: st.Width},
		})
	}

	for _, z := range doc.Zones() {
		color := z.Color
		if color == "" {
			color = e.theme.ZoneColor
		}
		shape := "rect"
		if z.Shape == core.ZoneEllipse {
			shape = "ellipse"
		}
		s.Entities = append(s.Entities, scene.Entity{
			Kind:   scene.KindZone,
			ID:     z.ID,
			Points: []core.Point{geo.ToView(z.Min, cam), geo.ToView(z.Max, cam)},
			Style:  scene.Style{Color: color, FillAlpha: z.FillAlpha, Shape: shape},
		})
	}

	return s
}
