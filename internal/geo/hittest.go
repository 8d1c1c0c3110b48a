package geo

import (
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/pitchside/tacticsboard/pkg/core"
)

// Target is one hit-testable entity. A single-point target is tested as a
// point, two or more points as a polyline, and a closed ring (first point
// equal to last, at least four points) as an area.
type Target struct {
	ID     uint
	Points []core.Point
}

// HitTest returns the ID of the target nearest to p within radius, or
// zero if none qualifies. Ties are broken by the smallest ID so repeated
// runs over the same document are stable.
func HitTest(p core.Point, targets []Target, radius float64) uint {
	probe := pointGeometry(p)

	var (
		bestID   uint
		bestDist float64
	)
	for _, t := range targets {
		g, ok := targetGeometry(t)
		if !ok {
			continue
		}
		d, ok := geom.Distance(probe, g)
		if !ok || d > radius {
			continue
		}
		if bestID == 0 || d < bestDist || (d == bestDist && t.ID < bestID) {
			bestID = t.ID
			bestDist = d
		}
	}
	return bestID
}

func targetGeometry(t Target) (geom.Geometry, bool) {
	switch {
	case len(t.Points) == 0:
		return geom.Geometry{}, false
	case len(t.Points) == 1:
		return pointGeometry(t.Points[0]), true
	case isClosedRing(t.Points):
		ring := geom.NewLineString(sequence(t.Points))
		poly := geom.NewPolygon([]geom.LineString{ring})
		if err := poly.Validate(); err != nil {
			// degenerate ring, fall back to the outline
			return ring.AsGeometry(), true
		}
		return poly.AsGeometry(), true
	default:
		return geom.NewLineString(sequence(t.Points)).AsGeometry(), true
	}
}

func pointGeometry(p core.Point) geom.Geometry {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Y},
		Type: geom.DimXY,
	}).AsGeometry()
}

func isClosedRing(points []core.Point) bool {
	return len(points) >= 4 && points[0] == points[len(points)-1]
}

func sequence(points []core.Point) geom.Sequence {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return geom.NewSequence(flat, geom.DimXY)
}

// RectRing builds the closed outline of a bounding box, suitable as an
// area Target for zone hit testing.
func RectRing(min, max core.Point) []core.Point {
	return []core.Point{
		min,
		{X: max.X, Y: min.Y},
		max,
		{X: min.X, Y: max.Y},
		min,
	}
}
