package geo

import (
	"errors"
	"math"

	"github.com/pitchside/tacticsboard/pkg/core"
)

// GEOMETRY KERNEL
// All functions here are pure. Pitch space is the normalized unit square;
// points arriving from outside it are an input error (command validation
// decides what to do with them), while Snap guarantees it never moves an
// in-pitch point out of the square.

// ErrInvalidCoordinates is returned when a point lies outside pitch space.
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// DefaultEpsilon is the distance under which consecutive path points are
// considered duplicates by NormalizePath.
const DefaultEpsilon = 1e-3

// InPitch reports whether p lies inside the normalized pitch square.
func InPitch(p core.Point) bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// ValidatePath checks every point of a path against pitch bounds.
func ValidatePath(points []core.Point) error {
	for _, p := range points {
		if !InPitch(p) {
			return ErrInvalidCoordinates
		}
	}
	return nil
}

// Snap rounds each coordinate of p to the nearest grid line. Ties are
// broken round-half-to-even so repeated snapping is deterministic on both
// axes. The result is clamped to the pitch square: when the spacing does
// not divide 1, rounding near the boundary would otherwise push an
// in-pitch point outside it. A spacing of zero or less disables snapping
// (identity).
func Snap(p core.Point, spacing float64) core.Point {
	if spacing <= 0 {
		return p
	}
	return core.Point{
		X: clampUnit(math.RoundToEven(p.X/spacing) * spacing),
		Y: clampUnit(math.RoundToEven(p.Y/spacing) * spacing),
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Dist returns the Euclidean distance between two pitch points.
func Dist(a, b core.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// NormalizePath collapses near-duplicate consecutive points so that a
// freehand stroke cannot grow without bound while the pointer dwells.
// Endpoints are preserved exactly. The input slice is not modified.
func NormalizePath(points []core.Point, epsilon float64) []core.Point {
	if len(points) <= 2 {
		out := make([]core.Point, len(points))
		copy(out, points)
		return out
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	out := make([]core.Point, 0, len(points))
	out = append(out, points[0])
	last := len(points) - 1
	for i := 1; i < last; i++ {
		if Dist(points[i], out[len(out)-1]) < epsilon {
			continue
		}
		out = append(out, points[i])
	}
	// the final point always survives, even if it duplicates its neighbor
	out = append(out, points[last])
	return out
}
