package geo

import "github.com/pitchside/tacticsboard/pkg/core"

// Camera transforms map between pitch space and the view space of one
// board slot. ToView and ToPitch must be exact inverses (within floating
// tolerance) or pointer-to-pitch mapping drifts under zoom.

// ToView maps a pitch-space point into view space under the camera.
func ToView(p core.Point, cam core.Camera) core.Point {
	zoom := cam.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return core.Point{
		X: (p.X - cam.PanX) * zoom,
		Y: (p.Y - cam.PanY) * zoom,
	}
}

// ToPitch maps a view-space point back into pitch space. Inverse of ToView.
func ToPitch(p core.Point, cam core.Camera) core.Point {
	zoom := cam.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return core.Point{
		X: p.X/zoom + cam.PanX,
		Y: p.Y/zoom + cam.PanY,
	}
}

// PathToView maps a whole path into view space.
func PathToView(points []core.Point, cam core.Camera) []core.Point {
	out := make([]core.Point, len(points))
	for i, p := range points {
		out[i] = ToView(p, cam)
	}
	return out
}
