// pkg/core/types.go
package core

// Point is a pitch-space coordinate. Both axes are normalized to [0,1],
// independent of any view's zoom or pan.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Side identifies which team an entity belongs to.
type Side string

const (
	SideHome    Side = "home"
	SideAway    Side = "away"
	SideNeutral Side = "neutral"
)

// Role is a player's tactical role.
type Role string

const (
	RoleGoalkeeper Role = "GK"
	RoleDefender   Role = "DEF"
	RoleMidfielder Role = "MID"
	RoleForward    Role = "FWD"
)

// Mode distinguishes a board driven by match video ("real") from a
// free-standing drawing board ("virtual").
type Mode string

const (
	ModeReal    Mode = "real"
	ModeVirtual Mode = "virtual"
)

// Camera is the view-local pan/zoom state of one board slot. It is not
// tactical content and never enters undo history or replication.
type Camera struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

// DefaultCamera returns an identity camera (no pan, 1:1 zoom).
func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}
