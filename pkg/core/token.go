// pkg/core/token.go
package core

// Token is a player piece placed on the pitch.
type Token struct {
	ID       uint   `json:"id"`
	Side     Side   `json:"side"`
	Role     Role   `json:"role"`
	Number   int    `json:"number"`
	Label    string `json:"label,omitempty"`
	Position Point  `json:"position"`

	// Color overrides the side-derived theme color when non-empty.
	Color string `json:"color,omitempty"`
}

// Player is one entry of the read-only squad roster. Rosters are loaded
// from an external source and are never owned by a Document.
type Player struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
	Role   Role   `json:"role"`
	Side   Side   `json:"side"`
}
