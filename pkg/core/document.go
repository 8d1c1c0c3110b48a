// pkg/core/document.go
package core

// DocumentState is the serialized form of one board's tactical content.
// It is the persistence wire format and the snapshot payload: entity
// slices are ordered by ID so that equal documents serialize identically.
type DocumentState struct {
	Tokens    []Token  `json:"tokens"`
	Arrows    []Arrow  `json:"arrows"`
	Strokes   []Stroke `json:"strokes"`
	Zones     []Zone   `json:"zones"`
	Formation string   `json:"formation,omitempty"`
	Mode      Mode     `json:"mode"`
	NextID    uint     `json:"nextId"`
}
