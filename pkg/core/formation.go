// pkg/core/formation.go
package core

// FormationSlot is one position in a formation template.
type FormationSlot struct {
	Role     Role  `json:"role"`
	Position Point `json:"position"`
}

// Formation is a named, ordered list of slots in pitch space. Formations
// are read-only catalog data; a Document references one by name only.
type Formation struct {
	Name  string          `json:"name"`
	Slots []FormationSlot `json:"slots"`
}
