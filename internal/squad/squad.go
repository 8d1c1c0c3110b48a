// Package squad loads read-only player rosters from JSON files.
package squad

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pitchside/tacticsboard/pkg/core"
)

// Roster is the full player list for one session, both sides together.
type Roster struct {
	players []core.Player
}

// Load reads a roster file. The file holds an array of core.Player
// values; entries are sorted by side then shirt number so ordering does
// not depend on file layout.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}
	return Parse(data)
}

// Parse decodes roster JSON.
func Parse(data []byte) (*Roster, error) {
	var players []core.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	seen := make(map[uint]bool, len(players))
	for i, p := range players {
		if p.Name == "" {
			return nil, fmt.Errorf("roster entry %d: missing name", i)
		}
		if p.ID != 0 && seen[p.ID] {
			return nil, fmt.Errorf("roster entry %d: duplicate id %d", i, p.ID)
		}
		seen[p.ID] = true
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Side != players[j].Side {
			return players[i].Side < players[j].Side
		}
		return players[i].Number < players[j].Number
	})
	return &Roster{players: players}, nil
}

// Side returns the players of one side, in shirt-number order.
func (r *Roster) Side(side core.Side) []core.Player {
	var out []core.Player
	for _, p := range r.players {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// All returns every player.
func (r *Roster) All() []core.Player {
	out := make([]core.Player, len(r.players))
	copy(out, r.players)
	return out
}

// Len returns the roster size.
func (r *Roster) Len() int {
	return len(r.players)
}
