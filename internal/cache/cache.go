// Package cache memoizes rendered scenes per board slot. Scene export is
// pure for a given document version, so a render tick that finds the
// version unchanged can reuse the previous scene instead of rebuilding
// the entity list.
package cache

import (
	"sync"

	"github.com/pitchside/tacticsboard/pkg/scene"
)

type entry struct {
	version uint64
	scene   scene.Scene
}

// SceneCache caches the latest exported scene per board, keyed by the
// document version that produced it.
type SceneCache struct {
	m      sync.Mutex
	scenes map[string]entry
	hits   uint64
	misses uint64
}

func NewSceneCache() *SceneCache {
	return &SceneCache{
		scenes: make(map[string]entry),
	}
}

// Get returns the cached scene for a board if it was produced by the
// given document version.
func (c *SceneCache) Get(board string, version uint64) (scene.Scene, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	if e, ok := c.scenes[board]; ok && e.version == version {
		c.hits++
		return e.scene, true
	}
	c.misses++
	return scene.Scene{}, false
}

// Put stores the scene a board exported at the given version, replacing
// any older entry for that board.
func (c *SceneCache) Put(board string, version uint64, s scene.Scene) {
	c.m.Lock()
	defer c.m.Unlock()
	c.scenes[board] = entry{version: version, scene: s}
}

// Invalidate drops the cached scene for one board.
func (c *SceneCache) Invalidate(board string) {
	c.m.Lock()
	defer c.m.Unlock()
	delete(c.scenes, board)
}

// Reset drops all cached scenes and zeroes the counters.
func (c *SceneCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.scenes = make(map[string]entry)
	c.hits = 0
	c.misses = 0
}

// Stats returns the hit and miss counts since the last Reset.
func (c *SceneCache) Stats() (hits, misses uint64) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.hits, c.misses
}
