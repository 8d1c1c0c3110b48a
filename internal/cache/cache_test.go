package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/tacticsboard/pkg/scene"
)

func testScene(board string) scene.Scene {
	return scene.Scene{
		Board: board,
		Entities: []scene.Entity{
			{Kind: scene.KindToken, ID: 1},
		},
	}
}

func TestSceneCache_NewSceneCache(t *testing.T) {
	c := NewSceneCache()

	require.NotNil(t, c)
	hits, misses := c.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestSceneCache_PutAndGet(t *testing.T) {
	c := NewSceneCache()

	s := testScene("main")
	c.Put("main", 7, s)

	got, ok := c.Get("main", 7)
	require.True(t, ok, "expected cached scene at version 7")
	assert.Equal(t, s, got)
}

func TestSceneCache_StaleVersionMisses(t *testing.T) {
	c := NewSceneCache()

	c.Put("main", 7, testScene("main"))

	_, ok := c.Get("main", 8)
	assert.False(t, ok, "version 8 must not reuse a version 7 scene")

	hits, misses := c.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestSceneCache_PutReplacesOlderVersion(t *testing.T) {
	c := NewSceneCache()

	c.Put("main", 7, testScene("main"))
	newer := testScene("main")
	newer.Version = 8
	c.Put("main", 8, newer)

	_, ok := c.Get("main", 7)
	assert.False(t, ok)
	got, ok := c.Get("main", 8)
	require.True(t, ok)
	assert.Equal(t, newer, got)
}

func TestSceneCache_BoardsAreIndependent(t *testing.T) {
	c := NewSceneCache()

	c.Put("main", 3, testScene("main"))
	c.Put("presentation", 5, testScene("presentation"))

	got, ok := c.Get("presentation", 5)
	require.True(t, ok)
	assert.Equal(t, "presentation", got.Board)

	_, ok = c.Get("main", 3)
	assert.True(t, ok)
}

func TestSceneCache_Invalidate(t *testing.T) {
	c := NewSceneCache()

	c.Put("main", 3, testScene("main"))
	c.Invalidate("main")

	_, ok := c.Get("main", 3)
	assert.False(t, ok)
}

func TestSceneCache_Reset(t *testing.T) {
	c := NewSceneCache()

	c.Put("main", 3, testScene("main"))
	c.Get("main", 3)
	c.Get("main", 4)
	c.Reset()

	_, ok := c.Get("main", 3)
	assert.False(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(1), misses, "only the post-reset miss counts")
}

func TestSceneCache_ConcurrentAccess(t *testing.T) {
	c := NewSceneCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put("main", v, testScene("main"))
				c.Get("main", v)
			}
		}(uint64(i))
	}
	wg.Wait()
}
