package squad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/tacticsboard/pkg/core"
)

func TestParse_SortsBySideThenNumber(t *testing.T) {
	data := `[
		{"id":3,"name":"Winger","number":7,"role":"FWD","side":"home"},
		{"id":1,"name":"Keeper","number":1,"role":"GK","side":"home"},
		{"id":2,"name":"Visitor","number":9,"role":"FWD","side":"away"}]`

	r, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Len())

	home := r.Side(core.SideHome)
	require.Len(t, home, 2)
	assert.Equal(t, "Keeper", home[0].Name)
	assert.Equal(t, "Winger", home[1].Name)

	all := r.All()
	assert.Equal(t, core.SideAway, all[0].Side, "away sorts before home")
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`[{"id":1,"number":1,"side":"home"}]`))
	assert.ErrorContains(t, err, "missing name")

	_, err = Parse([]byte(`[
		{"id":1,"name":"A","number":1,"side":"home"},
		{"id":1,"name":"B","number":2,"side":"home"}]`))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = Parse([]byte(`not json`))
	assert.ErrorContains(t, err, "parsing roster")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"Keeper","number":1,"role":"GK","side":"home"}]`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "reading roster file")
}
