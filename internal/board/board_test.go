package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/tacticsboard/pkg/core"
)

func newTestDoc(t *testing.T) *Document {
	t.Helper()
	return New(core.ModeVirtual)
}

func mustApply(t *testing.T, d *Document, cmd Command) Command {
	t.Helper()
	inv, err := d.Apply(cmd)
	require.NoError(t, err)
	return inv
}

func TestAddToken_AllocatesID(t *testing.T) {
	d := newTestDoc(t)

	mustApply(t, d, AddToken{Token: core.Token{
		Side: core.SideHome, Role: core.RoleForward,
		Position: core.Point{X: 0.1, Y: 0.1},
	}})

	tokens := d.Tokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, uint(1), tokens[0].ID)
	assert.Equal(t, core.SideHome, tokens[0].Side)
}

func TestAddToken_RejectsOutOfPitch(t *testing.T) {
	d := newTestDoc(t)

	_, err := d.Apply(AddToken{Token: core.Token{Position: core.Point{X: 1.5, Y: 0.5}}})

	require.ErrorIs(t, err, ErrInvalidCommand)
	assert.Empty(t, d.Tokens())
}

func TestAddToken_RejectsDuplicateID(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{ID: 5, Position: core.Point{X: 0.1, Y: 0.1}}})

	_, err := d.Apply(AddToken{Token: core.Token{ID: 5, Position: core.Point{X: 0.2, Y: 0.2}}})

	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestMoveToken_UndoRedoScenario(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{
		Position: core.Point{X: 0.1, Y: 0.1},
	}})

	move := MoveToken{ID: 1, From: core.Point{X: 0.1, Y: 0.1}, To: core.Point{X: 0.5, Y: 0.5}}
	inv := mustApply(t, d, move)

	tok, ok := d.Token(1)
	require.True(t, ok)
	assert.Equal(t, core.Point{X: 0.5, Y: 0.5}, tok.Position)

	// undo
	redo := mustApply(t, d, inv)
	tok, _ = d.Token(1)
	assert.Equal(t, core.Point{X: 0.1, Y: 0.1}, tok.Position)

	// redo
	mustApply(t, d, redo)
	tok, _ = d.Token(1)
	assert.Equal(t, core.Point{X: 0.5, Y: 0.5}, tok.Position)
}

func TestMoveToken_StalePositionRejected(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})

	_, err := d.Apply(MoveToken{ID: 1, From: core.Point{X: 0.3, Y: 0.3}, To: core.Point{X: 0.5, Y: 0.5}})

	require.ErrorIs(t, err, ErrInvalidCommand)
	tok, _ := d.Token(1)
	assert.Equal(t, core.Point{X: 0.1, Y: 0.1}, tok.Position, "document must be unchanged")
}

func TestMoveToken_UnknownID(t *testing.T) {
	d := newTestDoc(t)

	_, err := d.Apply(MoveToken{ID: 42, To: core.Point{X: 0.5, Y: 0.5}})

	require.ErrorIs(t, err, ErrInvalidCommand)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRemoveToken_NullsArrowAnchors(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})
	mustApply(t, d, AddArrow{Arrow: core.Arrow{
		Points:      []core.Point{{X: 0.1, Y: 0.1}, {X: 0.4, Y: 0.4}},
		Style:       core.ArrowSolid,
		AnchorToken: 1,
	}})

	inv := mustApply(t, d, RemoveToken{ID: 1})

	arrows := d.Arrows()
	require.Len(t, arrows, 1, "arrow is retained, not deleted")
	assert.Zero(t, arrows[0].AnchorToken, "anchor must be nulled, not dangling")

	// undo restores both the token and the anchor
	mustApply(t, d, inv)
	arrows = d.Arrows()
	require.Len(t, arrows, 1)
	assert.Equal(t, uint(1), arrows[0].AnchorToken)
	_, ok := d.Token(1)
	assert.True(t, ok)
}

func TestAddArrow_RequiresTwoPoints(t *testing.T) {
	d := newTestDoc(t)

	_, err := d.Apply(AddArrow{Arrow: core.Arrow{Points: []core.Point{{X: 0.1, Y: 0.1}}}})

	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestAddArrow_UnknownAnchorRejected(t *testing.T) {
	d := newTestDoc(t)

	_, err := d.Apply(AddArrow{Arrow: core.Arrow{
		Points:      []core.Point{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2}},
		AnchorToken: 99,
	}})

	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestErase_AtomicOnUnknownID(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})

	_, err := d.Apply(Erase{IDs: []uint{1, 99}})

	require.ErrorIs(t, err, ErrInvalidCommand)
	assert.Len(t, d.Tokens(), 1, "nothing may be erased when any target is unknown")
}

func TestErase_MixedKindsAndUndo(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})
	mustApply(t, d, AddStroke{Stroke: core.Stroke{
		Points: []core.Point{{X: 0.2, Y: 0.2}, {X: 0.3, Y: 0.3}},
	}})
	mustApply(t, d, AddArrow{Arrow: core.Arrow{
		Points:      []core.Point{{X: 0.1, Y: 0.1}, {X: 0.6, Y: 0.6}},
		AnchorToken: 1,
	}})

	before, err := d.Serialize()
	require.NoError(t, err)

	inv := mustApply(t, d, Erase{IDs: []uint{1, 2}})
	assert.Empty(t, d.Tokens())
	assert.Empty(t, d.Strokes())
	arrows := d.Arrows()
	require.Len(t, arrows, 1)
	assert.Zero(t, arrows[0].AnchorToken)

	mustApply(t, d, inv)
	after, err := d.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestResetBoard_KeepsCameraAndMode(t *testing.T) {
	d := New(core.ModeReal)
	d.SetCamera(core.Camera{PanX: 0.2, Zoom: 2})
	mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})
	mustApply(t, d, SetFormation{Name: "4-4-2"})

	inv := mustApply(t, d, ResetBoard{})

	assert.True(t, d.Empty())
	assert.Empty(t, d.Formation())
	assert.Equal(t, core.ModeReal, d.Mode())
	assert.Equal(t, core.Camera{PanX: 0.2, Zoom: 2}, d.Camera())

	mustApply(t, d, inv)
	assert.Len(t, d.Tokens(), 1)
	assert.Equal(t, "4-4-2", d.Formation())
}

func TestBatch_RollsBackOnFailure(t *testing.T) {
	d := newTestDoc(t)

	before, err := d.Serialize()
	require.NoError(t, err)

	_, err = d.Apply(Batch{Commands: []Command{
		AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}},
		MoveToken{ID: 99, To: core.Point{X: 0.5, Y: 0.5}},
	}})
	require.ErrorIs(t, err, ErrInvalidCommand)

	after, err := d.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "failed batch must leave no trace")
}

func TestBatch_InverseRestoresState(t *testing.T) {
	d := newTestDoc(t)

	before, err := d.Serialize()
	require.NoError(t, err)

	inv := mustApply(t, d, Batch{Commands: []Command{
		AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}},
		AddToken{Token: core.Token{Position: core.Point{X: 0.9, Y: 0.9}}},
		SetFormation{Name: "4-3-3"},
	}})
	assert.Len(t, d.Tokens(), 2)

	mustApply(t, d, inv)
	after, err := d.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestEveryCommand_InversePairRestoresSerializedState(t *testing.T) {
	seed := func(t *testing.T) *Document {
		d := newTestDoc(t)
		mustApply(t, d, AddToken{Token: core.Token{Position: core.Point{X: 0.1, Y: 0.1}}})
		mustApply(t, d, AddArrow{Arrow: core.Arrow{
			Points:      []core.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}},
			AnchorToken: 1,
		}})
		mustApply(t, d, AddStroke{Stroke: core.Stroke{
			Points: []core.Point{{X: 0.3, Y: 0.3}, {X: 0.4, Y: 0.4}},
		}})
		mustApply(t, d, AddZone{Zone: core.Zone{
			Shape: core.ZoneRectangle,
			Min:   core.Point{X: 0.2, Y: 0.2}, Max: core.Point{X: 0.6, Y: 0.6},
		}})
		return d
	}

	cases := []struct {
		name string
		cmd  Command
	}{
		{"addToken", AddToken{Token: core.Token{Position: core.Point{X: 0.7, Y: 0.7}}}},
		{"moveToken", MoveToken{ID: 1, From: core.Point{X: 0.1, Y: 0.1}, To: core.Point{X: 0.8, Y: 0.8}}},
		{"removeToken", RemoveToken{ID: 1}},
		{"addArrow", AddArrow{Arrow: core.Arrow{Points: []core.Point{{X: 0.2, Y: 0.1}, {X: 0.9, Y: 0.9}}}}},
		{"removeArrow", RemoveArrow{ID: 2}},
		{"addStroke", AddStroke{Stroke: core.Stroke{Points: []core.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}}}},
		{"addZone", AddZone{Zone: core.Zone{Shape: core.ZoneEllipse, Min: core.Point{X: 0.1, Y: 0.1}, Max: core.Point{X: 0.3, Y: 0.3}}}},
		{"removeZone", RemoveZone{ID: 4}},
		{"erase", Erase{IDs: []uint{1, 3}}},
		{"reset", ResetBoard{}},
		{"setFormation", SetFormation{Name: "3-5-2"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := seed(t)
			before, err := d.Serialize()
			require.NoError(t, err)

			inv := mustApply(t, d, tc.cmd)
			mustApply(t, d, inv)

			after, err := d.Serialize()
			require.NoError(t, err)
			assert.Equal(t, string(before), string(after))
		})
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	d := newTestDoc(t)
	mustApply(t, d, AddToken{Token: core.Token{
		Side: core.SideAway, Role: core.RoleGoalkeeper, Number: 1,
		Position: core.Point{X: 0.05, Y: 0.5}, Color: "#ffaa00",
	}})
	mustApply(t, d, AddArrow{Arrow: core.Arrow{
		Points: []core.Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}, {X: 0.5, Y: 0.4}},
		Style:  core.ArrowDashed, Color: "#00ff00", Width: 2, AnchorToken: 1,
	}})
	mustApply(t, d, SetFormation{Name: "4-2-3-1"})

	data, err := d.Serialize()
	require.NoError(t, err)

	restored := New(core.ModeVirtual)
	require.NoError(t, restored.Deserialize(data))

	data2, err := restored.Serialize()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(data2))
	assert.Equal(t, d.Arrows(), restored.Arrows())
	assert.Equal(t, d.Tokens(), restored.Tokens())
}

func TestCommandCodec_RoundTrip(t *testing.T) {
	cmds := []Command{
		AddToken{Token: core.Token{Side: core.SideHome, Position: core.Point{X: 0.1, Y: 0.1}}},
		MoveToken{ID: 3, From: core.Point{X: 0.1, Y: 0.1}, To: core.Point{X: 0.2, Y: 0.2}},
		Erase{IDs: []uint{1, 2, 3}},
		ResetBoard{},
		Batch{Commands: []Command{
			SetFormation{Name: "4-4-2"},
			AddZone{Zone: core.Zone{Shape: core.ZoneRectangle, Min: core.Point{X: 0.1, Y: 0.1}, Max: core.Point{X: 0.2, Y: 0.2}}},
		}},
	}

	for _, cmd := range cmds {
		data, err := MarshalCommand(cmd)
		require.NoError(t, err)

		decoded, err := UnmarshalCommand(data)
		require.NoError(t, err)
		assert.Equal(t, cmd, decoded)
	}
}

func TestCommandCodec_RejectsInternalKinds(t *testing.T) {
	_, err := MarshalCommand(removeAdded{EntityKind: KindAddToken, ID: 1})
	require.Error(t, err)
}
