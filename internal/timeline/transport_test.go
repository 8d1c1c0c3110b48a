package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTransport_AdvanceScalesByRate(t *testing.T) {
	tr := NewManualTransport()

	tr.Advance(10)
	assert.Equal(t, float64(10), tr.CurrentClock())

	require.NoError(t, tr.SetPlaybackRate(2))
	tr.Advance(5)
	assert.Equal(t, float64(20), tr.CurrentClock())
}

func TestManualTransport_SeekDoesNotFireCallbacks(t *testing.T) {
	tr := NewManualTransport()

	var fired []float64
	tr.OnClockAdvance(func(clock float64) { fired = append(fired, clock) })

	require.NoError(t, tr.Seek(42))
	assert.Empty(t, fired)
	assert.Equal(t, float64(42), tr.CurrentClock())

	tr.Advance(1)
	assert.Equal(t, []float64{43}, fired)
}

func TestManualTransport_RejectsBadValues(t *testing.T) {
	tr := NewManualTransport()

	assert.Error(t, tr.Seek(-1))
	assert.Error(t, tr.SetPlaybackRate(0))
	assert.Error(t, tr.SetPlaybackRate(-0.5))
}

func TestManualTransport_PlayPause(t *testing.T) {
	tr := NewManualTransport()

	assert.False(t, tr.Playing())
	tr.Play()
	assert.True(t, tr.Playing())
	tr.Pause()
	assert.False(t, tr.Playing())
}
