package worker

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RunsJobOnInterval(t *testing.T) {
	m := NewManager(nil)

	var runs atomic.Int64
	m.Add(Job{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run:      func() error { runs.Add(1); return nil },
	})

	m.Start()
	require.True(t, m.Running())

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)

	m.Stop()
	assert.False(t, m.Running())
}

func TestManager_StopRunsEachJobOnce(t *testing.T) {
	m := NewManager(nil)

	var runs atomic.Int64
	m.Add(Job{
		Name:     "final",
		Interval: time.Hour,
		Run:      func() error { runs.Add(1); return nil },
	})

	m.Start()
	m.Stop()

	assert.Equal(t, int64(1), runs.Load(), "Stop fires a final run even if the ticker never did")
}

func TestManager_JobErrorDoesNotStopTicker(t *testing.T) {
	m := NewManager(nil)

	var runs atomic.Int64
	m.Add(Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func() error {
			if runs.Add(1) == 1 {
				return errors.New("transient")
			}
			return nil
		},
	})

	m.Start()
	defer m.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 3 },
		time.Second, 5*time.Millisecond)
}

func TestManager_RejectsInvalidJobs(t *testing.T) {
	m := NewManager(nil)

	m.Add(Job{Name: "no-interval", Run: func() error { return nil }})
	m.Add(Job{Name: "no-run", Interval: time.Second})

	m.Start()
	m.Stop()
	assert.Empty(t, m.jobs)
}

func TestManager_StartTwiceIsNoop(t *testing.T) {
	m := NewManager(nil)

	var runs atomic.Int64
	m.Add(Job{
		Name:     "once",
		Interval: time.Hour,
		Run:      func() error { runs.Add(1); return nil },
	})

	m.Start()
	m.Start()
	m.Stop()

	assert.Equal(t, int64(1), runs.Load())
}

func TestManager_StopWithoutStartIsNoop(t *testing.T) {
	m := NewManager(nil)
	m.Stop()
	assert.False(t, m.Running())
}
