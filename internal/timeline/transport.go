package timeline

import (
	"fmt"
	"sync"
)

// Transport is the external video playback collaborator. The engine only
// consumes clock readings and issues seeks; decode and rate control live
// entirely on the other side of this interface.
type Transport interface {
	// CurrentClock returns the playback position in seconds.
	CurrentClock() float64
	// Seek moves playback to the given position.
	Seek(clock float64) error
	// SetPlaybackRate changes playback speed. Rate changes never alter
	// clock values already recorded on marks.
	SetPlaybackRate(rate float64) error
	// Playing reports whether the transport is currently advancing.
	Playing() bool
	// OnClockAdvance registers a callback fired as the clock advances.
	OnClockAdvance(fn func(clock float64))
}

// ManualTransport is a Transport driven by explicit Advance calls instead
// of a real decoder. Headless tools and scripted sessions use it to step
// the clock deterministically.
type ManualTransport struct {
	mu        sync.Mutex
	clock     float64
	rate      float64
	playing   bool
	callbacks []func(clock float64)
}

// NewManualTransport creates a stopped transport at clock zero with
// playback rate 1.
func NewManualTransport() *ManualTransport {
	return &ManualTransport{rate: 1}
}

// CurrentClock returns the playback position in seconds.
func (t *ManualTransport) CurrentClock() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock
}

// Seek moves the clock to the given position. Seeking never fires clock
// advance callbacks; only Advance does.
func (t *ManualTransport) Seek(clock float64) error {
	if clock < 0 {
		return fmt.Errorf("seek to negative clock %f", clock)
	}
	t.mu.Lock()
	t.clock = clock
	t.mu.Unlock()
	return nil
}

// SetPlaybackRate changes how far a unit Advance moves the clock.
func (t *ManualTransport) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("playback rate must be positive, got %f", rate)
	}
	t.mu.Lock()
	t.rate = rate
	t.mu.Unlock()
	return nil
}

// Playing reports whether the transport is in the playing state.
func (t *ManualTransport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

// Play puts the transport in the playing state.
func (t *ManualTransport) Play() {
	t.mu.Lock()
	t.playing = true
	t.mu.Unlock()
}

// Pause stops the transport.
func (t *ManualTransport) Pause() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
}

// OnClockAdvance registers a callback fired on every Advance.
func (t *ManualTransport) OnClockAdvance(fn func(clock float64)) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// Advance moves the clock forward by seconds scaled by the playback rate
// and fires the registered callbacks. Advancing while paused is allowed;
// scripted drivers step the clock regardless of state.
func (t *ManualTransport) Advance(seconds float64) {
	t.mu.Lock()
	t.clock += seconds * t.rate
	clock := t.clock
	callbacks := make([]func(float64), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn(clock)
	}
}
