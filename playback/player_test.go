package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// active counts timers that were armed and not stopped.
func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		t.mu.Lock()
		if !t.stopped {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

func (c *fakeClock) fireLatest() {
	c.mu.Lock()
	t := c.timers[len(c.timers)-1]
	c.mu.Unlock()
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.f()
}

func TestPlayerTransitions(t *testing.T) {
	p := NewPlayer(&fakeClock{}, Navigation{})
	assert.Equal(t, Idle, p.Snapshot().State)

	p.Toggle()
	assert.Equal(t, Playing, p.Snapshot().State)

	p.Toggle()
	assert.Equal(t, Paused, p.Snapshot().State)

	p.Play()
	p.Ended()
	assert.Equal(t, Ended, p.Snapshot().State)

	// Ended does not restart on toggle.
	p.Toggle()
	assert.Equal(t, Ended, p.Snapshot().State)

	p.Replay(0)
	assert.Equal(t, Playing, p.Snapshot().State)
}

func TestPlayerEndedOnlyFromPlaying(t *testing.T) {
	p := NewPlayer(&fakeClock{}, Navigation{})
	p.Ended()
	assert.Equal(t, Idle, p.Snapshot().State)
}

func TestPlayerSeekKeepsState(t *testing.T) {
	p := NewPlayer(&fakeClock{}, Navigation{})
	p.SetDuration(200)

	p.Seek(50)
	s := p.Snapshot()
	assert.Equal(t, Idle, s.State)
	assert.InDelta(t, 100, s.Position, 0.001)
	assert.InDelta(t, 50, s.Progress, 0.001)

	p.Play()
	p.Pause()
	p.Seek(150)
	s = p.Snapshot()
	assert.Equal(t, Paused, s.State)
	assert.InDelta(t, 200, s.Position, 0.001)

	p.Seek(-10)
	assert.InDelta(t, 0, p.Snapshot().Position, 0.001)
}

func TestPlayerControlsAutoHide(t *testing.T) {
	clock := &fakeClock{}
	p := NewPlayer(clock, Navigation{})

	p.Play()
	require.Equal(t, 1, clock.active())
	clock.fireLatest()
	assert.False(t, p.Snapshot().ShowControls)

	p.PointerMove()
	assert.True(t, p.Snapshot().ShowControls)

	// Every re-arm stops the previous timer.
	p.PointerMove()
	p.PointerMove()
	assert.Equal(t, 1, clock.active())
}

func TestPlayerControlsStayWhilePaused(t *testing.T) {
	clock := &fakeClock{}
	p := NewPlayer(clock, Navigation{})

	p.Play()
	p.Pause()
	assert.Equal(t, 0, clock.active())

	p.PointerMove()
	assert.Equal(t, 0, clock.active())
	assert.True(t, p.Snapshot().ShowControls)

	// A timer that fires after pause must not hide the controls.
	clock.fireLatest()
	assert.True(t, p.Snapshot().ShowControls)
}

func TestPlayerClose(t *testing.T) {
	clock := &fakeClock{}
	p := NewPlayer(clock, Navigation{})

	p.Play()
	p.ToggleFullscreen()
	require.True(t, p.Snapshot().Fullscreen)

	p.Close()
	s := p.Snapshot()
	assert.True(t, s.Closed)
	assert.False(t, s.Fullscreen)
	assert.Equal(t, 0, clock.active())

	p.Play()
	p.PointerMove()
	assert.Equal(t, 0, clock.active())
}

func TestPlayerNavigation(t *testing.T) {
	calls := 0
	p := NewPlayer(&fakeClock{}, Navigation{Next: func() { calls++ }})

	assert.True(t, p.Next())
	assert.False(t, p.Prev())
	assert.Equal(t, 1, calls)

	p.Close()
	assert.False(t, p.Next())
	assert.Equal(t, 1, calls)
}

func TestPlayerMute(t *testing.T) {
	p := NewPlayer(nil, Navigation{})
	p.ToggleMute()
	assert.True(t, p.Snapshot().Muted)
	p.ToggleMute()
	assert.False(t, p.Snapshot().Muted)
}
