package playback

import (
	"sync"
	"time"
)

// ControlsTimeout is how long controls stay visible without pointer
// movement while playing.
const ControlsTimeout = 3 * time.Second

// State is the native playback state.
type State string

const (
	Idle    State = "idle"
	Playing State = "playing"
	Paused  State = "paused"
	Ended   State = "ended"
)

// Timer is the part of *time.Timer the player needs.
type Timer interface {
	Stop() bool
}

// Clock schedules the controls auto-hide.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock uses the runtime timers.
var SystemClock Clock = realClock{}

// Snapshot is a read-only copy of the player state.
type Snapshot struct {
	State        State
	Position     float64
	Duration     float64
	Progress     float64
	Muted        bool
	Fullscreen   bool
	ShowControls bool
	Closed       bool
}

// Player drives the native playback surface. It is safe for concurrent use
// since the hide timer fires on its own goroutine.
type Player struct {
	mu    sync.Mutex
	clock Clock
	nav   Navigation

	state        State
	position     float64
	duration     float64
	muted        bool
	fullscreen   bool
	showControls bool
	closed       bool
	hideTimer    Timer
	timerGen     uint64
}

// NewPlayer creates an idle player. A nil clock uses SystemClock.
func NewPlayer(clock Clock, nav Navigation) *Player {
	if clock == nil {
		clock = SystemClock
	}
	return &Player{
		clock:        clock,
		nav:          nav,
		state:        Idle,
		showControls: true,
	}
}

// Play starts or resumes playback from idle or paused.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.state == Idle || p.state == Paused {
		p.state = Playing
		p.armLocked()
	}
}

// Pause stops playback and pins the controls on screen.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != Playing {
		return
	}
	p.state = Paused
	p.revealLocked()
}

// Toggle flips between playing and paused. From idle it starts playback.
// An ended player stays ended until Replay.
func (p *Player) Toggle() {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()
	switch state {
	case Playing:
		p.Pause()
	case Idle, Paused:
		p.Play()
	}
}

// Ended records natural completion. It does not replay.
func (p *Player) Ended() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != Playing {
		return
	}
	p.state = Ended
	p.position = p.duration
	p.revealLocked()
}

// Seek moves to percent of the duration, clamped to 0..100. The play
// state is unchanged.
func (p *Player) Seek(percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.position = p.duration * clampPercent(percent) / 100
}

// Replay seeks and then plays from any state.
func (p *Player) Replay(percent float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.position = p.duration * clampPercent(percent) / 100
	p.state = Playing
	p.armLocked()
}

// SetDuration records the media length once metadata is loaded.
func (p *Player) SetDuration(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds != seconds || seconds < 0 {
		seconds = 0
	}
	p.duration = seconds
	if p.position > seconds {
		p.position = seconds
	}
}

// TimeUpdate records the media element's current position.
func (p *Player) TimeUpdate(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || seconds != seconds || seconds < 0 {
		return
	}
	p.position = seconds
}

// ToggleMute flips the muted flag.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.muted = !p.muted
	}
}

// ToggleFullscreen flips fullscreen.
func (p *Player) ToggleFullscreen() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.fullscreen = !p.fullscreen
	}
}

// PointerMove shows the controls and, while playing, re-arms the hide timer.
func (p *Player) PointerMove() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.showControls = true
	if p.state == Playing {
		p.armLocked()
	}
}

// Next invokes the next-episode action when one was supplied.
func (p *Player) Next() bool {
	return p.navigate(p.nav.Next)
}

// Prev invokes the previous-episode action when one was supplied.
func (p *Player) Prev() bool {
	return p.navigate(p.nav.Prev)
}

func (p *Player) navigate(f func()) bool {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed || f == nil {
		return false
	}
	f()
	return true
}

// Close leaves fullscreen, stops pending timers and stops playback. Every
// later call is a no-op.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.stopTimerLocked()
	p.fullscreen = false
	if p.state == Playing {
		p.state = Paused
	}
	p.closed = true
}

// Snapshot returns the current state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		State:        p.state,
		Position:     p.position,
		Duration:     p.duration,
		Muted:        p.muted,
		Fullscreen:   p.fullscreen,
		ShowControls: p.showControls,
		Closed:       p.closed,
	}
	if p.duration > 0 {
		s.Progress = p.position / p.duration * 100
	}
	return s
}

func (p *Player) armLocked() {
	p.stopTimerLocked()
	p.showControls = true
	p.timerGen++
	gen := p.timerGen
	p.hideTimer = p.clock.AfterFunc(ControlsTimeout, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// A stale timer may still fire after Stop returned false.
		if gen != p.timerGen || p.closed || p.state != Playing {
			return
		}
		p.showControls = false
		p.hideTimer = nil
	})
}

func (p *Player) revealLocked() {
	p.stopTimerLocked()
	p.showControls = true
}

func (p *Player) stopTimerLocked() {
	if p.hideTimer != nil {
		p.hideTimer.Stop()
		p.hideTimer = nil
	}
	p.timerGen++
}

func clampPercent(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
