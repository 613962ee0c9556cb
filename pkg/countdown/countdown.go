// Package countdown implements the per-second exam timer. Thresholds only
// change the reported phase; expiry fires the callback exactly once.
package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Phase is the display state of the timer.
type Phase string

const (
	PhaseNormal   Phase = "normal"
	PhaseWarning  Phase = "warning"
	PhaseCritical Phase = "critical"
	PhaseExpired  Phase = "expired"
)

// Options configures thresholds and callbacks.
type Options struct {
	Warning  time.Duration
	Critical time.Duration
	OnTick   func(Snapshot)
	OnExpire func()
}

// Snapshot is the observable state after a tick.
type Snapshot struct {
	Remaining int    `json:"remaining_seconds"`
	Phase     Phase  `json:"phase"`
	Display   string `json:"display"`
}

// Countdown decrements one second per tick.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	warning   int
	critical  int
	onTick    func(Snapshot)
	onExpire  func()
	expired   bool
	stopped   bool
	done      chan struct{}
	closeOnce sync.Once
}

// New builds a countdown of the given duration (truncated to whole seconds).
func New(duration time.Duration, opts Options) *Countdown {
	if opts.Warning <= 0 {
		opts.Warning = 5 * time.Minute
	}
	if opts.Critical <= 0 {
		opts.Critical = time.Minute
	}
	remaining := int(duration / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return &Countdown{
		remaining: remaining,
		warning:   int(opts.Warning / time.Second),
		critical:  int(opts.Critical / time.Second),
		onTick:    opts.OnTick,
		onExpire:  opts.OnExpire,
		done:      make(chan struct{}),
	}
}

// FromMinutes starts at minutes × 60 seconds.
func FromMinutes(minutes int, opts Options) *Countdown {
	return New(time.Duration(minutes)*time.Minute, opts)
}

// Tick advances the timer by one second. Ticks after expiry or Stop are no-ops.
func (c *Countdown) Tick() Snapshot {
	c.mu.Lock()
	if c.expired || c.stopped {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	if c.remaining > 0 {
		c.remaining--
	}
	fire := c.remaining == 0
	if fire {
		c.expired = true
	}
	snap := c.snapshotLocked()
	onTick, onExpire := c.onTick, c.onExpire
	c.mu.Unlock()

	if onTick != nil {
		onTick(snap)
	}
	if fire {
		c.close()
		if onExpire != nil {
			onExpire()
		}
	}
	return snap
}

// Run consumes ticks until the countdown expires, is stopped or ctx ends.
func (c *Countdown) Run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticks:
			c.Tick()
		}
	}
}

// Start drives the countdown from a one second ticker on its own goroutine.
func (c *Countdown) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	go func() {
		defer ticker.Stop()
		c.Run(ctx, ticker.C)
	}()
}

// Stop halts the timer. It reports false when the timer had already expired.
func (c *Countdown) Stop() bool {
	c.mu.Lock()
	if c.expired || c.stopped {
		c.mu.Unlock()
		return false
	}
	c.stopped = true
	c.mu.Unlock()
	c.close()
	return true
}

// Snapshot returns the current state without advancing.
func (c *Countdown) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Done is closed once the timer expires or is stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

func (c *Countdown) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Countdown) snapshotLocked() Snapshot {
	return Snapshot{
		Remaining: c.remaining,
		Phase:     phaseFor(c.remaining, c.expired, c.warning, c.critical),
		Display:   Format(c.remaining),
	}
}

func phaseFor(remaining int, expired bool, warning, critical int) Phase {
	switch {
	case expired || remaining <= 0:
		return PhaseExpired
	case remaining < critical:
		return PhaseCritical
	case remaining < warning:
		return PhaseWarning
	default:
		return PhaseNormal
	}
}

// Format renders seconds as MM:SS (minutes are not capped at 59).
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
