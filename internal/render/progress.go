package render

import (
	"math"
	"sync"
	"time"

	"clipforge/internal/services/ffmpeg"
)

// Tracker reduces progress observations from multiple sources into one
// monotonic percentage. Engine fractions and log out-times both feed it;
// whichever source is ahead wins, and the value never moves backward even
// when a retry restarts the engine from zero.
type Tracker struct {
	mu sync.Mutex

	percent float64
	floor   float64
	ceiling float64
	tau     float64

	attemptStart time.Time
	rampBase     float64

	notify func(percent float64)
}

// NewTracker builds a tracker whose render band spans [floor, ceiling]
// percent. tauSeconds shapes the idle ramp; notify, when set, observes
// every advance.
func NewTracker(floor, ceiling, tauSeconds float64, notify func(float64)) *Tracker {
	if ceiling <= floor {
		floor, ceiling = 8, 92
	}
	if tauSeconds <= 0 {
		tauSeconds = 6
	}
	return &Tracker{
		floor:   floor,
		ceiling: ceiling,
		tau:     tauSeconds,
		notify:  notify,
	}
}

// Percent returns the current overall percentage.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Set advances the overall percentage to pct if it is ahead of the current
// value. Used for the checkpoints outside the render band.
func (t *Tracker) Set(pct float64) {
	t.mu.Lock()
	t.advanceLocked(pct)
	t.mu.Unlock()
}

// BeginAttempt re-baselines the per-attempt sources. The engine's fraction
// restarts at zero on a retry; the monotonic guard keeps the published
// value from regressing while the new pass catches up.
func (t *Tracker) BeginAttempt(now time.Time) {
	t.mu.Lock()
	t.attemptStart = now
	t.rampBase = math.Max(t.percent, t.floor)
	t.advanceLocked(t.floor)
	t.mu.Unlock()
}

// Observe folds one engine update into the render band. Updates without a
// usable fraction fall back to the out-time position against the clip
// duration; updates with neither are ignored.
func (t *Tracker) Observe(update ffmpeg.Update, clipDuration float64) {
	fraction := update.Fraction
	if fraction < 0 && update.OutTime >= 0 && clipDuration > 0 {
		fraction = update.OutTime / clipDuration
	}
	if fraction < 0 {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	t.mu.Lock()
	t.advanceLocked(t.floor + (t.ceiling-t.floor)*fraction)
	t.mu.Unlock()
}

// Tick advances the idle ramp. Between engine updates the value eases out
// toward the ceiling without ever reaching it, so a stalled source still
// shows forward motion that a real observation can overtake.
func (t *Tracker) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attemptStart.IsZero() {
		return
	}
	elapsed := now.Sub(t.attemptStart).Seconds()
	if elapsed <= 0 {
		return
	}
	span := t.ceiling - t.rampBase
	if span <= 0 {
		return
	}
	ramped := t.rampBase + span*(1-math.Exp(-elapsed/t.tau))
	bound := t.ceiling - 0.5
	if ramped > bound {
		ramped = bound
	}
	t.advanceLocked(ramped)
}

func (t *Tracker) advanceLocked(pct float64) {
	if pct > 100 {
		pct = 100
	}
	if pct <= t.percent {
		return
	}
	t.percent = pct
	if t.notify != nil {
		t.notify(pct)
	}
}
