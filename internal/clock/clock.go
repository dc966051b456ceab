// Package clock abstracts the time source and deferred-callback scheduling
// used by the playback state machines, so tests can drive them manually and
// live playback can follow the audio clock.
package clock

import "time"

// Clock reads the current time in seconds and schedules callbacks.
type Clock interface {
	Now() float64
	// AfterFunc runs fn after delay seconds on an unspecified goroutine.
	AfterFunc(delay float64, fn func()) Timer
}

// Timer is a pending callback. Stop reports whether the callback was
// prevented from running.
type Timer interface {
	Stop() bool
}

type systemClock struct {
	start time.Time
	now   func() float64
}

// System returns a Clock whose timers use the runtime timer wheel. When now
// is non-nil it becomes the Now source (e.g. an audio engine's sample clock);
// otherwise Now is monotonic wall time from construction.
func System(now func() float64) Clock {
	return &systemClock{start: time.Now(), now: now}
}

func (c *systemClock) Now() float64 {
	if c.now != nil {
		return c.now()
	}
	return time.Since(c.start).Seconds()
}

func (c *systemClock) AfterFunc(delay float64, fn func()) Timer {
	if delay < 0 {
		delay = 0
	}
	return time.AfterFunc(time.Duration(delay*float64(time.Second)), fn)
}
