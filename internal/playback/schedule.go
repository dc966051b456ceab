package playback

import (
	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/notation"
)

const (
	// glideLead is how far past a note's start the frequency ramp begins.
	glideLead = 0.05
	// glideSpan is the fraction of the note's duration the ramp covers.
	glideSpan = 0.8
	// releaseBuffer is how long after a note's nominal end its voice is kept
	// alive to let the release decay finish.
	releaseBuffer = 0.5
)

// Scheduler triggers individual notes through the synthesis backend at
// absolute audio times. Glide and cleanup are fire-and-forget: once a note is
// scheduled they cannot be cancelled, only tolerated — Dispose is idempotent,
// so the deferred cleanup no-ops against a voice the caller already disposed.
type Scheduler struct {
	synth   Synth
	clock   clock.Clock
	volumes GroupVolumes
}

func NewScheduler(synth Synth, clk clock.Clock, volumes GroupVolumes) *Scheduler {
	return &Scheduler{synth: synth, clock: clk, volumes: volumes}
}

// ScheduleNote triggers a note at the absolute time at for duration seconds.
// It returns nil without touching the backend when the note's group is
// silenced.
func (s *Scheduler) ScheduleNote(n notation.Note, duration, at, volume float64) Voice {
	vel := VelocityFor(n, s.volumes)
	if vel == 0 {
		return nil
	}
	v := s.synth.BuildVoice(n, volume)
	v.TriggerAttackRelease(n.StartFrequency, duration, at, vel)
	if n.StartFrequency != n.EndFrequency {
		v.RampFrequency(n.EndFrequency, duration*glideSpan, at+glideLead)
	}
	delay := at + duration + releaseBuffer - s.clock.Now()
	if delay < 0 {
		delay = 0
	}
	s.clock.AfterFunc(delay, v.Dispose)
	return v
}

// Volumes returns the configured group volume map.
func (s *Scheduler) Volumes() GroupVolumes { return s.volumes }

// Now reports the backend's current audio time.
func (s *Scheduler) Now() float64 { return s.synth.Now() }
