package playback

import (
	"sync"

	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/notation"
)

const (
	// stepGap is trimmed from each step's hold time so consecutive voices
	// do not butt against each other.
	stepGap = 0.05
	// minHold keeps very short steps audible.
	minHold = 0.01
)

// StepSequencer advances through a note list one note at a time on a fixed
// per-note interval, triggering each through the shared Scheduler and
// disposing the previous voice before starting the next.
type StepSequencer struct {
	mu     sync.Mutex
	sched  *Scheduler
	clock  clock.Clock
	notes  []notation.Note
	volume float64

	playing      bool
	currentIndex int
	noteDuration float64
	timer        clock.Timer
	active       Voice

	// Set before Start; invoked without the sequencer lock held.
	OnNoteStart func(n notation.Note, index int)
	OnComplete  func()
}

func NewStepSequencer(sched *Scheduler, clk clock.Clock, notes []notation.Note, volume float64) *StepSequencer {
	return &StepSequencer{sched: sched, clock: clk, notes: notes, volume: volume}
}

// Start begins stepping through the notes, spreading them evenly across
// totalDuration. No-op if already playing or the note list is empty.
func (s *StepSequencer) Start(totalDuration float64) {
	s.mu.Lock()
	if s.playing || len(s.notes) == 0 {
		s.mu.Unlock()
		return
	}
	s.playing = true
	s.noteDuration = totalDuration / float64(len(s.notes))
	if s.currentIndex >= len(s.notes) {
		s.currentIndex = 0
	}
	s.mu.Unlock()
	s.step()
}

// Stop cancels the pending step timer and disposes the active voice.
func (s *StepSequencer) Stop() {
	s.mu.Lock()
	s.playing = false
	s.cancelLocked()
	v := s.active
	s.active = nil
	s.mu.Unlock()

	if v != nil {
		v.Dispose()
	}
}

// SeekTo stops playback and moves to the given note index, clamped to the
// note list. It reports whether playback had been active so the caller can
// decide whether to resume.
func (s *StepSequencer) SeekTo(index int) bool {
	s.mu.Lock()
	was := s.playing
	s.playing = false
	s.cancelLocked()
	v := s.active
	s.active = nil
	if index < 0 {
		index = 0
	}
	if last := len(s.notes) - 1; index > last && last >= 0 {
		index = last
	}
	s.currentIndex = index
	s.mu.Unlock()

	if v != nil {
		v.Dispose()
	}
	return was
}

// Playing reports whether the sequencer is advancing.
func (s *StepSequencer) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// CurrentIndex returns the index of the next note to trigger.
func (s *StepSequencer) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

func (s *StepSequencer) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *StepSequencer) step() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}
	if prev := s.active; prev != nil {
		s.active = nil
		prev.Dispose()
	}
	if s.currentIndex >= len(s.notes) {
		s.playing = false
		s.timer = nil
		onComplete := s.OnComplete
		s.mu.Unlock()
		if onComplete != nil {
			onComplete()
		}
		return
	}
	n := s.notes[s.currentIndex]
	idx := s.currentIndex
	hold := s.noteDuration - stepGap
	if hold < minHold {
		hold = minHold
	}
	s.active = s.sched.ScheduleNote(n, hold, s.sched.Now(), s.volume)
	s.currentIndex++
	s.timer = s.clock.AfterFunc(s.noteDuration, s.step)
	onNote := s.OnNoteStart
	s.mu.Unlock()

	if onNote != nil {
		onNote(n, idx)
	}
}
