package playback

import (
	"sync"
	"testing"

	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/notation"
)

// manualClock drives the state machines deterministically: Advance moves the
// clock forward and fires due timers in order.
type manualClock struct {
	mu     sync.Mutex
	now    float64
	timers []*manualTimer
}

type manualTimer struct {
	c       *manualClock
	at      float64
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func newManualClock() *manualClock { return &manualClock{} }

func (c *manualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(delay float64, fn func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if delay < 0 {
		delay = 0
	}
	t := &manualTimer{c: c, at: c.now + delay, fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(dt float64) {
	c.mu.Lock()
	target := c.now + dt
	for {
		var next *manualTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.at > c.now {
			c.now = next.at
		}
		next.fired = true
		fn := next.fn
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

type triggerCall struct {
	frequency, duration, at, velocity float64
}

type rampCall struct {
	target, rampDuration, at float64
}

type fakeVoice struct {
	mu       sync.Mutex
	note     notation.Note
	volumeDb float64
	triggers []triggerCall
	ramps    []rampCall
	disposes int
}

func (v *fakeVoice) TriggerAttackRelease(frequency, duration, at, velocity float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.triggers = append(v.triggers, triggerCall{frequency, duration, at, velocity})
}

func (v *fakeVoice) RampFrequency(target, rampDuration, at float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ramps = append(v.ramps, rampCall{target, rampDuration, at})
}

func (v *fakeVoice) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disposes++
}

func (v *fakeVoice) disposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposes > 0
}

type fakeSynth struct {
	mu         sync.Mutex
	clk        *manualClock
	voices     []*fakeVoice
	sampleRate int
	renderErr  error
	renders    int
	onRender   func()
}

func newFakeSynth(clk *manualClock) *fakeSynth {
	return &fakeSynth{clk: clk, sampleRate: 1000}
}

func (s *fakeSynth) BuildVoice(n notation.Note, volumeDb float64) Voice {
	v := &fakeVoice{note: n, volumeDb: volumeDb}
	s.mu.Lock()
	s.voices = append(s.voices, v)
	s.mu.Unlock()
	return v
}

func (s *fakeSynth) Now() float64 {
	if s.clk == nil {
		return 0
	}
	return s.clk.Now()
}

func (s *fakeSynth) RenderToBuffer(schedule func(), totalDuration float64) ([]float32, error) {
	s.mu.Lock()
	s.renders++
	hook := s.onRender
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if s.renderErr != nil {
		return nil, s.renderErr
	}
	if schedule != nil {
		schedule()
	}
	return make([]float32, int(totalDuration*float64(s.sampleRate))*2), nil
}

func (s *fakeSynth) SampleRate() int { return s.sampleRate }

func (s *fakeSynth) builtVoices() []*fakeVoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*fakeVoice, len(s.voices))
	copy(out, s.voices)
	return out
}

func testNote(t *testing.T, spec, group string) notation.Note {
	t.Helper()
	n, ok := notation.NewParser(notation.Config{}).ParseToken(spec)
	if !ok {
		t.Fatalf("ParseToken(%q) failed", spec)
	}
	n.Group = group
	if group != "" {
		n.Section = group[:1]
	}
	return n
}
