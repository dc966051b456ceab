package om

import (
	"errors"
	"sync"

	"github.com/ejhong/om/internal/audio"
	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/midiout"
	"github.com/ejhong/om/internal/notation"
	"github.com/ejhong/om/internal/playback"
	"github.com/ejhong/om/internal/synth"
)

// Player streams a preset to the speaker live, one note at a time. Notes are
// spread evenly across the duration given to Play.
type Player struct {
	mu         sync.Mutex
	cfg        config
	sampleRate int

	engine  *synth.Engine
	out     *audio.Output
	seq     *playback.StepSequencer
	tap     *midiout.Tap
	last    notation.Note
	hasLast bool

	duration float64
	done     chan struct{}

	eventCh   chan PlaybackEvent
	eventChMu sync.Mutex
}

func NewPlayer(sampleRate int, opts ...Option) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Player{cfg: cfg, sampleRate: sampleRate}
	if cfg.midiDest != nil {
		p.tap = midiout.NewTap(cfg.midiDest)
	}
	return p, nil
}

// PlayText compiles the preset text and plays it across totalDuration
// seconds.
func (p *Player) PlayText(text string, totalDuration float64) error {
	return p.Play(Compile(text, withConfig(p.cfg)), totalDuration)
}

// Play starts stepping through the preset's notes. Any playback in progress
// is replaced.
func (p *Player) Play(preset *Preset, totalDuration float64) error {
	if totalDuration <= 0 {
		return errors.New("duration must be positive")
	}
	notes := preset.Notes()

	p.mu.Lock()
	p.stopLocked()

	// Signal any existing Wait() that the previous playback was replaced.
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})

	// A fresh engine per Play keeps voice and envelope state from leaking
	// between phrases.
	p.engine = synth.New(p.sampleRate, p.cfg.synthParams)
	backend := &synthBackend{engine: p.engine}
	clk := clock.System(nil)
	sched := playback.NewScheduler(backend, clk, p.cfg.groupVolumes)
	seq := playback.NewStepSequencer(sched, clk, notes, p.cfg.voiceDb)
	seq.OnNoteStart = p.onNoteStart
	seq.OnComplete = p.onComplete
	p.seq = seq
	p.duration = totalDuration

	out, err := audio.NewOutput(p.sampleRate, p.engine)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.out = out
	p.mu.Unlock()

	// Started outside the lock: the first step fires OnNoteStart
	// synchronously, which takes the lock again.
	out.Start()
	seq.Start(totalDuration)
	return nil
}

func (p *Player) onNoteStart(n notation.Note, index int) {
	if p.tap != nil {
		p.mu.Lock()
		if p.hasLast {
			p.tap.NoteOff(p.last)
		}
		p.last = n
		p.hasLast = true
		p.mu.Unlock()
		p.tap.NoteOn(n, playback.VelocityFor(n, p.cfg.groupVolumes))
	}
	p.sendEvent(PlaybackEvent{Kind: EventNoteStarted, NoteIndex: index, NoteName: n.NoteName})
}

func (p *Player) onComplete() {
	if p.tap != nil {
		p.tap.AllOff()
	}
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	p.signalDone()
}

// Stop halts playback and releases the audio output.
func (p *Player) Stop() error {
	p.mu.Lock()
	err := p.stopLocked()
	done := p.done
	p.done = nil
	p.mu.Unlock()

	if done != nil {
		close(done)
	}
	return err
}

func (p *Player) stopLocked() error {
	if p.seq != nil {
		p.seq.Stop()
		p.seq = nil
	}
	if p.tap != nil {
		p.tap.AllOff()
		p.hasLast = false
	}
	var err error
	if p.out != nil {
		err = p.out.Close()
		p.out = nil
	}
	return err
}

// Pause suspends audio output. The step timers keep running; Pause is a
// mute, not a transport stop. Use Stop and SeekToNote for transport control.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
}

// Resume restarts audio output after Pause.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Start()
	}
}

// SeekToNote moves the sequencer to the given note index. If playback was
// active it resumes from there.
func (p *Player) SeekToNote(index int) {
	p.mu.Lock()
	seq := p.seq
	duration := p.duration
	p.mu.Unlock()
	if seq == nil {
		return
	}
	if seq.SeekTo(index) {
		seq.Start(duration)
	}
}

// CurrentNoteIndex returns the index of the next note to trigger.
func (p *Player) CurrentNoteIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq == nil {
		return 0
	}
	return p.seq.CurrentIndex()
}

// Playing reports whether the sequencer is advancing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq != nil && p.seq.Playing()
}

// SetMasterVolume sets the output level in [0, 1]. 1.0 is the default.
func (p *Player) SetMasterVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.SetVolume(volume)
	}
}

// Wait blocks until the current playback completes or is stopped. Returns
// immediately if nothing is playing.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel receiving playback events. The channel is buffered
// (cap 8) and events are dropped rather than block the sequencer; only the
// most recent Watch channel receives events. Call Watch before Play.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

// withConfig re-applies an already-resolved config, so PlayText compiles
// with the player's own options.
func withConfig(cfg config) Option {
	return func(dst *config) { *dst = cfg }
}
