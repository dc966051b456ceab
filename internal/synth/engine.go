// Package synth is the vocal synthesis backend. Voices are scheduled against
// the engine's sample clock with absolute times, so the playback layer can
// trigger attack/release and frequency ramps in the future; the engine
// resolves them while rendering frames.
package synth

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ejhong/om/internal/notation"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony       int
	DetuneCents     float64 // spread between the two oscillators
	AttackSec       float64
	DecaySec        float64
	SustainLvl      float64
	ReleaseSec      float64
	VibratoRateHz   float64
	VibratoDepth    float64 // semitones
	VibratoDelaySec float64 // onset delay before vibrato ramps in
	MasterGain      float64
	LimiterDb       float64 // output limiter threshold in dB
}

func DefaultParams() Params {
	return Params{
		Polyphony:       32,
		DetuneCents:     7,
		AttackSec:       0.09,
		DecaySec:        0.15,
		SustainLvl:      0.8,
		ReleaseSec:      0.35,
		VibratoRateHz:   5.5,
		VibratoDepth:    0.2,
		VibratoDelaySec: 0.25,
		MasterGain:      0.5,
		LimiterDb:       -3,
	}
}

type Engine struct {
	sampleRate float64
	params     Params

	mu        sync.Mutex
	voices    []*Voice
	limiter   *limiter
	rendering bool

	frame int64 // atomic; samples rendered since construction or render start
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 32
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
	}
}

func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// Now returns the engine's audio clock in seconds.
func (e *Engine) Now() float64 {
	return float64(atomic.LoadInt64(&e.frame)) / e.sampleRate
}

// BuildVoice constructs a voice shaped by the note's timbre fields and
// registers it with the engine. The voice stays silent until triggered.
func (e *Engine) BuildVoice(n notation.Note, volumeDb float64) *Voice {
	v := newVoice(e, n, volumeDb)
	e.mu.Lock()
	if len(e.voices) >= e.params.Polyphony {
		e.stealVoiceLocked()
	}
	e.voices = append(e.voices, v)
	e.mu.Unlock()
	return v
}

// stealVoiceLocked drops the voice closest to silence to make room.
func (e *Engine) stealVoiceLocked() {
	quiet := 0
	minEnv := math.MaxFloat64
	for i, v := range e.voices {
		if v.stage == stageOff || v.disposed.Load() {
			quiet = i
			break
		}
		if v.env < minEnv {
			minEnv = v.env
			quiet = i
		}
	}
	e.voices = append(e.voices[:quiet], e.voices[quiet+1:]...)
}

// Process renders interleaved stereo frames into dst.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	e.mu.Lock()
	for f := 0; f < frames; f++ {
		l, r := e.renderFrameLocked()
		dst[f*2] = l
		dst[f*2+1] = r
	}
	e.mu.Unlock()
}

// RenderToBuffer runs schedule once to register all triggers, then renders
// totalDuration seconds of stereo audio in one shot. The engine's clock is
// reset to zero first, so schedule times are relative to the render start.
// At most one render may run at a time.
func (e *Engine) RenderToBuffer(schedule func(), totalDuration float64) ([]float32, error) {
	if totalDuration <= 0 {
		return nil, errors.New("render duration must be positive")
	}
	e.mu.Lock()
	if e.rendering {
		e.mu.Unlock()
		return nil, errors.New("render already in progress")
	}
	e.rendering = true
	e.voices = nil
	atomic.StoreInt64(&e.frame, 0)
	e.mu.Unlock()

	if schedule != nil {
		schedule()
	}

	frames := int(totalDuration * e.sampleRate)
	out := make([]float32, frames*2)
	e.mu.Lock()
	for f := 0; f < frames; f++ {
		l, r := e.renderFrameLocked()
		out[f*2] = l
		out[f*2+1] = r
	}
	e.rendering = false
	e.mu.Unlock()
	return out, nil
}

// ActiveVoiceCount returns the number of voices still sounding.
func (e *Engine) ActiveVoiceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, v := range e.voices {
		if v.stage != stageIdle && v.stage != stageOff && !v.disposed.Load() {
			n++
		}
	}
	return n
}

func (e *Engine) renderFrameLocked() (float32, float32) {
	frame := atomic.LoadInt64(&e.frame)
	var sig float64
	kept := e.voices[:0]
	for _, v := range e.voices {
		if v.disposed.Load() {
			continue
		}
		s, alive := v.renderFrame(frame)
		sig += s
		if alive {
			kept = append(kept, v)
		}
	}
	e.voices = kept
	sig *= e.params.MasterGain
	if e.limiter == nil {
		e.limiter = newLimiter(int(e.sampleRate), e.params.LimiterDb)
	}
	l, r := e.limiter.process(sig, sig)
	atomic.StoreInt64(&e.frame, frame+1)
	return float32(l), float32(r)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
