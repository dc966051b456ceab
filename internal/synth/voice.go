package synth

import (
	"math"
	"sync/atomic"

	"github.com/ejhong/om/internal/notation"
)

type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
	stageOff
)

// vowelCutoffs maps a preset section letter to the vowel-shaping lowpass
// cutoff in Hz.
var vowelCutoffs = map[string]float64{
	"A": 1100,
	"E": 900,
	"I": 600,
	"O": 750,
	"U": 450,
}

const defaultVowelCutoff = 800.0

// Voice is one sounding instance: two detuned oscillators, an ADSR envelope,
// optional vibrato, and a vowel-shaping lowpass. All mutation happens under
// the owning engine's lock except Dispose, which only flips an atomic flag.
type Voice struct {
	e *Engine

	// timbre, fixed at construction
	brightness float64 // saw content in the oscillator blend
	vowelAlpha float64 // one-pole lowpass coefficient
	vibrato    bool
	vibDepth   float64
	gain       float64

	// schedule, in engine frames
	triggered   bool
	attackFrame int64
	relFrame    int64
	velocity    float64
	baseFreq    float64

	// frequency ramp
	rampSet      bool
	rampCaptured bool
	rampFrom     float64
	rampTo       float64
	rampStartF   int64
	rampEndF     int64

	// render state
	stage    envStage
	env      float64
	phase1   float64
	phase2   float64
	vibPhase float64
	lp       float64

	disposed atomic.Bool
}

func newVoice(e *Engine, n notation.Note, volumeDb float64) *Voice {
	brightness := 0.3
	switch n.VoiceType {
	case "sng":
		brightness = 0.5
	case "tlk":
		brightness = 0.15
	}
	if n.Mode == "opr" {
		brightness += 0.2
	}
	if n.Register == "falsetto" {
		brightness *= 0.5
	}
	cutoff, ok := vowelCutoffs[n.Section]
	if !ok {
		cutoff = defaultVowelCutoff
	}
	rc := 1.0 / (twoPi * cutoff)
	dt := 1.0 / e.sampleRate
	depth := e.params.VibratoDepth
	if n.Mode == "opr" {
		depth *= 1.5
	}
	return &Voice{
		e:          e,
		brightness: clamp(brightness, 0, 1),
		vowelAlpha: dt / (rc + dt),
		vibrato:    n.Articulation == "vbr",
		vibDepth:   depth,
		gain:       math.Pow(10, volumeDb/20),
	}
}

// TriggerAttackRelease schedules the voice's attack at the absolute time at
// and its release duration seconds later. No-op on a disposed voice.
func (v *Voice) TriggerAttackRelease(frequency, duration, at, velocity float64) {
	if v.disposed.Load() {
		return
	}
	v.e.mu.Lock()
	v.baseFreq = frequency
	v.velocity = clamp(velocity, 0, 1)
	v.attackFrame = v.e.frameAt(at)
	v.relFrame = v.e.frameAt(at + duration)
	v.triggered = true
	v.e.mu.Unlock()
}

// RampFrequency schedules a linear glide to target starting at the absolute
// time at and spanning rampDuration seconds.
func (v *Voice) RampFrequency(target, rampDuration, at float64) {
	if v.disposed.Load() {
		return
	}
	v.e.mu.Lock()
	v.rampSet = true
	v.rampCaptured = false
	v.rampTo = target
	v.rampStartF = v.e.frameAt(at)
	v.rampEndF = v.e.frameAt(at + rampDuration)
	if v.rampEndF <= v.rampStartF {
		v.rampEndF = v.rampStartF + 1
	}
	v.e.mu.Unlock()
}

// Dispose silences the voice. Idempotent; safe while the voice is sounding
// or before it was ever triggered. The engine drops the voice on its next
// rendered frame.
func (v *Voice) Dispose() {
	v.disposed.Store(true)
}

func (e *Engine) frameAt(t float64) int64 {
	if t < 0 {
		t = 0
	}
	return int64(t * e.sampleRate)
}

// renderFrame produces this voice's mono sample for the given engine frame
// and reports whether the voice should be kept.
func (v *Voice) renderFrame(frame int64) (float64, bool) {
	if !v.triggered {
		return 0, true // built, waiting for a trigger
	}
	if v.stage == stageIdle {
		if frame < v.attackFrame {
			return 0, true
		}
		v.stage = stageAttack
	}
	if v.stage != stageRelease && v.stage != stageOff && frame >= v.relFrame {
		v.stage = stageRelease
	}
	v.advanceEnv()
	if v.stage == stageOff {
		return 0, false
	}

	freq := v.currentFreq(frame)
	if v.vibrato {
		freq *= v.vibratoFactor(frame)
	}

	s := math.Sin(v.phase1)*(1-v.brightness) + sawSample(v.phase2)*v.brightness
	v.lp += v.vowelAlpha * (s - v.lp)
	s = v.lp

	detuned := freq * math.Pow(2, v.e.params.DetuneCents/1200)
	v.phase1 += twoPi * freq / v.e.sampleRate
	if v.phase1 > twoPi {
		v.phase1 -= twoPi
	}
	v.phase2 += twoPi * detuned / v.e.sampleRate
	if v.phase2 > twoPi {
		v.phase2 -= twoPi
	}

	return s * v.env * v.gain * (0.25 + 0.75*v.velocity), true
}

func (v *Voice) currentFreq(frame int64) float64 {
	f := v.baseFreq
	if !v.rampSet || frame < v.rampStartF {
		return f
	}
	if frame >= v.rampEndF {
		return v.rampTo
	}
	if !v.rampCaptured {
		v.rampFrom = f
		v.rampCaptured = true
	}
	t := float64(frame-v.rampStartF) / float64(v.rampEndF-v.rampStartF)
	return v.rampFrom + (v.rampTo-v.rampFrom)*t
}

// vibratoFactor ramps the vibrato in after the configured onset delay to
// avoid a wobble on the consonant attack.
func (v *Voice) vibratoFactor(frame int64) float64 {
	delayFrames := int64(v.e.params.VibratoDelaySec * v.e.sampleRate)
	since := frame - v.attackFrame - delayFrames
	if since <= 0 {
		return 1
	}
	ramp := clamp(float64(since)/(v.e.sampleRate*0.5), 0, 1)
	v.vibPhase += twoPi * v.e.params.VibratoRateHz / v.e.sampleRate
	if v.vibPhase > twoPi {
		v.vibPhase -= twoPi
	}
	semis := math.Sin(v.vibPhase) * v.vibDepth * ramp
	return math.Pow(2, semis/12)
}

func (v *Voice) advanceEnv() {
	p := v.e.params
	switch v.stage {
	case stageAttack:
		v.env += 1 / (p.AttackSec * v.e.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.stage = stageDecay
		}
	case stageDecay:
		v.env -= (1 - p.SustainLvl) / (p.DecaySec * v.e.sampleRate)
		if v.env <= p.SustainLvl {
			v.env = p.SustainLvl
			v.stage = stageSustain
		}
	case stageSustain:
	case stageRelease:
		v.env -= p.SustainLvl / (p.ReleaseSec * v.e.sampleRate)
		if v.env <= 0.0001 {
			v.env = 0
			v.stage = stageOff
		}
	}
}

func sawSample(phase float64) float64 {
	return 1 - 2*math.Mod(phase, twoPi)/twoPi
}
