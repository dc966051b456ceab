// Package om parses OM vocal notation and plays it back, live or from a
// pre-rendered buffer.
//
// A preset is plain text, one named group per line:
//
//	A1: v/sng_opr/nrm/vbr/ol4/c1/s1[1.0] + v/sng_cls/nrm/nrm/ol4/e2/sh3
//
// Compile turns a preset into pitched notes; Player streams them to the
// speaker one at a time; OfflinePlayer renders the whole phrase up front and
// adds pause/seek/progress on top.
package om

import (
	"io"

	"github.com/ejhong/om/internal/notation"
	"github.com/ejhong/om/internal/playback"
	"github.com/ejhong/om/internal/synth"
)

// Note is a parsed, pitched note event.
type Note = notation.Note

// Preset is a parsed preset: named groups of notes in textual order.
type Preset = notation.Preset

// Compile parses preset text into notes. Unparseable tokens are dropped;
// an input with no valid tokens yields an empty preset, not an error.
func Compile(text string, opts ...Option) *Preset {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return notation.NewParser(cfg.notation).ParsePreset(text)
}

// ParseToken parses a single voice token such as
// "v/sng_opr/nrm/vbr/ol4/c1/sh1". Reports false for malformed input.
func ParseToken(spec string, opts ...Option) (Note, bool) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return notation.NewParser(cfg.notation).ParseToken(spec)
}

// PlaybackEvent carries player lifecycle and progress events from Watch().
type PlaybackEvent struct {
	Kind      int
	NoteIndex int
	NoteName  string
	Time      float64 // seconds, progress events only
}

const (
	EventNoteStarted int = iota
	EventPlaybackEnded
	EventRenderStarted
	EventRenderCompleted
	EventProgress
)

// Option configures Compile, Player, and OfflinePlayer.
type Option func(*config)

type config struct {
	notation     notation.Config
	groupVolumes playback.GroupVolumes
	voiceDb      float64
	overlapRatio float64
	synthParams  synth.Params
	midiDest     io.Writer
}

func defaultConfig() config {
	return config{
		voiceDb:      -6,
		synthParams:  synth.DefaultParams(),
		groupVolumes: playback.GroupVolumes{},
	}
}

// WithTuningOffset shifts every parsed pitch by the given number of
// semitones, clamped to [-12, +12].
func WithTuningOffset(semitones int) Option {
	return func(cfg *config) {
		cfg.notation.TuningOffset = semitones
	}
}

// WithGroupVolumes sets per-group volume scalars. A group at volume 0 is
// skipped entirely during playback.
func WithGroupVolumes(volumes map[string]float64) Option {
	return func(cfg *config) {
		cfg.groupVolumes = playback.GroupVolumes(volumes)
	}
}

// WithVoiceVolume sets the per-voice output level in dB.
func WithVoiceVolume(db float64) Option {
	return func(cfg *config) {
		cfg.voiceDb = db
	}
}

// WithOverlapRatio stretches each offline-rendered note's sounding length
// relative to its slot; values above 1 give a legato texture.
func WithOverlapRatio(ratio float64) Option {
	return func(cfg *config) {
		cfg.overlapRatio = ratio
	}
}

// WithSynthParams overrides the synthesis parameters.
func WithSynthParams(params synth.Params) Option {
	return func(cfg *config) {
		cfg.synthParams = params
	}
}

// WithMIDITap mirrors every triggered note as MIDI channel messages to dest.
func WithMIDITap(dest io.Writer) Option {
	return func(cfg *config) {
		cfg.midiDest = dest
	}
}

// synthBackend adapts *synth.Engine to the playback-side interfaces, which
// deal in playback.Voice rather than the engine's concrete voice type.
type synthBackend struct {
	engine *synth.Engine
}

func (b *synthBackend) BuildVoice(n notation.Note, volumeDb float64) playback.Voice {
	return b.engine.BuildVoice(n, volumeDb)
}

func (b *synthBackend) Now() float64 { return b.engine.Now() }

func (b *synthBackend) RenderToBuffer(schedule func(), totalDuration float64) ([]float32, error) {
	return b.engine.RenderToBuffer(schedule, totalDuration)
}

func (b *synthBackend) SampleRate() int { return b.engine.SampleRate() }
