// Package playback contains the playback orchestration layer: the per-note
// velocity model, the live note scheduler, the offline render orchestrator,
// and the two player state machines (pre-rendered and step-sequenced). The
// synthesis backend and the clock are consumed as capabilities.
package playback

import "github.com/ejhong/om/internal/notation"

// Synth builds playable voices against an audio clock.
type Synth interface {
	// BuildVoice constructs a voice chain appropriate to the note's
	// voiceType/mode/register/articulation/section, at the given output
	// level in dB.
	BuildVoice(n notation.Note, volumeDb float64) Voice
	// Now returns the current audio time in seconds.
	Now() float64
}

// Voice is one sounding instance. Times are absolute audio-clock seconds.
// Dispose is idempotent and safe to call on a voice that is still sounding
// or was never triggered.
type Voice interface {
	TriggerAttackRelease(frequency, duration, at, velocity float64)
	RampFrequency(target, rampDuration, at float64)
	Dispose()
}

// OfflineSynth renders a queued schedule into a sample buffer. RenderToBuffer
// runs schedule once to register all triggers, then produces interleaved
// stereo float32 samples spanning totalDuration. It is one-shot and
// deterministic; it cannot be paused.
type OfflineSynth interface {
	BuildVoice(n notation.Note, volumeDb float64) Voice
	RenderToBuffer(schedule func(), totalDuration float64) ([]float32, error)
	SampleRate() int
}
