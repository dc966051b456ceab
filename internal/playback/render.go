package playback

import "github.com/ejhong/om/internal/notation"

// renderTail is appended to every offline render window to capture the
// release decay of the final notes.
const renderTail = 3.0

// RenderOptions configures an offline render.
type RenderOptions struct {
	// Volume is the per-voice output level in dB.
	Volume float64
	// OverlapRatio scales each note's sounding length relative to its slot;
	// values above 1 make adjacent notes sound simultaneously for a legato
	// texture. Zero or negative means 1.
	OverlapRatio float64
}

// RenderedAudio is an offline render result plus the timing metadata the
// offline player needs.
type RenderedAudio struct {
	Samples      []float32
	SampleRate   int
	Duration     float64
	NoteDuration float64
	NoteCount    int
}

// RenderOffline lays the notes out evenly across totalDuration and renders
// them in one shot. Note i triggers at exactly i*(totalDuration/len(notes)).
// Returns nil for an empty note list; a backend render failure is returned
// as-is.
func RenderOffline(synth OfflineSynth, notes []notation.Note, totalDuration float64, volumes GroupVolumes, opts RenderOptions) (*RenderedAudio, error) {
	if len(notes) == 0 {
		return nil, nil
	}
	overlap := opts.OverlapRatio
	if overlap <= 0 {
		overlap = 1
	}
	noteDuration := totalDuration / float64(len(notes))
	soundDuration := noteDuration * overlap

	samples, err := synth.RenderToBuffer(func() {
		for i, n := range notes {
			vel := VelocityFor(n, volumes)
			if vel == 0 {
				continue
			}
			at := float64(i) * noteDuration
			v := synth.BuildVoice(n, opts.Volume)
			v.TriggerAttackRelease(n.StartFrequency, soundDuration, at, vel)
			if n.StartFrequency != n.EndFrequency {
				v.RampFrequency(n.EndFrequency, soundDuration*glideSpan, at+glideLead)
			}
		}
	}, totalDuration+renderTail)
	if err != nil {
		return nil, err
	}
	return &RenderedAudio{
		Samples:      samples,
		SampleRate:   synth.SampleRate(),
		Duration:     totalDuration,
		NoteDuration: noteDuration,
		NoteCount:    len(notes),
	}, nil
}
