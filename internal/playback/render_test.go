package playback

import (
	"errors"
	"math"
	"testing"

	"github.com/ejhong/om/internal/notation"
)

func renderNotes(t *testing.T, count int) []notation.Note {
	t.Helper()
	notes := make([]notation.Note, 0, count)
	for i := 0; i < count; i++ {
		notes = append(notes, testNote(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1", "A1"))
	}
	return notes
}

func TestRenderOfflineSpacing(t *testing.T) {
	synth := newFakeSynth(nil)
	notes := renderNotes(t, 4)
	rendered, err := RenderOffline(synth, notes, 8.0, nil, RenderOptions{Volume: -6})
	if err != nil {
		t.Fatal(err)
	}
	if rendered.NoteDuration != 2.0 || rendered.NoteCount != 4 || rendered.Duration != 8.0 {
		t.Fatalf("metadata = %+v", rendered)
	}
	voices := synth.builtVoices()
	if len(voices) != 4 {
		t.Fatalf("built %d voices, want 4", len(voices))
	}
	for i, v := range voices {
		if len(v.triggers) != 1 {
			t.Fatalf("voice %d has %d triggers", i, len(v.triggers))
		}
		tr := v.triggers[0]
		if want := float64(i) * 2.0; math.Abs(tr.at-want) > 1e-9 {
			t.Errorf("voice %d at %v, want %v", i, tr.at, want)
		}
		if tr.duration != 2.0 {
			t.Errorf("voice %d duration %v, want 2.0", i, tr.duration)
		}
	}
	// Buffer spans the duration plus the release tail.
	wantSamples := int(11.0*float64(synth.sampleRate)) * 2
	if len(rendered.Samples) != wantSamples {
		t.Errorf("got %d samples, want %d", len(rendered.Samples), wantSamples)
	}
	if rendered.SampleRate != synth.sampleRate {
		t.Errorf("sampleRate = %d, want %d", rendered.SampleRate, synth.sampleRate)
	}
}

func TestRenderOfflineOverlap(t *testing.T) {
	synth := newFakeSynth(nil)
	rendered, err := RenderOffline(synth, renderNotes(t, 2), 4.0, nil, RenderOptions{OverlapRatio: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	if rendered.NoteDuration != 2.0 {
		t.Fatalf("noteDuration = %v", rendered.NoteDuration)
	}
	for i, v := range synth.builtVoices() {
		if tr := v.triggers[0]; math.Abs(tr.duration-3.0) > 1e-9 {
			t.Errorf("voice %d sounds %v, want 3.0", i, tr.duration)
		}
	}
}

func TestRenderOfflineSkipsSilencedNotes(t *testing.T) {
	synth := newFakeSynth(nil)
	notes := renderNotes(t, 2)
	notes = append(notes, testNote(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1", "O1"))
	rendered, err := RenderOffline(synth, notes, 6.0, GroupVolumes{"O1": 0}, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// The silenced note still occupies a slot but builds no voice.
	if rendered.NoteCount != 3 || rendered.NoteDuration != 2.0 {
		t.Fatalf("metadata = %+v", rendered)
	}
	if got := len(synth.builtVoices()); got != 2 {
		t.Errorf("built %d voices, want 2", got)
	}
}

func TestRenderOfflineEmpty(t *testing.T) {
	synth := newFakeSynth(nil)
	rendered, err := RenderOffline(synth, nil, 4.0, nil, RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if rendered != nil {
		t.Fatal("empty note list should render nothing")
	}
	if synth.renders != 0 {
		t.Fatal("backend was invoked for an empty list")
	}
}

func TestRenderOfflinePropagatesError(t *testing.T) {
	synth := newFakeSynth(nil)
	synth.renderErr = errors.New("device gone")
	_, err := RenderOffline(synth, renderNotes(t, 1), 2.0, nil, RenderOptions{})
	if err == nil || err.Error() != "device gone" {
		t.Fatalf("err = %v, want device gone", err)
	}
}
