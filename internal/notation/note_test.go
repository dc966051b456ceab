package notation

import (
	"math"
	"testing"
)

func mustToken(t *testing.T, spec string) VoiceToken {
	t.Helper()
	tok, ok := ParseVoiceSpec(spec)
	if !ok {
		t.Fatalf("ParseVoiceSpec(%q) failed", spec)
	}
	return tok
}

func TestBuildNoteResolvesPitch(t *testing.T) {
	n := BuildNote(mustToken(t, "v/sng_opr/nrm/vbr/ol4/c1/sh1[1.0]"), Config{})
	if n.NoteName != "C5" {
		t.Errorf("noteName = %q, want C5", n.NoteName)
	}
	if n.Octave != 5 {
		t.Errorf("octave = %d, want 5", n.Octave)
	}
	if n.KeyNote != "C4" {
		t.Errorf("keyNote = %q, want C4", n.KeyNote)
	}
	if n.ScaleIndex != 8 {
		t.Errorf("scaleIndex = %d, want 8", n.ScaleIndex)
	}
	// C5 with a +1 trajectory bends up 2 semitones from 12 above C4.
	want := ReferenceFrequency * math.Pow(2, 14.0/12)
	if math.Abs(n.StartFrequency-want) > 1e-9 {
		t.Errorf("startFrequency = %v, want %v", n.StartFrequency, want)
	}
	if n.StartFrequency != n.EndFrequency {
		t.Errorf("single-value traj should give equal start/end, got %v/%v", n.StartFrequency, n.EndFrequency)
	}
}

func TestBuildNoteFalsettoOctaveBump(t *testing.T) {
	nrm := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1"), Config{})
	flt := BuildNote(mustToken(t, "v/sng_opr/falsetto/nrm/ol4/c1/sl1"), Config{})
	if nrm.NoteName != "C4" {
		t.Errorf("normal noteName = %q, want C4", nrm.NoteName)
	}
	if flt.NoteName != "C5" {
		t.Errorf("falsetto noteName = %q, want C5", flt.NoteName)
	}
	ratio := flt.StartFrequency / nrm.StartFrequency
	if math.Abs(ratio-2) > 1e-9 {
		t.Errorf("falsetto frequency ratio = %v, want 2", ratio)
	}
}

func TestBuildNoteScaleDegrees(t *testing.T) {
	// Degree 2 is 2 semitones, low-band degree 3 adds 4 more.
	n := BuildNote(mustToken(t, "v/sng_cls/nrm/nrm/ol4/e2/sl3"), Config{})
	if n.NoteName != "F#4" {
		t.Errorf("noteName = %q, want F#4", n.NoteName)
	}
	if n.ScaleIndex != 2 {
		t.Errorf("scaleIndex = %d, want 2", n.ScaleIndex)
	}
}

func TestBuildNoteScaleIndexClamped(t *testing.T) {
	low := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl0"), Config{})
	if low.ScaleIndex != 0 {
		t.Errorf("scaleIndex = %d, want 0", low.ScaleIndex)
	}
	high := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sh9"), Config{})
	if high.ScaleIndex != 15 {
		t.Errorf("scaleIndex = %d, want 15", high.ScaleIndex)
	}
}

func TestBuildNoteTuningOffset(t *testing.T) {
	base := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1"), Config{})
	up := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1"), Config{TuningOffset: 2})
	ratio := up.StartFrequency / base.StartFrequency
	if math.Abs(ratio-math.Pow(2, 2.0/12)) > 1e-9 {
		t.Errorf("tuning ratio = %v, want 2 semitones", ratio)
	}

	clamped := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1"), Config{TuningOffset: 40})
	octaveUp := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1"), Config{TuningOffset: 12})
	if clamped.StartFrequency != octaveUp.StartFrequency {
		t.Errorf("offset 40 should clamp to 12: %v vs %v", clamped.StartFrequency, octaveUp.StartFrequency)
	}
}

func TestTrajSemitones(t *testing.T) {
	n := BuildNote(mustToken(t, "v/sng_opr/nrm/nrm/ol4/c1/sl1[-0.5:1.5]"), Config{})
	if n.TrajStartSemitones() != -1 {
		t.Errorf("trajStartSemitones = %v, want -1", n.TrajStartSemitones())
	}
	if n.TrajEndSemitones() != 3 {
		t.Errorf("trajEndSemitones = %v, want 3", n.TrajEndSemitones())
	}
	if n.StartFrequency >= n.EndFrequency {
		t.Errorf("rising trajectory should raise end frequency: %v -> %v", n.StartFrequency, n.EndFrequency)
	}
}
