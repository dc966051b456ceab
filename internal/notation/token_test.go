package notation

import "testing"

func TestParseVoiceSpec(t *testing.T) {
	tok, ok := ParseVoiceSpec("v/sng_opr/nrm/vbr/ol4/c1/sh1[1.0]")
	if !ok {
		t.Fatal("expected token to parse")
	}
	if tok.VoiceType != "sng" || tok.Mode != "opr" {
		t.Errorf("voiceType/mode = %q/%q, want sng/opr", tok.VoiceType, tok.Mode)
	}
	if tok.Register != "nrm" || tok.Articulation != "vbr" {
		t.Errorf("register/articulation = %q/%q, want nrm/vbr", tok.Register, tok.Articulation)
	}
	if tok.OctaveLayer != 4 {
		t.Errorf("octaveLayer = %d, want 4", tok.OctaveLayer)
	}
	if tok.PitchClass != 'c' || tok.PitchNum != 1 {
		t.Errorf("pitch = %c%d, want c1", tok.PitchClass, tok.PitchNum)
	}
	if tok.ScaleType != ScaleHigh || tok.ScaleNum != 1 {
		t.Errorf("scale = %s%d, want sh1", tok.ScaleType, tok.ScaleNum)
	}
	if !tok.HasTraj || tok.TrajStart != 1.0 || tok.TrajEnd != 1.0 {
		t.Errorf("traj = %v %v/%v, want single 1.0", tok.HasTraj, tok.TrajStart, tok.TrajEnd)
	}
}

func TestParseVoiceSpecTrajPair(t *testing.T) {
	tok, ok := ParseVoiceSpec("v/tlk_cls/falsetto/nrm/ol5/g3/sl2[-0.5:1.0]")
	if !ok {
		t.Fatal("expected token to parse")
	}
	if tok.TrajStart != -0.5 || tok.TrajEnd != 1.0 {
		t.Errorf("traj = %v:%v, want -0.5:1.0", tok.TrajStart, tok.TrajEnd)
	}
	if tok.ScaleType != ScaleLow {
		t.Errorf("scaleType = %q, want %q", tok.ScaleType, ScaleLow)
	}
}

func TestParseVoiceSpecLegacyScale(t *testing.T) {
	// The legacy surface form writes the band as a bare "s"; it resolves to
	// the high band.
	tok, ok := ParseVoiceSpec("v/sng_opr/nrm/vbr/ol4/c1/s1")
	if !ok {
		t.Fatal("expected legacy token to parse")
	}
	if tok.ScaleType != ScaleHigh || tok.ScaleNum != 1 {
		t.Errorf("scale = %s%d, want sh1", tok.ScaleType, tok.ScaleNum)
	}
}

func TestParseVoiceSpecNegativeOctave(t *testing.T) {
	tok, ok := ParseVoiceSpec("v/sng_opr/nrm/nrm/ol-1/c1/sl1")
	if !ok {
		t.Fatal("expected token to parse")
	}
	if tok.OctaveLayer != -1 {
		t.Errorf("octaveLayer = %d, want -1", tok.OctaveLayer)
	}
}

func TestParseVoiceSpecRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"v/sng/nrm/vbr/ol4/c1/sh1",       // missing mode separator
		"v/sng_opr/nrm/vbr/ol4/c1",       // too few fields
		"w/sng_opr/nrm/vbr/ol4/c1/sh1",   // wrong prefix
		"v/sng_opr/nrm/vbr/o4/c1/sh1",    // bad octave prefix
		"v/sng_opr/nrm/vbr/ol4/1c/sh1",   // pitch letter missing
		"v/sng_opr/nrm/vbr/ol4/c1/x1",    // bad scale prefix
		"v/sng_opr/nrm/vbr/ol4/c1/sh",    // scale number missing
		"v/sng_opr/nrm/vbr/ol4/c1/sh1[a]",   // non-numeric traj
		"v/sng_opr/nrm/vbr/ol4/c1/sh1[1.0", // unclosed bracket
		"v/sng_opr//vbr/ol4/c1/sh1",      // empty register
	}
	for _, spec := range bad {
		if _, ok := ParseVoiceSpec(spec); ok {
			t.Errorf("ParseVoiceSpec(%q) parsed, want rejection", spec)
		}
	}
}
