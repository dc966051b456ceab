package notation

import (
	"strconv"
	"strings"
)

// VoiceToken is the parse result of one voice-spec string:
//
//	v/<voiceType>_<mode>/<register>/<articulation>/ol<octave>/<pitch><degree>/<band><degree>[<traj>]
//
// The band token is "sl" (low) or "sh" (high); the legacy surface form writes
// it as a bare "s", which resolves to the high band. The optional bracketed
// trajectory argument is a signed float or a start:end pair.
type VoiceToken struct {
	Raw          string
	VoiceType    string
	Mode         string
	Register     string
	Articulation string
	OctaveLayer  int
	PitchClass   byte
	PitchNum     int
	ScaleType    string
	ScaleNum     int
	HasTraj      bool
	TrajStart    float64
	TrajEnd      float64
}

// ParseVoiceSpec parses a single voice-spec token. The second return value is
// false when the token matches neither the current nor the legacy grammar;
// callers drop such tokens silently.
func ParseVoiceSpec(spec string) (VoiceToken, bool) {
	raw := strings.TrimSpace(spec)
	body := raw
	trajArg := ""
	hasTraj := false
	if open := strings.IndexByte(body, '['); open >= 0 {
		if !strings.HasSuffix(body, "]") {
			return VoiceToken{}, false
		}
		trajArg = body[open+1 : len(body)-1]
		body = body[:open]
		hasTraj = true
	}
	parts := strings.Split(body, "/")
	if len(parts) != 7 || parts[0] != "v" {
		return VoiceToken{}, false
	}
	voiceType, mode, ok := splitUnderscore(parts[1])
	if !ok {
		return VoiceToken{}, false
	}
	register := parts[2]
	articulation := parts[3]
	if register == "" || articulation == "" {
		return VoiceToken{}, false
	}
	octaveLayer, ok := parseOctaveLayer(parts[4])
	if !ok {
		return VoiceToken{}, false
	}
	pitchClass, pitchNum, ok := parsePitchField(parts[5])
	if !ok {
		return VoiceToken{}, false
	}
	scaleType, scaleNum, ok := parseScaleField(parts[6])
	if !ok {
		return VoiceToken{}, false
	}
	tok := VoiceToken{
		Raw:          raw,
		VoiceType:    voiceType,
		Mode:         mode,
		Register:     register,
		Articulation: articulation,
		OctaveLayer:  octaveLayer,
		PitchClass:   pitchClass,
		PitchNum:     pitchNum,
		ScaleType:    scaleType,
		ScaleNum:     scaleNum,
		HasTraj:      hasTraj,
	}
	if hasTraj {
		start, end, ok := parseTrajArg(trajArg)
		if !ok {
			return VoiceToken{}, false
		}
		tok.TrajStart = start
		tok.TrajEnd = end
	}
	return tok, true
}

func splitUnderscore(field string) (string, string, bool) {
	idx := strings.IndexByte(field, '_')
	if idx <= 0 || idx == len(field)-1 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}

func parseOctaveLayer(field string) (int, bool) {
	rest, ok := strings.CutPrefix(field, "ol")
	if !ok || rest == "" {
		return 0, false
	}
	v, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parsePitchField(field string) (byte, int, bool) {
	if len(field) < 2 || !isLetter(field[0]) {
		return 0, 0, false
	}
	v, err := strconv.Atoi(field[1:])
	if err != nil {
		return 0, 0, false
	}
	return field[0], v, true
}

// parseScaleField accepts "sl<n>" and "sh<n>"; a bare "s<n>" is the legacy
// form and resolves to the high band. Whether that was intentional in the
// legacy notation is unknowable from behavior; it is preserved as-is.
func parseScaleField(field string) (string, int, bool) {
	rest, ok := strings.CutPrefix(field, "s")
	if !ok || rest == "" {
		return "", 0, false
	}
	scaleType := ScaleHigh
	switch rest[0] {
	case 'l':
		scaleType = ScaleLow
		rest = rest[1:]
	case 'h':
		rest = rest[1:]
	}
	v, err := strconv.Atoi(rest)
	if err != nil {
		return "", 0, false
	}
	return scaleType, v, true
}

func parseTrajArg(arg string) (float64, float64, bool) {
	arg = strings.TrimSpace(arg)
	if idx := strings.IndexByte(arg, ':'); idx >= 0 {
		start, err := strconv.ParseFloat(strings.TrimSpace(arg[:idx]), 64)
		if err != nil {
			return 0, 0, false
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(arg[idx+1:]), 64)
		if err != nil {
			return 0, 0, false
		}
		return start, end, true
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, 0, false
	}
	return v, v, true
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
