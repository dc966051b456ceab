package notation

import (
	"math"
	"strconv"
)

// Scale band identifiers. The high band shifts the scale-degree offset up an
// octave.
const (
	ScaleLow  = "sl"
	ScaleHigh = "sh"
)

// ReferenceFrequency is the 12-TET anchor: C at octave 4.
const ReferenceFrequency = 261.63

// degreeOffsets maps a diatonic degree 1-8 to its white-key semitone distance
// from C. Unknown degrees contribute 0.
var degreeOffsets = map[int]int{
	1: 0, 2: 2, 3: 4, 4: 5, 5: 7, 6: 9, 7: 11, 8: 12,
}

var chromaticNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// Config carries note-construction settings. The tuning offset shifts every
// built note by whole semitones; it is read only at construction time, so
// changing a Config never alters notes already built from it.
type Config struct {
	// TuningOffset is in semitones, clamped to -12..+12.
	TuningOffset int
}

// Note is the fully resolved form of a VoiceToken. Notes are immutable value
// objects; Group and Section are the only fields set after construction, by
// the preset parser.
type Note struct {
	VoiceToken

	// KeyNote is the diatonic pitch before scale-degree and register
	// adjustments, kept for display.
	KeyNote    string
	ScaleIndex int

	// NoteName is the resolved pitch with octave, e.g. "C5".
	NoteName string
	Octave   int

	StartFrequency float64
	EndFrequency   float64

	Group   string
	Section string
}

// TrajStartSemitones returns the start-of-note pitch bend in semitones.
func (n Note) TrajStartSemitones() float64 { return n.TrajStart * 2 }

// TrajEndSemitones returns the end-of-note pitch bend in semitones.
func (n Note) TrajEndSemitones() float64 { return n.TrajEnd * 2 }

// BuildNote resolves a parsed token into a Note under the given config.
func BuildNote(tok VoiceToken, cfg Config) Note {
	tuning := clampInt(cfg.TuningOffset, -12, 12)

	diatonic := degreeOffsets[tok.PitchNum]
	scaleOffset := degreeOffsets[tok.ScaleNum]
	upperBand := tok.ScaleType == ScaleHigh
	if upperBand {
		scaleOffset += 12
	}

	keyOctave := tok.OctaveLayer + floorDiv(diatonic, 12)
	keyNote := chromaticNames[floorMod(diatonic, 12)] + strconv.Itoa(keyOctave)

	scaleIndex := tok.ScaleNum - 1
	if upperBand {
		scaleIndex += 8
	}
	scaleIndex = clampInt(scaleIndex, 0, 15)

	total := diatonic + scaleOffset
	if tok.Register == "falsetto" {
		total += 12
	}
	octave := tok.OctaveLayer + floorDiv(total, 12)
	semitone := floorMod(total, 12)
	name := chromaticNames[semitone]

	base := float64((octave-4)*12 + semitone + tuning)
	n := Note{
		VoiceToken: tok,
		KeyNote:    keyNote,
		ScaleIndex: scaleIndex,
		NoteName:   name + strconv.Itoa(octave),
		Octave:     octave,

		StartFrequency: frequencyForSemitones(base + tok.TrajStart*2),
		EndFrequency:   frequencyForSemitones(base + tok.TrajEnd*2),
	}
	return n
}

// frequencyForSemitones maps a semitone distance from C4 to Hz using the
// equal-tempered exponential mapping.
func frequencyForSemitones(fromC4 float64) float64 {
	return ReferenceFrequency * math.Pow(2, fromC4/12)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
