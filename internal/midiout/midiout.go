// Package midiout mirrors triggered notes as raw MIDI channel messages, so a
// phrase can drive an external synth or be captured alongside the audio.
package midiout

import (
	"io"
	"strings"
	"sync"

	"github.com/gomidi/midi"
	"github.com/gomidi/midi/midimessage/channel"
	"github.com/gomidi/midi/midiwriter"

	"github.com/ejhong/om/internal/notation"
)

// Tap writes NoteOn/NoteOff messages for each triggered note to a MIDI byte
// stream. It tracks active keys so a retriggered key is turned off first.
type Tap struct {
	mu     sync.Mutex
	wr     midi.Writer
	ch     channel.Channel
	active [128]bool
}

func NewTap(dest io.Writer) *Tap {
	wr := midiwriter.New(dest, midiwriter.NoRunningStatus())
	return &Tap{wr: wr, ch: channel.Channel0}
}

// NoteOn emits a NoteOn for the note's pitch. Velocity is the playback
// velocity in [0, 1], scaled to MIDI's 1..127.
func (t *Tap) NoteOn(n notation.Note, velocity float64) error {
	key, ok := KeyFor(n)
	if !ok {
		return nil
	}
	vel := uint8(velocity * 127)
	if vel == 0 {
		vel = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[key] {
		if err := t.wr.Write(t.ch.NoteOff(key)); err != nil {
			return err
		}
	}
	t.active[key] = true
	return t.wr.Write(t.ch.NoteOn(key, vel))
}

// NoteOff emits a NoteOff for the note's pitch if it is sounding.
func (t *Tap) NoteOff(n notation.Note) error {
	key, ok := KeyFor(n)
	if !ok {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active[key] {
		return nil
	}
	t.active[key] = false
	return t.wr.Write(t.ch.NoteOff(key))
}

// AllOff releases every sounding key.
func (t *Tap) AllOff() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key := 0; key < 128; key++ {
		if !t.active[key] {
			continue
		}
		t.active[key] = false
		if err := t.wr.Write(t.ch.NoteOff(uint8(key))); err != nil {
			return err
		}
	}
	return nil
}

var chromaticIndex = map[string]int{
	"C": 0, "C#": 1, "D": 2, "D#": 3, "E": 4, "F": 5,
	"F#": 6, "G": 7, "G#": 8, "A": 9, "A#": 10, "B": 11,
}

// KeyFor converts a note name like "C#5" to a MIDI key number, where C4 is
// key 60. Reports false for names it cannot parse or keys out of 0..127.
func KeyFor(n notation.Note) (uint8, bool) {
	name := n.NoteName
	i := len(name)
	for i > 0 && (name[i-1] == '-' || (name[i-1] >= '0' && name[i-1] <= '9')) {
		i--
	}
	if i == 0 || i == len(name) {
		return 0, false
	}
	pc, ok := chromaticIndex[strings.ToUpper(name[:i])]
	if !ok {
		return 0, false
	}
	octave := 0
	neg := false
	for _, c := range name[i:] {
		if c == '-' {
			neg = true
			continue
		}
		octave = octave*10 + int(c-'0')
	}
	if neg {
		octave = -octave
	}
	key := (octave+1)*12 + pc
	if key < 0 || key > 127 {
		return 0, false
	}
	return uint8(key), true
}
