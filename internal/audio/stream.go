// Package audio puts rendered samples on the speaker. The live path pulls
// interleaved stereo float32 frames from a SampleSource; the buffer path
// (buffer.go) plays a pre-rendered sample slice with seeking.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved stereo float32 frames on demand.
type SampleSource interface {
	Process(dst []float32)
}

type streamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func newStreamReader(source SampleSource) *streamReader {
	return &streamReader{source: source}
}

func (r *streamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		u := math.Float32bits(r.buf[i])
		binary.LittleEndian.PutUint32(p[i*4:], u)
	}
	return frames * 8, nil
}

func (r *streamReader) Close() error { return nil }

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

// sharedContext returns the process-wide audio context. Ebiten allows only
// one context per process, so a second sample rate is an error.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// Output streams a SampleSource to the audio device.
type Output struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

func NewOutput(sampleRate int, source SampleSource) (*Output, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := newStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Output{player: pl, reader: reader}, nil
}

func (o *Output) Start() { o.player.Play() }
func (o *Output) Pause() { o.player.Pause() }

func (o *Output) Playing() bool { return o.player.IsPlaying() }

// SetVolume sets the output level in [0, 1].
func (o *Output) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	o.player.SetVolume(v)
}

// Position returns the playback position the listener actually hears.
func (o *Output) Position() time.Duration {
	return o.player.Position()
}

func (o *Output) Close() error {
	o.player.Pause()
	if err := o.player.Close(); err != nil {
		return err
	}
	return o.reader.Close()
}
