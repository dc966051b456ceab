package om

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/ejhong/om/internal/audio"
	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/playback"
	"github.com/ejhong/om/internal/synth"
)

// OfflinePlayer renders a preset to a buffer up front, then plays the buffer
// with pause, seek, and 30 Hz progress reporting. Unlike Player, playback
// cost is paid once at render time.
type OfflinePlayer struct {
	cfg    config
	engine *synth.Engine
	inner  *playback.OfflinePlayer

	eventCh chan PlaybackEvent
}

func NewOfflinePlayer(sampleRate int, opts ...Option) (*OfflinePlayer, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	engine := synth.New(sampleRate, cfg.synthParams)
	backend := &synthBackend{engine: engine}
	factory := func(r *playback.RenderedAudio) (playback.BufferPlayer, error) {
		return audio.NewBufferPlayer(r.Samples, r.SampleRate)
	}
	p := &OfflinePlayer{
		cfg:     cfg,
		engine:  engine,
		inner:   playback.NewOfflinePlayer(backend, clock.System(nil), cfg.groupVolumes, factory),
		eventCh: make(chan PlaybackEvent, 8),
	}
	p.inner.OnRenderStart = func() {
		p.sendEvent(PlaybackEvent{Kind: EventRenderStarted})
	}
	p.inner.OnRenderComplete = func() {
		p.sendEvent(PlaybackEvent{Kind: EventRenderCompleted})
	}
	p.inner.OnProgress = func(t float64, idx int) {
		p.sendEvent(PlaybackEvent{Kind: EventProgress, NoteIndex: idx, Time: t})
	}
	p.inner.OnComplete = func() {
		p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	}
	return p, nil
}

// RenderText compiles the preset text and renders it across totalDuration
// seconds, replacing any previous buffer.
func (p *OfflinePlayer) RenderText(text string, totalDuration float64) error {
	return p.Render(Compile(text, withConfig(p.cfg)), totalDuration)
}

// Render lays the preset's notes out evenly across totalDuration and renders
// them to the playback buffer.
func (p *OfflinePlayer) Render(preset *Preset, totalDuration float64) error {
	return p.inner.Render(preset.Notes(), totalDuration, playback.RenderOptions{
		Volume:       p.cfg.voiceDb,
		OverlapRatio: p.cfg.overlapRatio,
	})
}

func (p *OfflinePlayer) Play() error        { return p.inner.Play() }
func (p *OfflinePlayer) Pause()             { p.inner.Pause() }
func (p *OfflinePlayer) Stop()              { p.inner.Stop() }
func (p *OfflinePlayer) Seek(t float64)     { p.inner.Seek(t) }
func (p *OfflinePlayer) SeekToNote(idx int) { p.inner.SeekToNote(idx) }
func (p *OfflinePlayer) Dispose()           { p.inner.Dispose() }

// State returns the lifecycle state: Idle, Rendering, Ready, Playing, or
// Paused.
func (p *OfflinePlayer) State() playback.State { return p.inner.State() }

// CurrentTime returns the playback position in seconds.
func (p *OfflinePlayer) CurrentTime() float64 { return p.inner.CurrentTime() }

// CurrentNoteIndex returns the note index for the playback position.
func (p *OfflinePlayer) CurrentNoteIndex() int { return p.inner.CurrentNoteIndex() }

// Watch returns the buffered event channel. Events are dropped rather than
// block rendering or the progress timer.
func (p *OfflinePlayer) Watch() <-chan PlaybackEvent { return p.eventCh }

func (p *OfflinePlayer) sendEvent(ev PlaybackEvent) {
	select {
	case p.eventCh <- ev:
	default:
	}
}

// RenderSamples compiles and renders a preset without any audio device,
// returning interleaved stereo float32 samples. Intended for WAV export and
// tests.
func RenderSamples(text string, sampleRate int, totalDuration float64, opts ...Option) ([]float32, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	preset := Compile(text, withConfig(cfg))
	engine := synth.New(sampleRate, cfg.synthParams)
	backend := &synthBackend{engine: engine}
	rendered, err := playback.RenderOffline(backend, preset.Notes(), totalDuration, cfg.groupVolumes, playback.RenderOptions{
		Volume:       cfg.voiceDb,
		OverlapRatio: cfg.overlapRatio,
	})
	if err != nil {
		return nil, err
	}
	if rendered == nil {
		return nil, nil
	}
	return rendered.Samples, nil
}

// WriteWAV encodes interleaved stereo float32 samples as a 32-bit float WAV
// stream.
func WriteWAV(w io.Writer, samples []float32, sampleRate int) error {
	_, err := w.Write(EncodeWAVFloat32LE(samples, sampleRate, 2))
	return err
}

// EncodeWAVFloat32LE builds a WAV file (format 3, IEEE float) from
// interleaved samples.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
