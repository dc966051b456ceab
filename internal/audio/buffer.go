package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// sampleReader serves a float32 sample slice as the little-endian byte
// stream ebiten expects, with seeking for playback offsets.
type sampleReader struct {
	samples []float32
	off     int64 // byte offset
}

func (r *sampleReader) Read(p []byte) (int, error) {
	total := int64(len(r.samples)) * 4
	if r.off >= total {
		return 0, io.EOF
	}
	n := 0
	for n+4 <= len(p) && r.off+4 <= total {
		u := math.Float32bits(r.samples[r.off/4])
		binary.LittleEndian.PutUint32(p[n:], u)
		n += 4
		r.off += 4
	}
	return n, nil
}

func (r *sampleReader) Seek(offset int64, whence int) (int64, error) {
	total := int64(len(r.samples)) * 4
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.off + offset
	case io.SeekEnd:
		abs = total + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative seek position")
	}
	r.off = abs
	return abs, nil
}

// BufferPlayer plays a rendered stereo float32 buffer with offset seeking.
type BufferPlayer struct {
	player *ebitaudio.Player
}

func NewBufferPlayer(samples []float32, sampleRate int) (*BufferPlayer, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayerF32(&sampleReader{samples: samples})
	if err != nil {
		return nil, err
	}
	return &BufferPlayer{player: pl}, nil
}

// Start begins playback from offset seconds into the buffer. The at argument
// is the caller's clock timestamp and is unused here; the device plays as
// soon as it can.
func (p *BufferPlayer) Start(at, offset float64) {
	if offset < 0 {
		offset = 0
	}
	p.player.SetPosition(time.Duration(offset * float64(time.Second)))
	p.player.Play()
}

func (p *BufferPlayer) Stop() {
	p.player.Pause()
}

func (p *BufferPlayer) Dispose() {
	p.player.Pause()
	p.player.Close()
}
