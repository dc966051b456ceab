package playback

import (
	"sync"

	"github.com/ejhong/om/internal/clock"
	"github.com/ejhong/om/internal/notation"
)

// State identifies the offline player's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateRendering
	StateReady
	StatePlaying
	StatePaused
)

// progressInterval is the progress-report period while playing.
const progressInterval = 1.0 / 30

// BufferPlayer plays back a rendered buffer. Start begins playback at the
// absolute clock time at, from offset seconds into the buffer.
type BufferPlayer interface {
	Start(at, offset float64)
	Stop()
	Dispose()
}

// BufferPlayerFactory constructs a BufferPlayer for a render result.
type BufferPlayerFactory func(*RenderedAudio) (BufferPlayer, error)

// OfflinePlayer pre-renders a note sequence to a buffer and wraps it with
// play/pause/seek/progress semantics.
//
// States: Idle → Rendering → Ready ⇄ Playing ⇄ Paused. Rendering again from
// Ready/Playing/Paused replaces the buffer; Dispose returns to Idle from any
// state. At most one render runs at a time: Render while already Rendering
// is a no-op.
type OfflinePlayer struct {
	mu        sync.Mutex
	synth     OfflineSynth
	clock     clock.Clock
	volumes   GroupVolumes
	newPlayer BufferPlayerFactory

	state         State
	rendered      *RenderedAudio
	player        BufferPlayer
	elapsed       float64
	startedAt     float64
	tick          clock.Timer
	completeFired bool

	// Set before use; invoked without the player lock held.
	OnProgress       func(currentTime float64, noteIndex int)
	OnRenderStart    func()
	OnRenderComplete func()
	OnComplete       func()
}

func NewOfflinePlayer(synth OfflineSynth, clk clock.Clock, volumes GroupVolumes, factory BufferPlayerFactory) *OfflinePlayer {
	return &OfflinePlayer{
		synth:     synth,
		clock:     clk,
		volumes:   volumes,
		newPlayer: factory,
		state:     StateIdle,
	}
}

// Render renders the notes across totalDuration, replacing any previous
// buffer. A backend failure is returned to the caller and leaves the player
// renderable again (the Rendering state is always cleared).
func (p *OfflinePlayer) Render(notes []notation.Note, totalDuration float64, opts RenderOptions) error {
	p.mu.Lock()
	if p.state == StateRendering {
		p.mu.Unlock()
		return nil
	}
	p.cancelTickLocked()
	prev := p.player
	p.player = nil
	p.state = StateRendering
	onStart := p.OnRenderStart
	p.mu.Unlock()

	if prev != nil {
		prev.Dispose()
	}
	if onStart != nil {
		onStart()
	}

	rendered, err := RenderOffline(p.synth, notes, totalDuration, p.volumes, opts)

	p.mu.Lock()
	if err != nil || rendered == nil {
		if p.rendered != nil {
			p.state = StateReady
		} else {
			p.state = StateIdle
		}
		p.mu.Unlock()
		return err
	}
	p.rendered = rendered
	p.elapsed = 0
	p.completeFired = false
	p.state = StateReady
	onDone := p.OnRenderComplete
	p.mu.Unlock()

	if onDone != nil {
		onDone()
	}
	return nil
}

// Play starts or resumes playback from the current position. It is a no-op
// while Rendering, while already Playing, or with no rendered buffer.
func (p *OfflinePlayer) Play() error {
	p.mu.Lock()
	if p.state == StateRendering || p.state == StatePlaying || p.rendered == nil {
		p.mu.Unlock()
		return nil
	}
	offset := p.elapsed
	if p.player == nil {
		pl, err := p.newPlayer(p.rendered)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		p.player = pl
	}
	now := p.clock.Now()
	p.player.Start(now, offset)
	p.startedAt = now - offset
	p.state = StatePlaying
	p.completeFired = false
	p.scheduleTickLocked()
	p.mu.Unlock()
	return nil
}

// Pause captures the elapsed time and halts playback and progress reports.
func (p *OfflinePlayer) Pause() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	p.elapsed = clampFloat(p.clock.Now()-p.startedAt, 0, p.rendered.Duration)
	p.cancelTickLocked()
	p.state = StatePaused
	player := p.player
	p.mu.Unlock()

	if player != nil {
		player.Stop()
	}
}

// Stop halts playback and resets the position to 0.
func (p *OfflinePlayer) Stop() {
	p.mu.Lock()
	if p.state == StateRendering {
		p.mu.Unlock()
		return
	}
	p.cancelTickLocked()
	p.elapsed = 0
	player := p.player
	if p.rendered != nil {
		p.state = StateReady
	} else {
		p.state = StateIdle
	}
	p.mu.Unlock()

	if player != nil {
		player.Stop()
	}
}

// Seek moves the position to t, clamped to [0, duration]. When playing, it
// replays from the new offset; otherwise it stores the offset and reports
// one progress notification there.
func (p *OfflinePlayer) Seek(t float64) {
	p.mu.Lock()
	if p.rendered == nil || p.state == StateRendering {
		p.mu.Unlock()
		return
	}
	t = clampFloat(t, 0, p.rendered.Duration)
	if p.state == StatePlaying {
		now := p.clock.Now()
		p.startedAt = now - t
		player := p.player
		p.mu.Unlock()
		if player != nil {
			player.Stop()
			player.Start(now, t)
		}
		return
	}
	p.elapsed = t
	idx := p.noteIndexLocked(t)
	onProgress := p.OnProgress
	p.mu.Unlock()

	if onProgress != nil {
		onProgress(t, idx)
	}
}

// SeekToNote converts a note index to a time offset and seeks there.
func (p *OfflinePlayer) SeekToNote(index int) {
	p.mu.Lock()
	if p.rendered == nil {
		p.mu.Unlock()
		return
	}
	t := float64(index) * p.rendered.NoteDuration
	p.mu.Unlock()
	p.Seek(t)
}

// Dispose releases the buffer and player and returns to Idle.
func (p *OfflinePlayer) Dispose() {
	p.mu.Lock()
	p.cancelTickLocked()
	player := p.player
	p.player = nil
	p.rendered = nil
	p.elapsed = 0
	p.state = StateIdle
	p.mu.Unlock()

	if player != nil {
		player.Dispose()
	}
}

// State returns the current lifecycle state.
func (p *OfflinePlayer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTime returns the playback position in seconds.
func (p *OfflinePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTimeLocked()
}

// CurrentNoteIndex returns the note index for the playback position, never
// exceeding the last valid index.
func (p *OfflinePlayer) CurrentNoteIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.noteIndexLocked(p.currentTimeLocked())
}

func (p *OfflinePlayer) currentTimeLocked() float64 {
	if p.state == StatePlaying {
		return clampFloat(p.clock.Now()-p.startedAt, 0, p.rendered.Duration)
	}
	return p.elapsed
}

func (p *OfflinePlayer) noteIndexLocked(t float64) int {
	if p.rendered == nil || p.rendered.NoteDuration <= 0 {
		return 0
	}
	idx := int(t / p.rendered.NoteDuration)
	if idx > p.rendered.NoteCount-1 {
		idx = p.rendered.NoteCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func (p *OfflinePlayer) scheduleTickLocked() {
	p.tick = p.clock.AfterFunc(progressInterval, p.onTick)
}

func (p *OfflinePlayer) cancelTickLocked() {
	if p.tick != nil {
		p.tick.Stop()
		p.tick = nil
	}
}

func (p *OfflinePlayer) onTick() {
	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return
	}
	cur := p.clock.Now() - p.startedAt
	d := p.rendered.Duration
	if cur >= d {
		p.elapsed = d
		p.state = StatePaused
		p.tick = nil
		idx := p.noteIndexLocked(d)
		fireComplete := !p.completeFired
		p.completeFired = true
		player := p.player
		onProgress := p.OnProgress
		onComplete := p.OnComplete
		p.mu.Unlock()

		if player != nil {
			player.Stop()
		}
		if onProgress != nil {
			onProgress(d, idx)
		}
		if fireComplete && onComplete != nil {
			onComplete()
		}
		return
	}
	idx := p.noteIndexLocked(cur)
	onProgress := p.OnProgress
	p.scheduleTickLocked()
	p.mu.Unlock()

	if onProgress != nil {
		onProgress(cur, idx)
	}
}
