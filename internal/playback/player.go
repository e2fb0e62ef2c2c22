// Package playback plays audio cues and spoken feedback through the speaker.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// ErrUnknownCue is returned by Play for a cue with no sound file.
var ErrUnknownCue = errors.New("unknown cue")

const (
	DefaultSampleRate = 44100
	cueExt            = ".mp3"
	resampleQuality   = 4
)

// Config configures the speaker player.
type Config struct {
	// Dir holds one mp3 per cue, named after the cue (phase_rest.mp3, num_3.mp3).
	Dir        string
	SampleRate int
}

// WithDefaults returns a config with default values applied to zero fields.
func (c Config) WithDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("cue directory is required")
	}

	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}

	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("failed to read cue directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("cue path %s is not a directory", c.Dir)
	}

	return nil
}

// locker guards the queue against the output's audio thread.
type locker interface {
	Lock()
	Unlock()
}

type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// Player plays cues one after another. Cue files are decoded once at startup
// so Play never touches the disk.
type Player struct {
	rate  beep.SampleRate
	lock  locker
	queue *queue
	cues  map[string]*beep.Buffer
}

// New decodes every cue in cfg.Dir and starts the speaker.
func New(cfg Config) (*Player, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid playback config: %w", err)
	}

	rate := beep.SampleRate(cfg.SampleRate)

	cues, err := loadDir(cfg.Dir, rate)
	if err != nil {
		return nil, err
	}

	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p := newPlayer(rate, speakerLock{}, cues)
	speaker.Play(p.queue)

	slog.Info("cue player ready", "dir", cfg.Dir, "cues", len(cues), "sampleRate", cfg.SampleRate)

	return p, nil
}

func newPlayer(rate beep.SampleRate, lock locker, cues map[string]*beep.Buffer) *Player {
	return &Player{rate: rate, lock: lock, queue: &queue{}, cues: cues}
}

// Play queues the named cue behind anything already playing.
func (p *Player) Play(name string) error {
	buf, ok := p.cues[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCue, name)
	}

	p.enqueue(buf.Streamer(0, buf.Len()))

	return nil
}

// PlayFile decodes an mp3 and queues it. Unlike Play it reads the disk.
func (p *Player) PlayFile(path string) error {
	buf, err := decodeFile(path, p.rate)
	if err != nil {
		return err
	}

	p.enqueue(buf.Streamer(0, buf.Len()))

	return nil
}

// StopAll silences the current sound and drops everything queued.
func (p *Player) StopAll() {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.queue.clear()
}

// Pending returns the number of sounds playing or queued.
func (p *Player) Pending() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return len(p.queue.streamers)
}

// Cues returns the loaded cue names in sorted order.
func (p *Player) Cues() []string {
	names := make([]string, 0, len(p.cues))
	for name := range p.cues {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Close stops playback.
func (p *Player) Close() {
	p.StopAll()
	speaker.Clear()
}

func (p *Player) enqueue(s beep.Streamer) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.queue.add(s)
}

func loadDir(dir string, rate beep.SampleRate) (map[string]*beep.Buffer, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cue directory: %w", err)
	}

	cues := make(map[string]*beep.Buffer)

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), cueExt) {
			continue
		}

		buf, err := decodeFile(filepath.Join(dir, e.Name()), rate)
		if err != nil {
			slog.Warn("skipping unreadable cue", "file", e.Name(), "error", err)
			continue
		}

		cues[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = buf
	}

	return cues, nil
}

func decodeFile(path string, rate beep.SampleRate) (*beep.Buffer, error) {
	f, err := os.Open(path) //nolint:gosec // cue and feedback files are ours
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != rate {
		s = beep.Resample(resampleQuality, format.SampleRate, rate, streamer)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	buf.Append(s)

	return buf, nil
}

// queue plays streamers in order and streams silence when empty, so it can
// stay on the speaker for the life of the process.
type queue struct {
	streamers []beep.Streamer
}

func (q *queue) add(s beep.Streamer) {
	q.streamers = append(q.streamers, s)
}

func (q *queue) clear() {
	q.streamers = nil
}

func (q *queue) Stream(samples [][2]float64) (int, bool) {
	filled := 0

	for filled < len(samples) {
		if len(q.streamers) == 0 {
			clear(samples[filled:])
			break
		}

		n, ok := q.streamers[0].Stream(samples[filled:])
		if !ok {
			q.streamers = q.streamers[1:]
		}

		filled += n
	}

	return len(samples), true
}

func (q *queue) Err() error {
	return nil
}

// LogPlayer logs cues instead of playing them, for machines without audio.
type LogPlayer struct {
	mu     sync.Mutex
	played []string
}

func (l *LogPlayer) Play(name string) error {
	l.mu.Lock()
	l.played = append(l.played, name)
	l.mu.Unlock()

	slog.Debug("cue", "cue", name)

	return nil
}

func (l *LogPlayer) StopAll() {}

// Played returns the cues played so far.
func (l *LogPlayer) Played() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.played...)
}
