package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/alkime/onerep/pkg/channels"
)

const voiceQueue = 8

// Synthesizer renders text to mp3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, w io.Writer) error
}

// FilePlayer plays an mp3 from disk.
type FilePlayer interface {
	PlayFile(path string) error
}

// Voice speaks session feedback. Rendered phrases are cached in dir, so each
// distinct message is synthesized once.
type Voice struct {
	synth    Synthesizer
	player   FilePlayer
	dir      string
	messages chan string
}

// NewVoice returns a voice that caches rendered phrases in dir.
func NewVoice(synth Synthesizer, player FilePlayer, dir string) (*Voice, error) {
	if synth == nil || player == nil {
		return nil, errors.New("synthesizer and player are required")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create voice cache: %w", err)
	}

	return &Voice{synth: synth, player: player, dir: dir, messages: make(chan string, voiceQueue)}, nil
}

// Say queues message. It never blocks; messages are dropped while the queue is full.
func (v *Voice) Say(message string) {
	if err := channels.SendNonBlock(v.messages, message); err != nil {
		slog.Debug("dropped spoken feedback", "message", message, "error", err)
	}
}

// Run speaks queued messages until ctx is done.
func (v *Voice) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-v.messages:
			if err := v.speak(ctx, msg); err != nil {
				slog.Warn("failed to speak feedback", "message", msg, "error", err)
			}
		}
	}
}

func (v *Voice) speak(ctx context.Context, message string) error {
	path := v.cachePath(message)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := v.render(ctx, message, path); err != nil {
			return err
		}
	}

	if err := v.player.PlayFile(path); err != nil {
		return fmt.Errorf("failed to play feedback: %w", err)
	}

	return nil
}

// render writes to a temporary file first so a failed request never leaves a
// truncated phrase in the cache.
func (v *Voice) render(ctx context.Context, message, path string) error {
	tmp, err := os.CreateTemp(v.dir, "render-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create feedback file: %w", err)
	}

	err = v.synth.Synthesize(ctx, message, tmp)
	err = errors.Join(err, tmp.Close())

	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to render feedback: %w", err)
	}

	return nil
}

func (v *Voice) cachePath(message string) string {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(message))
	return filepath.Join(v.dir, "say-"+id.String()+cueExt)
}

// LogVoice writes feedback to the log only.
type LogVoice struct{}

func (LogVoice) Say(message string) {
	slog.Info("feedback", "message", message)
}
