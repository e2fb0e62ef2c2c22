package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/alkime/onerep/internal/recognition"
)

// ErrEmptyRecording is returned when an utterance captured no audio.
var ErrEmptyRecording = errors.New("utterance recording is empty")

// UtteranceRecorder encodes each captured utterance to its own MP3 file.
type UtteranceRecorder struct {
	dir    string
	config EncoderConfig
}

// NewUtteranceRecorder writes utterance files into dir. An empty dir uses
// the system temp directory.
func NewUtteranceRecorder(dir string, config EncoderConfig) (*UtteranceRecorder, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	if dir == "" {
		dir = os.TempDir()
	}

	return &UtteranceRecorder{dir: dir, config: config}, nil
}

// Record starts encoding audio into a new file. The file is complete once the
// audio channel is closed.
func (r *UtteranceRecorder) Record(ctx context.Context, audio <-chan []byte) (recognition.Recording, error) {
	path := filepath.Join(r.dir, "utterance-"+uuid.NewString()+".mp3")

	f, err := os.Create(path) //nolint:gosec // path is built from our own directory and a uuid
	if err != nil {
		return nil, fmt.Errorf("failed to create utterance file: %w", err)
	}

	enc, err := NewStreamingEncoder(r.config, audio, f)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	if err := enc.Start(ctx); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return nil, fmt.Errorf("failed to start encoder: %w", err)
	}

	return &UtteranceFile{path: path, file: f, enc: enc}, nil
}

// UtteranceFile is one recorded utterance.
type UtteranceFile struct {
	path string
	file *os.File
	enc  *StreamingEncoder

	once sync.Once
	err  error
}

// Finish waits for encoding to complete and returns the file path.
func (u *UtteranceFile) Finish() (string, error) {
	u.once.Do(func() {
		encErr := u.enc.Wait()
		closeErr := u.file.Close()
		u.err = errors.Join(encErr, closeErr)

		if u.err == nil && u.enc.BytesIn() == 0 {
			u.err = ErrEmptyRecording
		}
	})

	if u.err != nil {
		return "", fmt.Errorf("failed to finish utterance recording: %w", u.err)
	}

	return u.path, nil
}

// Discard finishes the recording if needed and removes the file.
func (u *UtteranceFile) Discard() error {
	_, _ = u.Finish()

	if err := os.Remove(u.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove utterance file: %w", err)
	}

	return nil
}
