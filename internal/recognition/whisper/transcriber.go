// Package whisper transcribes recorded utterances with the OpenAI Whisper API.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("API key required: set OPENAI_API_KEY or run 'coach config set-key openai'")

const defaultLanguage = "en"

// Config configures the transcriber.
type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a compatible local server.
	BaseURL  string
	Language string
	// Hints returns words the prompt should bias toward.
	Hints func() []string
}

// Transcriber handles Whisper API transcription requests.
type Transcriber struct {
	cfg    Config
	client openai.Client
}

// NewTranscriber creates a new transcription client.
func NewTranscriber(cfg Config) *Transcriber {
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(1)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Transcriber{cfg: cfg, client: openai.NewClient(opts...)}
}

// Configured reports whether an API key is present.
func (t *Transcriber) Configured() bool {
	return t.cfg.APIKey != ""
}

// Transcribe uploads the audio file at path and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if !t.Configured() {
		return "", ErrNotConfigured
	}

	f, err := os.Open(path) //nolint:gosec // path comes from our own temp recording
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:     f,
		Model:    openai.AudioModelWhisper1,
		Language: openai.String(t.cfg.Language),
	}

	if prompt := t.prompt(); prompt != "" {
		params.Prompt = openai.String(prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// prompt lists the expected vocabulary so short commands are not misheard.
func (t *Transcriber) prompt() string {
	if t.cfg.Hints == nil {
		return ""
	}

	hints := t.cfg.Hints()
	if len(hints) == 0 {
		return ""
	}

	return "Workout voice commands: " + strings.Join(hints, ", ") + "."
}
