package playback

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultVoice = "alloy"

// TTSConfig configures OpenAI speech synthesis.
type TTSConfig struct {
	APIKey  string
	BaseURL string
	Voice   string
}

// TTS synthesizes speech with the OpenAI audio API.
type TTS struct {
	client openai.Client
	voice  string
}

// NewTTS returns a synthesizer. An empty API key is an error.
func NewTTS(cfg TTSConfig) (*TTS, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key required for spoken feedback")
	}

	if cfg.Voice == "" {
		cfg.Voice = defaultVoice
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(1)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &TTS{client: openai.NewClient(opts...), voice: cfg.Voice}, nil
}

// Synthesize writes text as mp3 to w.
func (t *TTS) Synthesize(ctx context.Context, text string, w io.Writer) error {
	resp, err := t.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(t.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read synthesized speech: %w", err)
	}

	return nil
}
