// Package gspeech is a streaming recognizer backed by Google Cloud Speech-to-Text.
package gspeech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/alkime/onerep/internal/recognition"
)

const (
	DefaultLanguageCode = "en-US"
	DefaultSampleRate   = 16000
)

// Config configures the recognizer.
type Config struct {
	// CredentialsFile is a service account key; empty uses application default credentials.
	CredentialsFile string
	LanguageCode    string
	SampleRate      int
	// Hints returns phrases to bias recognition toward, read at the start of each utterance.
	Hints func() []string
}

// WithDefaults returns a config with default values applied to zero fields.
func (c Config) WithDefaults() Config {
	if c.LanguageCode == "" {
		c.LanguageCode = DefaultLanguageCode
	}

	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	return c
}

type openFunc func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)

// Engine streams one utterance per Recognize call.
type Engine struct {
	cfg    Config
	open   openFunc
	client *speech.Client
}

// New dials the Speech API.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	e := newEngine(cfg, func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
		return client.StreamingRecognize(ctx)
	})
	e.client = client

	return e, nil
}

func newEngine(cfg Config, open openFunc) *Engine {
	return &Engine{cfg: cfg.WithDefaults(), open: open}
}

// Close releases the client connection.
func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}

	if err := e.client.Close(); err != nil {
		return fmt.Errorf("failed to close speech client: %w", err)
	}

	return nil
}

// Recognize opens a single-utterance stream, forwards audio until the channel
// closes or the service reports the end of speech, and relays results.
func (e *Engine) Recognize(ctx context.Context, audio <-chan []byte) (<-chan recognition.Result, error) {
	stream, err := e.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open recognize stream: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: e.streamingConfig(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	out := make(chan recognition.Result)
	endOfSpeech := make(chan struct{})

	var once sync.Once
	stopSending := func() { once.Do(func() { close(endOfSpeech) }) }

	go e.send(stream, audio, endOfSpeech)

	go func() {
		defer close(out)
		defer stopSending()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("speech stream receive failed", "error", err)
				}

				return
			}

			if resp.GetSpeechEventType() == speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE {
				stopSending()
			}

			for _, r := range resp.GetResults() {
				res, ok := toResult(r)
				if !ok {
					continue
				}

				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (e *Engine) send(stream speechpb.Speech_StreamingRecognizeClient, audio <-chan []byte, stop <-chan struct{}) {
	defer func() {
		if err := stream.CloseSend(); err != nil {
			slog.Debug("failed to close speech send side", "error", err)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case data, ok := <-audio:
			if !ok {
				return
			}

			if err := stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: data},
			}); err != nil {
				slog.Warn("failed to send audio to speech stream", "error", err)
				return
			}
		}
	}
}

func (e *Engine) streamingConfig() *speechpb.StreamingRecognitionConfig {
	rc := &speechpb.RecognitionConfig{
		Encoding:        speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz: int32(e.cfg.SampleRate), //nolint:gosec // sample rates fit in int32
		LanguageCode:    e.cfg.LanguageCode,
	}

	if e.cfg.Hints != nil {
		if phrases := e.cfg.Hints(); len(phrases) > 0 {
			rc.SpeechContexts = []*speechpb.SpeechContext{{Phrases: phrases}}
		}
	}

	return &speechpb.StreamingRecognitionConfig{
		Config:          rc,
		SingleUtterance: true,
		InterimResults:  true,
	}
}

func toResult(r *speechpb.StreamingRecognitionResult) (recognition.Result, bool) {
	alts := r.GetAlternatives()
	if len(alts) == 0 {
		return recognition.Result{}, false
	}

	text := strings.TrimSpace(alts[0].GetTranscript())
	if text == "" && !r.GetIsFinal() {
		return recognition.Result{}, false
	}

	return recognition.Result{
		Text:       text,
		Confidence: float64(alts[0].GetConfidence()),
		IsFinal:    r.GetIsFinal(),
	}, true
}
