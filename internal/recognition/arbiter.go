package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alkime/onerep/pkg/channels"
)

// ErrBusy is returned when a capture is started while another is in flight.
var ErrBusy = errors.New("capture already in progress")

const teeBuffer = 64

// Arbiter captures one utterance at a time. Audio is streamed to the primary
// engine and recorded to a file at the same time; the file is only transcribed
// when the streaming result is missing or below the confidence threshold.
type Arbiter struct {
	cfg       Config
	source    Source
	primary   Engine
	secondary FileEngine
	recorder  Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewArbiter creates an arbiter. primary, secondary, and recorder may be nil;
// the matching fallback paths are then skipped.
func NewArbiter(cfg Config, source Source, primary Engine, secondary FileEngine, recorder Recorder) (*Arbiter, error) {
	if source == nil {
		return nil, errors.New("audio source cannot be nil")
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recognition config: %w", err)
	}

	return &Arbiter{
		cfg:       cfg,
		source:    source,
		primary:   primary,
		secondary: secondary,
		recorder:  recorder,
	}, nil
}

// Listening reports whether a capture is in flight.
func (a *Arbiter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.cancel != nil
}

// Cancel aborts the capture in flight, if any.
func (a *Arbiter) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
}

// Capture records one utterance and returns the best available transcript.
// Engine failures are absorbed; ErrUnavailable is returned only when no text
// was produced at all.
func (a *Arbiter) Capture(ctx context.Context) (Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !a.begin(cancel) {
		return Outcome{}, ErrBusy
	}
	defer a.end()

	h, rec, err := a.listen(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if ctx.Err() != nil {
		discard(rec)
		return Outcome{}, fmt.Errorf("capture cancelled: %w", ctx.Err())
	}

	out, err := a.decide(ctx, h, rec)

	slog.Info("utterance recognized",
		"kind", out.Kind.String(),
		"text", out.Text,
		"confidence", out.Confidence,
		"ceiling", out.Ceiling)

	return out, err
}

func (a *Arbiter) begin(cancel context.CancelFunc) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return false
	}

	a.cancel = cancel

	return true
}

func (a *Arbiter) end() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cancel = nil
}

type heard struct {
	text    string
	conf    float64
	final   bool
	ceiling bool
}

func (a *Arbiter) listen(ctx context.Context) (heard, Recording, error) {
	captureCtx, stop := context.WithTimeout(ctx, a.cfg.CaptureCeiling)
	defer stop()

	audio, err := a.source.Open(captureCtx)
	if err != nil {
		return heard{}, nil, fmt.Errorf("%w: failed to open audio source: %w", ErrUnavailable, err)
	}

	defer func() {
		if err := a.source.Close(); err != nil {
			slog.Warn("failed to close audio source", "error", err)
		}
	}()

	var (
		primaryC chan []byte
		fileC    chan []byte
		results  <-chan Result
		rec      Recording
	)

	if a.primary != nil {
		primaryC = make(chan []byte, teeBuffer)

		results, err = a.primary.Recognize(captureCtx, primaryC)
		if err != nil {
			slog.Warn("primary recognizer unavailable", "error", err)
			primaryC, results = nil, nil
		}
	}

	if a.recorder != nil {
		fileC = make(chan []byte, teeBuffer)

		rec, err = a.recorder.Record(ctx, fileC)
		if err != nil {
			slog.Warn("failed to record utterance", "error", err)
			fileC, rec = nil, nil
		}
	}

	var wg sync.WaitGroup
	teeDone := make(chan struct{})

	wg.Go(func() {
		defer close(teeDone)
		a.tee(captureCtx, audio, primaryC, fileC)
	})

	h := a.await(captureCtx, results, teeDone)
	h.ceiling = h.ceiling && ctx.Err() == nil

	stop()
	wg.Wait()

	return h, rec, nil
}

// await collects streaming results until a final one arrives, the audio
// ends with no recognizer left to wait for, or the capture context expires.
func (a *Arbiter) await(ctx context.Context, results <-chan Result, teeDone <-chan struct{}) heard {
	var h heard

	for {
		if results == nil && teeDone == nil {
			return h
		}

		select {
		case r, ok := <-results:
			if !ok {
				results = nil
				continue
			}

			if strings.TrimSpace(r.Text) != "" {
				h.text = strings.TrimSpace(r.Text)
				h.conf = r.Confidence
			}

			if r.IsFinal {
				h.final = true
				return h
			}

		case <-teeDone:
			teeDone = nil

		case <-ctx.Done():
			h.ceiling = true
			return h
		}
	}
}

// tee copies audio to both consumers and closes them when capture ends.
func (a *Arbiter) tee(ctx context.Context, audio <-chan []byte, outs ...chan<- []byte) {
	defer func() {
		for _, out := range outs {
			if out != nil {
				close(out)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-audio:
			if !ok {
				return
			}

			for _, out := range outs {
				if out == nil {
					continue
				}

				if err := channels.SendWithTimeout(out, data, a.cfg.SendTimeout); err != nil {
					slog.Debug("dropped audio packet", "bytes", len(data), "error", err)
				}
			}
		}
	}
}

func (a *Arbiter) decide(ctx context.Context, h heard, rec Recording) (Outcome, error) {
	defer discard(rec)

	out := Outcome{Text: h.text, Confidence: h.conf, Ceiling: h.ceiling}

	if h.text != "" && h.conf >= a.cfg.ConfidenceThreshold {
		out.Kind = KindPrimary
		return out, nil
	}

	if text, ok := a.transcribe(ctx, rec); ok {
		out.Text = text
		out.Confidence = SecondaryConfidence
		out.Kind = KindSecondary

		return out, nil
	}

	if h.text != "" {
		out.Kind = KindLowConfidence
		return out, nil
	}

	out.Kind = KindUnavailable

	return out, ErrUnavailable
}

func (a *Arbiter) transcribe(ctx context.Context, rec Recording) (string, bool) {
	if a.secondary == nil || !a.secondary.Configured() || rec == nil {
		return "", false
	}

	path, err := rec.Finish()
	if err != nil {
		slog.Warn("failed to finish utterance recording", "error", err)
		return "", false
	}

	tctx, cancel := context.WithTimeout(ctx, a.cfg.SecondaryTimeout)
	defer cancel()

	text, err := a.secondary.Transcribe(tctx, path)
	if err != nil {
		slog.Warn("secondary transcription failed", "error", err)
		return "", false
	}

	text = strings.TrimSpace(text)

	return text, text != ""
}

func discard(rec Recording) {
	if rec == nil {
		return
	}

	if err := rec.Discard(); err != nil {
		slog.Warn("failed to discard utterance recording", "error", err)
	}
}
