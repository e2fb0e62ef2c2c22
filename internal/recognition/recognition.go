// Package recognition arbitrates between a fast streaming recognizer and a
// slower, more accurate file transcriber to produce one transcript per utterance.
package recognition

import (
	"errors"
	"time"
)

// ErrUnavailable is returned when no engine produced any text for an utterance.
var ErrUnavailable = errors.New("speech recognition unavailable")

// SecondaryConfidence is reported for file transcriptions, which are taken as
// correct.
const SecondaryConfidence = 1.0

// Result is one recognition result from a streaming engine.
type Result struct {
	Text       string
	Confidence float64
	IsFinal    bool
}

// Kind records which path produced an Outcome.
type Kind int

const (
	// KindUnavailable means no transcript was produced.
	KindUnavailable Kind = iota
	// KindPrimary is a streaming result at or above the confidence threshold.
	KindPrimary
	// KindSecondary is a file transcription that replaced a weak streaming result.
	KindSecondary
	// KindLowConfidence is a weak streaming result kept because the file
	// transcriber failed or is not configured.
	KindLowConfidence
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindPrimary:
		return "primary"
	case KindSecondary:
		return "secondary"
	case KindLowConfidence:
		return "low-confidence"
	default:
		return "unknown"
	}
}

// Outcome is the arbitrated transcript for one utterance.
type Outcome struct {
	Text       string
	Confidence float64
	Kind       Kind
	// Ceiling is true when capture stopped at the time limit rather than on a final result.
	Ceiling bool
}

const (
	DefaultConfidenceThreshold = 0.7
	DefaultCaptureCeiling      = 5 * time.Second
	DefaultSecondaryTimeout    = 15 * time.Second
	DefaultSendTimeout         = 100 * time.Millisecond
)

// Config tunes the Arbiter.
type Config struct {
	// ConfidenceThreshold is the minimum streaming confidence accepted without a second opinion.
	ConfidenceThreshold float64
	// CaptureCeiling bounds how long one utterance is captured.
	CaptureCeiling time.Duration
	// SecondaryTimeout bounds the file transcription call.
	SecondaryTimeout time.Duration
	// SendTimeout bounds how long a slow consumer may stall the audio tee.
	SendTimeout time.Duration
}

// Validate returns an error if the config is unusable.
func (c Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return errors.New("confidence threshold must be within [0, 1]")
	}

	if c.CaptureCeiling <= 0 {
		return errors.New("capture ceiling must be positive")
	}

	if c.SecondaryTimeout <= 0 {
		return errors.New("secondary timeout must be positive")
	}

	if c.SendTimeout <= 0 {
		return errors.New("send timeout must be positive")
	}

	return nil
}

// WithDefaults returns a config with default values applied to zero fields.
func (c Config) WithDefaults() Config {
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}

	if c.CaptureCeiling == 0 {
		c.CaptureCeiling = DefaultCaptureCeiling
	}

	if c.SecondaryTimeout == 0 {
		c.SecondaryTimeout = DefaultSecondaryTimeout
	}

	if c.SendTimeout == 0 {
		c.SendTimeout = DefaultSendTimeout
	}

	return c
}
