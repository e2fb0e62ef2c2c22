// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/alkime/onerep/internal/phase"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"
	// EnvDevelopment represents the development environment.
	EnvDevelopment = "development"
)

// ErrInvalid is returned when a loaded configuration cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all application configuration.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Phase lengths in seconds
	PrepSeconds           int `envconfig:"PREP_SECONDS" default:"10"`
	PositioningSeconds    int `envconfig:"POSITIONING_SECONDS" default:"5"`
	EccentricSeconds      int `envconfig:"ECCENTRIC_SECONDS" default:"30"`
	ConcentricSeconds     int `envconfig:"CONCENTRIC_SECONDS" default:"20"`
	FinalEccentricSeconds int `envconfig:"FINAL_ECCENTRIC_SECONDS" default:"40"`
	RestSeconds           int `envconfig:"REST_SECONDS" default:"90"`

	// Recognition settings
	ConfidenceThreshold float64       `envconfig:"CONFIDENCE_THRESHOLD" default:"0.7"`
	CaptureCeiling      time.Duration `envconfig:"CAPTURE_CEILING" default:"5s"`
	SecondaryTimeout    time.Duration `envconfig:"SECONDARY_TIMEOUT" default:"15s"`
	SpeechLanguage      string        `envconfig:"SPEECH_LANGUAGE" default:"en-US"`
	GoogleCredentials   string        `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	OpenAIAPIKey        string        `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `envconfig:"OPENAI_BASE_URL"`
	MicDevice           string        `envconfig:"MIC_DEVICE"`

	// Audio output
	CueDir        string   `envconfig:"CUE_DIR"`
	TTSVoice      string   `envconfig:"TTS_VOICE" default:"alloy"`
	Encouragement []string `envconfig:"ENCOURAGEMENT"`

	// Storage
	DBPath string `envconfig:"DB_PATH"`

	// Remote control server
	RemoteAddr string `envconfig:"REMOTE_ADDR"`
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Durations returns the configured phase lengths.
func (c *Config) Durations() phase.Durations {
	return phase.Durations{
		phase.Prep:           c.PrepSeconds,
		phase.Positioning:    c.PositioningSeconds,
		phase.Eccentric:      c.EccentricSeconds,
		phase.Concentric:     c.ConcentricSeconds,
		phase.FinalEccentric: c.FinalEccentricSeconds,
		phase.Rest:           c.RestSeconds,
	}
}

// Validate rejects unusable durations and recognition settings.
func (c *Config) Validate() error {
	if err := c.Durations().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: CONFIDENCE_THRESHOLD must be between 0 and 1, got %v", ErrInvalid, c.ConfidenceThreshold)
	}

	if c.CaptureCeiling <= 0 {
		return fmt.Errorf("%w: CAPTURE_CEILING must be positive", ErrInvalid)
	}

	if c.SecondaryTimeout <= 0 {
		return fmt.Errorf("%w: SECONDARY_TIMEOUT must be positive", ErrInvalid)
	}

	return nil
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		return "default-src 'none'; " +
			"connect-src 'self'; " +
			"base-uri 'none'; " +
			"form-action 'none'; " +
			"frame-ancestors 'none'"
	}

	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"script-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:"
}
