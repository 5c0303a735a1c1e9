package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Feedback providers.
const (
	ProviderClaude = "claude"
	ProviderRemote = "remote"
	ProviderNone   = "none"
)

type Config struct {
	Port string

	// Storage
	DBPath string

	// Auth
	APIKey string

	// Emotion taxonomy override (YAML); empty uses the built-in set.
	EmotionsFile string

	// Feedback collaborator
	FeedbackProvider string
	FeedbackURL      string
	FeedbackAPIKey   string
	AnthropicAPIKey  string
	AnthropicModel   string

	// Sentence terminators used to snap feedback ranges.
	SentenceTerminators []string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		DBPath: envOr("DIARIST_DB_PATH", "diarist.db"),

		APIKey: os.Getenv("DIARIST_API_KEY"),

		EmotionsFile: os.Getenv("EMOTIONS_FILE"),

		FeedbackProvider: strings.ToLower(envOr("FEEDBACK_PROVIDER", ProviderClaude)),
		FeedbackURL:      os.Getenv("FEEDBACK_URL"),
		FeedbackAPIKey:   os.Getenv("FEEDBACK_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		SentenceTerminators: envList("SENTENCE_TERMINATORS", []string{".", "!", "?"}),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DIARIST_API_KEY is required")
	}
	switch c.FeedbackProvider {
	case ProviderClaude:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for FEEDBACK_PROVIDER=claude")
		}
	case ProviderRemote:
		if c.FeedbackURL == "" {
			return fmt.Errorf("FEEDBACK_URL is required for FEEDBACK_PROVIDER=remote")
		}
	case ProviderNone:
	default:
		return fmt.Errorf("FEEDBACK_PROVIDER must be one of claude, remote, none; got %q", c.FeedbackProvider)
	}
	if len(c.SentenceTerminators) == 0 {
		return fmt.Errorf("SENTENCE_TERMINATORS must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated value, dropping blanks.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
