package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Content ContentConfig
	OCR     OCRConfig
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type StorageConfig struct {
	DataDir string
	// Timeout bounds each store operation, as a Go duration string.
	Timeout string
}

type LogConfig struct {
	Level  string
	Format string
}

type ContentConfig struct {
	// SanitizeHTML cleans stored content with the HTML sanitizer. When off,
	// content is stored exactly as given.
	SanitizeHTML bool
}

type OCRConfig struct {
	// PollInterval is how often the recognition worker checks for jobs.
	PollInterval string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
			Timeout: "5s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		OCR: OCRConfig{
			PollInterval: "500ms",
		},
	}
}

// StorageTimeout returns Storage.Timeout parsed. Load has already validated it.
func (c Config) StorageTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Storage.Timeout)
	return d
}

// OCRPollInterval returns OCR.PollInterval parsed. Load has already validated it.
func (c Config) OCRPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.OCR.PollInterval)
	return d
}

// Validate checks value ranges and formats.
func (c Config) Validate() error {
	return validation.Errors{
		"server.port":       validation.Validate(c.Server.Port, validation.Min(1), validation.Max(65535)),
		"storage.data_dir":  validation.Validate(c.Storage.DataDir, validation.Required),
		"storage.timeout":   validation.Validate(c.Storage.Timeout, validation.By(positiveDuration)),
		"log.level":         validation.Validate(c.Log.Level, validation.In("debug", "info", "warn", "error")),
		"log.format":        validation.Validate(c.Log.Format, validation.In("text", "json")),
		"ocr.poll_interval": validation.Validate(c.OCR.PollInterval, validation.By(positiveDuration)),
	}.Filter()
}

func positiveDuration(v interface{}) error {
	s, _ := v.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 5s or 500ms")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// Load reads configuration from the config file and environment variables.
//
// The file is a flat JSON object (comments allowed) at
// $XDG_CONFIG_HOME/docvault/config.json. A .env file in the working directory
// is loaded into the environment first, then DOCVAULT_* variables override
// file values.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
