package config

import (
	"errors"
	"fmt"
	"strings"

	"subrover/internal/language"
)

// Validate ensures the configuration is usable. Validation failures abort
// before any scan or download starts.
func (c *Config) Validate() error {
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateDownloads(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if len(c.Subtitles.Languages) == 0 {
		return errors.New("subtitles.languages must include at least one language code")
	}
	for _, code := range c.Subtitles.Languages {
		// Same resolution rule the download client applies, so a code that
		// would fail every task is refused before any scan starts.
		if language.ToISO3(code) == "und" && !strings.EqualFold(strings.TrimSpace(code), "und") {
			return fmt.Errorf("subtitles.languages: unrecognized language code %q", code)
		}
	}
	return nil
}

func (c *Config) validateDownloads() error {
	if c.Downloads.Concurrency <= 0 {
		return errors.New("downloads.concurrency must be positive")
	}
	if c.Downloads.Concurrency > MaxConcurrency {
		return fmt.Errorf("downloads.concurrency must not exceed %d", MaxConcurrency)
	}
	if c.Downloads.RetryAttempts < 0 {
		return errors.New("downloads.retry_attempts must be >= 0")
	}
	if c.Downloads.RetryAttempts > MaxRetryAttempts {
		return fmt.Errorf("downloads.retry_attempts must not exceed %d", MaxRetryAttempts)
	}
	if c.Downloads.RetryInterval <= 0 {
		return errors.New("downloads.retry_interval must be positive (seconds)")
	}
	if c.Downloads.TaskTimeout <= 0 {
		return errors.New("downloads.task_timeout must be positive (seconds)")
	}
	if c.Downloads.EmbeddedProbeLimit <= 0 {
		return errors.New("downloads.embedded_probe_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	return nil
}
