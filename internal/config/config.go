package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RootPath string `toml:"root_path"`
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
	StateDir string `toml:"state_dir"`
}

// Subtitles controls which files count as missing subtitles.
type Subtitles struct {
	Languages         []string `toml:"languages"`
	IgnoreEmbedded    bool     `toml:"ignore_embedded"`
	IgnoreExtraFolder bool     `toml:"ignore_extra_folders"`
	OverwriteExisting bool     `toml:"overwrite_existing"`
}

// Downloads controls scheduler behaviour.
type Downloads struct {
	Concurrency        int `toml:"concurrency"`
	RetryAttempts      int `toml:"retry_attempts"`
	RetryInterval      int `toml:"retry_interval"`
	TaskTimeout        int `toml:"task_timeout"`
	EmbeddedProbeLimit int `toml:"embedded_probe_timeout"`
}

// Tools names the external binaries the pipeline drives.
type Tools struct {
	Subliminal     string   `toml:"subliminal"`
	SubliminalArgs []string `toml:"subliminal_args"`
	FFprobe        string   `toml:"ffprobe"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subrover.
//
// Configuration sections by subsystem:
//   - Paths: library root, log/cache/state directories
//   - Subtitles: requested languages and presence policy
//   - Downloads: worker pool size, timeouts, retry policy
//   - Tools: external binary names and invocation prefixes
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Subtitles Subtitles `toml:"subtitles"`
	Downloads Downloads `toml:"downloads"`
	Tools     Tools     `toml:"tools"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subrover/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and language codes normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subrover.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a fetch run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SubliminalBinary returns the subtitle fetch executable name.
func (c *Config) SubliminalBinary() string {
	if strings.TrimSpace(c.Tools.Subliminal) == "" {
		return "subliminal"
	}
	return c.Tools.Subliminal
}

// FFprobeBinary returns the ffprobe executable name used for embedded probing.
func (c *Config) FFprobeBinary() string {
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		return "ffprobe"
	}
	return c.Tools.FFprobe
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
