package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"subrover/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootPath = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Subtitles.Languages = []string{"en"}

	if err := os.MkdirAll(cfgVal.Paths.RootPath, 0o755); err != nil {
		t.Fatalf("mkdir library dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLanguages overrides the requested language set on the test config.
func WithLanguages(languages ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Subtitles.Languages = languages
	}
}

// WithConcurrency overrides the worker pool size on the test config.
func WithConcurrency(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downloads.Concurrency = workers
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		StubBinaries(b.t, names...)
	}
}

// StubBinaries writes always-succeeding stub executables for the provided
// names into a temp directory and prepends it to PATH until the test ends.
// If names is empty, the default external binaries are stubbed. The stub
// directory is returned.
func StubBinaries(t testing.TB, names ...string) string {
	t.Helper()
	if len(names) == 0 {
		names = []string{"subliminal", "ffprobe"}
	}
	binDir := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	script := []byte("#!/bin/sh\nexit 0\n")
	for _, name := range names {
		target := filepath.Join(binDir, name)
		if err := os.WriteFile(target, script, 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
	return binDir
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
