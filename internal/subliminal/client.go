package subliminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"subrover/internal/language"
)

var commandContext = exec.CommandContext

// Client downloads subtitles for a single video file.
type Client interface {
	Fetch(ctx context.Context, path string, languages []string) error
}

// Option adjusts CLI construction.
type Option func(*CLI)

// WithBinary overrides the executable name. Useful when subliminal lives
// outside PATH or is wrapped by a launcher such as pipx or uvx.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if strings.TrimSpace(binary) != "" {
			c.binary = binary
		}
	}
}

// WithArgs prepends extra arguments before the download subcommand, for
// example provider credentials.
func WithArgs(args []string) Option {
	return func(c *CLI) {
		c.extraArgs = append([]string(nil), args...)
	}
}

// WithCacheDir points subliminal's provider cache at dir.
func WithCacheDir(dir string) Option {
	return func(c *CLI) {
		c.cacheDir = dir
	}
}

// WithForce makes subliminal overwrite subtitle files that already exist.
func WithForce(force bool) Option {
	return func(c *CLI) {
		c.force = force
	}
}

// CLI shells out to the subliminal executable.
type CLI struct {
	binary    string
	extraArgs []string
	cacheDir  string
	force     bool
}

// New builds a CLI client with the supplied options.
func New(opts ...Option) *CLI {
	client := &CLI{binary: "subliminal"}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Fetch runs "subliminal download" for path. Languages must be ISO 639-1
// codes; they are converted to the 3-letter form subliminal expects.
func (c *CLI) Fetch(ctx context.Context, path string, languages []string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("subliminal fetch: empty path")
	}
	if len(languages) == 0 {
		return errors.New("subliminal fetch: no languages requested")
	}

	args := append([]string(nil), c.extraArgs...)
	args = append(args, "download")
	if c.force {
		args = append(args, "--force")
	}
	for _, lang := range languages {
		code := language.ToISO3(lang)
		if code == "und" && !strings.EqualFold(strings.TrimSpace(lang), "und") {
			return fmt.Errorf("subliminal fetch: unrecognized language %q", lang)
		}
		args = append(args, "-l", code)
	}
	args = append(args, path)

	cmd := commandContext(ctx, c.binary, args...)
	cmd.Env = append(os.Environ(),
		"PYTHONIOENCODING=utf-8",
		"PYTHONHASHSEED=0",
	)
	if c.cacheDir != "" {
		cmd.Env = append(cmd.Env, "SUBLIMINAL_CACHE_DIR="+c.cacheDir)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("subliminal fetch %s: %w: %s", path, err, summarizeOutput(&stderr, &stdout))
	}
	return nil
}

var _ Client = (*CLI)(nil)

// summarizeOutput picks the most useful line of tool output for an error
// message. Subliminal writes diagnostics to both streams depending on version.
func summarizeOutput(stderr, stdout *bytes.Buffer) string {
	for _, buf := range []*bytes.Buffer{stderr, stdout} {
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		for i := len(lines) - 1; i >= 0; i-- {
			if line := strings.TrimSpace(lines[i]); line != "" {
				return line
			}
		}
	}
	return "no output"
}
