package classify

import (
	"context"
	"time"

	"subrover/internal/language"
	"subrover/internal/media/ffprobe"
)

// FFprobeProber detects embedded subtitle tracks through ffprobe.
type FFprobeProber struct {
	binary  string
	timeout time.Duration
}

// NewFFprobeProber constructs a prober around the given ffprobe binary.
// A non-positive timeout disables the per-probe deadline.
func NewFFprobeProber(binary string, timeout time.Duration) *FFprobeProber {
	return &FFprobeProber{binary: binary, timeout: timeout}
}

// EmbeddedLanguages implements Prober.
func (p *FFprobeProber) EmbeddedLanguages(ctx context.Context, path string) ([]string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	result, err := ffprobe.Inspect(ctx, p.binary, path)
	if err != nil {
		return nil, err
	}
	return result.SubtitleLanguages(), nil
}

var _ Prober = (*FFprobeProber)(nil)

func embeddedMatches(embedded []string, requested string) bool {
	for _, lang := range embedded {
		if language.Matches(lang, requested) {
			return true
		}
	}
	return false
}
