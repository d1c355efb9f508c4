package classify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// videoExtensions is the container-format allow-list. A file with any other
// extension is never treated as a video.
var videoExtensions = map[string]struct{}{}

func init() {
	exts := []string{
		"mp4", "mkv", "avi", "mov", "wmv", "flv", "mpeg", "mpg", "webm", "m4v",
		"3gp", "3g2", "asf", "mts", "m2ts", "ts", "vob", "ogv", "rm", "rmvb",
		"divx", "f4v", "mxf", "mp2", "mpv", "tod", "vro", "drc", "mng",
		"qt", "yuv", "viv", "amv", "nsv", "svi", "mpe", "m2v", "m1v",
		"m2p", "trp", "tp", "evo", "ogm", "ogx", "rec", "dvr-ms",
		"pva", "wtv", "m4p", "m4b", "3gpp", "3gpp2",
	}
	for _, ext := range exts {
		videoExtensions[ext] = struct{}{}
	}
}

// subtitleExtensions is the sidecar format set checked beside each video.
var subtitleExtensions = []string{"srt", "sub", "ssa", "ass", "vtt"}

// Presence records how a subtitle language is satisfied.
type Presence string

const (
	PresenceSidecar  Presence = "sidecar"
	PresenceEmbedded Presence = "embedded"
)

// Kind tags a classification result.
type Kind int

const (
	NotVideo Kind = iota
	VideoWithSubtitles
	VideoMissingSubtitles
)

// Result is the outcome of classifying one path against a language set.
type Result struct {
	Kind    Kind
	Present map[string]Presence // language -> how it is satisfied
	Missing []string            // requested languages without subtitles
}

// Prober reports embedded subtitle track languages for a video file.
// Implementations must treat probe failures as recoverable; Classify maps any
// error to "no embedded information available".
type Prober interface {
	EmbeddedLanguages(ctx context.Context, path string) ([]string, error)
}

// Options configures a Classifier.
type Options struct {
	// Prober detects embedded subtitle tracks. Nil disables embedded checks.
	Prober Prober
	// IgnoreEmbedded forces a download even when embedded tracks match.
	IgnoreEmbedded bool
}

// Classifier evaluates subtitle presence for individual files.
type Classifier struct {
	prober         Prober
	ignoreEmbedded bool
}

// New constructs a Classifier.
func New(opts Options) *Classifier {
	return &Classifier{prober: opts.Prober, ignoreEmbedded: opts.IgnoreEmbedded}
}

// IsVideo reports whether the path carries a known video container extension.
func IsVideo(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	_, ok := videoExtensions[ext]
	return ok
}

// SubtitleExtensions returns the sidecar format set in match order.
func SubtitleExtensions() []string {
	return append([]string(nil), subtitleExtensions...)
}

// SidecarPath returns the first existing language-tagged sidecar for the
// video, or "" when none exists.
func SidecarPath(videoPath, lang string) string {
	dir := filepath.Dir(videoPath)
	stem := baseStem(videoPath)
	if stem == "" {
		return ""
	}
	for _, ext := range subtitleExtensions {
		candidate := filepath.Join(dir, stem+"."+lang+"."+ext)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// GenericSidecarPath returns the first existing untagged sidecar
// ("<basename>.<ext>"), or "" when none exists. An untagged sidecar is taken
// to satisfy every requested language.
func GenericSidecarPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	stem := baseStem(videoPath)
	if stem == "" {
		return ""
	}
	for _, ext := range subtitleExtensions {
		candidate := filepath.Join(dir, stem+"."+ext)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// Classify evaluates one path against the requested language set.
//
// An inaccessible path or unknown extension yields NotVideo. Sidecar presence
// always wins; the embedded probe runs only for languages without a sidecar
// and only when IgnoreEmbedded is unset. A probe failure counts as no
// embedded information, never as an error.
func (c *Classifier) Classify(ctx context.Context, path string, languages []string) Result {
	if !IsVideo(path) {
		return Result{Kind: NotVideo}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Result{Kind: NotVideo}
	}

	present := make(map[string]Presence, len(languages))
	var missing []string

	generic := GenericSidecarPath(path)
	var unresolved []string
	for _, lang := range languages {
		switch {
		case SidecarPath(path, lang) != "":
			present[lang] = PresenceSidecar
		case generic != "":
			present[lang] = PresenceSidecar
		default:
			unresolved = append(unresolved, lang)
		}
	}

	if len(unresolved) > 0 && c != nil && c.prober != nil && !c.ignoreEmbedded {
		if embedded, err := c.prober.EmbeddedLanguages(ctx, path); err == nil {
			for _, lang := range unresolved {
				if embeddedMatches(embedded, lang) {
					present[lang] = PresenceEmbedded
					continue
				}
				missing = append(missing, lang)
			}
			unresolved = nil
		}
	}
	missing = append(missing, unresolved...)

	if len(missing) > 0 {
		return Result{Kind: VideoMissingSubtitles, Present: present, Missing: missing}
	}
	return Result{Kind: VideoWithSubtitles, Present: present}
}

func baseStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
