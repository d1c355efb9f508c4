package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"subrover/internal/language"
)

var commandContext = exec.CommandContext

// Result represents the parsed output from an ffprobe subtitle inspection.
type Result struct {
	Streams []Stream `json:"streams"`
}

// Stream describes a single subtitle stream in the media container.
type Stream struct {
	Index     int               `json:"index"`
	CodecName string            `json:"codec_name"`
	CodecType string            `json:"codec_type"`
	Tags      map[string]string `json:"tags"`
}

// Inspect executes ffprobe against the provided path and decodes the
// subtitle stream metadata.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := commandContext(ctx, binary,
		"-v", "error",
		"-hide_banner",
		"-select_streams", "s",
		"-show_entries", "stream=index,codec_name,codec_type:stream_tags=language",
		"-of", "json",
		"--", path,
	)
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, detail)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// Language returns the normalized language tag for a stream, or "" when the
// container carries no usable tag.
func (s Stream) Language() string {
	keys := []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}
	for _, key := range keys {
		if value, ok := s.Tags[key]; ok {
			value = strings.TrimSpace(strings.ReplaceAll(value, "\x00", ""))
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

// SubtitleLanguages returns the distinct language tags across subtitle streams.
// Untagged streams are reported as "und".
func (r Result) SubtitleLanguages() []string {
	seen := make(map[string]struct{}, len(r.Streams))
	var langs []string
	for _, stream := range r.Streams {
		if stream.CodecType != "" && !strings.EqualFold(stream.CodecType, "subtitle") {
			continue
		}
		lang := stream.Language()
		if lang == "" {
			lang = "und"
		}
		if _, ok := seen[lang]; ok {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	return langs
}

// HasLanguage reports whether any subtitle stream satisfies the requested
// language code.
func (r Result) HasLanguage(requested string) bool {
	for _, lang := range r.SubtitleLanguages() {
		if language.Matches(lang, requested) {
			return true
		}
	}
	return false
}
