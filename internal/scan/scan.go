package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subrover/internal/classify"
	"subrover/internal/logging"
)

// extrasFolders lists auxiliary directory names commonly produced by media
// managers for bonus material. Matching is case-insensitive.
var extrasFolders = []string{
	"Behind The Scenes",
	"Deleted Scenes",
	"Featurettes",
	"Interviews",
	"Scenes",
	"Shorts",
	"Trailers",
	"Other",
}

// VideoFile is one classified video discovered during a scan.
// Immutable once the scan returns.
type VideoFile struct {
	Path    string
	Depth   int
	Present map[string]classify.Presence
	Missing []string
}

// Result holds the outcome of one scan pass. It is owned by the caller and
// handed by value to the scheduler.
type Result struct {
	Root                string
	Missing             []VideoFile
	VideosSeen          int
	VideosWithSubtitles int
	DirsSkipped         int
	FilesSkipped        int
	ExtrasSkipped       int
}

// Options configures a Scanner.
type Options struct {
	Languages         []string
	IgnoreExtraFolder bool
	OverwriteExisting bool
	Logger            *slog.Logger
}

// Scanner produces scan results for a directory tree.
type Scanner struct {
	classifier   *classify.Classifier
	languages    []string
	ignoreExtras bool
	overwrite    bool
	logger       *slog.Logger
}

// New constructs a Scanner around a classifier.
func New(classifier *classify.Classifier, opts Options) *Scanner {
	return &Scanner{
		classifier:   classifier,
		languages:    append([]string(nil), opts.Languages...),
		ignoreExtras: opts.IgnoreExtraFolder,
		overwrite:    opts.OverwriteExisting,
		logger:       logging.NewComponentLogger(opts.Logger, "scanner"),
	}
}

// Scan walks root and returns every video lacking at least one requested
// language. Only a bad root or a cancelled context fails the scan; unreadable
// subdirectories are counted and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", root)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}

	result := &Result{Root: absRoot}
	visited := make(map[string]struct{})
	if err := s.walk(ctx, absRoot, 0, visited, result); err != nil {
		return nil, err
	}

	s.logger.Info("scan complete",
		logging.String("root", absRoot),
		logging.Int("videos", result.VideosSeen),
		logging.Int("missing", len(result.Missing)),
		logging.Int("subtitled", result.VideosWithSubtitles),
		logging.Int("dirs_skipped", result.DirsSkipped),
		logging.Int("files_skipped", result.FilesSkipped),
		logging.Int("extras_skipped", result.ExtrasSkipped),
	)
	return result, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, depth int, visited map[string]struct{}, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Cycle guard: resolve symlinks so a looped link is visited once.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	if _, seen := visited[resolved]; seen {
		s.logger.Debug("skipping already-visited directory", logging.String("dir", dir))
		return nil
	}
	visited[resolved] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.DirsSkipped++
		s.logger.Warn("skipping unreadable directory", logging.String("dir", dir), logging.Error(err))
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil && target.IsDir() {
				isDir = true
			}
		}

		if isDir {
			if s.ignoreExtras && isExtrasFolder(entry.Name()) {
				result.ExtrasSkipped++
				s.logger.Debug("ignoring extras folder", logging.String("dir", path))
				continue
			}
			if err := s.walk(ctx, path, depth+1, visited, result); err != nil {
				return err
			}
			continue
		}

		if !classify.IsVideo(path) {
			continue
		}

		classification := s.classifier.Classify(ctx, path, s.languages)
		if classification.Kind == classify.NotVideo {
			// Extension matched but the file vanished or is unreadable.
			result.FilesSkipped++
			s.logger.Warn("skipping inaccessible video file", logging.String("file", path))
			continue
		}
		result.VideosSeen++

		if classification.Kind == classify.VideoWithSubtitles && !s.overwrite {
			result.VideosWithSubtitles++
			continue
		}
		if classification.Kind == classify.VideoWithSubtitles {
			result.VideosWithSubtitles++
		}

		missing := classification.Missing
		if s.overwrite && len(missing) == 0 {
			missing = append([]string(nil), s.languages...)
		}
		result.Missing = append(result.Missing, VideoFile{
			Path:    path,
			Depth:   depth,
			Present: classification.Present,
			Missing: missing,
		})
	}
	return nil
}

func isExtrasFolder(name string) bool {
	for _, extra := range extrasFolders {
		if strings.EqualFold(name, extra) {
			return true
		}
	}
	return false
}

// ExtrasFolders returns the exclusion list, primarily for CLI help output.
func ExtrasFolders() []string {
	return append([]string(nil), extrasFolders...)
}
