package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteVideo creates a small placeholder video file, including any parent
// directories, and returns its path.
func WriteVideo(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeFile(t, path, []byte("video"))
	return path
}

// WriteSidecar creates a subtitle file next to an existing video path using
// the <basename>.<lang>.srt convention. An empty lang writes the generic
// <basename>.srt form.
func WriteSidecar(t testing.TB, videoPath, lang string) string {
	t.Helper()
	ext := filepath.Ext(videoPath)
	stem := videoPath[:len(videoPath)-len(ext)]
	path := stem + ".srt"
	if lang != "" {
		path = stem + "." + lang + ".srt"
	}
	writeFile(t, path, []byte("1\n00:00:01,000 --> 00:00:02,000\nhello\n"))
	return path
}

func writeFile(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
