package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"testing"
)

func TestResultSubtitleLanguages(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{Index: 2, CodecType: "subtitle", Tags: map[string]string{"language": "eng"}},
			{Index: 3, CodecType: "subtitle", Tags: map[string]string{"language": "eng"}},
			{Index: 4, CodecType: "subtitle", Tags: map[string]string{"LANGUAGE": "Spa"}},
			{Index: 5, CodecType: "subtitle"},
		},
	}
	langs := result.SubtitleLanguages()
	want := []string{"eng", "spa", "und"}
	if len(langs) != len(want) {
		t.Fatalf("unexpected languages: %v", langs)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Fatalf("unexpected languages: %v, want %v", langs, want)
		}
	}
}

func TestResultHasLanguageAcceptsBothCodeLengths(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "subtitle", Tags: map[string]string{"language": "eng"}},
		},
	}
	if !result.HasLanguage("en") {
		t.Fatal("expected 2-letter request to match 3-letter tag")
	}
	if !result.HasLanguage("eng") {
		t.Fatal("expected exact match")
	}
	if result.HasLanguage("fr") {
		t.Fatal("did not expect french match")
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectParsesHelperOutput(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE=streams")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	result, err := Inspect(context.Background(), "ffprobe", "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if !result.HasLanguage("en") {
		t.Fatalf("expected english subtitle stream, got %#v", result)
	}
}

func TestInspectReportsProbeFailure(t *testing.T) {
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE=fail")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	if _, err := Inspect(context.Background(), "ffprobe", "/media/movie.mkv"); err == nil {
		t.Fatal("expected error for failing probe")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "streams":
		payload := Result{
			Streams: []Stream{
				{Index: 2, CodecName: "subrip", CodecType: "subtitle", Tags: map[string]string{"language": "eng"}},
			},
		}
		_ = json.NewEncoder(os.Stdout).Encode(payload)
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "No such file or directory")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}
