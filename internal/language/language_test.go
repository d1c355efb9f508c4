package language_test

import (
	"reflect"
	"testing"

	"subrover/internal/language"
)

func TestToISO2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"ENG", "en"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"english", "en"},
		{"pt-br", "pt"},
		{"xx", "xx"},
		{"xyz", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := language.ToISO2(tc.in); got != tc.want {
			t.Errorf("ToISO2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToISO3(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"en", "eng"},
		{"fr", "fra"},
		{"ger", "deu"},
		{"qqq", "qqq"},
		{"q", "und"},
		{"", "und"},
	}
	for _, tc := range cases {
		if got := language.ToISO3(tc.in); got != tc.want {
			t.Errorf("ToISO3(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := language.DisplayName("eng"); got != "English" {
		t.Fatalf("DisplayName(eng) = %q", got)
	}
	if got := language.DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(empty) = %q", got)
	}
	if got := language.DisplayName("tlh"); got != "Tlh" {
		t.Fatalf("DisplayName(tlh) = %q", got)
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		stream string
		want   string
		match  bool
	}{
		{"eng", "en", true},
		{"en", "en", true},
		{"fre", "fr", true},
		{"en-US", "en", true},
		{"spa", "en", false},
		{"", "en", false},
		{"eng", "", false},
	}
	for _, tc := range cases {
		if got := language.Matches(tc.stream, tc.want); got != tc.match {
			t.Errorf("Matches(%q, %q) = %v, want %v", tc.stream, tc.want, got, tc.match)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := language.NormalizeList([]string{" EN ", "eng", "french", "", "de", "en"})
	want := []string{"en", "fr", "de"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	if language.NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
