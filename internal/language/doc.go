// Package language normalizes subtitle language identifiers.
//
// User configuration, sidecar file names, and ffprobe stream tags disagree on
// code forms: configs usually carry ISO 639-1 ("en"), container metadata often
// carries ISO 639-2 ("eng" or legacy "fre"). This package maps between the two
// and provides display names for CLI output.
package language
