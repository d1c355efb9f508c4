// Package classify decides whether a file is a video and whether it already
// has acceptable subtitles for a requested language set.
//
// Subtitle presence is established from sidecar files following the
// "<basename>.<lang>.<ext>" convention, falling back to a generic
// "<basename>.<ext>" sidecar, and optionally from embedded tracks reported by
// a probing tool. Classification is read-only; probing is delegated through
// the Prober interface.
package classify
