// Package subliminal wraps the subliminal command line tool, which downloads
// subtitle files from public providers and writes them next to the video.
package subliminal
