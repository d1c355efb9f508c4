// Command subrover scans a media library for videos missing subtitles and
// downloads them through subliminal.
package main
