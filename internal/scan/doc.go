// Package scan walks a media library and collects video files missing
// subtitles in a requested language set.
//
// Traversal is depth-unbounded, deterministic (directory entries are visited
// in name order), guarded against symlink cycles, and never fails the whole
// scan because of an unreadable directory. Library extras folders
// (Featurettes, Trailers, ...) can be excluded and are counted separately.
package scan
