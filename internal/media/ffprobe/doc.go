// Package ffprobe shells out to ffprobe to inspect media containers.
//
// The scanner only needs subtitle stream metadata, so Inspect restricts the
// probe to subtitle streams and their language tags. Probe failures are
// reported as errors but callers treat them as "no embedded information
// available" rather than fatal conditions.
package ffprobe
