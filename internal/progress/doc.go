// Package progress maintains mutation-safe counters for a fetch run.
//
// A Tracker is updated concurrently by scheduler workers and read by the
// status renderer. Readers only ever see Snapshot values, so no caller can
// observe a half-applied state transition.
package progress
