// Package fetch runs subtitle downloads for scanned videos through a bounded
// worker pool.
//
// Tasks are admitted in scan order. Cancelling the run context stops further
// admissions and interrupts in-flight downloads. A run lock prevents two
// concurrent runs from racing over the same library, and outcomes are written
// to the history store when one is attached.
package fetch
