// Package week provides civil-date helpers and the bucketing used by the weekly board.
//
// A Week always starts on Monday. Bucket is a pure function: each input item lands in
// exactly one bucket, either the day matching its key or Rest (the backlog for tasks,
// the overflow for events).
package week
