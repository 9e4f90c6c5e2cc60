// Package clip models the time window of a source asset selected for export
// and its overlapping timed-text entries. All operations are pure and
// value-returning; windows are never mutated in place.
package clip
