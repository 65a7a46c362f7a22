// Package event provides the persisted calendar-event record and the
// operations the rest of eventsync performs on it.
//
// Records are matched across scrape runs by an identity key: (date, title)
// when both are present, otherwise the raw source text. Merge reconciles a new
// batch against a stored set without overwriting human corrections, and
// ApplyEdit/ToggleDeleted implement the review-side edits using the same key.
package event
