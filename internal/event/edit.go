package event

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record matches an identity key.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when an edit would give a record the identity
// key of another record in the same store.
var ErrDuplicateKey = errors.New("another record already has this date and title")

// Edit is a manual correction coming from the review side.
// Nil fields are left untouched.
type Edit struct {
	Date             *string
	Title            *string
	BriefDescription *string
	StartTime        *string
	EndTime          *string
	Link             *string
}

// IsEmpty reports whether the edit changes nothing.
func (e Edit) IsEmpty() bool {
	return e.Date == nil && e.Title == nil && e.BriefDescription == nil &&
		e.StartTime == nil && e.EndTime == nil && e.Link == nil
}

// ApplyEdit validates and applies a manual correction, marking the record
// confirmed. The record is left unchanged when the date is malformed.
func ApplyEdit(r *Record, e Edit) error {
	date := r.Date
	if e.Date != nil {
		d, err := ValidateDate(*e.Date)
		if err != nil {
			return err
		}
		date = d
	}
	if e.StartTime != nil && *e.StartTime != "" && !validClock(*e.StartTime) {
		return fmt.Errorf("invalid start time %q: use HH:MM", *e.StartTime)
	}
	if e.EndTime != nil && *e.EndTime != "" && !validClock(*e.EndTime) {
		return fmt.Errorf("invalid end time %q: use HH:MM", *e.EndTime)
	}

	r.Date = date
	if e.Title != nil {
		r.Title = *e.Title
	}
	if e.BriefDescription != nil {
		r.BriefDescription = *e.BriefDescription
	}
	if e.StartTime != nil {
		r.StartTime = *e.StartTime
	}
	if e.EndTime != nil {
		r.EndTime = *e.EndTime
	}
	if e.Link != nil {
		r.Link = *e.Link
	}
	r.Confirmed = true
	return nil
}

// ToggleDeleted flips the soft-delete flag and returns the new value.
func ToggleDeleted(r *Record) bool {
	r.Deleted = !r.Deleted
	return r.Deleted
}

// Find returns the index of the record with the given identity key, or -1.
// Text keys also match records whose title was added after extraction.
func Find(records []*Record, key Key) int {
	for i, r := range records {
		if IdentityKey(r) == key {
			return i
		}
	}
	if key.IsTextKey() {
		for i, r := range records {
			if r.Text == key.Text {
				return i
			}
		}
	}
	return -1
}

func validClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return false
		}
	}
	return h <= 24 && m < 60
}
