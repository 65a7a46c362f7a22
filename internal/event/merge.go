package event

// Change kinds reported by Merge.
const (
	ChangeAdded     = "added"
	ChangeLink      = "link"
	ChangeConfirmed = "confirmed"
)

// Change represents one modification made by a merge.
type Change struct {
	Kind     string  `json:"kind"`
	Key      Key     `json:"key"`
	OldValue string  `json:"old_value,omitempty"`
	NewValue string  `json:"new_value,omitempty"`
	Record   *Record `json:"-"`
}

// MergeResult contains the merged record set and what changed.
type MergeResult struct {
	Records []*Record
	Changes []*Change
}

// Added returns the records appended by the merge, in batch order.
func (m *MergeResult) Added() []*Record {
	var added []*Record
	for _, c := range m.Changes {
		if c.Kind == ChangeAdded {
			added = append(added, c.Record)
		}
	}
	return added
}

// Count returns how many changes of the given kind were made.
func (m *MergeResult) Count(kind string) int {
	n := 0
	for _, c := range m.Changes {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// Merge reconciles a freshly extracted batch against a venue's persisted records.
//
// Records with an unseen identity key are appended. A record whose key already
// exists only backfills an empty link and marks the existing record confirmed;
// every other field of the existing record is preserved so human corrections
// survive. A text-keyed incoming record also matches an existing record with
// the same text whose title was filled in later.
//
// Neither input slice is modified. Merging the same batch twice yields the
// same records as merging it once.
func Merge(existing, incoming []*Record) *MergeResult {
	result := &MergeResult{
		Records: make([]*Record, 0, len(existing)+len(incoming)),
		Changes: make([]*Change, 0),
	}

	index := make(map[Key]int, len(existing))
	byText := make(map[string]int, len(existing))

	track := func(r *Record) {
		pos := len(result.Records)
		result.Records = append(result.Records, r)
		if _, ok := index[IdentityKey(r)]; !ok {
			index[IdentityKey(r)] = pos
		}
		if _, ok := byText[r.Text]; !ok {
			byText[r.Text] = pos
		}
	}

	for _, r := range existing {
		if r == nil {
			continue
		}
		track(r.Clone())
	}

	for _, in := range incoming {
		if in == nil {
			continue
		}
		key := IdentityKey(in)

		pos, found := index[key]
		if !found && key.IsTextKey() {
			pos, found = byText[key.Text]
		}

		if !found {
			added := in.Clone()
			track(added)
			result.Changes = append(result.Changes, &Change{
				Kind:     ChangeAdded,
				Key:      key,
				NewValue: added.Date,
				Record:   added,
			})
			continue
		}

		current := result.Records[pos]
		if in.Link != "" && current.Link == "" {
			current.Link = in.Link
			result.Changes = append(result.Changes, &Change{
				Kind:     ChangeLink,
				Key:      key,
				NewValue: in.Link,
				Record:   current,
			})
		}
		if !current.Confirmed {
			current.Confirmed = true
			result.Changes = append(result.Changes, &Change{
				Kind:     ChangeConfirmed,
				Key:      key,
				OldValue: "false",
				NewValue: "true",
				Record:   current,
			})
		}
	}

	return result
}
