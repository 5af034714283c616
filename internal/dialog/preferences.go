package dialog

import (
	"sort"
	"strings"

	"dinerd/internal/catalog"
	"dinerd/internal/store"
)

// Preferences accumulates extracted slot values across the conversation.
// A present key means the slot is known; the Any sentinel means the user
// explicitly waived the constraint.
type Preferences map[string]string

// IsAny reports whether a value is the no-constraint sentinel. Historical
// data mixed "Any" and "any"; comparison is case-insensitive and storage
// is canonical "Any".
func IsAny(value string) bool {
	return strings.EqualFold(value, store.AnySentinel)
}

// Clone returns an independent copy, used for feedback snapshots.
func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// MergeKeepExisting copies extracted values for slots not already known.
// This is the conservative policy: a stated preference is never replaced.
func (p Preferences) MergeKeepExisting(extracted map[string]string) {
	for k, v := range extracted {
		if _, ok := p[k]; !ok {
			p[k] = canonical(v)
		}
	}
}

// MergeOverwrite copies every extracted value, replacing known slots.
// Used when preference changes are allowed.
func (p Preferences) MergeOverwrite(extracted map[string]string) {
	for k, v := range extracted {
		p[k] = canonical(v)
	}
}

// ChangedKeys returns the keys whose value differs from (or is absent in)
// the old snapshot, in stable slot order.
func (p Preferences) ChangedKeys(old Preferences) []string {
	var keys []string
	for k, v := range p {
		if ov, ok := old[k]; !ok || ov != v {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return slotRank(keys[i]) < slotRank(keys[j])
	})
	return keys
}

// Missing returns true when the slot has not been filled at all. The Any
// sentinel counts as filled.
func (p Preferences) Missing(slot string) bool {
	_, ok := p[slot]
	return !ok
}

func canonical(v string) string {
	if IsAny(v) {
		return store.AnySentinel
	}
	return v
}

// slotRank fixes the rendering order of feedback clauses.
func slotRank(slot string) int {
	switch slot {
	case catalog.SlotPriceRange:
		return 0
	case catalog.SlotArea:
		return 1
	case catalog.SlotFood:
		return 2
	case catalog.SlotRequirement:
		return 3
	}
	return 4
}
