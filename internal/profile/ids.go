package profile

import "slices"

// SortedIDs returns the distinct ids in sorted order. Ids are compared
// case-sensitively.
func SortedIDs(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// SameIDSet reports whether a and b contain exactly the same ids, ignoring
// order and duplicates.
func SameIDSet(a, b []string) bool {
	return slices.Equal(SortedIDs(a), SortedIDs(b))
}

// IsUnion reports whether d was built from constituent profiles.
func (d *Data) IsUnion() bool {
	return len(d.ConstituentIDs) > 0
}
