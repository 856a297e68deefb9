package pool

// SystemDiff summarizes the changes between two snapshots of a pool set.
type SystemDiff struct {
	Additions []View   `json:"additions,omitempty"`
	Updates   []View   `json:"updates,omitempty"`
	Deletions []uint64 `json:"deletions,omitempty"`
}

// IsEmpty returns true if the diff contains no changes.
func (d SystemDiff) IsEmpty() bool {
	return len(d.Additions) == 0 && len(d.Updates) == 0 && len(d.Deletions) == 0
}

// Diff calculates the difference between two states of a pool set. Both
// slices are converted to maps for O(1) lookups; pools present only in new
// are additions, pools present in both with changed reserves or shares are
// updates, and pools present only in old are deletions.
func Diff(old, new []View) SystemDiff {
	oldMap := make(map[uint64]View, len(old))
	for _, v := range old {
		oldMap[v.ID] = v
	}

	newMap := make(map[uint64]View, len(new))
	for _, v := range new {
		newMap[v.ID] = v
	}

	var additions []View
	var updates []View
	var deletions []uint64

	for id, newView := range newMap {
		oldView, exists := oldMap[id]
		if !exists {
			additions = append(additions, newView)
			continue
		}

		// Manual comparison of the fields expected to change; reserves and
		// the share supply move together on deposits and withdrawals, but a
		// swap only moves reserves.
		if oldView.ReserveA.Cmp(newView.ReserveA) != 0 ||
			oldView.ReserveB.Cmp(newView.ReserveB) != 0 ||
			oldView.TotalShares.Cmp(newView.TotalShares) != 0 {
			updates = append(updates, newView)
		}
	}

	for id := range oldMap {
		if _, exists := newMap[id]; !exists {
			deletions = append(deletions, id)
		}
	}

	return SystemDiff{
		Additions: additions,
		Updates:   updates,
		Deletions: deletions,
	}
}
