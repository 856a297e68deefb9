package pool

// Patch constructs a new pool-set state by applying a diff to a previous
// state. Every view placed into the result is deep-copied so the new state
// shares no memory with the previous one or with the diff.
func Patch(prevState []View, diff SystemDiff) ([]View, error) {
	newStateMap := make(map[uint64]View, len(prevState))
	for _, v := range prevState {
		newStateMap[v.ID] = deepCopyView(v)
	}

	for _, id := range diff.Deletions {
		delete(newStateMap, id)
	}

	for _, updated := range diff.Updates {
		newStateMap[updated.ID] = deepCopyView(updated)
	}

	for _, added := range diff.Additions {
		newStateMap[added.ID] = deepCopyView(added)
	}

	finalState := make([]View, 0, len(newStateMap))
	for _, v := range newStateMap {
		finalState = append(finalState, v)
	}

	return finalState, nil
}
