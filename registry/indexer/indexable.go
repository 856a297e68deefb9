// Package indexer provides fast, indexed access to pool snapshots for
// read-only consumers. Views are treated as immutable once indexed; quoting
// against them (see pool/calculator) never touches live pool state.
package indexer

import "github.com/defistate/ammcore-go/pool"

// Indexer is a concrete implementation of an IndexedPoolSet factory.
type Indexer struct{}

// New creates a new Indexer.
func New() *Indexer {
	return &Indexer{}
}

// Index creates an indexed pool set from a raw slice of snapshots.
func (i *Indexer) Index(views []pool.View) IndexedPoolSet {
	return NewIndexablePoolSet(views)
}

// IndexablePoolSet provides fast, indexed access to pool snapshot data.
type IndexablePoolSet struct {
	byID map[uint64]pool.View
	all  []pool.View
}

// NewIndexablePoolSet creates a new indexed pool set.
func NewIndexablePoolSet(views []pool.View) *IndexablePoolSet {
	byID := make(map[uint64]pool.View, len(views))

	for _, v := range views {
		byID[v.ID] = v
	}

	return &IndexablePoolSet{
		byID: byID,
		all:  views,
	}
}

// GetByID retrieves a pool snapshot by its unique ID.
func (ips *IndexablePoolSet) GetByID(id uint64) (pool.View, bool) {
	v, ok := ips.byID[id]
	return v, ok
}

// All returns a defensive copy of the slice of all snapshots.
func (ips *IndexablePoolSet) All() []pool.View {
	allCopy := make([]pool.View, len(ips.all))
	copy(allCopy, ips.all)
	return allCopy
}
