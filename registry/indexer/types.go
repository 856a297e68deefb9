package indexer

import "github.com/defistate/ammcore-go/pool"

// IndexedPoolSet defines the methods for accessing indexed pool snapshots.
type IndexedPoolSet interface {
	GetByID(id uint64) (pool.View, bool)
	All() []pool.View
}
