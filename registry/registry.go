// Package registry manages a keyed collection of pools. The Registry type is
// the simple, non-thread-safe core; System wraps it with per-pool
// serialization and lock-free snapshot reads for concurrent callers.
package registry

import (
	"errors"
	"sort"

	"github.com/defistate/ammcore-go/pool"
)

// ErrPoolNotFound is returned when an operation targets an unknown pool ID.
var ErrPoolNotFound = errors.New("pool not found")

// Registry is a simple, non-thread-safe collection of pools keyed by ID.
// IDs are assigned sequentially from 1.
type Registry struct {
	nextID uint64
	pools  map[uint64]*pool.Pool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		nextID: 1,
		pools:  make(map[uint64]*pool.Pool),
	}
}

// Create constructs a new pool from the config, overriding its ID with the
// next sequential one, and stores it.
func (r *Registry) Create(cfg pool.Config) (*pool.Pool, error) {
	cfg.ID = r.nextID

	p, err := pool.New(cfg)
	if err != nil {
		return nil, err
	}

	r.pools[p.ID()] = p
	r.nextID++
	return p, nil
}

// Get retrieves a pool by its unique ID.
func (r *Registry) Get(id uint64) (*pool.Pool, bool) {
	p, ok := r.pools[id]
	return p, ok
}

// Len returns the number of pools.
func (r *Registry) Len() int {
	return len(r.pools)
}

// Views returns snapshots of every pool, ordered by ID.
func (r *Registry) Views() []pool.View {
	views := make([]pool.View, 0, len(r.pools))
	for _, p := range r.pools {
		views = append(views, p.Snapshot())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}
