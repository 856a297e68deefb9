package registry

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/defistate/ammcore-go/pool"
)

// System provides a concurrency-safe layer for managing pools. Operations on
// the same pool are mutually exclusive (each pool carries its own mutex);
// operations on different pools proceed in parallel. Reads go through an
// atomic.Pointer snapshot and never block writers.
//
// This is the "enclosing execution context" the pool package requires: a Pool
// is only ever touched inside Update, under its own lock.
type System struct {
	mu       sync.RWMutex
	registry *Registry
	locks    map[uint64]*sync.Mutex

	// cachedView maps pool ID to its latest committed snapshot. Refreshed
	// after every successful update; read lock-free.
	cachedView atomic.Pointer[map[uint64]pool.View]
}

// NewSystem creates and initializes a new, concurrency-safe System.
func NewSystem() *System {
	s := &System{
		registry: New(),
		locks:    make(map[uint64]*sync.Mutex),
	}
	// Initialize the cache with an empty, non-nil snapshot.
	empty := make(map[uint64]pool.View)
	s.cachedView.Store(&empty)
	return s
}

// CreatePool constructs and registers a new pool, returning its assigned ID.
func (s *System) CreatePool(cfg pool.Config) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.registry.Create(cfg)
	if err != nil {
		return 0, err
	}

	s.locks[p.ID()] = &sync.Mutex{}
	s.storeViewLocked(p.Snapshot())
	return p.ID(), nil
}

// Update runs fn against the pool with the given ID, holding that pool's lock
// for the duration. fn must confine itself to the supplied pool; pool
// operations are atomic, so when fn returns an error the cached snapshot is
// left untouched.
func (s *System) Update(poolID uint64, fn func(*pool.Pool) error) error {
	s.mu.RLock()
	p, ok := s.registry.Get(poolID)
	lock := s.locks[poolID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: id %d", ErrPoolNotFound, poolID)
	}

	lock.Lock()
	defer lock.Unlock()

	if err := fn(p); err != nil {
		return err
	}

	snapshot := p.Snapshot()

	s.mu.Lock()
	s.storeViewLocked(snapshot)
	s.mu.Unlock()
	return nil
}

// storeViewLocked replaces the cached snapshot map with a clone carrying the
// updated entry. Must be called with s.mu held for writing.
func (s *System) storeViewLocked(v pool.View) {
	prev := *s.cachedView.Load()
	next := make(map[uint64]pool.View, len(prev)+1)
	for id, view := range prev {
		next[id] = view
	}
	next[v.ID] = v
	s.cachedView.Store(&next)
}

// View returns deep-copied snapshots of every pool, ordered by ID. It never
// blocks on in-flight updates.
func (s *System) View() []pool.View {
	cached := *s.cachedView.Load()

	views := make([]pool.View, 0, len(cached))
	for _, v := range cached {
		views = append(views, v.Clone())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// ViewByID returns a deep-copied snapshot of one pool.
func (s *System) ViewByID(poolID uint64) (pool.View, bool) {
	cached := *s.cachedView.Load()
	v, ok := cached[poolID]
	if !ok {
		return pool.View{}, false
	}
	return v.Clone(), true
}

// Len returns the number of registered pools.
func (s *System) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Len()
}
