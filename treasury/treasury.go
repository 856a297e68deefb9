// Package treasury accumulates the skimmed portion of trading fees outside
// the pools. A Book implements pool.FeeCollector; pools credit it after each
// committed swap under the FeeSkim policy, and an external operator withdraws
// through it.
//
// Unlike a Pool, a Book is shared across pools and therefore guards itself
// with a mutex.
package treasury

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/defistate/ammcore-go/journal"
	"github.com/defistate/ammcore-go/pool"
)

// ErrNoBalance is returned when a withdrawal targets an entry with nothing accrued.
var ErrNoBalance = errors.New("no treasury balance")

// entryKey identifies one accrual bucket: one asset of one pool.
type entryKey struct {
	PoolID uint64
	Asset  pool.Asset
}

// Entry is a snapshot of one accrual bucket.
type Entry struct {
	PoolID uint64     `json:"poolId"`
	Asset  pool.Asset `json:"asset"`
	Amount *big.Int   `json:"amount"`
}

// Book holds the accrued skim balances per pool and asset.
type Book struct {
	mu       sync.Mutex
	balances map[entryKey]*big.Int
	recorder journal.Emitter
}

// Option configures the Book.
type Option func(*Book)

// WithRecorder makes the book emit a journal record on every withdrawal.
func WithRecorder(recorder journal.Emitter) Option {
	return func(b *Book) { b.recorder = recorder }
}

// NewBook creates an empty treasury book.
func NewBook(opts ...Option) *Book {
	b := &Book{balances: make(map[entryKey]*big.Int)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Credit adds a skimmed fee amount to the bucket for (poolID, asset).
// It implements pool.FeeCollector and is called by pools after their state
// has committed; amounts are non-negative by construction.
func (b *Book) Credit(poolID uint64, asset pool.Asset, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := entryKey{PoolID: poolID, Asset: asset}
	bal, ok := b.balances[key]
	if !ok {
		bal = new(big.Int)
		b.balances[key] = bal
	}
	bal.Add(bal, amount)
}

// BalanceOf returns a copy of the accrued balance for (poolID, asset).
func (b *Book) BalanceOf(poolID uint64, asset pool.Asset) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bal, ok := b.balances[entryKey{PoolID: poolID, Asset: asset}]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Withdraw removes and returns the entire accrued balance for (poolID, asset).
// It fails with ErrNoBalance when nothing has accrued.
func (b *Book) Withdraw(poolID uint64, asset pool.Asset) (*big.Int, error) {
	b.mu.Lock()
	key := entryKey{PoolID: poolID, Asset: asset}
	bal, ok := b.balances[key]
	if !ok || bal.Sign() == 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: pool %d asset %s", ErrNoBalance, poolID, asset)
	}
	delete(b.balances, key)
	b.mu.Unlock()

	if b.recorder != nil {
		rec := journal.Record{
			Kind:      journal.KindTreasuryWithdraw,
			PoolID:    poolID,
			Timestamp: time.Now().UnixNano(),
		}
		if asset == pool.AssetA {
			rec.AmountAOut = new(big.Int).Set(bal)
		} else {
			rec.AmountBOut = new(big.Int).Set(bal)
		}
		b.recorder.Emit(rec)
	}

	return bal, nil
}

// Entries returns a deep-copied snapshot of every non-zero bucket.
func (b *Book) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]Entry, 0, len(b.balances))
	for key, bal := range b.balances {
		entries = append(entries, Entry{
			PoolID: key.PoolID,
			Asset:  key.Asset,
			Amount: new(big.Int).Set(bal),
		})
	}
	return entries
}
