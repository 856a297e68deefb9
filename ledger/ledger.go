// Package ledger tracks proportional ownership of pooled reserves.
//
// A Ledger is the single source of truth for the total number of issued
// shares: the total is only ever mutated together with a provider position
// inside Mint and Burn, so sum(positions) == Total() holds by construction.
//
// The Ledger is not safe for concurrent use; the owning pool is expected to
// be accessed through a serializing layer (see the registry package).
package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientShares is returned when a burn exceeds the provider's balance.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInvalidShares is returned when a mint or burn amount is nil or not positive.
	ErrInvalidShares = errors.New("share amount must be positive")
	// ErrNotIssued is returned when a proportional mint is computed against an
	// empty ledger, where no ratio exists yet.
	ErrNotIssued = errors.New("no shares issued")
)

// Ledger holds the share positions of every liquidity provider in one pool.
type Ledger struct {
	positions map[common.Address]*big.Int
	total     *big.Int
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		positions: make(map[common.Address]*big.Int),
		total:     new(big.Int),
	}
}

// Total returns a copy of the total issued shares.
func (l *Ledger) Total() *big.Int {
	return new(big.Int).Set(l.total)
}

// SharesOf returns a copy of the provider's share balance, zero if none.
func (l *Ledger) SharesOf(provider common.Address) *big.Int {
	if bal, ok := l.positions[provider]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Providers returns the number of providers holding a non-zero position.
func (l *Ledger) Providers() int {
	return len(l.positions)
}

// Positions returns a deep copy of all provider positions.
func (l *Ledger) Positions() map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(l.positions))
	for provider, bal := range l.positions {
		out[provider] = new(big.Int).Set(bal)
	}
	return out
}

// InitialShares computes the shares minted by the very first deposit:
// floor(sqrt(amountA * amountB)). The geometric mean keeps the initial share
// count independent of which asset is treated as primary.
//
// The computation is read-only; call Mint to commit it.
func InitialShares(amountA, amountB *big.Int) *big.Int {
	product := new(big.Int).Mul(amountA, amountB)
	return product.Sqrt(product)
}

// ProportionalShares computes the shares minted by a subsequent deposit:
// floor(amountA * total / reserveA). Asset A is used consistently; the pool
// has already forced the matching amount of asset B, so either side would
// agree up to rounding. Returns ErrNotIssued when no shares exist yet.
//
// The computation is read-only; call Mint to commit it.
func (l *Ledger) ProportionalShares(amountA, reserveA *big.Int) (*big.Int, error) {
	if l.total.Sign() == 0 {
		return nil, ErrNotIssued
	}
	if reserveA == nil || reserveA.Sign() <= 0 {
		return nil, fmt.Errorf("%w: reserve must be positive", ErrInvalidShares)
	}
	shares := new(big.Int).Mul(amountA, l.total)
	return shares.Div(shares, reserveA), nil
}

// Mint credits shares to the provider and grows the total by the same amount.
func (l *Ledger) Mint(provider common.Address, shares *big.Int) error {
	if shares == nil || shares.Sign() <= 0 {
		return ErrInvalidShares
	}

	bal, ok := l.positions[provider]
	if !ok {
		bal = new(big.Int)
		l.positions[provider] = bal
	}
	bal.Add(bal, shares)
	l.total.Add(l.total, shares)
	return nil
}

// Burn debits shares from the provider and shrinks the total by the same
// amount. A position burned to zero is removed from the ledger.
func (l *Ledger) Burn(provider common.Address, shares *big.Int) error {
	if shares == nil || shares.Sign() <= 0 {
		return ErrInvalidShares
	}

	bal, ok := l.positions[provider]
	if !ok || bal.Cmp(shares) < 0 {
		have := "0"
		if ok {
			have = bal.String()
		}
		return fmt.Errorf("%w: burning %s with balance %s", ErrInsufficientShares, shares, have)
	}

	bal.Sub(bal, shares)
	if bal.Sign() == 0 {
		delete(l.positions, provider)
	}
	l.total.Sub(l.total, shares)
	return nil
}
