package pool

import (
	"fmt"
	"math/big"
	"time"

	"github.com/defistate/ammcore-go/journal"
)

// Asset selects one side of the pair.
type Asset uint8

const (
	AssetA Asset = iota
	AssetB
)

// Other returns the opposite side of the pair.
func (a Asset) Other() Asset {
	if a == AssetA {
		return AssetB
	}
	return AssetA
}

func (a Asset) String() string {
	if a == AssetA {
		return "A"
	}
	return "B"
}

// FeePolicy selects how the embedded trading fee is retained. It is fixed at
// pool construction and immutable thereafter.
type FeePolicy uint8

const (
	// FeeCompound retains the full fee in the reserves: the whole input amount
	// enters the input reserve while the output is priced on the discounted
	// amount, permanently growing the pool's product.
	FeeCompound FeePolicy = iota
	// FeeSkim diverts a configured fraction of the fee to an external treasury
	// instead of compounding it; the remainder still compounds.
	FeeSkim
)

func (p FeePolicy) String() string {
	if p == FeeSkim {
		return "skim"
	}
	return "compound"
}

// FeeCollector receives the skimmed fee portion under the FeeSkim policy.
// Credit must not fail; it is called after the pool state has committed.
type FeeCollector interface {
	Credit(poolID uint64, asset Asset, amount *big.Int)
}

// Config describes one pool instance.
type Config struct {
	ID     uint64
	FeeBps uint16 // trading fee in basis points, e.g. 30 for 0.30%

	FeePolicy FeePolicy
	SkimBps   uint16       // fraction of the fee diverted, in basis points of the fee
	Treasury  FeeCollector // required when FeePolicy is FeeSkim

	// Recorder receives one journal record per mutating operation. Optional.
	Recorder journal.Emitter

	// Clock supplies the current time for deadline checks. Defaults to time.Now.
	Clock func() time.Time
}

// validate checks the configuration for internal consistency.
func (c *Config) validate() error {
	if c.FeeBps >= 10000 {
		return fmt.Errorf("%w: fee %d bps is not below 100%%", ErrInvalidConfig, c.FeeBps)
	}
	switch c.FeePolicy {
	case FeeCompound:
	case FeeSkim:
		if c.SkimBps > 10000 {
			return fmt.Errorf("%w: skim fraction %d bps exceeds 100%%", ErrInvalidConfig, c.SkimBps)
		}
		if c.Treasury == nil {
			return fmt.Errorf("%w: skim policy requires a treasury", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown fee policy %d", ErrInvalidConfig, c.FeePolicy)
	}
	return nil
}
