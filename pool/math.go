package pool

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/holiman/uint256"

	"github.com/defistate/ammcore-go/pool/calculator"
)

var (
	basisPointDivisor = big.NewInt(10000)
	one               = big.NewInt(1)
)

// scratch holds reusable big.Int objects for the pool's own ratio and fee
// arithmetic. Instances are managed by the sync.Pool below and are not safe
// for concurrent use by themselves.
type scratch struct {
	product *big.Int
	rem     *big.Int
}

var scratchPool = sync.Pool{
	New: func() any {
		return &scratch{
			product: new(big.Int),
			rem:     new(big.Int),
		}
	},
}

// mulDiv returns floor((a * b) / c).
func mulDiv(a, b, c *big.Int) *big.Int {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)

	s.product.Mul(a, b)
	return new(big.Int).Div(s.product, c)
}

// mulDivRoundingUp returns ceil((a * b) / c).
func mulDivRoundingUp(a, b, c *big.Int) *big.Int {
	s := scratchPool.Get().(*scratch)
	defer scratchPool.Put(s)

	s.product.Mul(a, b)
	dest := new(big.Int).Div(s.product, c)
	if s.rem.Rem(s.product, c).Sign() > 0 {
		dest.Add(dest, one)
	}
	return dest
}

// feeSplit returns the fee withheld from amountIn and the portion of that fee
// diverted to the treasury under the pool's policy. Both are floored so the
// skim never exceeds what the fee actually withheld.
func (p *Pool) feeSplit(amountIn *big.Int) (feeAmount, skim *big.Int) {
	feeAmount = mulDiv(amountIn, big.NewInt(int64(p.feeBps)), basisPointDivisor)
	if p.feePolicy == FeeSkim && feeAmount.Sign() > 0 {
		skim = mulDiv(feeAmount, big.NewInt(int64(p.skimBps)), basisPointDivisor)
	} else {
		skim = new(big.Int)
	}
	return feeAmount, skim
}

// fitsWord reports whether x is representable in 256 bits. Reserves, shares,
// and amounts are guaranteed to stay within this width; the check runs before
// any commit so overflow aborts with no state change.
func fitsWord(x *big.Int) bool {
	_, overflow := uint256.FromBig(x)
	return !overflow
}

// checkAmount validates a caller-supplied amount: non-nil, positive, and
// within the 256-bit width guarantee.
func checkAmount(name string, x *big.Int) error {
	if x == nil {
		return fmt.Errorf("%w: %s", calculator.ErrNilAmount, name)
	}
	if x.Sign() < 0 {
		return fmt.Errorf("%w: %s", calculator.ErrInvalidAmount, name)
	}
	if x.Sign() == 0 {
		return fmt.Errorf("%w: %s", calculator.ErrZeroAmount, name)
	}
	if !fitsWord(x) {
		return fmt.Errorf("%w: %s exceeds 256 bits", ErrArithmeticOverflow, name)
	}
	return nil
}

// checkBound validates an optional caller-supplied bound (minimum output or
// maximum input): nil means unbounded, otherwise it must be non-negative.
func checkBound(name string, x *big.Int) error {
	if x != nil && x.Sign() < 0 {
		return fmt.Errorf("%w: %s", calculator.ErrInvalidAmount, name)
	}
	return nil
}
