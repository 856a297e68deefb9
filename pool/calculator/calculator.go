// Package calculator implements the pure constant-product pricing math.
// All functions are stateless and read-only: they never modify their
// arguments and identical inputs always produce identical outputs, so
// they are safe to use for previews against live or snapshot reserves.
//
// Rounding policy is asymmetric and always favors the pool:
// GetAmountOut floors, GetAmountIn ceils.
package calculator

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var (
	// basisPointDivisor is a constant representing 100% in basis points (10000).
	basisPointDivisor = big.NewInt(10000)

	one = big.NewInt(1)

	// ErrNilAmount is returned when a nil pointer is passed for an amount.
	ErrNilAmount = errors.New("nil pointer passed as amount")
	// ErrInvalidAmount is returned when an amount is negative.
	ErrInvalidAmount = errors.New("amount must be non-negative")
	// ErrZeroAmount is returned when a zero amount is passed where a positive one is required.
	ErrZeroAmount = errors.New("amount must be greater than zero")
	// ErrZeroReserve is returned when either reserve of the pair is zero.
	ErrZeroReserve = errors.New("reserve must be greater than zero")
	// ErrInvalidFee is returned when the fee rate is not below 100%.
	ErrInvalidFee = errors.New("fee must be below 10000 basis points")
	// ErrInsufficientLiquidity is returned when an amountOut is requested that is
	// greater than or equal to the available output reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
)

// Calculator holds reusable big.Int objects to avoid memory allocations during calculations.
// Instances of this struct are NOT safe for concurrent use by themselves.
// They are intended to be managed by the sync.Pool below.
type Calculator struct {
	feeMultiplier   *big.Int
	amountInWithFee *big.Int
	numerator       *big.Int
	denominator     *big.Int
	rem             *big.Int
}

// calculatorPool manages a pool of Calculator objects, allowing for safe concurrent
// use and drastically reducing memory allocations.
var calculatorPool = sync.Pool{
	New: func() any {
		return &Calculator{
			feeMultiplier:   new(big.Int),
			amountInWithFee: new(big.Int),
			numerator:       new(big.Int),
			denominator:     new(big.Int),
			rem:             new(big.Int),
		}
	},
}

// GetAmountOut calculates the output amount a swap of amountIn receives against the
// given reserves, with the fee (in basis points) deducted from the input. The result
// is floored, so the pool never pays out more than the continuous-math value.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint16) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountOut(amountIn, reserveIn, reserveOut, feeBps)
}

// GetAmountIn calculates the input amount required for a swap to produce exactly
// amountOut against the given reserves. The result is the ceiling of the algebraic
// inverse of GetAmountOut, so the caller never underpays for the guaranteed output.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, feeBps uint16) (*big.Int, error) {
	calc := calculatorPool.Get().(*Calculator)
	defer calculatorPool.Put(calc)
	return calc.getAmountIn(amountOut, reserveIn, reserveOut, feeBps)
}

// validateQuoteInputs performs the checks shared by both quote directions.
func validateQuoteInputs(amount, reserveIn, reserveOut *big.Int, feeBps uint16) error {
	if amount == nil || reserveIn == nil || reserveOut == nil {
		return ErrNilAmount
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return ErrZeroAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return ErrZeroReserve
	}
	if feeBps >= 10000 {
		return fmt.Errorf("%w: got %d", ErrInvalidFee, feeBps)
	}
	return nil
}

// getAmountOut is the internal calculation method that uses the pre-allocated fields.
//
//	amountOut = floor(amountIn*(10000-feeBps) * reserveOut / (reserveIn*10000 + amountIn*(10000-feeBps)))
func (c *Calculator) getAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint16) (*big.Int, error) {
	if err := validateQuoteInputs(amountIn, reserveIn, reserveOut, feeBps); err != nil {
		return nil, err
	}

	c.feeMultiplier.Sub(basisPointDivisor, big.NewInt(int64(feeBps)))
	c.amountInWithFee.Mul(amountIn, c.feeMultiplier)
	c.numerator.Mul(reserveOut, c.amountInWithFee)
	c.denominator.Mul(reserveIn, basisPointDivisor)
	c.denominator.Add(c.denominator, c.amountInWithFee)

	return new(big.Int).Div(c.numerator, c.denominator), nil
}

// getAmountIn is the internal calculation method for finding the required input
// for a desired output.
//
//	amountIn = ceil(reserveIn * amountOut * 10000 / ((reserveOut - amountOut) * (10000-feeBps)))
func (c *Calculator) getAmountIn(amountOut, reserveIn, reserveOut *big.Int, feeBps uint16) (*big.Int, error) {
	if err := validateQuoteInputs(amountOut, reserveIn, reserveOut, feeBps); err != nil {
		return nil, err
	}

	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: requested amountOut (%s) is >= reserveOut (%s)",
			ErrInsufficientLiquidity, amountOut.String(), reserveOut.String())
	}

	c.numerator.Mul(reserveIn, amountOut)
	c.numerator.Mul(c.numerator, basisPointDivisor)

	c.feeMultiplier.Sub(basisPointDivisor, big.NewInt(int64(feeBps)))
	c.denominator.Sub(reserveOut, amountOut)
	c.denominator.Mul(c.denominator, c.feeMultiplier)

	amountIn := new(big.Int).Div(c.numerator, c.denominator)
	if c.rem.Rem(c.numerator, c.denominator).Sign() > 0 {
		amountIn.Add(amountIn, one)
	}
	return amountIn, nil
}
