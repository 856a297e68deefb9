// Package pool implements a two-asset constant-product liquidity pool.
//
// A Pool owns its two reserve balances and a share ledger, prices trades via
// the calculator package, and enforces the caller's slippage and deadline
// bounds before any state commit. Every mutating operation either fully
// applies or fully aborts with a named error and zero side effects: all reads,
// computations, and bound checks happen before the first write.
//
// A Pool is NOT safe for concurrent use. Operations on the same pool must be
// serialized by the caller; the registry package provides a concurrency-safe
// layer that does exactly that while letting distinct pools proceed in
// parallel.
package pool

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defistate/ammcore-go/journal"
	"github.com/defistate/ammcore-go/ledger"
	"github.com/defistate/ammcore-go/pool/calculator"
)

// Pool is the unit of exchange for one asset pair. The zero value is not
// usable; construct with New.
type Pool struct {
	id       uint64
	reserveA *big.Int
	reserveB *big.Int

	feeBps    uint16
	feePolicy FeePolicy
	skimBps   uint16
	treasury  FeeCollector

	shares   *ledger.Ledger
	recorder journal.Emitter
	clock    func() time.Time
}

// New constructs an empty pool from the configuration. The pool starts
// uninitialized: the first deposit (Initialize) fixes its price ratio.
func New(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pool{
		id:        cfg.ID,
		reserveA:  new(big.Int),
		reserveB:  new(big.Int),
		feeBps:    cfg.FeeBps,
		feePolicy: cfg.FeePolicy,
		skimBps:   cfg.SkimBps,
		treasury:  cfg.Treasury,
		shares:    ledger.New(),
		recorder:  cfg.Recorder,
		clock:     clock,
	}, nil
}

// ID returns the pool's identifier.
func (p *Pool) ID() uint64 { return p.id }

// FeeBps returns the pool's immutable trading fee in basis points.
func (p *Pool) FeeBps() uint16 { return p.feeBps }

// Policy returns the pool's immutable fee accrual policy.
func (p *Pool) Policy() FeePolicy { return p.feePolicy }

// Reserves returns copies of both reserve balances.
func (p *Pool) Reserves() (reserveA, reserveB *big.Int) {
	return new(big.Int).Set(p.reserveA), new(big.Int).Set(p.reserveB)
}

// TotalShares returns a copy of the total issued ownership shares.
func (p *Pool) TotalShares() *big.Int { return p.shares.Total() }

// SharesOf returns a copy of one provider's share balance.
func (p *Pool) SharesOf(provider common.Address) *big.Int { return p.shares.SharesOf(provider) }

// Positions returns a deep copy of every provider's share balance.
func (p *Pool) Positions() map[common.Address]*big.Int { return p.shares.Positions() }

// reservesFor maps the swap direction onto (input, output) reserve pointers.
// The returned values alias pool state and must not escape.
func (p *Pool) reservesFor(input Asset) (reserveIn, reserveOut *big.Int) {
	if input == AssetA {
		return p.reserveA, p.reserveB
	}
	return p.reserveB, p.reserveA
}

// Initialize performs the pool's first deposit. It accepts any positive ratio:
// the depositor fixes the initial price, since no ratio exists yet to validate
// against. Shares minted are the geometric mean floor(sqrt(amountA*amountB)).
//
// A pool that was fully withdrawn returns to the empty state and may be
// re-initialized, re-fixing the ratio.
func (p *Pool) Initialize(provider common.Address, amountA, amountB *big.Int) (*big.Int, error) {
	if err := checkAmount("amountA", amountA); err != nil {
		return nil, err
	}
	if err := checkAmount("amountB", amountB); err != nil {
		return nil, err
	}
	if p.shares.Total().Sign() != 0 {
		return nil, ErrAlreadyInitialized
	}

	minted := ledger.InitialShares(amountA, amountB)

	// Commit. Mint cannot fail for a positive amount.
	if err := p.shares.Mint(provider, minted); err != nil {
		return nil, err
	}
	p.reserveA.Set(amountA)
	p.reserveB.Set(amountB)

	p.emit(journal.Record{
		Kind:      journal.KindInitialize,
		Provider:  provider,
		AmountAIn: new(big.Int).Set(amountA),
		AmountBIn: new(big.Int).Set(amountB),
		Shares:    new(big.Int).Set(minted),
	})

	return minted, nil
}

// Deposit adds liquidity at the pool's current ratio. The exact asset B amount
// is derived from amountADesired as ceil(amountADesired * reserveB / reserveA);
// if that exceeds amountBMax (nil means unbounded) the deposit fails with
// ErrRatioMismatch, protecting the depositor from unintentionally donating to
// the pool. Returns the minted shares and the asset B amount actually taken.
func (p *Pool) Deposit(provider common.Address, amountADesired, amountBMax *big.Int) (minted, amountB *big.Int, err error) {
	if err := checkAmount("amountADesired", amountADesired); err != nil {
		return nil, nil, err
	}
	if err := checkBound("amountBMax", amountBMax); err != nil {
		return nil, nil, err
	}
	if p.shares.Total().Sign() == 0 {
		return nil, nil, ErrNotInitialized
	}

	// Rounding up the required B favors the pool, never the depositor.
	amountB = mulDivRoundingUp(amountADesired, p.reserveB, p.reserveA)
	if amountBMax != nil && amountB.Cmp(amountBMax) > 0 {
		return nil, nil, fmt.Errorf("%w: requires %s of asset B, max %s",
			ErrRatioMismatch, amountB, amountBMax)
	}

	minted, err = p.shares.ProportionalShares(amountADesired, p.reserveA)
	if err != nil {
		return nil, nil, err
	}
	if minted.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: deposit too small to mint shares", ErrInsufficientLiquidity)
	}

	newReserveA := new(big.Int).Add(p.reserveA, amountADesired)
	newReserveB := new(big.Int).Add(p.reserveB, amountB)
	newTotal := new(big.Int).Add(p.shares.Total(), minted)
	if !fitsWord(newReserveA) || !fitsWord(newReserveB) || !fitsWord(newTotal) {
		return nil, nil, fmt.Errorf("%w: deposit exceeds reserve width", ErrArithmeticOverflow)
	}

	// Commit.
	if err := p.shares.Mint(provider, minted); err != nil {
		return nil, nil, err
	}
	p.reserveA.Set(newReserveA)
	p.reserveB.Set(newReserveB)

	p.emit(journal.Record{
		Kind:      journal.KindDeposit,
		Provider:  provider,
		AmountAIn: new(big.Int).Set(amountADesired),
		AmountBIn: new(big.Int).Set(amountB),
		Shares:    new(big.Int).Set(minted),
	})

	return minted, amountB, nil
}

// Withdraw burns shareAmount of the provider's shares and returns the
// proportional slice of both reserves, floored. A withdrawal whose computed
// amounts would both be zero fails with ErrZeroSharesBurn. Withdrawing the
// entire share supply returns the pool to its empty state.
func (p *Pool) Withdraw(provider common.Address, shareAmount *big.Int) (amountA, amountB *big.Int, err error) {
	if err := checkAmount("shareAmount", shareAmount); err != nil {
		return nil, nil, err
	}
	total := p.shares.Total()
	if total.Sign() == 0 {
		return nil, nil, ErrNotInitialized
	}
	if p.shares.SharesOf(provider).Cmp(shareAmount) < 0 {
		return nil, nil, fmt.Errorf("%w: provider holds %s, burning %s",
			ledger.ErrInsufficientShares, p.shares.SharesOf(provider), shareAmount)
	}

	// Flooring both payouts favors the pool; the dust stays in the reserves.
	amountA = mulDiv(shareAmount, p.reserveA, total)
	amountB = mulDiv(shareAmount, p.reserveB, total)
	if amountA.Sign() == 0 && amountB.Sign() == 0 {
		return nil, nil, ErrZeroSharesBurn
	}

	// Commit. The burn cannot fail after the balance check above.
	if err := p.shares.Burn(provider, shareAmount); err != nil {
		return nil, nil, err
	}
	p.reserveA.Sub(p.reserveA, amountA)
	p.reserveB.Sub(p.reserveB, amountB)

	p.emit(journal.Record{
		Kind:       journal.KindWithdraw,
		Provider:   provider,
		AmountAOut: new(big.Int).Set(amountA),
		AmountBOut: new(big.Int).Set(amountB),
		Shares:     new(big.Int).Set(shareAmount),
	})

	return amountA, amountB, nil
}

// Swap exchanges an exact input amount for as much output as the invariant
// allows. minOutput (nil means unbounded) is the caller's slippage floor:
// if the computed output falls below it, the swap aborts with no state change.
// The deadline is checked first; a zero deadline means no deadline.
func (p *Pool) Swap(input Asset, inputAmount, minOutput *big.Int, deadline time.Time) (*big.Int, error) {
	if err := p.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := checkAmount("inputAmount", inputAmount); err != nil {
		return nil, err
	}
	if err := checkBound("minOutput", minOutput); err != nil {
		return nil, err
	}

	reserveIn, reserveOut := p.reservesFor(input)
	outputAmount, err := calculator.GetAmountOut(inputAmount, reserveIn, reserveOut, p.feeBps)
	if err != nil {
		return nil, err
	}

	if minOutput != nil && outputAmount.Cmp(minOutput) < 0 {
		return nil, fmt.Errorf("%w: output %s below minimum %s",
			ErrSlippageExceeded, outputAmount, minOutput)
	}

	if err := p.commitSwap(input, inputAmount, outputAmount, journal.KindSwap); err != nil {
		return nil, err
	}
	return outputAmount, nil
}

// SwapExactOut exchanges as little input as the invariant allows for an exact
// output amount, rounding the required input up. maxInput (nil means
// unbounded) is the caller's slippage ceiling: if the required input exceeds
// it, the swap aborts with no state change.
func (p *Pool) SwapExactOut(output Asset, outputAmount, maxInput *big.Int, deadline time.Time) (*big.Int, error) {
	if err := p.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if err := checkAmount("outputAmount", outputAmount); err != nil {
		return nil, err
	}
	if err := checkBound("maxInput", maxInput); err != nil {
		return nil, err
	}

	input := output.Other()
	reserveIn, reserveOut := p.reservesFor(input)
	inputAmount, err := calculator.GetAmountIn(outputAmount, reserveIn, reserveOut, p.feeBps)
	if err != nil {
		return nil, err
	}

	if maxInput != nil && inputAmount.Cmp(maxInput) > 0 {
		return nil, fmt.Errorf("%w: requires input %s above maximum %s",
			ErrSlippageExceeded, inputAmount, maxInput)
	}

	if err := p.commitSwap(input, inputAmount, outputAmount, journal.KindSwapExactOut); err != nil {
		return nil, err
	}
	return inputAmount, nil
}

// commitSwap performs the shared tail of both swap directions: the drain
// guard, the fee split, the width guard, and the state commit. No pool state
// is touched until every check has passed.
func (p *Pool) commitSwap(input Asset, inputAmount, outputAmount *big.Int, kind journal.Kind) error {
	reserveIn, reserveOut := p.reservesFor(input)

	// A swap may never drain a reserve to zero.
	if outputAmount.Cmp(reserveOut) >= 0 {
		return fmt.Errorf("%w: output %s would drain reserve %s",
			ErrInsufficientLiquidity, outputAmount, reserveOut)
	}

	feeAmount, skim := p.feeSplit(inputAmount)

	// The skimmed portion is subtracted from what compounds, never added on
	// top, so the product still never decreases across the commit.
	reserveInGain := new(big.Int).Sub(inputAmount, skim)
	newReserveIn := new(big.Int).Add(reserveIn, reserveInGain)
	if !fitsWord(newReserveIn) {
		return fmt.Errorf("%w: swap exceeds reserve width", ErrArithmeticOverflow)
	}

	// Commit.
	reserveIn.Set(newReserveIn)
	reserveOut.Sub(reserveOut, outputAmount)

	if skim.Sign() > 0 {
		p.treasury.Credit(p.id, input, new(big.Int).Set(skim))
	}

	rec := journal.Record{
		Kind:    kind,
		FeePaid: feeAmount,
	}
	if skim.Sign() > 0 {
		rec.FeeSkimmed = skim
	}
	if input == AssetA {
		rec.AmountAIn = new(big.Int).Set(inputAmount)
		rec.AmountBOut = new(big.Int).Set(outputAmount)
	} else {
		rec.AmountBIn = new(big.Int).Set(inputAmount)
		rec.AmountAOut = new(big.Int).Set(outputAmount)
	}
	p.emit(rec)

	return nil
}

// QuoteOutput previews Swap: the output received for an exact input at the
// current reserves. Read-only and idempotent.
func (p *Pool) QuoteOutput(input Asset, inputAmount *big.Int) (*big.Int, error) {
	reserveIn, reserveOut := p.reservesFor(input)
	return calculator.GetAmountOut(inputAmount, reserveIn, reserveOut, p.feeBps)
}

// QuoteInput previews SwapExactOut: the input required for an exact output at
// the current reserves. Read-only and idempotent.
func (p *Pool) QuoteInput(output Asset, outputAmount *big.Int) (*big.Int, error) {
	reserveIn, reserveOut := p.reservesFor(output.Other())
	return calculator.GetAmountIn(outputAmount, reserveIn, reserveOut, p.feeBps)
}

// checkDeadline fails fast when the operation arrives past its deadline.
// A zero deadline means the caller imposed none.
func (p *Pool) checkDeadline(deadline time.Time) error {
	if !deadline.IsZero() && p.clock().After(deadline) {
		return fmt.Errorf("%w: deadline %s", ErrDeadlineExpired, deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

// emit fills the record's pool identity and resulting state and forwards it
// to the recorder, if one is configured.
func (p *Pool) emit(rec journal.Record) {
	if p.recorder == nil {
		return
	}
	rec.PoolID = p.id
	rec.ReserveA = new(big.Int).Set(p.reserveA)
	rec.ReserveB = new(big.Int).Set(p.reserveB)
	rec.TotalShares = p.shares.Total()
	rec.Timestamp = p.clock().UnixNano()
	p.recorder.Emit(rec)
}
