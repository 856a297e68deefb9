package pool

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defistate/ammcore-go/journal"
	"github.com/defistate/ammcore-go/ledger"
	"github.com/defistate/ammcore-go/pool/calculator"
)

var (
	alice = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob   = common.HexToAddress("0xb0b0000000000000000000000000000000000002")

	// A fixed clock keeps deadline behavior deterministic.
	testNow = time.Unix(1_700_000_000, 0)
)

// captureEmitter records every journal record it receives.
type captureEmitter struct {
	records []journal.Record
}

func (c *captureEmitter) Emit(rec journal.Record) {
	c.records = append(c.records, rec)
}

// captureCollector records treasury credits.
type captureCollector struct {
	poolIDs []uint64
	assets  []Asset
	amounts []*big.Int
}

func (c *captureCollector) Credit(poolID uint64, asset Asset, amount *big.Int) {
	c.poolIDs = append(c.poolIDs, poolID)
	c.assets = append(c.assets, asset)
	c.amounts = append(c.amounts, amount)
}

func newTestPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return testNow }
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

// product returns reserveA * reserveB.
func product(p *Pool) *big.Int {
	a, b := p.Reserves()
	return a.Mul(a, b)
}

// requireState asserts the pool's reserves and total shares in one shot.
func requireState(t *testing.T, p *Pool, reserveA, reserveB, totalShares int64) {
	t.Helper()
	a, b := p.Reserves()
	require.Zero(t, big.NewInt(reserveA).Cmp(a), "reserveA: expected %d, got %s", reserveA, a)
	require.Zero(t, big.NewInt(reserveB).Cmp(b), "reserveB: expected %d, got %s", reserveB, b)
	require.Zero(t, big.NewInt(totalShares).Cmp(p.TotalShares()), "totalShares: expected %d, got %s", totalShares, p.TotalShares())
}

func TestConfigValidation(t *testing.T) {
	_, err := New(Config{FeeBps: 10000})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(Config{FeeBps: 30, FeePolicy: FeeSkim})
	assert.ErrorIs(t, err, ErrInvalidConfig, "skim policy without a treasury")

	_, err = New(Config{FeeBps: 30, FeePolicy: FeeSkim, SkimBps: 10001, Treasury: &captureCollector{}})
	assert.ErrorIs(t, err, ErrInvalidConfig, "skim fraction above 100%")

	_, err = New(Config{FeeBps: 30, FeePolicy: FeePolicy(9)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestInitialize(t *testing.T) {
	p := newTestPool(t, Config{ID: 1, FeeBps: 30})

	minted, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	// floor(sqrt(1000 * 2000)) = floor(sqrt(2_000_000)) = 1414
	assert.Zero(t, big.NewInt(1414).Cmp(minted))
	requireState(t, p, 1000, 2000, 1414)
	assert.Zero(t, big.NewInt(1414).Cmp(p.SharesOf(alice)))

	_, err = p.Initialize(alice, big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeValidation(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})

	_, err := p.Initialize(alice, big.NewInt(0), big.NewInt(2000))
	assert.ErrorIs(t, err, calculator.ErrZeroAmount)

	_, err = p.Initialize(alice, big.NewInt(1000), big.NewInt(0))
	assert.ErrorIs(t, err, calculator.ErrZeroAmount)

	_, err = p.Initialize(alice, nil, big.NewInt(2000))
	assert.ErrorIs(t, err, calculator.ErrNilAmount)

	_, err = p.Initialize(alice, big.NewInt(-1), big.NewInt(2000))
	assert.ErrorIs(t, err, calculator.ErrInvalidAmount)

	tooWide := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = p.Initialize(alice, tooWide, big.NewInt(2000))
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	// Nothing committed.
	requireState(t, p, 0, 0, 0)
}

func TestDeposit(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	// required B = ceil(100 * 2000 / 1000) = 200
	// minted     = floor(100 * 1414 / 1000) = 141
	minted, amountB, err := p.Deposit(bob, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(141).Cmp(minted))
	assert.Zero(t, big.NewInt(200).Cmp(amountB))
	requireState(t, p, 1100, 2200, 1555)
	assert.Zero(t, big.NewInt(141).Cmp(p.SharesOf(bob)))

	// A nil maximum means the depositor accepts whatever B the ratio requires.
	_, amountB, err = p.Deposit(bob, big.NewInt(50), nil)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(100).Cmp(amountB))
}

func TestDepositRatioMismatch(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	// Move the ratio with a swap: reserves become (1100, 1819).
	_, err = p.Swap(AssetA, big.NewInt(100), nil, time.Time{})
	require.NoError(t, err)
	requireState(t, p, 1100, 1819, 1414)

	// required B = ceil(100 * 1819 / 1100) = 166 > 150
	_, _, err = p.Deposit(bob, big.NewInt(100), big.NewInt(150))
	assert.ErrorIs(t, err, ErrRatioMismatch)

	// Failure leaves the pool untouched.
	requireState(t, p, 1100, 1819, 1414)
	assert.Zero(t, p.SharesOf(bob).Sign())
}

func TestDepositEdgeCases(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})

	_, _, err := p.Deposit(bob, big.NewInt(100), nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = p.Initialize(alice, big.NewInt(1_000_000), big.NewInt(1))
	require.NoError(t, err)

	// floor(999 * 1000 / 1_000_000) = 0 shares: a donation, not a deposit.
	_, _, err = p.Deposit(bob, big.NewInt(999), nil)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, _, err = p.Deposit(bob, big.NewInt(0), nil)
	assert.ErrorIs(t, err, calculator.ErrZeroAmount)

	_, _, err = p.Deposit(bob, big.NewInt(100), big.NewInt(-1))
	assert.ErrorIs(t, err, calculator.ErrInvalidAmount)

	requireState(t, p, 1_000_000, 1, 1000)
}

func TestWithdrawRoundTrip(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	minted, _, err := p.Deposit(bob, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	// Withdrawing the freshly minted shares returns at most the deposit and
	// at least the deposit minus one unit of rounding dust per asset.
	amountA, amountB, err := p.Withdraw(bob, minted)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(99).Cmp(amountA))
	assert.Zero(t, big.NewInt(199).Cmp(amountB))

	// The dust stays in the pool, never with the departing provider.
	requireState(t, p, 1001, 2001, 1414)
	assert.Zero(t, p.SharesOf(bob).Sign())
}

func TestWithdrawAllEmptiesPool(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	amountA, amountB, err := p.Withdraw(alice, big.NewInt(1414))
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1000).Cmp(amountA))
	assert.Zero(t, big.NewInt(2000).Cmp(amountB))

	// totalShares == 0 if and only if both reserves are zero.
	requireState(t, p, 0, 0, 0)

	// The empty pool accepts a fresh initialization at a new ratio.
	minted, err := p.Initialize(bob, big.NewInt(900), big.NewInt(100))
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(300).Cmp(minted))
	requireState(t, p, 900, 100, 300)
}

func TestWithdrawValidation(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})

	_, _, err := p.Withdraw(alice, big.NewInt(1))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	_, _, err = p.Withdraw(alice, big.NewInt(1415))
	assert.ErrorIs(t, err, ledger.ErrInsufficientShares)

	_, _, err = p.Withdraw(bob, big.NewInt(1))
	assert.ErrorIs(t, err, ledger.ErrInsufficientShares)

	_, _, err = p.Withdraw(alice, big.NewInt(0))
	assert.ErrorIs(t, err, calculator.ErrZeroAmount)

	requireState(t, p, 1000, 2000, 1414)
}

func TestSwap(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	before := product(p)

	// effectiveInput = 100 * 9970 = 997000
	// output = floor(997000 * 2000 / (1000*10000 + 997000)) = 181
	out, err := p.Swap(AssetA, big.NewInt(100), big.NewInt(181), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(181).Cmp(out))
	requireState(t, p, 1100, 1819, 1414)

	// 1100 * 1819 = 2_000_900 >= 2_000_000: the fee grows the product.
	assert.GreaterOrEqual(t, product(p).Cmp(before), 0)
}

func TestSwapSlippageRejected(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	_, err = p.Swap(AssetA, big.NewInt(100), big.NewInt(200), time.Time{})
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// No state change on abort.
	requireState(t, p, 1000, 2000, 1414)
}

func TestSwapDeadline(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	_, err = p.Swap(AssetA, big.NewInt(100), nil, testNow.Add(-time.Second))
	assert.ErrorIs(t, err, ErrDeadlineExpired)
	requireState(t, p, 1000, 2000, 1414)

	// A deadline equal to the current time is still valid.
	_, err = p.Swap(AssetA, big.NewInt(100), nil, testNow)
	assert.NoError(t, err)

	// The zero time means the caller imposed no deadline.
	_, err = p.Swap(AssetB, big.NewInt(100), nil, time.Time{})
	assert.NoError(t, err)
}

func TestSwapValidation(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})

	// Swapping against an empty pool has no price.
	_, err := p.Swap(AssetA, big.NewInt(100), nil, time.Time{})
	assert.ErrorIs(t, err, calculator.ErrZeroReserve)

	_, err = p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	_, err = p.Swap(AssetA, big.NewInt(0), nil, time.Time{})
	assert.ErrorIs(t, err, calculator.ErrZeroAmount)

	_, err = p.Swap(AssetA, nil, nil, time.Time{})
	assert.ErrorIs(t, err, calculator.ErrNilAmount)

	_, err = p.Swap(AssetA, big.NewInt(100), big.NewInt(-1), time.Time{})
	assert.ErrorIs(t, err, calculator.ErrInvalidAmount)

	requireState(t, p, 1000, 2000, 1414)
}

func TestSwapOverflowGuard(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})

	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	_, err := p.Initialize(alice, huge, big.NewInt(4))
	require.NoError(t, err)

	// Doubling the near-maximal reserve would exceed 256 bits.
	_, err = p.Swap(AssetA, huge, nil, time.Time{})
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	a, b := p.Reserves()
	assert.Zero(t, huge.Cmp(a))
	assert.Zero(t, big.NewInt(4).Cmp(b))
}

func TestSwapExactOut(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	// required input = ceil(1000 * 1000 * 10000 / (1000 * 9970)) = 1004
	in, err := p.SwapExactOut(AssetB, big.NewInt(1000), big.NewInt(1004), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(1004).Cmp(in))
	requireState(t, p, 2004, 1000, 1414)
}

func TestSwapExactOutSlippageRejected(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	_, err = p.SwapExactOut(AssetB, big.NewInt(1000), big.NewInt(1003), time.Time{})
	assert.ErrorIs(t, err, ErrSlippageExceeded)
	requireState(t, p, 1000, 2000, 1414)
}

func TestSwapExactOutDrainRejected(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	// Consuming the whole output reserve is never allowed.
	_, err = p.SwapExactOut(AssetB, big.NewInt(2000), nil, time.Time{})
	assert.ErrorIs(t, err, calculator.ErrInsufficientLiquidity)
	requireState(t, p, 1000, 2000, 1414)

	// One unit short of draining is legal and leaves the reserve at 1.
	_, err = p.SwapExactOut(AssetB, big.NewInt(1999), nil, time.Time{})
	require.NoError(t, err)
	_, b := p.Reserves()
	assert.Zero(t, big.NewInt(1).Cmp(b))
}

func TestProductNeverDecreasesAcrossSwaps(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1_000_000), big.NewInt(3_000_000))
	require.NoError(t, err)

	prev := product(p)
	for i := int64(1); i <= 50; i++ {
		asset := AssetA
		if i%2 == 0 {
			asset = AssetB
		}
		_, err := p.Swap(asset, big.NewInt(i*137), nil, time.Time{})
		require.NoError(t, err)

		cur := product(p)
		require.GreaterOrEqual(t, cur.Cmp(prev), 0, "product decreased on swap %d", i)
		prev = cur
	}
}

func TestFeeSkim(t *testing.T) {
	collector := &captureCollector{}
	p := newTestPool(t, Config{
		ID:        9,
		FeeBps:    30,
		FeePolicy: FeeSkim,
		SkimBps:   5000, // half the fee goes to the treasury
		Treasury:  collector,
	})
	_, err := p.Initialize(alice, big.NewInt(100_000), big.NewInt(200_000))
	require.NoError(t, err)

	before := product(p)

	// fee  = floor(10000 * 30 / 10000) = 30
	// skim = floor(30 * 5000 / 10000)  = 15
	out, err := p.Swap(AssetA, big.NewInt(10_000), nil, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(18_132).Cmp(out))

	// The skim is subtracted from what compounds, never added on top.
	requireState(t, p, 109_985, 181_868, 141_421)

	require.Len(t, collector.amounts, 1)
	assert.Equal(t, uint64(9), collector.poolIDs[0])
	assert.Equal(t, AssetA, collector.assets[0])
	assert.Zero(t, big.NewInt(15).Cmp(collector.amounts[0]))

	// Even with the skim removed the product must not decrease.
	assert.GreaterOrEqual(t, product(p).Cmp(before), 0)
}

func TestFeeCompoundNeverCredits(t *testing.T) {
	collector := &captureCollector{}
	p := newTestPool(t, Config{FeeBps: 30, FeePolicy: FeeCompound, Treasury: collector})
	_, err := p.Initialize(alice, big.NewInt(100_000), big.NewInt(200_000))
	require.NoError(t, err)

	_, err = p.Swap(AssetA, big.NewInt(10_000), nil, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, collector.amounts)
}

func TestQuotesDoNotMutate(t *testing.T) {
	p := newTestPool(t, Config{FeeBps: 30})
	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)

	out1, err := p.QuoteOutput(AssetA, big.NewInt(100))
	require.NoError(t, err)
	out2, err := p.QuoteOutput(AssetA, big.NewInt(100))
	require.NoError(t, err)
	assert.Zero(t, out1.Cmp(out2))
	assert.Zero(t, big.NewInt(181).Cmp(out1))

	in1, err := p.QuoteInput(AssetB, big.NewInt(181))
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(100).Cmp(in1))

	requireState(t, p, 1000, 2000, 1414)
}

func TestRecorderReceivesEveryMutation(t *testing.T) {
	emitter := &captureEmitter{}
	p := newTestPool(t, Config{ID: 3, FeeBps: 30, Recorder: emitter})

	_, err := p.Initialize(alice, big.NewInt(1000), big.NewInt(2000))
	require.NoError(t, err)
	_, _, err = p.Deposit(bob, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)
	_, err = p.Swap(AssetA, big.NewInt(100), nil, time.Time{})
	require.NoError(t, err)
	_, _, err = p.Withdraw(bob, big.NewInt(141))
	require.NoError(t, err)

	// A rejected operation emits nothing.
	_, err = p.Swap(AssetA, big.NewInt(100), big.NewInt(1_000_000), time.Time{})
	require.Error(t, err)

	require.Len(t, emitter.records, 4)

	init := emitter.records[0]
	assert.Equal(t, journal.KindInitialize, init.Kind)
	assert.Equal(t, uint64(3), init.PoolID)
	assert.Equal(t, alice, init.Provider)
	assert.Zero(t, big.NewInt(1414).Cmp(init.Shares))
	assert.Zero(t, big.NewInt(1000).Cmp(init.ReserveA))
	assert.Equal(t, testNow.UnixNano(), init.Timestamp)

	swap := emitter.records[2]
	assert.Equal(t, journal.KindSwap, swap.Kind)
	assert.Zero(t, big.NewInt(100).Cmp(swap.AmountAIn))
	assert.NotNil(t, swap.AmountBOut)
	assert.Nil(t, swap.AmountAOut)
	assert.Zero(t, big.NewInt(0).Cmp(swap.FeePaid))

	withdraw := emitter.records[3]
	assert.Equal(t, journal.KindWithdraw, withdraw.Kind)
	assert.Equal(t, bob, withdraw.Provider)
	assert.Zero(t, big.NewInt(141).Cmp(withdraw.Shares))
}
