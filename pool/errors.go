package pool

import "errors"

var (
	// ErrAlreadyInitialized is returned when Initialize is called on a pool that
	// already has issued shares.
	ErrAlreadyInitialized = errors.New("pool already initialized")
	// ErrNotInitialized is returned when a deposit or withdrawal is attempted
	// before the first deposit has fixed the pool's ratio.
	ErrNotInitialized = errors.New("pool not initialized")
	// ErrRatioMismatch is returned when the asset B required to preserve the
	// current ratio exceeds the depositor's stated maximum.
	ErrRatioMismatch = errors.New("deposit does not match pool ratio")
	// ErrSlippageExceeded is returned when a swap's caller-supplied bound
	// (minimum output or maximum input) is violated.
	ErrSlippageExceeded = errors.New("slippage bound exceeded")
	// ErrDeadlineExpired is returned when a swap arrives after its deadline.
	ErrDeadlineExpired = errors.New("deadline expired")
	// ErrZeroSharesBurn is returned when a withdrawal would burn shares without
	// returning any reserves (dust withdrawal).
	ErrZeroSharesBurn = errors.New("withdrawal returns no reserves")
	// ErrInsufficientLiquidity is returned when a swap would drain a reserve to
	// zero, or a deposit is too small to mint any shares.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrArithmeticOverflow is returned when a committed balance would exceed
	// the 256-bit width the engine guarantees for reserves and shares.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrInvalidConfig is returned by New for an unusable pool configuration.
	ErrInvalidConfig = errors.New("invalid pool config")
)
