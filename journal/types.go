package journal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Kind names the operation a record describes.
type Kind string

const (
	KindInitialize       Kind = "initialize"
	KindDeposit          Kind = "deposit"
	KindWithdraw         Kind = "withdraw"
	KindSwap             Kind = "swap"
	KindSwapExactOut     Kind = "swap_exact_out"
	KindTreasuryWithdraw Kind = "treasury_withdraw"
)

// Record is the per-operation entry emitted for external indexing. Every
// mutating pool operation produces exactly one record, carrying the amounts
// moved and the reserve and share state that resulted from the commit.
//
// Amount fields not involved in the operation are left nil and omitted from
// the JSON encoding. All big.Int fields are owned by the record; emitters
// must not retain references into live pool state.
type Record struct {
	Kind     Kind           `json:"kind"`
	PoolID   uint64         `json:"poolId"`
	Provider common.Address `json:"provider,omitempty"`

	AmountAIn  *big.Int `json:"amountAIn,omitempty"`
	AmountBIn  *big.Int `json:"amountBIn,omitempty"`
	AmountAOut *big.Int `json:"amountAOut,omitempty"`
	AmountBOut *big.Int `json:"amountBOut,omitempty"`
	Shares     *big.Int `json:"shares,omitempty"`

	FeePaid    *big.Int `json:"feePaid,omitempty"`
	FeeSkimmed *big.Int `json:"feeSkimmed,omitempty"`

	// Resulting state after the commit.
	ReserveA    *big.Int `json:"reserveA,omitempty"`
	ReserveB    *big.Int `json:"reserveB,omitempty"`
	TotalShares *big.Int `json:"totalShares,omitempty"`

	// Timestamp is the Unix nanosecond time the operation committed.
	Timestamp int64 `json:"timestamp"`
}

// Emitter accepts records from pools and the treasury. Implementations must
// not block; emission happens inside the operation's critical section.
type Emitter interface {
	Emit(Record)
}
