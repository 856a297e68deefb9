package pool

import "math/big"

// View is a point-in-time snapshot of one pool, safe to hand to readers and
// external indexers. All big.Int fields are deep copies of the live state.
type View struct {
	ID          uint64    `json:"id"`
	ReserveA    *big.Int  `json:"reserveA"`
	ReserveB    *big.Int  `json:"reserveB"`
	TotalShares *big.Int  `json:"totalShares"`
	FeeBps      uint16    `json:"feeBps"` // i.e 30 for 0.3%
	FeePolicy   FeePolicy `json:"feePolicy"`
}

// Snapshot captures the pool's current state as an independent View.
func (p *Pool) Snapshot() View {
	return View{
		ID:          p.id,
		ReserveA:    new(big.Int).Set(p.reserveA),
		ReserveB:    new(big.Int).Set(p.reserveB),
		TotalShares: p.shares.Total(),
		FeeBps:      p.feeBps,
		FeePolicy:   p.feePolicy,
	}
}

// ReservesFor maps a swap direction onto the view's (input, output) reserves,
// for quoting against a snapshot.
func (v View) ReservesFor(input Asset) (reserveIn, reserveOut *big.Int) {
	if input == AssetA {
		return v.ReserveA, v.ReserveB
	}
	return v.ReserveB, v.ReserveA
}

// Clone returns a View with its own memory for the big.Int fields.
func (v View) Clone() View {
	return deepCopyView(v)
}

// deepCopyView creates a new View with its own memory for pointer types like
// *big.Int. This is essential to prevent a new state from sharing memory with
// the old state.
func deepCopyView(v View) View {
	out := v
	if v.ReserveA != nil {
		out.ReserveA = new(big.Int).Set(v.ReserveA)
	}
	if v.ReserveB != nil {
		out.ReserveB = new(big.Int).Set(v.ReserveB)
	}
	if v.TotalShares != nil {
		out.TotalShares = new(big.Int).Set(v.TotalShares)
	}
	return out
}
