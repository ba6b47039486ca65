package pooling

import "poolcore/native/pooling/wad"

// RatioPolicy decides how a pool's per-slot reward budget is split between
// claim-token holders and borrowers. Implementations receive the pool's
// current utilization and configured kink point (in basis points) and return
// the lend and borrow shares, each in [0, 1].
type RatioPolicy func(utilization wad.Rate, kinkUtilBps uint64) (lend, borrow wad.Rate, err error)

// HalfSplitPolicy ignores utilization and splits the reward budget evenly
// between the two sides.
func HalfSplitPolicy(wad.Rate, uint64) (wad.Rate, wad.Rate, error) {
	half := wad.RateFromPercent(50)
	return half, half, nil
}
