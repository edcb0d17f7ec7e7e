package gossip

import (
	"sort"

	"github.com/keelchain/keel/staking"
)

// Comparator orders two pool stake aggregates; negative means a ranks below
// b. Used with RankPools, which puts the highest-ranked pool first.
type Comparator func(a, b *staking.PoolStakeInfo) int

// CmpPoolStakeByTotal compares pools by total stake.
func CmpPoolStakeByTotal(a, b *staking.PoolStakeInfo) int {
	return a.TotalStake.Cmp(b.TotalStake)
}

// RankPools returns pool ids ordered best-first under the comparator, so the
// default comparator yields highest total stake first. Equal pools fall back
// to lexicographic pool id order, keeping the ranking reproducible across
// restarts and implementations. A nil or empty distribution (an epoch whose
// leadership schedule is unknown) ranks to nothing; the caller falls back to
// a non-stake-based strategy.
func RankPools(dist *staking.Distribution, cmp Comparator) []string {
	if dist.Len() == 0 {
		return nil
	}

	pools := dist.Pools()
	sort.SliceStable(pools, func(i, j int) bool {
		if c := cmp(&pools[i], &pools[j]); c != 0 {
			return c < 0
		}
		return pools[i].PoolID > pools[j].PoolID
	})

	// Ascending sort, then reverse: best pool first.
	ids := make([]string, len(pools))
	for i, p := range pools {
		ids[len(ids)-1-i] = p.PoolID
	}
	return ids
}
