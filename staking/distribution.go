package staking

import (
	"github.com/holiman/uint256"
)

// PoolStakeInfo is the per-pool aggregate the gossip layer ranks by.
type PoolStakeInfo struct {
	PoolID     string       `json:"pool_id"`
	TotalStake *uint256.Int `json:"total_stake"`
}

// Distribution is a point-in-time stake snapshot for one epoch. It is
// immutable after construction: readers may share it freely, and a new epoch
// publishes a new Distribution rather than mutating this one.
type Distribution struct {
	epoch uint64
	pools []PoolStakeInfo
}

func NewDistribution(epoch uint64, pools []PoolStakeInfo) *Distribution {
	copied := make([]PoolStakeInfo, len(pools))
	for i, p := range pools {
		copied[i] = PoolStakeInfo{
			PoolID:     p.PoolID,
			TotalStake: new(uint256.Int).Set(p.TotalStake),
		}
	}
	return &Distribution{epoch: epoch, pools: copied}
}

func (d *Distribution) Epoch() uint64 {
	return d.epoch
}

func (d *Distribution) Len() int {
	if d == nil {
		return 0
	}
	return len(d.pools)
}

// Pools returns a copy of the per-pool aggregates, so callers cannot reach
// into the snapshot's backing storage.
func (d *Distribution) Pools() []PoolStakeInfo {
	if d == nil {
		return nil
	}
	out := make([]PoolStakeInfo, len(d.pools))
	for i, p := range d.pools {
		out[i] = PoolStakeInfo{
			PoolID:     p.PoolID,
			TotalStake: new(uint256.Int).Set(p.TotalStake),
		}
	}
	return out
}
