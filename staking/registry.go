package staking

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
)

// Registry manages the stake pools known to this node and publishes
// per-epoch Distribution snapshots for the gossip layer.
type Registry struct {
	mu         sync.RWMutex
	pools      map[string]*uint256.Int
	totalStake *uint256.Int

	// Configuration
	minStake *uint256.Int
	maxPools int

	currentEpoch uint64
}

// NewRegistry creates a stake pool registry
func NewRegistry(minStake *uint256.Int, maxPools int) *Registry {
	return &Registry{
		pools:      make(map[string]*uint256.Int),
		totalStake: uint256.NewInt(0),
		minStake:   new(uint256.Int).Set(minStake),
		maxPools:   maxPools,
	}
}

// RegisterPool registers a new stake pool
func (r *Registry) RegisterPool(poolID string, stake *uint256.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stake.Cmp(r.minStake) < 0 {
		return fmt.Errorf("stake amount %s is below minimum %s", stake.String(), r.minStake.String())
	}
	if len(r.pools) >= r.maxPools {
		return errors.New("maximum number of pools reached")
	}
	if _, exists := r.pools[poolID]; exists {
		return errors.New("pool already registered")
	}

	r.pools[poolID] = new(uint256.Int).Set(stake)
	r.totalStake.Add(r.totalStake, stake)
	return nil
}

// AddStake delegates additional stake to a registered pool
func (r *Registry) AddStake(poolID string, amount *uint256.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.pools[poolID]
	if !exists {
		return errors.New("pool not registered")
	}
	current.Add(current, amount)
	r.totalStake.Add(r.totalStake, amount)
	return nil
}

// TotalStake returns the stake aggregated over all pools
func (r *Registry) TotalStake() *uint256.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return new(uint256.Int).Set(r.totalStake)
}

// AdvanceEpoch moves the registry to the given epoch
func (r *Registry) AdvanceEpoch(epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentEpoch = epoch
}

// Snapshot publishes the current stake distribution as an immutable
// point-in-time snapshot. Pools are listed in pool id order; ranking by
// stake is the selector's job, not the registry's.
func (r *Registry) Snapshot() *Distribution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pools := make([]PoolStakeInfo, 0, len(ids))
	for _, id := range ids {
		pools = append(pools, PoolStakeInfo{PoolID: id, TotalStake: r.pools[id]})
	}
	return NewDistribution(r.currentEpoch, pools)
}
