package gossip

import (
	"context"
	"sync/atomic"

	"github.com/keelchain/keel/events"
	"github.com/keelchain/keel/logx"
	"github.com/keelchain/keel/staking"
)

// InboundBlob is one gossiped unit delivered by the transport layer.
type InboundBlob struct {
	ID      BlobID
	Payload []byte
}

// OutboundBlob is one rebroadcast queued for a target pool's peer.
type OutboundBlob struct {
	Target  string
	Payload []byte
}

// Router consumes the transport's inbound blob stream, suppresses duplicates
// through the dedup cache, and fans new blobs out to stake-ranked targets on
// the outbound sink. It owns the cache: the run loop is the only consumer of
// the inbound channel, and the current stake snapshot is swapped in
// atomically by the staking layer as epochs change.
type Router struct {
	cache  *DedupCache
	dist   atomic.Pointer[staking.Distribution]
	in     <-chan InboundBlob
	out    chan<- OutboundBlob
	bus    *events.EventBus
	fanout int
	cmp    Comparator
}

// NewRouter wires the dedup cache and selector to the transport channels.
// A fanout of 0 rebroadcasts to every ranked pool.
func NewRouter(cache *DedupCache, in <-chan InboundBlob, out chan<- OutboundBlob, bus *events.EventBus, fanout int) *Router {
	return &Router{
		cache:  cache,
		in:     in,
		out:    out,
		bus:    bus,
		fanout: fanout,
		cmp:    CmpPoolStakeByTotal,
	}
}

// SetDistribution publishes a new stake snapshot for target selection.
// Rankings started before the swap keep reading the old snapshot.
func (r *Router) SetDistribution(dist *staking.Distribution) {
	r.dist.Store(dist)
}

// Run services the inbound stream until the context is cancelled.
func (r *Router) Run(ctx context.Context) {
	logx.Info("GOSSIP", "Broadcast router started")
	for {
		select {
		case <-ctx.Done():
			logx.Info("GOSSIP", "Broadcast router stopped: ", ctx.Err())
			return
		case blob, ok := <-r.in:
			if !ok {
				logx.Info("GOSSIP", "Inbound blob stream closed")
				return
			}
			r.handle(ctx, blob)
		}
	}
}

func (r *Router) handle(ctx context.Context, blob InboundBlob) {
	if !r.cache.Observe(blob.ID) {
		// Duplicate gossip is routine, not a fault. Drop without a trace.
		return
	}

	targets := RankPools(r.dist.Load(), r.cmp)
	if r.fanout > 0 && len(targets) > r.fanout {
		targets = targets[:r.fanout]
	}

	for _, target := range targets {
		select {
		case r.out <- OutboundBlob{Target: target, Payload: blob.Payload}:
		case <-ctx.Done():
			return
		}
	}

	if r.bus != nil {
		r.bus.Publish(events.NewBlobAccepted(string(blob.ID), len(targets)))
	}
}
