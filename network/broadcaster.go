package network

import (
	"context"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/keelchain/keel/gossip"
	"github.com/keelchain/keel/logx"
)

const pushTimeout = 3 * time.Second

// Broadcaster drains the router's outbound sink and delivers each blob to
// the peer endpoint backing the target pool. Targets without a known
// endpoint are skipped; resolving pool identities to addresses beyond this
// static map belongs to the topology layer.
type Broadcaster struct {
	addrs map[string]string // pool id -> peer base URL
	out   <-chan gossip.OutboundBlob
}

func NewBroadcaster(addrs map[string]string, out <-chan gossip.OutboundBlob) *Broadcaster {
	return &Broadcaster{addrs: addrs, out: out}
}

// Run delivers outbound blobs until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case blob, ok := <-b.out:
			if !ok {
				return
			}
			addr, known := b.addrs[blob.Target]
			if !known {
				logx.Debug("NETWORK", "No endpoint for pool ", blob.Target, ", skipping rebroadcast")
				continue
			}
			if err := b.push(ctx, addr, blob.Payload); err != nil {
				logx.Warn("NETWORK", "Rebroadcast to ", addr, " failed: ", err)
			}
		}
	}
}

func (b *Broadcaster) push(ctx context.Context, addr string, payload []byte) error {
	rpcCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	ch := jhttp.NewChannel(addr, nil)
	cli := jrpc2.NewClient(ch, nil)
	defer cli.Close()

	var res pushBlobResult
	return cli.CallResult(rpcCtx, MethodPushBlob, pushBlobParams{Payload: payload}, &res)
}
