package network

import (
	"context"
	"fmt"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
	"github.com/keelchain/keel/logx"
)

const defaultFetchTimeout = 5 * time.Second

// Client fetches blocks from configured peers over JSON-RPC. It only ever
// returns a block whose recomputed content hash equals the requested hash;
// anything else a peer serves is treated as a failed attempt. Peers are
// tried in order, one pass, one attempt each.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	return &Client{cfg: cfg}
}

func (c *Client) FetchBlock(ctx context.Context, hash block.Hash) (*block.Block, error) {
	for _, peer := range c.cfg.Peers {
		b, err := c.fetchFromPeer(ctx, peer, hash)
		if err != nil {
			logx.Debug("NETWORK", "Fetch ", hash.Hex(), " from ", peer, " failed: ", err)
			continue
		}
		return b, nil
	}
	return nil, errors.NewError(errors.ErrCodeNotFound, fmt.Sprintf("no peer produced block %s", hash.Hex()))
}

func (c *Client) fetchFromPeer(ctx context.Context, peer string, hash block.Hash) (*block.Block, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	ch := jhttp.NewChannel(peer, nil)
	cli := jrpc2.NewClient(ch, nil)
	defer cli.Close()

	var res getBlockResult
	if err := cli.CallResult(rpcCtx, MethodGetBlock, getBlockParams{Hash: hash.Hex()}, &res); err != nil {
		return nil, err
	}

	b, err := block.Deserialize(res.Block)
	if err != nil {
		return nil, err
	}
	if got := b.RecomputeHash(); got != hash || b.BlockHash != hash {
		return nil, errors.NewError(errors.ErrCodeIntegrity, fmt.Sprintf("peer %s served block %s for requested %s", peer, got.Hex(), hash.Hex()))
	}
	return b, nil
}
