package genesis

import (
	"context"
	"fmt"
	"os"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
	"github.com/keelchain/keel/logx"
	"github.com/keelchain/keel/store"
)

// Fetcher asks peers for the block matching a hash. The collaborator must
// only return a block whose content hashes to the requested value, or fail;
// the resolver still re-checks before accepting.
type Fetcher interface {
	FetchBlock(ctx context.Context, hash block.Hash) (*block.Block, error)
}

// Resolver obtains and authenticates block 0 before any chain state exists.
//
// Loading block 0 is not as trivial as it seems:
//
//  1. the spec carries the block bytes (inline or a local file): read them;
//  2. the spec carries only the block 0 hash:
//     a. check storage in case we already have it;
//     b. otherwise ask the network peers we know about.
//
// The order is fixed and each source is tried at most once. Failures are
// fatal to startup; retrying is an operational concern above this layer.
type Resolver struct {
	store   store.BlobStore
	fetcher Fetcher
}

func NewResolver(bs store.BlobStore, fetcher Fetcher) *Resolver {
	return &Resolver{store: bs, fetcher: fetcher}
}

func (r *Resolver) Resolve(ctx context.Context, spec Spec) (*block.Block, error) {
	switch spec.Kind() {
	case SpecInline:
		logx.Debug("GENESIS", "Parsing block 0 from inline bytes")
		return block.Deserialize(spec.bytes)

	case SpecFile:
		logx.Debug("GENESIS", "Parsing block 0 from file ", spec.path)
		raw, err := os.ReadFile(spec.path)
		if err != nil {
			return nil, errors.NewError(errors.ErrCodeIO, fmt.Sprintf("genesis stage file: read %s: %v", spec.path, err))
		}
		// Local bytes are authoritative: a parse failure is terminal,
		// there is no fallback source to consult.
		return block.Deserialize(raw)

	case SpecByHash:
		return r.resolveByHash(ctx, spec.hash)

	default:
		return nil, errors.NewError(errors.ErrCodeInternal, fmt.Sprintf("unknown genesis spec kind %d", spec.kind))
	}
}

func (r *Resolver) resolveByHash(ctx context.Context, hash block.Hash) (*block.Block, error) {
	present, err := r.store.Exists(hash)
	if err != nil {
		return nil, err
	}

	if present {
		logx.Debug("GENESIS", "Retrieving block 0 from storage with hash ", hash.Hex())
		conn, err := r.store.Connect()
		if err != nil {
			return nil, err
		}
		defer conn.Release()
		// Storage is trusted: whatever was written there was verified
		// at write time, so the hash is not recomputed on this path.
		b, _, err := r.store.Get(conn, hash)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	logx.Debug("GENESIS", "Retrieving block 0 from network with hash ", hash.Hex())
	b, err := r.fetcher.FetchBlock(ctx, hash)
	if err != nil {
		// A fetch timeout and an absent block are indistinguishable
		// here: either way no peer produced the block.
		return nil, errors.NewError(errors.ErrCodeNotFound, fmt.Sprintf("genesis stage network: block %s not available from any peer: %v", hash.Hex(), err))
	}
	if got := b.RecomputeHash(); got != hash || b.BlockHash != hash {
		return nil, errors.NewError(errors.ErrCodeIntegrity, fmt.Sprintf("genesis stage network: fetched block hashes to %s, requested %s", got.Hex(), hash.Hex()))
	}
	return b, nil
}
