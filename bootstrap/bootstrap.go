// Package bootstrap turns a verified block 0 into an initialized chain
// handle, either by starting a fresh chain or by resuming the one already in
// storage.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
	"github.com/keelchain/keel/logx"
	"github.com/keelchain/keel/store"
)

// Mode records which bootstrap path produced the chain handle.
type Mode string

const (
	ModeFresh  Mode = "fresh"
	ModeResume Mode = "resume"
)

// ChainHandle is the initialized storage-backed chain and its current tip.
// Created exactly once per process lifetime; the tip is always a block
// reachable from block 0 in the backing store.
type ChainHandle struct {
	Store store.BlobStore
	Root  block.Hash
	Tip   block.Hash
	Mode  Mode
}

// Load initializes chain state from a verified block 0.
//
// It first attempts the fresh path, writing block 0 as if the chain is new.
// The store reporting block 0 already present is not an error: it switches
// to the resume path, which loads the stored chain rooted at block 0's hash.
// Any other failure is fatal and propagates unchanged. Exactly one of the
// two paths succeeds, so a node can never hold two divergent chain roots for
// the same block 0 hash.
func Load(ctx context.Context, block0 *block.Block, bs store.BlobStore) (*ChainHandle, error) {
	if !block0.IsGenesis() {
		return nil, errors.NewError(errors.ErrCodeInternal, fmt.Sprintf("block %s is not a block 0", block0.HashHex()))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := bs.Connect()
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	err = bs.Put(conn, block0)
	switch {
	case err == nil:
		logx.Info("BOOTSTRAP", "Starting fresh chain from block 0 ", block0.HashHex())
		return &ChainHandle{Store: bs, Root: block0.BlockHash, Tip: block0.BlockHash, Mode: ModeFresh}, nil

	case errors.HasCode(err, errors.ErrCodeAlreadyInitialized):
		return resume(bs, conn, block0)

	default:
		return nil, err
	}
}

func resume(bs store.BlobStore, conn *store.Connection, block0 *block.Block) (*ChainHandle, error) {
	// The stored block 0 must be the one we resolved; the store is content
	// addressed, so reading it back by hash is enough.
	stored, _, err := bs.Get(conn, block0.BlockHash)
	if err != nil {
		return nil, err
	}

	tip, ok, err := bs.Tip()
	if err != nil {
		return nil, err
	}
	if !ok {
		tip = stored.BlockHash
	}

	if err := verifyReachable(bs, conn, tip, stored.BlockHash); err != nil {
		return nil, err
	}

	logx.Info("BOOTSTRAP", "Resuming stored chain from block 0 ", block0.HashHex(), " at tip ", tip.Hex())
	return &ChainHandle{Store: bs, Root: stored.BlockHash, Tip: tip, Mode: ModeResume}, nil
}

// verifyReachable walks parent references from the tip down to the root.
func verifyReachable(bs store.BlobStore, conn *store.Connection, tip, root block.Hash) error {
	cursor := tip
	for {
		if cursor == root {
			return nil
		}
		b, _, err := bs.Get(conn, cursor)
		if err != nil {
			return err
		}
		parent, ok := b.Parent()
		if !ok {
			return errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("tip %s is rooted at %s, not at block 0 %s", tip.Hex(), cursor.Hex(), root.Hex()))
		}
		cursor = parent
	}
}
