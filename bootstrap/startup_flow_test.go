package bootstrap

import (
	"context"
	"testing"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/genesis"
)

// failingFetcher fails the test if the resolver ever reaches the network.
type failingFetcher struct {
	t *testing.T
}

func (f *failingFetcher) FetchBlock(ctx context.Context, hash block.Hash) (*block.Block, error) {
	f.t.Fatal("inline genesis resolution must not touch the network")
	return nil, nil
}

// Full startup flow: inline genesis bytes resolve without touching storage
// or network, a fresh store bootstraps through the fresh path, and a second
// bootstrap over the same store resumes with the same tip.
func TestStartupFlow_InlineGenesis(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	want := block.NewGenesis("genesis", [][]byte{[]byte("initial funds")})
	raw, err := want.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	resolver := genesis.NewResolver(bs, &failingFetcher{t: t})
	block0, err := resolver.Resolve(context.Background(), genesis.InlineSpec(raw))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ok, _ := bs.Exists(block0.BlockHash); ok {
		t.Fatal("resolution alone must not write to storage")
	}

	first, err := Load(context.Background(), block0, bs)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	if first.Mode != ModeFresh {
		t.Fatalf("fresh store should bootstrap fresh, got %s", first.Mode)
	}

	second, err := Load(context.Background(), block0, bs)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if second.Mode != ModeResume {
		t.Fatalf("second bootstrap should resume, got %s", second.Mode)
	}
	if first.Tip != second.Tip || second.Tip != want.BlockHash {
		t.Fatal("both bootstraps should land on the same block 0 tip")
	}
}
