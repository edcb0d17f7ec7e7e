package bootstrap

import (
	"context"
	"testing"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/store"
)

func newTestStore(t *testing.T) store.BlobStore {
	t.Helper()
	s, err := store.NewGenericBlobStore(store.NewMemoryProvider(), 2)
	if err != nil {
		t.Fatalf("NewGenericBlobStore failed: %v", err)
	}
	return s
}

// Test 1: first bootstrap takes the fresh path
func TestLoad_Fresh(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	genesis := block.NewGenesis("genesis", nil)
	handle, err := Load(context.Background(), genesis, bs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if handle.Mode != ModeFresh {
		t.Fatalf("first bootstrap should be fresh, got %s", handle.Mode)
	}
	if handle.Root != genesis.BlockHash || handle.Tip != genesis.BlockHash {
		t.Fatal("fresh chain should have block 0 as both root and tip")
	}

	ok, err := bs.Exists(genesis.BlockHash)
	if err != nil || !ok {
		t.Fatalf("block 0 should be stored, ok=%v err=%v", ok, err)
	}
}

// Test 2: bootstrapping twice over the same store is idempotent
func TestLoad_ResumeIdempotent(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	genesis := block.NewGenesis("genesis", nil)

	first, err := Load(context.Background(), genesis, bs)
	if err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	second, err := Load(context.Background(), genesis, bs)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}

	if second.Mode != ModeResume {
		t.Fatalf("second bootstrap should resume, got %s", second.Mode)
	}
	if first.Tip != second.Tip {
		t.Fatal("both bootstraps should report the same tip")
	}
	if first.Root != second.Root {
		t.Fatal("both bootstraps should report the same root")
	}
}

// Test 3: resume picks up the tip of an extended chain
func TestLoad_ResumeExtendedChain(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	genesis := block.NewGenesis("genesis", nil)
	if _, err := Load(context.Background(), genesis, bs); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	child := block.Assemble(1, genesis.BlockHash, "node1", nil)
	conn, err := bs.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := bs.Put(conn, child); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	conn.Release()

	handle, err := Load(context.Background(), genesis, bs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if handle.Mode != ModeResume {
		t.Fatalf("bootstrap over a populated store should resume, got %s", handle.Mode)
	}
	if handle.Tip != child.BlockHash {
		t.Fatal("resume should report the stored chain's tip")
	}
	if handle.Root != genesis.BlockHash {
		t.Fatal("resume should keep block 0 as the root")
	}
}

// Test 4: a non-genesis block is rejected
func TestLoad_RejectsNonGenesis(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	genesis := block.NewGenesis("genesis", nil)
	child := block.Assemble(1, genesis.BlockHash, "node1", nil)

	if _, err := Load(context.Background(), child, bs); err == nil {
		t.Fatal("bootstrapping from a non-genesis block should fail")
	}
}

// Test 5: cancelled context aborts before touching storage
func TestLoad_ContextCancelled(t *testing.T) {
	bs := newTestStore(t)
	defer bs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	genesis := block.NewGenesis("genesis", nil)
	if _, err := Load(ctx, genesis, bs); err == nil {
		t.Fatal("cancelled context should abort bootstrap")
	}
	if ok, _ := bs.Exists(genesis.BlockHash); ok {
		t.Fatal("cancelled bootstrap should not write block 0")
	}
}
