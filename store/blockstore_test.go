package store

import (
	"testing"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
)

func newTestStore(t *testing.T) BlobStore {
	t.Helper()
	s, err := NewGenericBlobStore(NewMemoryProvider(), 2)
	if err != nil {
		t.Fatalf("NewGenericBlobStore failed: %v", err)
	}
	return s
}

// Test 1: Put then Get round trip with metadata
func TestBlobStore_PutGet(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	genesis := block.NewGenesis("genesis", [][]byte{[]byte("init")})

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := s.Put(conn, genesis); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	conn.Release()

	ok, err := s.Exists(genesis.BlockHash)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Fatal("stored block should exist")
	}

	conn, err = s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	got, meta, err := s.Get(conn, genesis.BlockHash)
	conn.Release()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.BlockHash != genesis.BlockHash {
		t.Fatal("Get should return the stored block")
	}
	if meta.Depth != 0 {
		t.Fatalf("genesis depth should be 0, got %d", meta.Depth)
	}
}

// Test 2: Put of an already stored block reports the conflict signal
func TestBlobStore_PutConflict(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	genesis := block.NewGenesis("genesis", nil)

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Release()

	if err := s.Put(conn, genesis); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	err = s.Put(conn, genesis)
	if !errors.HasCode(err, errors.ErrCodeAlreadyInitialized) {
		t.Fatalf("second Put should report already_initialized, got %v", err)
	}
}

// Test 3: Get of a missing block reports not_found
func TestBlobStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Release()

	_, _, err = s.Get(conn, block.HashBytes([]byte("nope")))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("Get of missing block should report not_found, got %v", err)
	}
}

// Test 4: Tip starts at block 0 and advances along the chain
func TestBlobStore_TipAdvance(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	if _, ok, err := s.Tip(); err != nil || ok {
		t.Fatalf("empty store should have no tip, got ok=%v err=%v", ok, err)
	}

	genesis := block.NewGenesis("genesis", nil)
	child := block.Assemble(1, genesis.BlockHash, "node1", nil)

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Release()

	if err := s.Put(conn, genesis); err != nil {
		t.Fatalf("Put genesis failed: %v", err)
	}
	tip, ok, err := s.Tip()
	if err != nil || !ok {
		t.Fatalf("Tip failed: ok=%v err=%v", ok, err)
	}
	if tip != genesis.BlockHash {
		t.Fatal("tip should be genesis after the first write")
	}

	if err := s.Put(conn, child); err != nil {
		t.Fatalf("Put child failed: %v", err)
	}
	tip, _, err = s.Tip()
	if err != nil {
		t.Fatalf("Tip failed: %v", err)
	}
	if tip != child.BlockHash {
		t.Fatal("tip should advance to the child block")
	}
	if _, meta, err := s.Get(conn, child.BlockHash); err != nil || meta.Depth != 1 {
		t.Fatalf("child depth should be 1, got %+v err=%v", meta, err)
	}
}

// Test 5: Writing a block whose parent is unknown is rejected
func TestBlobStore_PutOrphan(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	orphan := block.Assemble(9, block.HashBytes([]byte("unknown")), "node1", nil)

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Release()

	err = s.Put(conn, orphan)
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("orphan Put should report not_found, got %v", err)
	}
}

// Test 6: Released connections are rejected and returned to the pool
func TestBlobStore_ConnectionDiscipline(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()

	conn, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn.Release()
	conn.Release() // double release must be a no-op

	if _, _, err := s.Get(conn, block.ZeroHash); !errors.HasCode(err, errors.ErrCodeStorageBackend) {
		t.Fatalf("released connection should be rejected, got %v", err)
	}

	// The pool of 2 must still serve two checkouts after the release.
	c1, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	c2, err := s.Connect()
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	c1.Release()
	c2.Release()
}
