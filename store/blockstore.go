package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
	"github.com/keelchain/keel/jsonx"
	"github.com/keelchain/keel/logx"
)

// Database key prefixes for stored objects
const (
	PrefixBlock     = "blk:"
	PrefixBlockMeta = "blk_meta:"
	MetaKeyTip      = "chain:tip"
)

// BlockMeta is stored alongside every block.
type BlockMeta struct {
	Depth    uint64 `json:"depth"` // distance from block 0
	StoredAt int64  `json:"stored_at"`
}

// BlobStore is the content-addressed block storage consumed by genesis
// resolution and chain bootstrap. Reads and writes go through a pooled
// Connection checked out per operation.
type BlobStore interface {
	Exists(hash block.Hash) (bool, error)
	Connect() (*Connection, error)
	Get(conn *Connection, hash block.Hash) (*block.Block, *BlockMeta, error)
	Put(conn *Connection, b *block.Block) error
	Tip() (block.Hash, bool, error)
	Close() error
}

// Connection is a pooled handle to the storage backend. Callers must Release
// it as soon as the single read or write completes.
type Connection struct {
	store    *GenericBlobStore
	released bool
}

// Release returns the connection to the pool. Releasing twice is a no-op.
func (c *Connection) Release() {
	if c == nil || c.released {
		return
	}
	c.released = true
	c.store.pool <- struct{}{}
}

// GenericBlobStore is a database-agnostic BlobStore over a DatabaseProvider,
// so it works with any backend (LevelDB, in-memory, ...).
type GenericBlobStore struct {
	provider DatabaseProvider
	pool     chan struct{}

	mu sync.Mutex // serializes Put's read-check-write against the tip
}

// NewGenericBlobStore creates a blob store with the given provider and
// connection pool size.
func NewGenericBlobStore(provider DatabaseProvider, poolSize int) (BlobStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}

	pool := make(chan struct{}, poolSize)
	for i := 0; i < poolSize; i++ {
		pool <- struct{}{}
	}
	return &GenericBlobStore{provider: provider, pool: pool}, nil
}

func (s *GenericBlobStore) Exists(hash block.Hash) (bool, error) {
	ok, err := s.provider.Has(blockKey(hash))
	if err != nil {
		return false, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("existence check for %s: %v", hash.Hex(), err))
	}
	return ok, nil
}

func (s *GenericBlobStore) Connect() (*Connection, error) {
	select {
	case <-s.pool:
		return &Connection{store: s}, nil
	case <-time.After(connectTimeout):
		return nil, errors.NewError(errors.ErrCodeStorageBackend, "storage connection pool exhausted")
	}
}

const connectTimeout = 5 * time.Second

func (s *GenericBlobStore) Get(conn *Connection, hash block.Hash) (*block.Block, *BlockMeta, error) {
	if err := s.checkConn(conn); err != nil {
		return nil, nil, err
	}

	raw, err := s.provider.Get(blockKey(hash))
	if err != nil {
		return nil, nil, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("read block %s: %v", hash.Hex(), err))
	}
	if raw == nil {
		return nil, nil, errors.NewError(errors.ErrCodeNotFound, fmt.Sprintf("block %s not in storage", hash.Hex()))
	}

	b, err := block.Deserialize(raw)
	if err != nil {
		return nil, nil, err
	}

	meta := &BlockMeta{}
	rawMeta, err := s.provider.Get(metaKey(hash))
	if err != nil {
		return nil, nil, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("read block meta %s: %v", hash.Hex(), err))
	}
	if rawMeta != nil {
		if err := jsonx.Unmarshal(rawMeta, meta); err != nil {
			return nil, nil, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("decode block meta %s: %v", hash.Hex(), err))
		}
	}
	return b, meta, nil
}

// Put stores a block with put-if-absent semantics: writing a hash that is
// already stored fails with an already_initialized conflict, which chain
// bootstrap consumes to switch to its resume path. The block, its metadata
// and the tip advance are committed in one atomic batch.
func (s *GenericBlobStore) Put(conn *Connection, b *block.Block) error {
	if err := s.checkConn(conn); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := blockKey(b.BlockHash)
	present, err := s.provider.Has(key)
	if err != nil {
		return errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("existence check for %s: %v", b.HashHex(), err))
	}
	if present {
		return errors.NewError(errors.ErrCodeAlreadyInitialized, fmt.Sprintf("block %s already in storage", b.HashHex()))
	}

	depth := uint64(0)
	if parent, ok := b.Parent(); ok {
		parentMeta, err := s.readMeta(parent)
		if err != nil {
			return err
		}
		if parentMeta == nil {
			return errors.NewError(errors.ErrCodeNotFound, fmt.Sprintf("parent %s of block %s not in storage", parent.Hex(), b.HashHex()))
		}
		depth = parentMeta.Depth + 1
	}

	raw, err := b.Serialize()
	if err != nil {
		return err
	}
	rawMeta, err := jsonx.Marshal(&BlockMeta{Depth: depth, StoredAt: time.Now().UnixNano()})
	if err != nil {
		return errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("encode block meta %s: %v", b.HashHex(), err))
	}

	batch := s.provider.Batch()
	defer batch.Close()
	batch.Put(key, raw)
	batch.Put(metaKey(b.BlockHash), rawMeta)
	if advanced, err := s.tipAdvance(b); err != nil {
		return err
	} else if advanced {
		batch.Put([]byte(MetaKeyTip), b.BlockHash[:])
	}
	if err := batch.Write(); err != nil {
		return errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("write block %s: %v", b.HashHex(), err))
	}

	logx.Debug("BLOBSTORE", "Stored block ", b.HashHex(), " at depth ", depth)
	return nil
}

// Tip returns the current chain tip hash, reporting false when the store
// holds no blocks yet.
func (s *GenericBlobStore) Tip() (block.Hash, bool, error) {
	raw, err := s.provider.Get([]byte(MetaKeyTip))
	if err != nil {
		return block.ZeroHash, false, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("read tip: %v", err))
	}
	if raw == nil {
		return block.ZeroHash, false, nil
	}
	var tip block.Hash
	if len(raw) != len(tip) {
		return block.ZeroHash, false, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("corrupt tip record of %d bytes", len(raw)))
	}
	copy(tip[:], raw)
	return tip, true, nil
}

func (s *GenericBlobStore) Close() error {
	return s.provider.Close()
}

// tipAdvance decides whether the incoming block becomes the new tip: block 0
// starts the chain when no tip exists, and any block extending the current
// tip advances it. Blocks attached elsewhere never move the tip, keeping it
// reachable from block 0.
func (s *GenericBlobStore) tipAdvance(b *block.Block) (bool, error) {
	tip, ok, err := s.Tip()
	if err != nil {
		return false, err
	}
	if !ok {
		return b.IsGenesis(), nil
	}
	parent, hasParent := b.Parent()
	return hasParent && parent == tip, nil
}

func (s *GenericBlobStore) readMeta(hash block.Hash) (*BlockMeta, error) {
	raw, err := s.provider.Get(metaKey(hash))
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("read block meta %s: %v", hash.Hex(), err))
	}
	if raw == nil {
		return nil, nil
	}
	meta := &BlockMeta{}
	if err := jsonx.Unmarshal(raw, meta); err != nil {
		return nil, errors.NewError(errors.ErrCodeStorageBackend, fmt.Sprintf("decode block meta %s: %v", hash.Hex(), err))
	}
	return meta, nil
}

func (s *GenericBlobStore) checkConn(conn *Connection) error {
	if conn == nil || conn.store != s {
		return errors.NewError(errors.ErrCodeStorageBackend, "operation requires a connection from this store")
	}
	if conn.released {
		return errors.NewError(errors.ErrCodeStorageBackend, "connection already released")
	}
	return nil
}

func blockKey(hash block.Hash) []byte {
	return append([]byte(PrefixBlock), hash[:]...)
}

func metaKey(hash block.Hash) []byte {
	return append([]byte(PrefixBlockMeta), hash[:]...)
}
