package block

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/keelchain/keel/errors"
	"github.com/keelchain/keel/jsonx"
)

// Hash is the content hash of a block or gossiped blob.
type Hash [32]byte

// ZeroHash marks the absent parent of the genesis block.
var ZeroHash Hash

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// HashFromHex parses a 64-character hex string into a Hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.NewError(errors.ErrCodeDeserialize, fmt.Sprintf("invalid hash hex: %v", err))
	}
	if len(raw) != len(h) {
		return h, errors.NewError(errors.ErrCodeDeserialize, fmt.Sprintf("invalid hash length %d", len(raw)))
	}
	copy(h[:], raw)
	return h, nil
}

// HashBytes computes the content hash of an arbitrary gossiped payload.
func HashBytes(data []byte) Hash {
	return sha256.Sum256(data)
}

type Block struct {
	Slot      uint64   `json:"slot"`
	PrevHash  Hash     `json:"prev_hash"`
	Producer  string   `json:"producer"`
	Timestamp int64    `json:"timestamp"` // unix nanoseconds at assembly
	Payloads  [][]byte `json:"payloads"`
	BlockHash Hash     `json:"block_hash"`
}

func Assemble(slot uint64, prevHash Hash, producer string, payloads [][]byte) *Block {
	b := &Block{
		Slot:      slot,
		PrevHash:  prevHash,
		Producer:  producer,
		Timestamp: time.Now().UnixNano(),
		Payloads:  payloads,
	}
	b.BlockHash = b.computeHash()
	return b
}

// NewGenesis assembles block 0. Its parent reference is absent (zero hash).
func NewGenesis(producer string, payloads [][]byte) *Block {
	return Assemble(0, ZeroHash, producer, payloads)
}

func (b *Block) computeHash() Hash {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, b.Slot)
	h.Write(buf)
	h.Write(b.PrevHash[:])
	h.Write([]byte(b.Producer))
	binary.BigEndian.PutUint64(buf, uint64(b.Timestamp))
	h.Write(buf)
	for _, p := range b.Payloads {
		binary.BigEndian.PutUint64(buf, uint64(len(p)))
		h.Write(buf)
		h.Write(p)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// RecomputeHash returns the hash implied by the block's content, ignoring
// the stored BlockHash field.
func (b *Block) RecomputeHash() Hash {
	return b.computeHash()
}

func (b *Block) HashHex() string {
	return b.BlockHash.Hex()
}

func (b *Block) IsGenesis() bool {
	return b.Slot == 0 && b.PrevHash.IsZero()
}

// Parent returns the parent hash, reporting false for block 0.
func (b *Block) Parent() (Hash, bool) {
	if b.IsGenesis() {
		return ZeroHash, false
	}
	return b.PrevHash, true
}

func (b *Block) Serialize() ([]byte, error) {
	data, err := jsonx.Marshal(b)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeDeserialize, fmt.Sprintf("serialize block: %v", err))
	}
	return data, nil
}

// Deserialize decodes a serialized block and verifies that the recorded
// BlockHash matches the content. A mismatch means the bytes were corrupted
// or tampered with and is treated as malformed input.
func Deserialize(data []byte) (*Block, error) {
	var b Block
	if err := jsonx.Unmarshal(data, &b); err != nil {
		return nil, errors.NewError(errors.ErrCodeDeserialize, fmt.Sprintf("deserialize block: %v", err))
	}
	if b.BlockHash != b.computeHash() {
		return nil, errors.NewError(errors.ErrCodeDeserialize, fmt.Sprintf("block %s hash does not match content", b.HashHex()))
	}
	return &b, nil
}
