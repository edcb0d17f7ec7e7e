package genesis

import (
	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/errors"
)

// SpecKind selects how the genesis block is obtained.
type SpecKind int

const (
	// SpecInline carries the serialized block 0 bytes directly. Inline
	// bytes are authoritative: they are deserialized and never fetched.
	SpecInline SpecKind = iota
	// SpecFile points at a local file holding the serialized block 0.
	SpecFile
	// SpecByHash carries only the expected block 0 hash; the block itself
	// is resolved from storage or the network.
	SpecByHash
)

// Spec describes where block 0 comes from. Constructed once from startup
// configuration and immutable afterwards.
type Spec struct {
	kind  SpecKind
	bytes []byte
	path  string
	hash  block.Hash
}

func InlineSpec(raw []byte) Spec {
	return Spec{kind: SpecInline, bytes: raw}
}

func FileSpec(path string) Spec {
	return Spec{kind: SpecFile, path: path}
}

func ByHashSpec(hash block.Hash) Spec {
	return Spec{kind: SpecByHash, hash: hash}
}

func (s Spec) Kind() SpecKind { return s.kind }

// Hash returns the expected block 0 hash for a by-hash spec.
func (s Spec) Hash() block.Hash { return s.hash }

// SpecFromConfig builds the genesis spec from the node configuration. A
// configured block file wins over a hash, matching the trust ordering of
// resolution: local authoritative bytes over anything fetched.
func SpecFromConfig(blockFile, hashHex string) (Spec, error) {
	if blockFile != "" {
		return FileSpec(blockFile), nil
	}
	if hashHex != "" {
		h, err := block.HashFromHex(hashHex)
		if err != nil {
			return Spec{}, err
		}
		return ByHashSpec(h), nil
	}
	return Spec{}, errors.NewError(errors.ErrCodeNotFound, "genesis configuration needs a block file or a block hash")
}
