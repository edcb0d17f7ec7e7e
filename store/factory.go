package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/keelchain/keel/logx"
)

// StoreType represents the type of storage backend
type StoreType string

const (
	// LevelDBStoreType persists blocks under a LevelDB directory
	LevelDBStoreType StoreType = "leveldb"
	// MemoryStoreType keeps blocks in process memory only
	MemoryStoreType StoreType = "memory"
)

// StoreConfig holds configuration for creating blob store instances
type StoreConfig struct {
	// Type specifies which backend to use
	Type StoreType `json:"type" yaml:"type"`

	// Directory is the database directory path (for file-based backends)
	Directory string `json:"directory" yaml:"directory"`

	// PoolSize is the number of pooled storage connections
	PoolSize int `json:"pool_size" yaml:"pool_size"`
}

// Validate validates the store configuration
func (sc *StoreConfig) Validate() error {
	switch sc.Type {
	case LevelDBStoreType:
		if sc.Directory == "" {
			return fmt.Errorf("directory cannot be empty for %s store", sc.Type)
		}
		return nil
	case MemoryStoreType:
		return nil
	case "":
		return fmt.Errorf("store type cannot be empty")
	default:
		return fmt.Errorf("unsupported store type: %s", sc.Type)
	}
}

// Prepare creates the blob store described by the configuration. An empty
// storage directory selects the in-memory backend, so a node can run without
// persistence the same way it would against a database directory.
func Prepare(cfg *StoreConfig) (BlobStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}

	var provider DatabaseProvider
	var err error
	switch cfg.Type {
	case MemoryStoreType:
		logx.Info("BLOBSTORE", "Storing blockchain in memory")
		provider = NewMemoryProvider()
	case LevelDBStoreType:
		dir := filepath.Join(cfg.Directory, "blocks")
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", cfg.Directory, err)
		}
		logx.Info("BLOBSTORE", "Storing blockchain in ", dir)
		provider, err = NewLevelDBProvider(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	return NewGenericBlobStore(provider, poolSize)
}

// DefaultPoolSize is the connection pool size used when none is configured.
const DefaultPoolSize = 8

// NewLevelDBConfig creates a LevelDB store configuration
func NewLevelDBConfig(directory string) *StoreConfig {
	return &StoreConfig{Type: LevelDBStoreType, Directory: directory}
}

// NewMemoryConfig creates an in-memory store configuration
func NewMemoryConfig() *StoreConfig {
	return &StoreConfig{Type: MemoryStoreType}
}
