package config

// GenesisConfig says where block 0 comes from. A block file wins over a
// hash when both are set.
type GenesisConfig struct {
	BlockFile string `yaml:"block_file"`
	BlockHash string `yaml:"block_hash"`
}

// StorageConfig selects the blob store backend. An empty directory keeps the
// chain in memory.
type StorageConfig struct {
	Directory string `yaml:"directory"`
	PoolSize  int    `yaml:"pool_size"`
}

// NetworkConfig lists the peers blocks may be fetched from
type NetworkConfig struct {
	Peers          []string `yaml:"peers"`
	FetchTimeoutMs int      `yaml:"fetch_timeout_ms"`
}

// ListenConfig tunes the transport endpoint
type ListenConfig struct {
	Addr                               string `yaml:"addr"`
	MaxConcurrentRequestsPerConnection int    `yaml:"max_concurrent_requests_per_connection"`
	TCPKeepAliveIntervalSec            int    `yaml:"tcp_keepalive_interval_sec"`
}

// PoolConfig seeds one stake pool into the registry at startup. Addr is the
// RPC endpoint blobs for this pool are rebroadcast to.
type PoolConfig struct {
	PoolID string `yaml:"pool_id"`
	Stake  uint64 `yaml:"stake"`
	Addr   string `yaml:"addr"`
}

// NodeConfig represents a node's configuration
type NodeConfig struct {
	Name       string        `yaml:"name"`
	Genesis    GenesisConfig `yaml:"genesis"`
	Storage    StorageConfig `yaml:"storage"`
	Network    NetworkConfig `yaml:"network"`
	Listen     ListenConfig  `yaml:"listen"`
	StakePools []PoolConfig  `yaml:"stake_pools"`
}

// ConfigFile is the top-level structure for node.yml
type ConfigFile struct {
	Config NodeConfig `yaml:"config"`
}
