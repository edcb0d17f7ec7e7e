package config

const (
	// DedupCacheSize bounds the gossip dedup cache
	DedupCacheSize = 1024

	// DefaultFanout caps how many stake-ranked pools receive a rebroadcast;
	// 0 means all ranked pools
	DefaultFanout = 8

	// DefaultFetchTimeoutMs bounds each per-peer genesis fetch
	DefaultFetchTimeoutMs = 5000

	// DefaultMaxConcurrentRequests limits in-flight requests per connection
	DefaultMaxConcurrentRequests = 256

	// DefaultTCPKeepAliveSec is the transport keep-alive probe interval
	DefaultTCPKeepAliveSec = 60

	// DefaultStorePoolSize is the storage connection pool size
	DefaultStorePoolSize = 8

	// MinPoolStake is the minimum stake accepted when registering a pool
	MinPoolStake = 1

	// MaxPools caps the stake pool registry
	MaxPools = 1024
)
