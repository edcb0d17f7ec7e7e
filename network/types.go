package network

import (
	"time"
)

// RPC method names served by every node's transport endpoint
const (
	MethodGetBlock = "chain.getblock"
	MethodPushBlob = "gossip.push"
)

// Config describes the peers this node may fetch from.
type Config struct {
	// Peers are base URLs of peer RPC endpoints, tried in order
	Peers []string `yaml:"peers"`

	// FetchTimeout bounds each per-peer fetch round trip. A timeout is
	// indistinguishable from the peer not having the block.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// ListenConfig carries the transport server tuning owned by this layer.
type ListenConfig struct {
	Addr                               string        `yaml:"addr"`
	MaxConcurrentRequestsPerConnection int           `yaml:"max_concurrent_requests_per_connection"`
	TCPKeepAliveInterval               time.Duration `yaml:"tcp_keepalive_interval"`
}

type getBlockParams struct {
	Hash string `json:"hash"`
}

type getBlockResult struct {
	Block []byte `json:"block"`
}

type pushBlobParams struct {
	Payload []byte `json:"payload"`
}

type pushBlobResult struct {
	Ok bool `json:"ok"`
}
