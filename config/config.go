package config

import (
	"os"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/keelchain/keel/logx"
)

// LoadNodeConfig reads and parses the node.yml file
func LoadNodeConfig(path string) (*NodeConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		logx.Error("CONFIG", "Failed to open config file: ", err)
		return nil, err
	}
	defer file.Close()

	var cfgFile ConfigFile
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfgFile); err != nil {
		logx.Error("CONFIG", "Failed to decode YAML: ", err)
		return nil, err
	}

	cfg := &cfgFile.Config
	applyDefaults(cfg)

	logx.Info("CONFIG", "Loaded node config: name=", cfg.Name,
		" peers=", len(cfg.Network.Peers), " pools=", len(cfg.StakePools))
	return cfg, nil
}

func applyDefaults(cfg *NodeConfig) {
	if cfg.Network.FetchTimeoutMs <= 0 {
		cfg.Network.FetchTimeoutMs = DefaultFetchTimeoutMs
	}
	if cfg.Listen.MaxConcurrentRequestsPerConnection <= 0 {
		cfg.Listen.MaxConcurrentRequestsPerConnection = DefaultMaxConcurrentRequests
	}
	if cfg.Listen.TCPKeepAliveIntervalSec <= 0 {
		cfg.Listen.TCPKeepAliveIntervalSec = DefaultTCPKeepAliveSec
	}
	if cfg.Storage.PoolSize <= 0 {
		cfg.Storage.PoolSize = DefaultStorePoolSize
	}
}

// GossipConfig tunes the dissemination layer, read from an .ini file
type GossipConfig struct {
	Fanout    int `ini:"fanout"`
	CacheSize int `ini:"cache_size"`
}

// LoadGossipConfig reads gossip tuning from an .ini file. A missing file
// yields the defaults.
func LoadGossipConfig(path string) (*GossipConfig, error) {
	gossipCfg := &GossipConfig{
		Fanout:    DefaultFanout,
		CacheSize: DedupCacheSize,
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return gossipCfg, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	gossipSection := cfg.Section("gossip")
	if err := gossipSection.MapTo(gossipCfg); err != nil {
		return nil, err
	}
	return gossipCfg, nil
}
