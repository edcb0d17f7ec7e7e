package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/keelchain/keel/bootstrap"
	"github.com/keelchain/keel/config"
	"github.com/keelchain/keel/events"
	"github.com/keelchain/keel/genesis"
	"github.com/keelchain/keel/gossip"
	"github.com/keelchain/keel/logx"
	"github.com/keelchain/keel/network"
	"github.com/keelchain/keel/staking"
	"github.com/keelchain/keel/store"
)

var (
	nodeConfigPath   string
	gossipConfigPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blockchain node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNode(nodeConfigPath, gossipConfigPath)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&nodeConfigPath, "config", "c", "config/node.yml", "Path to the node config file")
	runCmd.Flags().StringVar(&gossipConfigPath, "gossip-config", "config/gossip.ini", "Path to the gossip tuning file")
}

func runNode(configPath, gossipPath string) error {
	cfg, err := config.LoadNodeConfig(configPath)
	if err != nil {
		return logx.Errorf("load node config %s: %v", configPath, err)
	}
	gossipCfg, err := config.LoadGossipConfig(gossipPath)
	if err != nil {
		return logx.Errorf("load gossip config %s: %v", gossipPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bs, err := prepareStorage(cfg)
	if err != nil {
		return logx.Errorf("prepare storage: %v", err)
	}
	defer bs.Close()

	fetcher := network.NewClient(network.Config{
		Peers:        cfg.Network.Peers,
		FetchTimeout: time.Duration(cfg.Network.FetchTimeoutMs) * time.Millisecond,
	})

	spec, err := genesis.SpecFromConfig(cfg.Genesis.BlockFile, cfg.Genesis.BlockHash)
	if err != nil {
		return logx.Errorf("genesis configuration: %v", err)
	}

	block0, err := genesis.NewResolver(bs, fetcher).Resolve(ctx, spec)
	if err != nil {
		return logx.Errorf("resolve block 0: %v", err)
	}
	logx.Info("NODE", "Block 0 resolved: ", block0.HashHex())

	handle, err := bootstrap.Load(ctx, block0, bs)
	if err != nil {
		return logx.Errorf("bootstrap chain: %v", err)
	}

	bus := events.NewEventBus()
	bus.Publish(events.NewChainBootstrapped(handle.Root.Hex(), handle.Tip.Hex(), string(handle.Mode)))

	registry, poolAddrs, err := seedStakePools(cfg)
	if err != nil {
		return logx.Errorf("seed stake pools: %v", err)
	}

	inbound := make(chan gossip.InboundBlob, 256)
	outbound := make(chan gossip.OutboundBlob, 256)

	router := gossip.NewRouter(gossip.NewDedupCache(gossipCfg.CacheSize), inbound, outbound, bus, gossipCfg.Fanout)
	router.SetDistribution(registry.Snapshot())
	go router.Run(ctx)
	go network.NewBroadcaster(poolAddrs, outbound).Run(ctx)

	svc := network.NewService(network.ListenConfig{
		Addr:                               cfg.Listen.Addr,
		MaxConcurrentRequestsPerConnection: cfg.Listen.MaxConcurrentRequestsPerConnection,
		TCPKeepAliveInterval:               time.Duration(cfg.Listen.TCPKeepAliveIntervalSec) * time.Second,
	}, bs, inbound)
	if err := svc.Start(ctx); err != nil {
		return logx.Errorf("start transport service: %v", err)
	}

	logx.Info("NODE", "Node ", cfg.Name, " running, chain tip ", handle.Tip.Hex())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logx.Info("NODE", "Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := svc.Stop(shutdownCtx); err != nil {
		logx.Warn("NODE", "Transport shutdown: ", err)
	}
	cancel()
	return nil
}

func prepareStorage(cfg *config.NodeConfig) (store.BlobStore, error) {
	sc := &store.StoreConfig{PoolSize: cfg.Storage.PoolSize}
	if cfg.Storage.Directory == "" {
		sc.Type = store.MemoryStoreType
	} else {
		sc.Type = store.LevelDBStoreType
		sc.Directory = cfg.Storage.Directory
	}
	return store.Prepare(sc)
}

func seedStakePools(cfg *config.NodeConfig) (*staking.Registry, map[string]string, error) {
	registry := staking.NewRegistry(uint256.NewInt(config.MinPoolStake), config.MaxPools)
	addrs := make(map[string]string, len(cfg.StakePools))
	for _, pool := range cfg.StakePools {
		if err := registry.RegisterPool(pool.PoolID, uint256.NewInt(pool.Stake)); err != nil {
			return nil, nil, err
		}
		if pool.Addr != "" {
			addrs[pool.PoolID] = pool.Addr
		}
	}
	return registry, addrs, nil
}
