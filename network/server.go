package network

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/keelchain/keel/block"
	"github.com/keelchain/keel/gossip"
	"github.com/keelchain/keel/logx"
	"github.com/keelchain/keel/store"
)

// Service is the transport endpoint: it serves outbound fetch requests from
// peers and feeds inbound gossip blobs to the broadcast router. Connection
// concurrency and keep-alive come from ListenConfig; the dissemination logic
// itself lives in the gossip package.
type Service struct {
	listen  ListenConfig
	store   store.BlobStore
	inbound chan<- gossip.InboundBlob

	bridge jhttp.Bridge
	srv    *http.Server
	ln     net.Listener
}

func NewService(listen ListenConfig, bs store.BlobStore, inbound chan<- gossip.InboundBlob) *Service {
	return &Service{listen: listen, store: bs, inbound: inbound}
}

// Start begins serving on the configured address. It returns once the
// listener is bound; serving continues until Stop.
func (s *Service) Start(ctx context.Context) error {
	s.bridge = jhttp.NewBridge(s.methods(), &jhttp.BridgeOptions{
		Server: &jrpc2.ServerOptions{Concurrency: s.listen.MaxConcurrentRequestsPerConnection},
	})

	lc := net.ListenConfig{KeepAlive: s.listen.TCPKeepAliveInterval}
	ln, err := lc.Listen(ctx, "tcp", s.listen.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listen.Addr, err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.bridge}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logx.Error("NETWORK", "Transport server stopped: ", err)
		}
	}()

	logx.Info("NETWORK", "Listening and accepting RPC connections on ", ln.Addr().String())
	return nil
}

// Addr returns the bound listener address.
func (s *Service) Addr() string {
	if s.ln == nil {
		return s.listen.Addr
	}
	return s.ln.Addr().String()
}

// Stop shuts the endpoint down and releases the bridge.
func (s *Service) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	if cerr := s.bridge.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Service) methods() handler.Map {
	return handler.Map{
		MethodGetBlock: handler.New(func(ctx context.Context, p getBlockParams) (*getBlockResult, error) {
			hash, err := block.HashFromHex(p.Hash)
			if err != nil {
				return nil, err
			}
			conn, err := s.store.Connect()
			if err != nil {
				return nil, err
			}
			defer conn.Release()

			b, _, err := s.store.Get(conn, hash)
			if err != nil {
				return nil, err
			}
			raw, err := b.Serialize()
			if err != nil {
				return nil, err
			}
			return &getBlockResult{Block: raw}, nil
		}),

		MethodPushBlob: handler.New(func(ctx context.Context, p pushBlobParams) (*pushBlobResult, error) {
			// The blob id is recomputed from content here, so a peer
			// cannot spoof identities to defeat deduplication.
			id := gossip.BlobID(block.HashBytes(p.Payload).Hex())
			select {
			case s.inbound <- gossip.InboundBlob{ID: id, Payload: p.Payload}:
				return &pushBlobResult{Ok: true}, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}),
	}
}
