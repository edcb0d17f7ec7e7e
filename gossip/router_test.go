package gossip

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/keelchain/keel/events"
	"github.com/keelchain/keel/staking"
)

func startRouter(t *testing.T, fanout int, dist *staking.Distribution) (chan InboundBlob, chan OutboundBlob, chan events.NodeEvent, context.CancelFunc) {
	t.Helper()

	in := make(chan InboundBlob, 16)
	out := make(chan OutboundBlob, 64)
	bus := events.NewEventBus()
	_, evCh := bus.Subscribe()

	r := NewRouter(NewDedupCache(DefaultCacheSize), in, out, bus, fanout)
	r.SetDistribution(dist)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	return in, out, evCh, cancel
}

func collectTargets(t *testing.T, out chan OutboundBlob, n int) []string {
	t.Helper()
	targets := make([]string, 0, n)
	for i := 0; i < n; i++ {
		select {
		case blob := <-out:
			targets = append(targets, blob.Target)
		case <-time.After(time.Second):
			t.Fatalf("expected %d outbound blobs, got %d", n, len(targets))
		}
	}
	return targets
}

// Test 1: a new blob fans out to pools in stake order
func TestRouter_FanoutStakeOrder(t *testing.T) {
	dist := distribution(map[string]uint64{"A": 10, "B": 50, "C": 30})
	in, out, evCh, cancel := startRouter(t, 0, dist)
	defer cancel()

	in <- InboundBlob{ID: "blob-1", Payload: []byte("payload")}

	targets := collectTargets(t, out, 3)
	want := []string{"B", "C", "A"}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("fanout order should be %v, got %v", want, targets)
		}
	}

	select {
	case ev := <-evCh:
		if ev.Type() != events.EventBlobAccepted {
			t.Fatalf("unexpected event %s", ev.Type())
		}
	case <-time.After(time.Second):
		t.Fatal("accepted blob should be published on the event bus")
	}
}

// Test 2: duplicates are dropped silently, nothing reaches the outbound sink
func TestRouter_DuplicateDropped(t *testing.T) {
	dist := distribution(map[string]uint64{"A": 10})
	in, out, evCh, cancel := startRouter(t, 0, dist)
	defer cancel()

	in <- InboundBlob{ID: "blob-1", Payload: []byte("payload")}
	collectTargets(t, out, 1)
	<-evCh

	in <- InboundBlob{ID: "blob-1", Payload: []byte("payload")}

	select {
	case blob := <-out:
		t.Fatalf("duplicate blob should not be rebroadcast, got target %s", blob.Target)
	case ev := <-evCh:
		t.Fatalf("duplicate blob should not publish an event, got %s", ev.Type())
	case <-time.After(100 * time.Millisecond):
	}
}

// Test 3: fanout limit caps the targets to the highest-staked pools
func TestRouter_FanoutLimit(t *testing.T) {
	dist := distribution(map[string]uint64{"A": 10, "B": 50, "C": 30, "D": 40})
	in, out, _, cancel := startRouter(t, 2, dist)
	defer cancel()

	in <- InboundBlob{ID: "blob-1", Payload: []byte("payload")}

	targets := collectTargets(t, out, 2)
	if targets[0] != "B" || targets[1] != "D" {
		t.Fatalf("fanout should pick the two highest-staked pools, got %v", targets)
	}

	select {
	case blob := <-out:
		t.Fatalf("no more than fanout targets expected, got extra %s", blob.Target)
	case <-time.After(100 * time.Millisecond):
	}
}

// Test 4: with no stake snapshot the blob is consumed with zero targets
func TestRouter_NoSnapshotNoTargets(t *testing.T) {
	in, out, evCh, cancel := startRouter(t, 0, nil)
	defer cancel()

	in <- InboundBlob{ID: "blob-1", Payload: []byte("payload")}

	select {
	case ev := <-evCh:
		blob := ev.(*events.BlobAccepted)
		if blob.Fanout != 0 {
			t.Fatalf("fanout should be 0 without a snapshot, got %d", blob.Fanout)
		}
	case <-time.After(time.Second):
		t.Fatal("blob should still be accepted without a snapshot")
	}

	select {
	case out := <-out:
		t.Fatalf("no outbound blobs expected, got target %s", out.Target)
	case <-time.After(100 * time.Millisecond):
	}
}

// Test 5: swapping the distribution changes later fanouts only
func TestRouter_SnapshotSwap(t *testing.T) {
	in := make(chan InboundBlob, 16)
	out := make(chan OutboundBlob, 64)
	r := NewRouter(NewDedupCache(DefaultCacheSize), in, out, nil, 0)
	r.SetDistribution(distribution(map[string]uint64{"A": 10}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	in <- InboundBlob{ID: "blob-1", Payload: []byte("p1")}
	first := collectTargets(t, out, 1)
	if first[0] != "A" {
		t.Fatalf("first fanout should target A, got %v", first)
	}

	epoch2 := staking.NewDistribution(2, []staking.PoolStakeInfo{{PoolID: "Z", TotalStake: uint256.NewInt(5)}})
	r.SetDistribution(epoch2)

	in <- InboundBlob{ID: "blob-2", Payload: []byte("p2")}
	second := collectTargets(t, out, 1)
	if second[0] != "Z" {
		t.Fatalf("second fanout should use the new snapshot, got %v", second)
	}
}
