package notify

import (
	"context"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4}, sink)
	defer d.Close()

	d.Emit(context.Background(), KindTransient, "", "req-1", "/v1/exports")

	select {
	case n := <-sink.Events():
		if n.Kind != KindTransient {
			t.Fatalf("kind = %q, want transient", n.Kind)
		}
		if n.RequestID != "req-1" {
			t.Fatalf("request id = %q", n.RequestID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}
	// All operations on the nil dispatcher are no-ops.
	d.Emit(context.Background(), KindNetwork, "", "", "")
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDropIfFullCountsDrops(t *testing.T) {
	// A NoOp-like sink that never consumes keeps the buffer full.
	blocking := make(chan struct{})
	sink := sinkFunc(func(context.Context, Notification) { <-blocking })

	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(blocking)
		d.Close()
	}()

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), KindNetwork, "", "", "")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a saturated buffer")
	}
}

func TestCloseDrainsBuffer(t *testing.T) {
	got := make(chan Notification, 8)
	sink := sinkFunc(func(_ context.Context, n Notification) { got <- n })

	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), KindRejected, "bad request", "", "")
	}
	d.Close()
	d.Close()

	if len(got) != 5 {
		t.Fatalf("delivered %d notifications after Close, want 5", len(got))
	}
}

func TestDisplayText(t *testing.T) {
	rejected := Notification{Kind: KindRejected, Message: "mission name already taken"}
	if DisplayText(rejected) != "mission name already taken" {
		t.Fatal("rejected message not passed through verbatim")
	}
	for _, kind := range []Kind{KindSessionExpired, KindTransient, KindNetwork} {
		if DisplayText(Notification{Kind: kind}) == "" {
			t.Fatalf("no display text for %q", kind)
		}
	}
}

type sinkFunc func(context.Context, Notification)

func (f sinkFunc) Emit(ctx context.Context, n Notification) { f(ctx, n) }
