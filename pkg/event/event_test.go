package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/brewhaus/pkg/event"
)

func TestFireReachesAllListeners(t *testing.T) {
	bus := event.NewBus()

	var a, b atomic.Int32
	bus.Listen("checkout.settled", func(interface{}) { a.Add(1) })
	bus.Listen("checkout.settled", func(interface{}) { b.Add(1) })

	bus.Fire("checkout.settled", nil)

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("expected both listeners to fire once, got %d and %d", a.Load(), b.Load())
	}
}

func TestFirePayload(t *testing.T) {
	bus := event.NewBus()

	var got interface{}
	bus.Listen("checkout.settled", func(payload interface{}) { got = payload })

	bus.Fire("checkout.settled", "payment-1")

	if got != "payment-1" {
		t.Errorf("expected payload to reach the listener, got %v", got)
	}
}

func TestFireUnknownEventIsNoop(t *testing.T) {
	bus := event.NewBus()

	var called atomic.Int32
	bus.Listen("checkout.settled", func(interface{}) { called.Add(1) })

	bus.Fire("checkout.retried", nil)

	if called.Load() != 0 {
		t.Errorf("expected no listener calls, got %d", called.Load())
	}
}

func TestFireAsync(t *testing.T) {
	bus := event.NewBus()

	done := make(chan struct{})
	bus.Listen("checkout.settled", func(interface{}) { close(done) })

	bus.FireAsync("checkout.settled", nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async listener never ran")
	}
}

func TestFlushRemovesListeners(t *testing.T) {
	bus := event.NewBus()

	var called atomic.Int32
	bus.Listen("checkout.settled", func(interface{}) { called.Add(1) })

	bus.Flush()
	bus.Fire("checkout.settled", nil)

	if called.Load() != 0 {
		t.Errorf("expected no calls after Flush, got %d", called.Load())
	}
}
