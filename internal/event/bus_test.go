package event

import (
	"sync"
	"testing"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	bus.Subscribe(TypeDebateStatus, func(e Event) {
		received = append(received, e)
	})

	bus.Publish(NewDebateStatusEvent("run-1", "running", 0, ""))
	bus.Publish(NewTurnCompletedEvent("run-1", 1, "gemini", "hello", 0))

	if len(received) != 1 {
		t.Fatalf("received %d events, want 1", len(received))
	}
	status, ok := received[0].(DebateStatusEvent)
	if !ok {
		t.Fatalf("received %T, want DebateStatusEvent", received[0])
	}
	if status.RunID != "run-1" || status.Status != "running" {
		t.Errorf("event = %+v, want RunID=run-1 Status=running", status)
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewBus()

	var count int
	bus.SubscribeAll(func(e Event) { count++ })

	bus.Publish(NewAgentStatusEvent("gemini", "ready", "sess-1", ""))
	bus.Publish(NewDebateStatusEvent("run-1", "running", 0, ""))
	bus.Publish(NewDebateErrorEvent("run-1", "boom"))

	if count != 3 {
		t.Errorf("wildcard handler called %d times, want 3", count)
	}
}

func TestSpecificHandlersCalledBeforeWildcard(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "wildcard") })
	bus.Subscribe(TypeDebateError, func(e Event) { order = append(order, "specific") })

	bus.Publish(NewDebateErrorEvent("run-1", "boom"))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("dispatch order = %v, want [specific wildcard]", order)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var count int
	id := bus.Subscribe(TypeTurnCompleted, func(e Event) { count++ })

	bus.Publish(NewTurnCompletedEvent("run-1", 1, "codex", "ok", 0))

	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe() = false, want true")
	}
	bus.Publish(NewTurnCompletedEvent("run-1", 1, "codex", "ok", 0))

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe() = true, want false")
	}
}

func TestPanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus()

	var called bool
	bus.Subscribe(TypeDebateStatus, func(e Event) { panic("handler bug") })
	bus.Subscribe(TypeDebateStatus, func(e Event) { called = true })

	bus.Publish(NewDebateStatusEvent("run-1", "stopped", 2, "manual stop"))

	if !called {
		t.Error("second handler should run after first panics")
	}
}

func TestConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewAgentStatusEvent("gemini", "ready", "", ""))
		}()
	}
	wg.Wait()

	if count != 10 {
		t.Errorf("handler called %d times, want 10", count)
	}
}

func TestClear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(TypeDebateStatus, func(e Event) {})
	bus.SubscribeAll(func(e Event) {})

	if got := bus.SubscriptionCount(); got != 2 {
		t.Errorf("SubscriptionCount() = %d, want 2", got)
	}

	bus.Clear()
	if got := bus.SubscriptionCount(); got != 0 {
		t.Errorf("SubscriptionCount() after Clear = %d, want 0", got)
	}
}
