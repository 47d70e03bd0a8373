package eventbus

import (
	"context"
	"testing"
	"time"

	"go-attention-agent/internal/core"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTransportRoundTrip(t *testing.T) {
	bus := newBus(t)
	ctx := context.Background()
	topics := Topics{Events: TopicEvents, Commands: TopicCommands}

	commands, err := bus.Subscribe(ctx, TopicCommands)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	tr, err := NewTransport(ctx, bus, topics, 2, nil)
	if err != nil {
		t.Fatalf("transport: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := bus.Publish(ctx, TopicEvents, core.Event{ID: id, Source: "Scale:0", Label: core.LabelChange}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	waitFor(t, func() bool { return tr.Pending() == 2 })
	// the third event arrives behind the first two and overflows
	time.Sleep(50 * time.Millisecond)

	got, err := tr.Poll(ctx, 1)
	if err != nil || len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("poll: %v %+v", err, got)
	}
	got, _ = tr.Poll(ctx, 10)
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("second poll: %+v", got)
	}
	if tr.Dropped() != 1 {
		t.Fatalf("expected 1 dropped event, got %d", tr.Dropped())
	}

	follow, err := tr.Execute(ctx, core.Highlight("Scale:0", true).Event("system", time.Now()))
	if err != nil || follow != nil {
		t.Fatalf("execute: %v %v", err, follow)
	}
	select {
	case cmd := <-commands:
		if cmd.Destination != "Scale:0" || cmd.Label != core.LabelHighlight {
			t.Fatalf("unexpected command %+v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for command")
	}

	if !tr.Alive() {
		t.Fatal("transport should be alive")
	}
	if err := tr.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if tr.Alive() {
		t.Fatal("transport should be closed")
	}
}

func TestTransportCapacity(t *testing.T) {
	bus := newBus(t)
	if _, err := NewTransport(context.Background(), bus, Topics{Events: TopicEvents}, 0, nil); err == nil {
		t.Fatal("expected capacity error")
	}
}
