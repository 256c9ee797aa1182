package sse

import (
	"encoding/json"
	"testing"
)

func TestHub_NotifyBroadcastsToAllClients(t *testing.T) {
	h := NewHub(nil, 1)
	a := h.NewClient("a", "u1")
	b := h.NewClient("b", "u2")
	h.Register(a)
	h.Register(b)
	if h.Count() != 2 {
		t.Fatalf("expected 2 clients, got %d", h.Count())
	}

	h.Notify("warning", "Order PO-1 has been cancelled.")

	for _, c := range []*Client{a, b} {
		ev := <-c.Events
		if ev.EventType != EventNotification {
			t.Fatalf("unexpected event type %q", ev.EventType)
		}
		var n Notification
		if err := json.Unmarshal([]byte(ev.Data), &n); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if n.Kind != "warning" || n.Message != "Order PO-1 has been cancelled." {
			t.Fatalf("unexpected payload %+v", n)
		}
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub(nil, 1)
	c := h.NewClient("slow", "u1")
	h.Register(c)

	h.Notify("info", "first")
	h.Notify("info", "second")

	if len(c.Events) != 1 {
		t.Fatalf("expected one buffered event, got %d", len(c.Events))
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	h := NewHub(nil, 1)
	c := h.NewClient("x", "u1")
	h.Register(c)
	h.Unregister("x")
	h.Unregister("x")

	if _, ok := <-c.Events; ok {
		t.Fatal("events channel should be closed")
	}
	if h.Count() != 0 {
		t.Fatalf("expected no clients, got %d", h.Count())
	}
}
