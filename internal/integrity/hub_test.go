package integrity

import (
	"testing"
	"time"
)

func TestFocusHubDeliversToSubscribers(t *testing.T) {
	hub := NewFocusHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(FocusVisibilityHidden)

	select {
	case ev := <-ch:
		if ev.Kind != FocusVisibilityHidden {
			t.Errorf("kind = %q, want %q", ev.Kind, FocusVisibilityHidden)
		}
		if ev.At.IsZero() {
			t.Error("event timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestFocusHubCancelClosesChannel(t *testing.T) {
	hub := NewFocusHub()

	ch, cancel := hub.Subscribe()
	cancel()

	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}

	// Publishing after cancel must not panic.
	hub.Publish(FocusWindowBlur)

	// Cancel is idempotent.
	cancel()
}

func TestFocusHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewFocusHub()

	ch, cancel := hub.Subscribe()
	defer cancel()

	// Fill the buffer and keep publishing; Publish must never block.
	for i := 0; i < 20; i++ {
		hub.Publish(FocusWindowBlur)
	}

	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want full buffer %d", len(ch), cap(ch))
	}
}
