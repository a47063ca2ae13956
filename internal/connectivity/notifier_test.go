package connectivity

import (
	"testing"
	"time"
)

func receiveState(t *testing.T, ch <-chan State) State {
	t.Helper()
	select {
	case state := <-ch:
		return state
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state")
		return ""
	}
}

func TestNotifier_SubscriberGetsCurrentStateImmediately(t *testing.T) {
	n := NewNotifier()
	_, ch := n.Subscribe()

	if state := receiveState(t, ch); state != StateOnline {
		t.Errorf("expected initial online state, got %s", state)
	}
}

func TestNotifier_PublishFansOut(t *testing.T) {
	n := NewNotifier()
	_, ch1 := n.Subscribe()
	_, ch2 := n.Subscribe()
	receiveState(t, ch1)
	receiveState(t, ch2)

	n.Publish(StateReconnecting)
	if state := receiveState(t, ch1); state != StateReconnecting {
		t.Errorf("expected reconnecting, got %s", state)
	}
	if state := receiveState(t, ch2); state != StateReconnecting {
		t.Errorf("expected reconnecting, got %s", state)
	}

	n.Publish(StateOffline)
	if state := receiveState(t, ch1); state != StateOffline {
		t.Errorf("expected offline, got %s", state)
	}
	if n.Current() != StateOffline {
		t.Errorf("expected current offline, got %s", n.Current())
	}
}

func TestNotifier_RepublishingCurrentStateIsNoOp(t *testing.T) {
	n := NewNotifier()
	_, ch := n.Subscribe()
	receiveState(t, ch)

	n.Publish(StateOnline)

	select {
	case state := <-ch:
		t.Errorf("expected no update for unchanged state, got %s", state)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier()
	id, ch := n.Subscribe()
	receiveState(t, ch)

	n.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	n.Publish(StateOffline)
}
