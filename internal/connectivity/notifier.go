package connectivity

import (
	"sync"

	"github.com/google/uuid"

	"github.com/greensidehq/greenside/internal/logger"
)

// State is the connectivity state the core owns and publishes.
type State string

const (
	StateOnline       State = "online"
	StateOffline      State = "offline"
	StateReconnecting State = "reconnecting"
)

// Notifier publishes connectivity transitions to subscribers. Publishing is
// non-blocking: a subscriber that stops draining its channel loses updates
// instead of stalling the core.
type Notifier struct {
	mu          sync.RWMutex
	current     State
	subscribers map[string]chan State
}

// NewNotifier creates a notifier starting in the online state.
func NewNotifier() *Notifier {
	return &Notifier{
		current:     StateOnline,
		subscribers: map[string]chan State{},
	}
}

// Current returns the last published state.
func (n *Notifier) Current() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}

// Subscribe registers a new subscriber and returns its id and channel.
// The current state is delivered immediately so subscribers need no separate
// initial read.
func (n *Notifier) Subscribe() (string, <-chan State) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan State, 8)
	ch <- n.current
	n.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subscribers[id]; ok {
		delete(n.subscribers, id)
		close(ch)
	}
}

// Publish records a state transition and fans it out. Re-publishing the
// current state is a no-op.
func (n *Notifier) Publish(state State) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if state == n.current {
		return
	}
	n.current = state
	logger.WithComponent("connectivity").Infof("state changed to %s", state)

	for id, ch := range n.subscribers {
		select {
		case ch <- state:
		default:
			logger.WithComponent("connectivity").Debugf("subscriber %s is slow, dropping update", id)
		}
	}
}
