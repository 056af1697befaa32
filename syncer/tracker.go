package syncer

import "sync"

// Tracker exposes a boolean connectivity signal. The host environment
// reports transitions through SetOnline; the tracker itself never polls.
// Subscribers are notified synchronously on every flip.
type Tracker struct {
	mu     sync.Mutex
	online bool
	subs   map[chan bool]struct{}
	closed bool
}

// NewTracker initializes the tracker from the host's current network status.
func NewTracker(initialOnline bool) *Tracker {
	return &Tracker{
		online: initialOnline,
		subs:   make(map[chan bool]struct{}),
	}
}

// Online reports the current connectivity state.
func (t *Tracker) Online() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// SetOnline records a host connectivity transition. Subscribers are only
// notified when the state actually flips.
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	if t.closed || t.online == online {
		t.mu.Unlock()
		return
	}
	t.online = online
	subs := make([]chan bool, 0, len(t.subs))
	for ch := range t.subs {
		subs = append(subs, ch)
	}
	t.mu.Unlock()

	for _, ch := range subs {
		// Buffered channels; a subscriber that already has a pending
		// notification does not need another.
		select {
		case ch <- online:
		default:
		}
	}
}

// Subscribe registers for connectivity flips. The returned channel carries
// the new state; it is buffered so slow consumers never block SetOnline.
func (t *Tracker) Subscribe() chan bool {
	ch := make(chan bool, 1)
	t.mu.Lock()
	if !t.closed {
		t.subs[ch] = struct{}{}
	}
	t.mu.Unlock()
	return ch
}

// Unsubscribe tears down a single listener.
func (t *Tracker) Unsubscribe(ch chan bool) {
	t.mu.Lock()
	delete(t.subs, ch)
	t.mu.Unlock()
}

// Close tears down all listeners; used when the owning process shuts down.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.subs = make(map[chan bool]struct{})
	t.mu.Unlock()
}
