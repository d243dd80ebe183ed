package store

import "sync"

// notifier is a payloadless broadcast: subscribers learn that
// repository state may have changed and re-read whatever they need.
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribe registers fn to run synchronously after every successful
// mutating operation. The returned function removes the subscription.
// No payload is delivered; subscribers should re-query the state they
// care about.
func (s *Store) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// changed fires the broadcast after a successful mutation.
func (s *Store) changed() {
	s.notifier.notify()
}
