// Package lifecycle coordinates named asynchronous process signals and
// provides the race-to-first combinator the persistence layer uses to
// reduce multi-outcome events (connected / error / timeout) to a single
// awaitable result.
package lifecycle

import "sync"

// Signals is a hub of named one-shot signals. Listeners are registered
// per name, receive at most one notification and are then discarded, so
// subscriptions never outlive the event they were waiting for.
type Signals struct {
	mu        sync.Mutex
	listeners map[string][]chan string
}

// NewSignals creates an empty signal hub.
func NewSignals() *Signals {
	return &Signals{
		listeners: make(map[string][]chan string),
	}
}

// Notify fires the named signal. Every listener currently registered for
// the name receives it once; delivery is non-blocking and a listener
// that already received another signal drops this one.
func (s *Signals) Notify(name string) {
	s.mu.Lock()
	chans := s.listeners[name]
	delete(s.listeners, name)
	s.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- name:
		default:
		}
	}
}

// Once registers a one-shot listener for the named signal. The returned
// channel receives the signal name when it fires.
func (s *Signals) Once(name string) <-chan string {
	ch := make(chan string, 1)
	s.register(name, ch)
	return ch
}

func (s *Signals) register(name string, ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[name] = append(s.listeners[name], ch)
}

// unregister drops ch from every signal it is still registered for.
func (s *Signals) unregister(ch chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, chans := range s.listeners {
		kept := chans[:0]
		for _, c := range chans {
			if c != ch {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(s.listeners, name)
		} else {
			s.listeners[name] = kept
		}
	}
}

// pending returns the number of registered listeners across all names.
func (s *Signals) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, chans := range s.listeners {
		n += len(chans)
	}
	return n
}
