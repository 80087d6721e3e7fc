package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitTimeout is returned when neither a success nor a failure
	// signal fired within the wait window. Only the wait is abandoned;
	// whatever operation was being awaited may still be running.
	ErrWaitTimeout = errors.New("lifecycle: wait timed out")

	// ErrSignalFailure is returned when a failure signal fired first.
	ErrSignalFailure = errors.New("lifecycle: failure signal fired")
)

// Watch is a registered wait for the first of a set of signals.
// Registration happens at creation, before the caller starts whatever
// work fires the signals, so an outcome that fires before Wait runs is
// buffered rather than lost.
type Watch struct {
	s          *Signals
	ch         chan string
	failureSet map[string]bool
}

// Watch registers a one-shot listener for every given signal name. The
// returned Watch resolves with the first name to fire; names in failure
// resolve as errors.
//
// A single buffered channel is registered for every name so the first
// signal to fire wins even when several fire back to back.
func (s *Signals) Watch(success, failure []string) *Watch {
	w := &Watch{
		s:          s,
		ch:         make(chan string, 1),
		failureSet: make(map[string]bool, len(failure)),
	}
	for _, name := range success {
		s.register(name, w.ch)
	}
	for _, name := range failure {
		w.failureSet[name] = true
		s.register(name, w.ch)
	}
	return w
}

// Wait blocks until the first registered signal fires. It returns the
// signal name on a success signal, ErrSignalFailure (naming the signal)
// on a failure signal, ErrWaitTimeout after timeout (0 disables the
// timer), or the context error on cancellation. All registrations are
// released before returning; a Watch is single-use.
func (w *Watch) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	defer w.s.unregister(w.ch)

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case name := <-w.ch:
		if w.failureSet[name] {
			return "", fmt.Errorf("%w: %s", ErrSignalFailure, name)
		}
		return name, nil
	case <-timeoutCh:
		return "", ErrWaitTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// WaitAny registers for the given signals and waits in one step. Callers
// that fire the signals from work they start themselves should use Watch
// before starting the work, then Wait, so no outcome can slip between
// the two.
func (s *Signals) WaitAny(ctx context.Context, success, failure []string, timeout time.Duration) (string, error) {
	return s.Watch(success, failure).Wait(ctx, timeout)
}
