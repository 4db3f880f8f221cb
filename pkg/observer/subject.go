// Package observer provides a minimal subject/observer fan-out used by the
// emitter to surface flush activity without coupling to a logger.
package observer

import "sync"

// Observer receives published events of type T.
type Observer[T any] interface {
	Notify(T)
}

// ObserverFunc adapts a standalone function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(T)

// Notify executes the wrapped function.
func (f ObserverFunc[T]) Notify(evt T) {
	if f != nil {
		f(evt)
	}
}

// Subject coordinates observer registrations and event fan-out. Publishing
// with no observers attached is free apart from one read lock.
type Subject[T any] struct {
	mu        sync.RWMutex
	observers []Observer[T]
}

// NewSubject constructs a Subject with optional initial observers.
func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	return &Subject[T]{observers: append([]Observer[T](nil), observers...)}
}

// Publish invokes every observer with the provided event, in attach order.
func (s *Subject[T]) Publish(evt T) {
	if s == nil {
		return
	}
	s.mu.RLock()
	observers := append([]Observer[T](nil), s.observers...)
	s.mu.RUnlock()

	for _, obs := range observers {
		if obs != nil {
			obs.Notify(evt)
		}
	}
}

// Attach registers additional observers to the subject.
func (s *Subject[T]) Attach(observers ...Observer[T]) {
	if s == nil || len(observers) == 0 {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observers...)
	s.mu.Unlock()
}
