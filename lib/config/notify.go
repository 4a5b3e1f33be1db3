package config

import (
	"sync"
)

// UpdatedEvent is delivered on the post-update channel after a commit.
// A zero Key means the root configuration was replaced wholesale; otherwise
// Key and Fragment describe a named fragment replacement.
type UpdatedEvent struct {
	Key      string
	Fragment any
}

// Root reports whether the event describes a root replacement.
func (e UpdatedEvent) Root() bool { return e.Key == "" }

// UpdatingObserver sees the candidate root configuration before commit.
// Returning an error aborts the replacement with state untouched. The signal
// is advisory: by the time it fires the candidate has already passed
// validation, and persistence may still fail afterwards.
type UpdatingObserver func(candidate *ServerConfiguration) error

// UpdatedObserver sees committed changes. Returning an error stops delivery
// to later observers and propagates to the caller of the replacement; the
// commit itself stands.
type UpdatedObserver func(ev UpdatedEvent) error

// registeredUpdating pairs a pre-replace observer with its ID.
type registeredUpdating struct {
	id uint64
	fn UpdatingObserver
}

// registeredUpdated pairs a post-update observer with its ID.
type registeredUpdated struct {
	id uint64
	fn UpdatedObserver
}

// Notifier delivers configuration change signals synchronously on the
// calling goroutine, in subscription order. There is deliberately no
// subscriber isolation: observer errors propagate to the replacer and
// panics are not recovered. Observers that must never fail a replacement
// handle their own errors.
type Notifier struct {
	mu       sync.Mutex
	nextID   uint64
	updating []registeredUpdating
	updated  []registeredUpdated
}

// NewNotifier returns an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscription identifies one registered observer and removes it on
// Unsubscribe. Safe to call on a nil subscription and safe to call twice.
type Subscription struct {
	id       uint64
	notifier *Notifier
	updating bool
}

// Unsubscribe removes the observer. Delivery that is already in flight on
// another goroutine may still reach it once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.notifier.unsubscribe(s)
	s.notifier = nil
}

// SubscribeUpdating registers a pre-replace observer. Nil observers are
// ignored and return nil.
func (n *Notifier) SubscribeUpdating(fn UpdatingObserver) *Subscription {
	if fn == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.updating = append(n.updating, registeredUpdating{id: id, fn: fn})
	return &Subscription{id: id, notifier: n, updating: true}
}

// SubscribeUpdated registers a post-update observer. Nil observers are
// ignored and return nil.
func (n *Notifier) SubscribeUpdated(fn UpdatedObserver) *Subscription {
	if fn == nil {
		return nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.updated = append(n.updated, registeredUpdated{id: id, fn: fn})
	return &Subscription{id: id, notifier: n, updating: false}
}

func (n *Notifier) unsubscribe(s *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if s.updating {
		for i, o := range n.updating {
			if o.id == s.id {
				n.updating = append(n.updating[:i], n.updating[i+1:]...)
				return
			}
		}
		return
	}
	for i, o := range n.updated {
		if o.id == s.id {
			n.updated = append(n.updated[:i], n.updated[i+1:]...)
			return
		}
	}
}

// notifyUpdating delivers the pre-replace signal in subscription order.
// The first observer error stops delivery and is returned.
func (n *Notifier) notifyUpdating(candidate *ServerConfiguration) error {
	n.mu.Lock()
	observers := make([]registeredUpdating, len(n.updating))
	copy(observers, n.updating)
	n.mu.Unlock()

	for _, o := range observers {
		if err := o.fn(candidate); err != nil {
			return err
		}
	}
	return nil
}

// notifyUpdated delivers the post-update signal in subscription order.
// The first observer error stops delivery and is returned.
func (n *Notifier) notifyUpdated(ev UpdatedEvent) error {
	n.mu.Lock()
	observers := make([]registeredUpdated, len(n.updated))
	copy(observers, n.updated)
	n.mu.Unlock()

	for _, o := range observers {
		if err := o.fn(ev); err != nil {
			return err
		}
	}
	return nil
}
