package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUpdatedObserversRunInSubscriptionOrder verifies delivery order matches
// subscription order.
func TestUpdatedObserversRunInSubscriptionOrder(t *testing.T) {
	n := NewNotifier()
	var order []int
	for i := 0; i < 4; i++ {
		i := i
		n.SubscribeUpdated(func(UpdatedEvent) error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))
	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

// TestUpdatingObserversRunInSubscriptionOrder verifies the pre-replace
// channel keeps the same ordering guarantee.
func TestUpdatingObserversRunInSubscriptionOrder(t *testing.T) {
	n := NewNotifier()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		n.SubscribeUpdating(func(*ServerConfiguration) error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, n.notifyUpdating(DefaultServerConfiguration()))
	assert.Equal(t, []int{0, 1, 2}, order)
}

// TestObserverErrorStopsDelivery verifies there is no subscriber isolation:
// the first error halts the chain and later observers never run.
func TestObserverErrorStopsDelivery(t *testing.T) {
	n := NewNotifier()
	boom := errors.New("observer failed")
	var after int

	n.SubscribeUpdated(func(UpdatedEvent) error { return nil })
	n.SubscribeUpdated(func(UpdatedEvent) error { return boom })
	n.SubscribeUpdated(func(UpdatedEvent) error {
		after++
		return nil
	})

	err := n.notifyUpdated(UpdatedEvent{})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, after, "observer after the failing one must not run")
}

// TestUpdatingObserverErrorPropagates verifies a pre-replace veto surfaces
// to the caller unchanged.
func TestUpdatingObserverErrorPropagates(t *testing.T) {
	n := NewNotifier()
	veto := errors.New("not now")
	n.SubscribeUpdating(func(*ServerConfiguration) error { return veto })

	assert.ErrorIs(t, n.notifyUpdating(DefaultServerConfiguration()), veto)
}

// TestUnsubscribeRemovesObserver verifies an unsubscribed observer stops
// receiving events while the others still do.
func TestUnsubscribeRemovesObserver(t *testing.T) {
	n := NewNotifier()
	var first, second int

	subFirst := n.SubscribeUpdated(func(UpdatedEvent) error {
		first++
		return nil
	})
	n.SubscribeUpdated(func(UpdatedEvent) error {
		second++
		return nil
	})

	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))
	subFirst.Unsubscribe()
	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

// TestUnsubscribeIsIdempotent verifies double and nil unsubscribes are
// harmless.
func TestUnsubscribeIsIdempotent(t *testing.T) {
	n := NewNotifier()
	sub := n.SubscribeUpdating(func(*ServerConfiguration) error { return nil })
	sub.Unsubscribe()
	sub.Unsubscribe()

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

// TestSubscribeNilObserverReturnsNil verifies nil observers are ignored.
func TestSubscribeNilObserverReturnsNil(t *testing.T) {
	n := NewNotifier()
	assert.Nil(t, n.SubscribeUpdating(nil))
	assert.Nil(t, n.SubscribeUpdated(nil))
	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))
}

// TestUpdatedEventRoot verifies root detection on the event key.
func TestUpdatedEventRoot(t *testing.T) {
	assert.True(t, UpdatedEvent{Fragment: DefaultServerConfiguration()}.Root())
	assert.False(t, UpdatedEvent{Key: EncodingKey}.Root())
}

// TestObserverMaySubscribeDuringDelivery verifies delivery iterates over a
// snapshot, so subscribing from inside an observer neither deadlocks nor
// feeds the new observer the in-flight event.
func TestObserverMaySubscribeDuringDelivery(t *testing.T) {
	n := NewNotifier()
	var late int

	n.SubscribeUpdated(func(UpdatedEvent) error {
		n.SubscribeUpdated(func(UpdatedEvent) error {
			late++
			return nil
		})
		return nil
	})

	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))
	assert.Zero(t, late, "observer subscribed mid-delivery should not see the current event")

	require.NoError(t, n.notifyUpdated(UpdatedEvent{}))
	assert.Equal(t, 1, late)
}
