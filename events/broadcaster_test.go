package events

import (
	"sync"
	"testing"

	"shop-service/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestBroadcaster() *Broadcaster {
	return NewBroadcaster(zap.NewNop())
}

func drain(ch <-chan models.Event) []models.Event {
	var got []models.Event
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, evt)
		default:
			return got
		}
	}
}

func TestPublish_FanOutToAllSubscribers(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	subs := []*Subscriber{b.Subscribe(), b.Subscribe(), b.Subscribe()}
	evt := models.Event{Type: models.EventPaymentSucceeded, OrderID: "abc123"}

	b.Publish(evt)

	for _, sub := range subs {
		got := drain(sub.C())
		assert.Equal(t, []models.Event{evt}, got)
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	// Must not panic or block.
	b.Publish(models.Event{Type: models.EventPaymentSucceeded})
}

func TestSubscribeAfterPublish_NoReplay(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	b.Publish(models.Event{Type: models.EventPaymentSucceeded, OrderID: "abc123"})
	late := b.Subscribe()

	assert.Empty(t, drain(late.C()))
}

func TestUnsubscribe_NotDeliveredAndIdempotent(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	stay := b.Subscribe()
	gone := b.Subscribe()

	b.Unsubscribe(gone)
	b.Unsubscribe(gone) // second call is a no-op

	assert.Equal(t, 1, b.Len())

	evt := models.Event{Type: models.EventPaymentSucceeded, OrderID: "o1"}
	b.Publish(evt)

	assert.Equal(t, []models.Event{evt}, drain(stay.C()))

	// The removed subscriber's channel is closed and empty.
	_, open := <-gone.C()
	assert.False(t, open)
}

func TestPublish_StalledSubscriberDroppedOthersDelivered(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	stalled := b.Subscribe()
	healthy := b.Subscribe()

	// Fill the stalled subscriber's buffer so the next send cannot proceed.
	for i := 0; i < subscriberBuffer; i++ {
		b.Publish(models.Event{Type: models.EventPaymentSucceeded, OrderID: "fill"})
		drain(healthy.C())
	}

	evt := models.Event{Type: models.EventPaymentSucceeded, OrderID: "final"}
	b.Publish(evt)

	assert.Equal(t, []models.Event{evt}, drain(healthy.C()))
	assert.Equal(t, 1, b.Len())

	// Dropped subscriber keeps its buffered events, then sees the close.
	got := drain(stalled.C())
	assert.Len(t, got, subscriberBuffer)
	_, open := <-stalled.C()
	assert.False(t, open)
}

func TestClose_ReleasesAllHandles(t *testing.T) {
	b := newTestBroadcaster()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Close()
	b.Close() // idempotent

	assert.Equal(t, 0, b.Len())
	for _, sub := range []*Subscriber{s1, s2} {
		_, open := <-sub.C()
		assert.False(t, open)
	}

	// Subscribing after shutdown yields an already-ended stream.
	late := b.Subscribe()
	_, open := <-late.C()
	assert.False(t, open)
}

func TestConcurrentSubscribePublishUnsubscribe(t *testing.T) {
	b := newTestBroadcaster()
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := b.Subscribe()
			b.Publish(models.Event{Type: models.EventPaymentSucceeded})
			drain(sub.C())
			b.Unsubscribe(sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, b.Len())
}
