package events

import (
	"sync"

	"shop-service/models"

	"go.uber.org/zap"
)

// subscriberBuffer bounds how many undelivered events a single connection may
// hold before it is considered stalled and dropped.
const subscriberBuffer = 16

// Subscriber is a handle for one long-lived client connection. Events arrive
// on C until the broadcaster closes it (unsubscribe, stall, or shutdown).
type Subscriber struct {
	ch chan models.Event
}

// C returns the receive side of the subscriber's event channel. The channel
// is closed when the subscription ends.
func (s *Subscriber) C() <-chan models.Event {
	return s.ch
}

// Broadcaster fans events out to every registered subscriber. The registry is
// the one piece of process-wide shared mutable state; all registration,
// removal and publish iteration happen under a single mutex.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
	logger *zap.Logger
}

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new subscriber. After Close it returns a handle whose
// channel is already closed, so callers see an immediately-ended stream.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{ch: make(chan models.Event, subscriberBuffer)}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	b.logger.Debug("Subscriber registered", zap.Int("subscribers", len(b.subs)))
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call more
// than once and safe for handles the broadcaster already dropped.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub)
}

// Publish delivers evt to every subscriber registered at call time. Sends are
// non-blocking: a subscriber with a full buffer is stalled, gets dropped, and
// never holds up delivery to the rest.
func (b *Broadcaster) Publish(evt models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
			b.logger.Warn("Dropping stalled subscriber",
				zap.String("event_type", evt.Type),
			)
			b.remove(sub)
		}
	}

	b.logger.Info("Event published",
		zap.String("event_type", evt.Type),
		zap.String("order_id", evt.OrderID),
		zap.Int("subscribers", len(b.subs)),
	)
}

// Len reports the number of currently registered subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close releases every handle. Called once at process shutdown.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		b.remove(sub)
	}
}

// remove must be called with b.mu held.
func (b *Broadcaster) remove(sub *Subscriber) {
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}
