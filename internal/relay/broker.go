// Package relay fans annotation events out to streaming clients, as SSE and
// as WebSocket frames.
package relay

import (
	"sync"
	"sync/atomic"

	"github.com/dgnsrekt/chartmark/internal/annotate"
)

const subscriberBufSize = 256

// Broker fans out annotation events to all subscribed clients.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[int64]chan annotate.Event
	nextID      atomic.Int64
}

// NewBroker creates an event broker.
func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int64]chan annotate.Event)}
}

// Subscribe registers a new client. Returns the subscriber ID and a channel
// to receive events on. The channel is buffered; slow consumers have events
// dropped.
func (b *Broker) Subscribe() (int64, <-chan annotate.Event) {
	id := b.nextID.Add(1)
	ch := make(chan annotate.Event, subscriberBufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id int64) {
	b.mu.Lock()
	ch, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers without blocking.
func (b *Broker) Publish(evt annotate.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// ClientCount returns the number of active subscribers.
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
