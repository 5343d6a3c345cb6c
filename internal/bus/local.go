package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// LocalBus is an in-memory fan-out that calls each subscribed handler on its
// own goroutine, used by tests and
// single-process demos so the full protocol can be exercised without a
// running NATS server, by dispatching directly rather than through a live
// NATS connection.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[int]Handler
	nextID   int
	closed   bool
}

// NewLocalBus creates an empty, ready-to-use LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[int]Handler)}
}

func (b *LocalBus) Publish(ctx context.Context, typ MessageType, payload any) error {
	switch typ {
	case TypeLeaderAnnounce, TypeQueryRequest, TypeQueryResponse:
	default:
		log.Warnf("discarding unknown message type %q", typ)
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := Envelope{Type: typ, Payload: raw}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, h := range b.handlers {
		go h(ctx, env)
	}
	return nil
}

func (b *LocalBus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
