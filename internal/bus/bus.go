package bus

import "context"

// Handler receives decoded messages from the bus. Unknown message types
// never reach a Handler — they are logged and discarded by the
// implementation before dispatch.
type Handler func(ctx context.Context, msg Envelope)

// Bus is the inter-context channel. Both implementations are best-effort
// and non-durable: a message published while no one is subscribed is
// simply lost, and neither implementation retries delivery.
type Bus interface {
	// Publish encodes and sends payload under typ on the shared channel.
	Publish(ctx context.Context, typ MessageType, payload any) error

	// Subscribe registers h to receive every message published after this
	// call, across the lifetime of the Bus. Returns an unsubscribe func.
	Subscribe(h Handler) (unsubscribe func())

	// Close releases any underlying connection or goroutines.
	Close() error
}
