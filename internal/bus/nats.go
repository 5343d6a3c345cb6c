package bus

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"

	"github.com/rainlanguage/sqlite-web/internal/logging"
)

var log = logging.New("bus")

// NATSBus wraps a single NATS subject with core (non-JetStream) publish and
// subscribe, deliberately without the JetStream persistence half: the bus
// must stay best-effort and non-durable, and JetStream is a durable stream
// by construction.
type NATSBus struct {
	conn    *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewNATSBus connects to url for publishing on subject. It does not
// subscribe: each Subscribe call opens its own subscription on subject.
func NewNATSBus(url, subject string) (*NATSBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}

	b := &NATSBus{conn: conn, subject: subject}
	return b, nil
}

func (b *NATSBus) Publish(ctx context.Context, typ MessageType, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := Envelope{Type: typ, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject, data)
}

func (b *NATSBus) Subscribe(h Handler) func() {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Warnf("discarding malformed message on %s: %v", b.subject, err)
			return
		}
		switch env.Type {
		case TypeLeaderAnnounce, TypeQueryRequest, TypeQueryResponse:
			h(context.Background(), env)
		default:
			log.Warnf("discarding unknown message type %q on %s", env.Type, b.subject)
		}
	})
	if err != nil {
		log.Errorf("subscribe to %s failed: %v", b.subject, err)
		return func() {}
	}
	b.sub = sub
	return func() { _ = sub.Unsubscribe() }
}

func (b *NATSBus) Close() error {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	b.conn.Close()
	return nil
}
