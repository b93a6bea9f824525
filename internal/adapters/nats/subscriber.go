package natsadapter

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

// Subscriber implements ports.SyncSubscriber. Deliveries include the echo
// of this instance's own publishes; the store's merge is idempotent, so the
// echo is harmless.
type Subscriber struct {
	conn *nats.Conn
	log  *slog.Logger
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string, log *slog.Logger) (*Subscriber, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{conn: conn, log: log}, nil
}

func (s *Subscriber) SubscribeSync(ctx context.Context, handler func(domain.SyncEvent)) error {
	sub, err := s.conn.Subscribe(SubjectSync, func(msg *nats.Msg) {
		var ev domain.SyncEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.log.Warn("undecodable sync event", "error", err)
			return
		}
		metrics.SyncEventsApplied.WithLabelValues("broadcast").Inc()
		handler(ev)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
