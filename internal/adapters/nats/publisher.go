package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

// Subjects shared by every portal instance.
const (
	SubjectSync      = "campus.sync.events"
	SubjectPositions = "campus.positions"
)

// Publisher implements ports.SyncPublisher on core NATS. Sync events are
// ephemeral fan-out between live instances, so no stream retention is
// involved; a late joiner hydrates from the gateway instead of replay.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) PublishSync(ctx context.Context, ev domain.SyncEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectSync, data)
}

func (p *Publisher) PublishPositions(ctx context.Context, positions map[string]domain.LivePosition) error {
	data, err := json.Marshal(positions)
	if err != nil {
		return err
	}
	metrics.PositionBroadcasts.Inc()
	return p.conn.Publish(SubjectPositions, data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Connect opens a NATS connection with the shared retry settings.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
