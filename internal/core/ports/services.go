package ports

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// SyncPublisher publishes sync events to the cross-context broadcast bus.
// Delivery is fire-and-forget: no ordering guarantee across contexts.
type SyncPublisher interface {
	PublishSync(ctx context.Context, ev domain.SyncEvent) error
	PublishPositions(ctx context.Context, positions map[string]domain.LivePosition) error
}

// SyncSubscriber receives sync events from sibling contexts, including the
// publisher's own echo; handlers must apply them idempotently.
type SyncSubscriber interface {
	SubscribeSync(ctx context.Context, handler func(domain.SyncEvent)) error
	Close()
}

// CollectionCache is the durable local cache. One key per locally
// persisted collection, each holding a serialized snapshot.
type CollectionCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ApprovalDispatcher hands a bus-change approval to a durable executor
// (the Temporal worker) so the multi-write transition survives crashes.
type ApprovalDispatcher interface {
	DispatchApproval(ctx context.Context, requestID, studentID, requestedBusID, note string) error
}
