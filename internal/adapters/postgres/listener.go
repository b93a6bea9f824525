package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

// Channel the row-change triggers notify on.
const changeChannel = "campus_changes"

// Listener implements ports.ChangeFeed on top of Postgres LISTEN/NOTIFY.
// The migration installs row triggers that publish each change as a JSON
// sync event on the campus_changes channel.
type Listener struct {
	db  *DB
	log *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewListener(db *DB, log *slog.Logger) *Listener {
	return &Listener{db: db, log: log}
}

// Subscribe dedicates one pooled connection to LISTEN and delivers decoded
// events to the handler until the context ends. Lost connections are
// re-established with a short backoff.
func (l *Listener) Subscribe(ctx context.Context, handler func(domain.SyncEvent)) error {
	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for ctx.Err() == nil {
			if err := l.listen(ctx, handler); err != nil && ctx.Err() == nil {
				l.log.Warn("change feed connection lost", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(2 * time.Second):
				}
			}
		}
	}()
	return nil
}

func (l *Listener) listen(ctx context.Context, handler func(domain.SyncEvent)) error {
	conn, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// Hijack keeps the connection out of the pool for the LISTEN session.
	raw := conn.Hijack()
	defer raw.Close(context.WithoutCancel(ctx))

	if _, err := raw.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return err
	}

	for {
		note, err := raw.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ev domain.SyncEvent
		if err := json.Unmarshal([]byte(note.Payload), &ev); err != nil {
			l.log.Warn("undecodable change notification", "error", err)
			continue
		}
		confirm(&ev)
		metrics.SyncEventsApplied.WithLabelValues("feed").Inc()
		handler(ev)
	}
}

// confirm marks feed payloads as remotely confirmed: by definition the row
// already exists in the gateway when its trigger fires.
func confirm(ev *domain.SyncEvent) {
	switch {
	case ev.Complaint != nil:
		ev.Complaint.Sync = domain.SyncConfirmed
	case ev.BusChange != nil:
		ev.BusChange.Sync = domain.SyncConfirmed
	case ev.Visit != nil:
		ev.Visit.Sync = domain.SyncConfirmed
	case ev.Seat != nil:
		ev.Seat.Sync = domain.SyncConfirmed
	}
}

func (l *Listener) Close() {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()
}
