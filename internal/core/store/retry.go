package store

import (
	"context"
	"time"
)

const (
	remoteWriteTimeout = 10 * time.Second
	maxRetries         = 5
)

// remoteOp is one pending gateway write. The optimistic local state is
// already applied when the op is created; run confirms it remotely.
type remoteOp struct {
	name    string
	attempt int

	run func(ctx context.Context) error

	// confirm and fail flip the row's sync state. Either may be nil for
	// writes with no per-row sync tracking.
	confirm func()
	fail    func()

	// reject classifies an error as terminal. It returns true when the op
	// must not be retried, after performing any rollback itself.
	reject func(err error) bool
}

// asyncWrite runs a gateway write off the command path. A failed write marks
// the row failed and queues it for retry instead of failing the command.
// The wg registration happens under the mutex so a command racing Stop
// either joins the wait or is dropped, never added mid-wait.
func (s *Store) asyncWrite(op remoteOp) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.log.Warn("store stopped, dropping remote write", "op", op.name)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		s.execute(op)
	}()
}

func (s *Store) execute(op remoteOp) {
	ctx, cancel := context.WithTimeout(s.opCtx(), remoteWriteTimeout)
	err := op.run(ctx)
	cancel()

	if err == nil {
		if op.confirm != nil {
			op.confirm()
		}
		return
	}
	if op.reject != nil && op.reject(err) {
		return
	}

	s.log.Warn("remote write failed", "op", op.name, "attempt", op.attempt, "error", err)
	if op.fail != nil {
		op.fail()
	}
	if op.attempt >= maxRetries {
		s.log.Error("remote write abandoned", "op", op.name, "attempts", op.attempt, "error", err)
		return
	}
	op.attempt++
	select {
	case s.retryCh <- op:
	default:
		s.log.Error("retry queue full, dropping write", "op", op.name)
	}
}

// runRetry drains the retry queue with exponential backoff per attempt.
func (s *Store) runRetry(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-s.retryCh:
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff(op.attempt)):
			}
			s.execute(op)
		}
	}
}

func backoff(attempt int) time.Duration {
	d := time.Second << uint(attempt-1)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
