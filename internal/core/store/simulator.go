package store

import (
	"context"
	"time"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// runSimulator jitters live positions every tick and broadcasts the fresh
// map. Stationary buses (speed 0) do not move.
func (s *Store) runSimulator(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snapshot := s.stepPositions()
			if s.pub != nil && len(snapshot) > 0 {
				if err := s.pub.PublishPositions(ctx, snapshot); err != nil {
					s.log.Warn("position broadcast failed", "error", err)
				}
			}
		}
	}
}

// stepPositions applies one simulation step and returns a copy of the
// resulting map. An empty position map is a no-op.
func (s *Store) stepPositions() map[string]domain.LivePosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]domain.LivePosition, len(s.positions))
	for id, p := range s.positions {
		if p.Speed > 0 {
			p.Lat += (s.rng.Float64() - 0.5) * 0.002
			p.Lon += (s.rng.Float64() - 0.5) * 0.002
		}
		s.positions[id] = p
		snapshot[id] = p
	}
	return snapshot
}
