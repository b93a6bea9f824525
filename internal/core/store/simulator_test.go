package store

import (
	"math/rand"
	"testing"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

func TestStepPositionsMovesOnlyMovingBuses(t *testing.T) {
	s := New(Config{Rand: rand.New(rand.NewSource(1))})
	s.positions = map[string]domain.LivePosition{
		"BUS01": {Lat: 28.25, Lon: 77.05, Heading: 90, Speed: 35},
		"BUS03": {Lat: 28.30, Lon: 77.10, Heading: 180, Speed: 0},
	}

	before := s.Positions()
	snapshot := s.stepPositions()

	moved := snapshot["BUS01"]
	if moved.Lat == before["BUS01"].Lat && moved.Lon == before["BUS01"].Lon {
		t.Fatal("moving bus did not move")
	}
	if d := moved.Lat - before["BUS01"].Lat; d > 0.001 || d < -0.001 {
		t.Fatalf("lat jitter %v exceeds bound", d)
	}
	if d := moved.Lon - before["BUS01"].Lon; d > 0.001 || d < -0.001 {
		t.Fatalf("lon jitter %v exceeds bound", d)
	}
	if snapshot["BUS03"] != before["BUS03"] {
		t.Fatalf("stationary bus moved: %+v", snapshot["BUS03"])
	}
}

func TestStepPositionsToleratesEmptyMap(t *testing.T) {
	s := New(Config{Rand: rand.New(rand.NewSource(1))})
	s.positions = map[string]domain.LivePosition{}
	if got := s.stepPositions(); len(got) != 0 {
		t.Fatalf("snapshot = %+v, want empty", got)
	}
}
