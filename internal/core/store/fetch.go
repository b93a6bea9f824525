package store

import (
	"context"
	"encoding/json"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/seed"
)

// loadCached restores the three locally persisted collections. A non-empty
// snapshot fully replaces the fallback collection.
func (s *Store) loadCached(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if cs := loadSnapshot[domain.Complaint](ctx, s, cacheKeyComplaints); len(cs) > 0 {
		s.mu.Lock()
		s.complaints = cs
		s.mu.Unlock()
	}
	if rs := loadSnapshot[domain.BusChangeRequest](ctx, s, cacheKeyBusChanges); len(rs) > 0 {
		s.mu.Lock()
		s.busChanges = rs
		s.mu.Unlock()
	}
	if vs := loadSnapshot[domain.IndustrialVisit](ctx, s, cacheKeyVisits); len(vs) > 0 {
		s.mu.Lock()
		s.visits = vs
		s.mu.Unlock()
	}
}

func loadSnapshot[T any](ctx context.Context, s *Store, key string) []T {
	data, err := s.cache.Get(ctx, key)
	if err != nil || len(data) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		s.log.Warn("corrupt cache snapshot dropped", "key", key, "error", err)
		return nil
	}
	return out
}

// fetchRemote issues one query per entity type. Each successful non-empty
// result fully replaces the in-memory collection; failures and empty
// results keep whatever the store already holds. Once anything replaces,
// the store reports a remote data source.
func (s *Store) fetchRemote(ctx context.Context) {
	remote := false

	if s.gw.Routes != nil {
		if routes, err := s.gw.Routes.ListWithStops(ctx); err != nil {
			s.log.Warn("fetch routes", "error", err)
		} else if len(routes) > 0 {
			s.mu.Lock()
			s.routes = routes
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Buses != nil {
		if buses, err := s.gw.Buses.List(ctx); err != nil {
			s.log.Warn("fetch buses", "error", err)
		} else if len(buses) > 0 {
			s.mu.Lock()
			s.buses = buses
			// Positions are ephemeral: regenerate around the campus
			// centroid for whichever fleet won.
			s.positions = seed.Positions(buses, s.rng)
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Drivers != nil {
		if drivers, err := s.gw.Drivers.List(ctx); err != nil {
			s.log.Warn("fetch drivers", "error", err)
		} else if len(drivers) > 0 {
			s.mu.Lock()
			s.drivers = drivers
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Students != nil {
		if students, err := s.gw.Students.List(ctx); err != nil {
			s.log.Warn("fetch students", "error", err)
		} else if len(students) > 0 {
			s.mu.Lock()
			s.students = students
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Complaints != nil {
		if complaints, err := s.gw.Complaints.List(ctx); err != nil {
			s.log.Warn("fetch complaints", "error", err)
		} else if len(complaints) > 0 {
			s.mu.Lock()
			s.complaints = complaints
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Seats != nil {
		if bookings, err := s.gw.Seats.List(ctx); err != nil {
			s.log.Warn("fetch seats", "error", err)
		} else if len(bookings) > 0 {
			seats := make(map[string]map[string]domain.SeatBooking)
			for _, b := range bookings {
				b.Sync = domain.SyncConfirmed
				if seats[b.BusID] == nil {
					seats[b.BusID] = make(map[string]domain.SeatBooking)
				}
				seats[b.BusID][b.SeatNumber] = b
			}
			s.mu.Lock()
			s.seats = seats
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.BusChanges != nil {
		if reqs, err := s.gw.BusChanges.List(ctx); err != nil {
			s.log.Warn("fetch bus change requests", "error", err)
		} else if len(reqs) > 0 {
			s.mu.Lock()
			s.busChanges = reqs
			s.mu.Unlock()
			remote = true
		}
	}

	if s.gw.Visits != nil {
		if visits, err := s.gw.Visits.List(ctx); err != nil {
			s.log.Warn("fetch industrial visits", "error", err)
		} else if len(visits) > 0 {
			s.mu.Lock()
			s.visits = visits
			s.mu.Unlock()
			remote = true
		}
	}

	if remote {
		s.mu.Lock()
		s.dataSource = SourceRemote
		s.mu.Unlock()
		s.log.Info("store hydrated from remote gateway")
	} else {
		s.log.Info("store running on fallback data")
	}
}

// persistComplaintsLocked rewrites the durable cache snapshot. Callers hold
// the write lock.
func (s *Store) persistComplaintsLocked() {
	s.persistLocked(cacheKeyComplaints, s.complaints)
}

func (s *Store) persistBusChangesLocked() {
	s.persistLocked(cacheKeyBusChanges, s.busChanges)
}

func (s *Store) persistVisitsLocked() {
	s.persistLocked(cacheKeyVisits, s.visits)
}

func (s *Store) persistLocked(key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}
