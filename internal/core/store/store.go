// Package store implements the synchronized domain store: the canonical
// in-memory state for every transit entity, seeded from the remote gateway,
// kept current by the gateway change feed and the cross-context broadcast
// bus, and mutated only through business-rule-checked commands.
package store

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/core/ports"
	"github.com/adityarao/campus-transit/internal/seed"
)

// Durable cache keys, one per locally persisted collection.
const (
	cacheKeyComplaints = "ct_complaints"
	cacheKeyBusChanges = "ct_bus_changes"
	cacheKeyVisits     = "ct_visits"
)

// Data source labels exposed to consumers for degraded-mode indicators.
const (
	SourceFallback = "fallback"
	SourceRemote   = "remote"
)

// Config wires a store instance. Gateway is required; everything else is
// optional and degrades gracefully when absent (tests usually run with just
// the gateway, or with nothing at all).
type Config struct {
	Gateway    ports.Gateway
	Cache      ports.CollectionCache
	Publisher  ports.SyncPublisher
	Subscriber ports.SyncSubscriber
	Feed       ports.ChangeFeed
	Approvals  ports.ApprovalDispatcher
	Logger     *slog.Logger

	// TickInterval is the position-simulator period. Zero means the
	// 3-second default.
	TickInterval time.Duration

	// Rand lets tests pin the jitter sequence. Nil gets a time-seeded one.
	Rand *rand.Rand
}

// Store is safe for concurrent use: commands, feed callbacks, broadcast
// callbacks and the simulator tick all serialize on one mutex, so events
// apply in arrival order within this process.
type Store struct {
	mu sync.RWMutex

	routes     []domain.Route
	buses      []domain.Bus
	drivers    []domain.Driver
	students   []domain.Student
	complaints []domain.Complaint
	busChanges []domain.BusChangeRequest
	visits     []domain.IndustrialVisit
	seats      map[string]map[string]domain.SeatBooking
	positions  map[string]domain.LivePosition
	dataSource string

	gw        ports.Gateway
	cache     ports.CollectionCache
	pub       ports.SyncPublisher
	sub       ports.SyncSubscriber
	feed      ports.ChangeFeed
	approvals ports.ApprovalDispatcher

	log  *slog.Logger
	rng  *rand.Rand
	tick time.Duration

	retryCh chan remoteOp

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// New builds a store pre-seeded with the bundled fallback collections. Call
// Start to hydrate from the gateway and begin syncing.
func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tick := cfg.TickInterval
	if tick == 0 {
		tick = 3 * time.Second
	}

	s := &Store{
		routes:     seed.Routes(),
		buses:      seed.Buses(),
		drivers:    seed.Drivers(),
		seats:      make(map[string]map[string]domain.SeatBooking),
		dataSource: SourceFallback,
		gw:         cfg.Gateway,
		cache:      cfg.Cache,
		pub:        cfg.Publisher,
		sub:        cfg.Subscriber,
		feed:       cfg.Feed,
		approvals:  cfg.Approvals,
		log:        logger,
		rng:        rng,
		tick:       tick,
		retryCh:    make(chan remoteOp, 64),
	}
	s.positions = seed.Positions(s.buses, rng)
	return s
}

// Start hydrates the store and begins the sync machinery. It returns after
// the first remote fetch attempt completes; a failed fetch leaves the store
// on its fallback (or cached) collections rather than blocking.
func (s *Store) Start(ctx context.Context) error {
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	// Cached collections replace fallback before the remote fetch so a
	// restart shows last-known-local state with no flicker.
	s.loadCached(ctx)
	s.fetchRemote(ctx)

	if s.feed != nil {
		if err := s.feed.Subscribe(s.baseCtx, s.Apply); err != nil {
			s.log.Warn("change feed unavailable", "error", err)
		}
	}
	if s.sub != nil {
		if err := s.sub.SubscribeSync(s.baseCtx, s.Apply); err != nil {
			s.log.Warn("broadcast bus unavailable", "error", err)
		}
	}

	s.wg.Add(2)
	go s.runSimulator(s.baseCtx)
	go s.runRetry(s.baseCtx)
	return nil
}

// Stop unsubscribes from both channels and stops the background loops. The
// store remains readable afterwards.
func (s *Store) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.feed != nil {
		s.feed.Close()
	}
	if s.sub != nil {
		s.sub.Close()
	}
	s.wg.Wait()
}

// --- Read accessors -------------------------------------------------------

// DataSource reports whether the store is backed by fallback/cached data or
// a successfully loaded remote snapshot.
func (s *Store) DataSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataSource
}

func (s *Store) Routes() []domain.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Route(nil), s.routes...)
}

func (s *Store) Buses() []domain.Bus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Bus(nil), s.buses...)
}

func (s *Store) Drivers() []domain.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Driver(nil), s.drivers...)
}

func (s *Store) Students() []domain.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Student(nil), s.students...)
}

func (s *Store) Complaints() []domain.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Complaint(nil), s.complaints...)
}

func (s *Store) BusChanges() []domain.BusChangeRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BusChangeRequest(nil), s.busChanges...)
}

func (s *Store) Visits() []domain.IndustrialVisit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.IndustrialVisit(nil), s.visits...)
}

// Positions returns a copy of the live position map.
func (s *Store) Positions() map[string]domain.LivePosition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.LivePosition, len(s.positions))
	for id, p := range s.positions {
		out[id] = p
	}
	return out
}

// BusByID looks up a bus.
func (s *Store) BusByID(id string) (domain.Bus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busByIDLocked(id)
}

func (s *Store) busByIDLocked(id string) (domain.Bus, bool) {
	for _, b := range s.buses {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Bus{}, false
}

// DriverByBusID returns the driver currently linked to a bus.
func (s *Store) DriverByBusID(busID string) (domain.Driver, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drivers {
		if d.BusID == busID {
			return d, true
		}
	}
	return domain.Driver{}, false
}

// RouteByID looks up a route.
func (s *Store) RouteByID(id string) (domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.routes {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Route{}, false
}

// RouteByBusID resolves a bus's owning route.
func (s *Store) RouteByBusID(busID string) (domain.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bus, ok := s.busByIDLocked(busID)
	if !ok {
		return domain.Route{}, false
	}
	for _, r := range s.routes {
		if r.ID == bus.RouteID {
			return r, true
		}
	}
	return domain.Route{}, false
}

// SeatLayout projects the current bookings for a bus into the fixed
// 4-across arrangement.
func (s *Store) SeatLayout(busID string) ([][]domain.Seat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bus, ok := s.busByIDLocked(busID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	capacity := bus.TotalSeats
	if capacity == 0 {
		capacity = bus.Capacity
	}
	if capacity == 0 {
		capacity = domain.BusCapacity
	}
	return domain.SeatLayout(busID, capacity, s.seats[busID]), nil
}

// StudentBooking scans all bookings for the student's seat. The scan is
// O(buses x seats), which is fine at fleet scale.
func (s *Store) StudentBooking(studentID string) (domain.SeatBooking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.studentBookingLocked(studentID)
}

func (s *Store) studentBookingLocked(studentID string) (domain.SeatBooking, bool) {
	// Walk buses in fleet order and seats in sorted order so the "first
	// match" is deterministic even if duplicate bookings ever existed.
	for _, bus := range s.buses {
		byBus := s.seats[bus.ID]
		if len(byBus) == 0 {
			continue
		}
		nums := make([]string, 0, len(byBus))
		for num := range byBus {
			nums = append(nums, num)
		}
		sort.Strings(nums)
		for _, num := range nums {
			if b := byBus[num]; b.StudentID == studentID {
				return b, true
			}
		}
	}
	return domain.SeatBooking{}, false
}
