package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/core/ports"
	"github.com/adityarao/campus-transit/internal/core/store"
)

type pubMock struct {
	mu        sync.Mutex
	events    []domain.SyncEvent
	positions int
}

func (p *pubMock) PublishSync(ctx context.Context, ev domain.SyncEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *pubMock) PublishPositions(ctx context.Context, _ map[string]domain.LivePosition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions++
	return nil
}

func (p *pubMock) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

type cacheMock struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newCacheMock() *cacheMock { return &cacheMock{m: make(map[string][]byte)} }

func (c *cacheMock) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key], nil
}

func (c *cacheMock) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = append([]byte(nil), value...)
	return nil
}

func (c *cacheMock) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
	return nil
}

type seatRepoMock struct {
	listFn    func(ctx context.Context) ([]domain.SeatBooking, error)
	bookFn    func(ctx context.Context, b *domain.SeatBooking) error
	releaseFn func(ctx context.Context, busID, seatNumber string) error
}

func (m *seatRepoMock) List(ctx context.Context) ([]domain.SeatBooking, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *seatRepoMock) Book(ctx context.Context, b *domain.SeatBooking) error {
	if m.bookFn == nil {
		return nil
	}
	return m.bookFn(ctx, b)
}

func (m *seatRepoMock) Release(ctx context.Context, busID, seatNumber string) error {
	if m.releaseFn == nil {
		return nil
	}
	return m.releaseFn(ctx, busID, seatNumber)
}

type busRepoMock struct {
	listFn func(ctx context.Context) ([]domain.Bus, error)
}

func (m *busRepoMock) List(ctx context.Context) ([]domain.Bus, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *busRepoMock) SetDriver(ctx context.Context, busID, driverID string) error { return nil }

func newLocalStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(store.Config{})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBookSeatFleetWideUniqueness(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	if _, err := s.BookSeat(ctx, "BUS01", "A1", "STU010", "Asha Verma"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := s.BookSeat(ctx, "BUS02", "C3", "STU010", "Asha Verma")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second booking on another bus: want ConflictError, got %v", err)
	}

	b, ok := s.StudentBooking("STU010")
	if !ok || b.BusID != "BUS01" || b.SeatNumber != "A1" {
		t.Fatalf("student booking = %+v, want BUS01/A1", b)
	}
}

func TestBookSeatSeatExclusivity(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	if _, err := s.BookSeat(ctx, "BUS01", "B2", "STU001", "First"); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := s.BookSeat(ctx, "BUS01", "B2", "STU002", "Second")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("want ConflictError for taken seat, got %v", err)
	}
}

func TestBookSeatValidation(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	if _, err := s.BookSeat(ctx, "BUS99", "A1", "STU001", "X"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown bus: want ErrNotFound, got %v", err)
	}
	_, err := s.BookSeat(ctx, "BUS01", "E1", "STU001", "X")
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("seat outside layout: want ValidationError, got %v", err)
	}
	if _, err := s.BookSeat(ctx, "BUS01", "A99", "STU001", "X"); !errors.As(err, &invalid) {
		t.Fatalf("row outside layout: want ValidationError, got %v", err)
	}
}

func TestBookSeatRemoteConflictRollsBack(t *testing.T) {
	pub := &pubMock{}
	s := store.New(store.Config{
		Gateway: ports.Gateway{Seats: &seatRepoMock{
			bookFn: func(ctx context.Context, b *domain.SeatBooking) error {
				return domain.ErrSeatConflict
			},
		}},
		Publisher: pub,
	})
	ctx := context.Background()

	b, err := s.BookSeat(ctx, "BUS01", "A1", "STU001", "X")
	if err != nil {
		t.Fatalf("optimistic booking should succeed locally: %v", err)
	}
	if b.Sync != domain.SyncPending {
		t.Fatalf("fresh remote-backed booking sync = %q, want pending", b.Sync)
	}

	waitFor(t, "rollback after remote conflict", func() bool {
		_, held := s.StudentBooking("STU001")
		return !held
	})

	var sawRemove bool
	for _, k := range pub.kinds() {
		if k == domain.EventRemoveSeat {
			sawRemove = true
		}
	}
	if !sawRemove {
		t.Fatal("rollback did not broadcast a seat removal")
	}
}

func TestBookSeatRemoteErrorMarksFailed(t *testing.T) {
	s := store.New(store.Config{
		Gateway: ports.Gateway{Seats: &seatRepoMock{
			bookFn: func(ctx context.Context, b *domain.SeatBooking) error {
				return errors.New("gateway down")
			},
		}},
	})
	if _, err := s.BookSeat(context.Background(), "BUS01", "A1", "STU001", "X"); err != nil {
		t.Fatalf("booking: %v", err)
	}
	waitFor(t, "sync state to flip to failed", func() bool {
		b, ok := s.StudentBooking("STU001")
		return ok && b.Sync == domain.SyncFailed
	})
}

func TestDecideBusChangeApprovalAutoRejects(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	first, err := s.SubmitBusChange(ctx, domain.BusChangeRequest{
		StudentID: "STU001", StudentName: "A", CurrentBusID: "BUS01", RequestedBusID: "BUS02", Reason: "moved",
	})
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	second, err := s.SubmitBusChange(ctx, domain.BusChangeRequest{
		StudentID: "STU001", StudentName: "A", CurrentBusID: "BUS01", RequestedBusID: "BUS03", Reason: "moved again",
	})
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}

	approved, err := s.DecideBusChange(ctx, first.ID, domain.StatusApproved, "ok")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.StatusApproved || approved.AdminNote != "ok" {
		t.Fatalf("approved request = %+v", approved)
	}

	for _, r := range s.BusChanges() {
		if r.ID != second.ID {
			continue
		}
		if r.Status != domain.StatusRejected {
			t.Fatalf("sibling pending request status = %q, want rejected", r.Status)
		}
		if r.AdminNote == "" {
			t.Fatal("auto-rejected request carries no note")
		}
	}
}

func TestDecideBusChangeSingleTransition(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	req, err := s.SubmitBusChange(ctx, domain.BusChangeRequest{
		StudentID: "STU001", CurrentBusID: "BUS01", RequestedBusID: "BUS02",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.DecideBusChange(ctx, req.ID, domain.StatusRejected, "no"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	_, err = s.DecideBusChange(ctx, req.ID, domain.StatusApproved, "changed my mind")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second decision: want ConflictError, got %v", err)
	}
}

func TestSubmitBusChangeValidation(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.SubmitBusChange(ctx, domain.BusChangeRequest{
		StudentID: "STU001", CurrentBusID: "BUS01", RequestedBusID: "BUS01",
	})
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("same-bus request: want ValidationError, got %v", err)
	}
	_, err = s.SubmitBusChange(ctx, domain.BusChangeRequest{
		StudentID: "STU001", CurrentBusID: "BUS01", RequestedBusID: "BUS99",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown requested bus: want ErrNotFound, got %v", err)
	}
}

func TestComplaintStatusForwardOnly(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	c, err := s.AddComplaint(ctx, domain.Complaint{
		StudentID: "STU001", StudentName: "A", BusID: "BUS01",
		Category: "cleanliness", Subject: "dusty seats", Description: "row 4",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Status != domain.StatusPending {
		t.Fatalf("new complaint status = %q", c.Status)
	}

	upd, err := s.UpdateComplaintStatus(ctx, c.ID, domain.StatusResolved, "cleaned")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if upd.Response != "cleaned" {
		t.Fatalf("response = %q", upd.Response)
	}

	_, err = s.UpdateComplaintStatus(ctx, c.ID, domain.StatusInProgress, "")
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("backward transition: want ConflictError, got %v", err)
	}

	// Re-sending the terminal status is idempotent and keeps the response.
	again, err := s.UpdateComplaintStatus(ctx, c.ID, domain.StatusResolved, "")
	if err != nil {
		t.Fatalf("idempotent resolve: %v", err)
	}
	if again.Response != "cleaned" {
		t.Fatalf("response dropped on repeat: %q", again.Response)
	}
}

func TestAddVisitCapacityGuard(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.AddVisit(ctx, domain.IndustrialVisit{
		FacultyID: "FAC01", FacultyName: "Dr. Rao", Destination: "Maruti Plant",
		VisitDate: "2026-09-15", Students: 120, Purpose: "plant tour",
	})
	var invalid *domain.ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("oversized visit: want ValidationError, got %v", err)
	}
	if want := "3 buses"; !strings.Contains(err.Error(), want) {
		t.Fatalf("error %q does not name the buses needed (%s)", err.Error(), want)
	}

	v, err := s.AddVisit(ctx, domain.IndustrialVisit{
		FacultyID: "FAC01", FacultyName: "Dr. Rao", Destination: "Maruti Plant",
		VisitDate: "2026-09-15", Students: domain.BusCapacity, Purpose: "plant tour",
	})
	if err != nil {
		t.Fatalf("full-bus visit should be accepted: %v", err)
	}
	if v.Status != domain.StatusPending {
		t.Fatalf("new visit status = %q", v.Status)
	}
}

func TestApproveVisitRequiresBus(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	v, err := s.AddVisit(ctx, domain.IndustrialVisit{
		FacultyID: "FAC01", Destination: "NSE", VisitDate: "2026-10-01", Students: 30,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	var invalid *domain.ValidationError
	if _, err := s.ApproveVisit(ctx, v.ID, ""); !errors.As(err, &invalid) {
		t.Fatalf("approval without bus: want ValidationError, got %v", err)
	}
	if _, err := s.ApproveVisit(ctx, v.ID, "BUS99"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("approval with unknown bus: want ErrNotFound, got %v", err)
	}
	if got := s.Visits()[0]; got.Status != domain.StatusPending {
		t.Fatalf("visit after rejected approvals = %q, want pending", got.Status)
	}

	approved, err := s.ApproveVisit(ctx, v.ID, "BUS02")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.BusAssigned != "BUS02" || approved.Status != domain.StatusApproved {
		t.Fatalf("approved visit = %+v", approved)
	}

	var conflict *domain.ConflictError
	if _, err := s.ApproveVisit(ctx, v.ID, "BUS01"); !errors.As(err, &conflict) {
		t.Fatalf("second decision: want ConflictError, got %v", err)
	}
}

func TestReassignDriverKeepsLinksConsistent(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	// DRV01 drives BUS01 and DRV02 drives BUS02 in the fallback fleet.
	// Moving DRV02 onto BUS01 must unlink both old pairings.
	if _, err := s.ReassignDriver(ctx, "DRV02", "BUS01"); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	for _, d := range s.Drivers() {
		switch d.ID {
		case "DRV01":
			if d.BusID != "" {
				t.Fatalf("DRV01 still linked to %q", d.BusID)
			}
		case "DRV02":
			if d.BusID != "BUS01" {
				t.Fatalf("DRV02 linked to %q, want BUS01", d.BusID)
			}
		}
	}
	for _, b := range s.Buses() {
		switch b.ID {
		case "BUS01":
			if b.DriverID != "DRV02" {
				t.Fatalf("BUS01 driver = %q, want DRV02", b.DriverID)
			}
		case "BUS02":
			if b.DriverID != "" {
				t.Fatalf("BUS02 still linked to %q", b.DriverID)
			}
		}
	}

	d, ok := s.DriverByBusID("BUS01")
	if !ok || d.ID != "DRV02" {
		t.Fatalf("DriverByBusID(BUS01) = %+v, %v", d, ok)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	s := newLocalStore(t)

	c := domain.Complaint{ID: "C1", StudentID: "STU001", Subject: "late bus", Status: domain.StatusPending}
	ev := domain.SyncEvent{Kind: domain.EventNewComplaint, Complaint: &c}
	s.Apply(ev)
	s.Apply(ev)

	if got := len(s.Complaints()); got != 1 {
		t.Fatalf("complaints after duplicate NEW = %d, want 1", got)
	}

	upd := c
	upd.Status = domain.StatusResolved
	upd.Response = "driver briefed"
	s.Apply(domain.SyncEvent{Kind: domain.EventUpdateComplaint, Complaint: &upd})
	// A later partial update without a response keeps the earlier one.
	partial := c
	partial.Status = domain.StatusResolved
	s.Apply(domain.SyncEvent{Kind: domain.EventUpdateComplaint, Complaint: &partial})

	got := s.Complaints()[0]
	if got.Status != domain.StatusResolved || got.Response != "driver briefed" {
		t.Fatalf("merged complaint = %+v", got)
	}

	s.Apply(domain.SyncEvent{Kind: domain.EventRemoveComplaint, Complaint: &domain.Complaint{ID: "C1"}})
	s.Apply(domain.SyncEvent{Kind: domain.EventRemoveComplaint, Complaint: &domain.Complaint{ID: "C1"}})
	if got := len(s.Complaints()); got != 0 {
		t.Fatalf("complaints after remove = %d, want 0", got)
	}
}

func TestApplySeatEchoKeepsConfirmedState(t *testing.T) {
	s := newLocalStore(t)

	confirmed := domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU001", Sync: domain.SyncConfirmed}
	s.Apply(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &confirmed})

	echo := confirmed
	echo.Sync = domain.SyncPending
	s.Apply(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &echo})

	b, ok := s.StudentBooking("STU001")
	if !ok || b.Sync != domain.SyncConfirmed {
		t.Fatalf("booking after echo = %+v, %v, want confirmed", b, ok)
	}

	s.Apply(domain.SyncEvent{Kind: domain.EventRemoveSeat, Seat: &domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU001"}})
	if _, held := s.StudentBooking("STU001"); held {
		t.Fatal("booking survived REMOVE_SEAT")
	}
}

func TestApplySeatRaceKeepsRemoteWinner(t *testing.T) {
	s := newLocalStore(t)

	// The feed delivers the winner's booking, already remotely decided.
	winner := domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU001", Sync: domain.SyncConfirmed}
	s.Apply(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &winner})

	// A sibling tab broadcasts its own optimistic booking for the same
	// seat before its remote write loses the race.
	loser := domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU002", Sync: domain.SyncPending}
	s.Apply(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &loser})

	if b, ok := s.StudentBooking("STU001"); !ok || b.Sync != domain.SyncConfirmed {
		t.Fatalf("winner after pending overwrite = %+v, %v, want confirmed STU001", b, ok)
	}
	if _, held := s.StudentBooking("STU002"); held {
		t.Fatal("optimistic loser displaced a confirmed booking")
	}

	// The loser's rollback removal names its own student and must not
	// touch the winner's seat.
	s.Apply(domain.SyncEvent{Kind: domain.EventRemoveSeat, Seat: &domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU002"}})
	if _, ok := s.StudentBooking("STU001"); !ok {
		t.Fatal("rollback for the losing student erased the winner's booking")
	}

	// A confirmed feed delivery may still replace a different student,
	// since the remote row is the authority.
	reassigned := domain.SeatBooking{BusID: "BUS01", SeatNumber: "A1", StudentID: "STU003", Sync: domain.SyncConfirmed}
	s.Apply(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &reassigned})
	if b, ok := s.StudentBooking("STU003"); !ok || b.Sync != domain.SyncConfirmed {
		t.Fatalf("confirmed replacement = %+v, %v, want STU003", b, ok)
	}
}

func TestCachedCollectionsSurviveRestart(t *testing.T) {
	cache := newCacheMock()
	ctx := context.Background()

	first := store.New(store.Config{Cache: cache})
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	c, err := first.AddComplaint(ctx, domain.Complaint{StudentID: "STU001", Subject: "broken window"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	first.Stop()

	second := store.New(store.Config{Cache: cache})
	if err := second.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer second.Stop()

	found := false
	for _, got := range second.Complaints() {
		if got.ID == c.ID && got.Subject == "broken window" {
			found = true
		}
	}
	if !found {
		t.Fatal("complaint did not survive the restart")
	}
}

func TestFetchRemoteReplacesFallback(t *testing.T) {
	buses := []domain.Bus{
		{ID: "RB1", Number: "RM-01", Name: "Remote One", Capacity: 51, TotalSeats: 51, Status: domain.BusActive},
	}
	s := store.New(store.Config{
		Gateway: ports.Gateway{Buses: &busRepoMock{
			listFn: func(ctx context.Context) ([]domain.Bus, error) { return buses, nil },
		}},
		TickInterval: time.Hour,
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if got := s.DataSource(); got != store.SourceRemote {
		t.Fatalf("data source = %q, want %q", got, store.SourceRemote)
	}
	got := s.Buses()
	if len(got) != 1 || got[0].ID != "RB1" {
		t.Fatalf("buses = %+v, want the remote fleet", got)
	}
	if _, ok := s.Positions()["RB1"]; !ok {
		t.Fatal("remote bus has no regenerated position")
	}
}

func TestFetchRemoteFailureKeepsFallback(t *testing.T) {
	s := store.New(store.Config{
		Gateway: ports.Gateway{Buses: &busRepoMock{
			listFn: func(ctx context.Context) ([]domain.Bus, error) { return nil, errors.New("unreachable") },
		}},
		TickInterval: time.Hour,
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if got := s.DataSource(); got != store.SourceFallback {
		t.Fatalf("data source = %q, want %q", got, store.SourceFallback)
	}
	if len(s.Buses()) == 0 {
		t.Fatal("fallback fleet is gone")
	}
}

func TestSeatLayoutForBusIncludesBookings(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	if _, err := s.BookSeat(ctx, "BUS01", "A1", "STU001", "Asha"); err != nil {
		t.Fatalf("book: %v", err)
	}
	layout, err := s.SeatLayout("BUS01")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if layout[0][0].SeatNumber != "A1" || !layout[0][0].Booked || layout[0][0].StudentName != "Asha" {
		t.Fatalf("seat A1 = %+v, want booked by Asha", layout[0][0])
	}
	if _, err := s.SeatLayout("BUS99"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown bus layout: want ErrNotFound, got %v", err)
	}
}

func TestCommandAfterStopDropsRemoteWrite(t *testing.T) {
	var (
		mu     sync.Mutex
		booked bool
	)
	s := store.New(store.Config{
		Gateway: ports.Gateway{Seats: &seatRepoMock{
			bookFn: func(ctx context.Context, b *domain.SeatBooking) error {
				mu.Lock()
				booked = true
				mu.Unlock()
				return nil
			},
		}},
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()

	// The local optimistic write still lands; the gateway write is
	// dropped instead of racing the stopped store's wait.
	b, err := s.BookSeat(context.Background(), "BUS01", "A1", "STU001", "X")
	if err != nil {
		t.Fatalf("booking on stopped store: %v", err)
	}
	if b.Sync != domain.SyncPending {
		t.Fatalf("booking sync = %q, want pending", b.Sync)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if booked {
		t.Fatal("remote write ran after Stop")
	}
}
