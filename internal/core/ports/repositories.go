package ports

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// RouteRepository reads seeded routes with their ordered stops attached.
type RouteRepository interface {
	ListWithStops(ctx context.Context) ([]domain.Route, error)
}

// BusRepository persists buses.
type BusRepository interface {
	List(ctx context.Context) ([]domain.Bus, error)
	SetDriver(ctx context.Context, busID, driverID string) error
}

// DriverRepository persists drivers.
type DriverRepository interface {
	List(ctx context.Context) ([]domain.Driver, error)
	Insert(ctx context.Context, d *domain.Driver) error
	Update(ctx context.Context, id string, upd domain.DriverUpdate) error
	SetBus(ctx context.Context, driverID, busID string) error
	ClearBus(ctx context.Context, busID string) error
}

// StudentRepository persists students.
type StudentRepository interface {
	List(ctx context.Context) ([]domain.Student, error)
	SetBus(ctx context.Context, studentID, busID string) error
}

// ComplaintRepository persists complaints.
type ComplaintRepository interface {
	List(ctx context.Context) ([]domain.Complaint, error)
	Insert(ctx context.Context, c *domain.Complaint) error
	UpdateStatus(ctx context.Context, id, status, response string) error
}

// SeatRepository persists seat bookings. Book is the authoritative write
// for both seat invariants: the underlying store rejects a second booking
// for the same (bus, seat) or the same student with domain.ErrSeatConflict.
type SeatRepository interface {
	List(ctx context.Context) ([]domain.SeatBooking, error)
	Book(ctx context.Context, b *domain.SeatBooking) error
	Release(ctx context.Context, busID, seatNumber string) error
}

// BusChangeRepository persists bus-change requests.
type BusChangeRepository interface {
	List(ctx context.Context) ([]domain.BusChangeRequest, error)
	Insert(ctx context.Context, r *domain.BusChangeRequest) error
	UpdateStatus(ctx context.Context, id, status, note string) error
	// RejectOtherPending moves every pending request from the student,
	// except exceptID, to rejected with the given note.
	RejectOtherPending(ctx context.Context, studentID, exceptID, note string) error
}

// VisitRepository persists industrial-visit requests.
type VisitRepository interface {
	List(ctx context.Context) ([]domain.IndustrialVisit, error)
	Insert(ctx context.Context, v *domain.IndustrialVisit) error
	UpdateStatus(ctx context.Context, id, status, busAssigned string) error
}

// Gateway groups the remote data gateway's per-table repositories so the
// store can take one dependency.
type Gateway struct {
	Routes     RouteRepository
	Buses      BusRepository
	Drivers    DriverRepository
	Students   StudentRepository
	Complaints ComplaintRepository
	Seats      SeatRepository
	BusChanges BusChangeRepository
	Visits     VisitRepository
}

// ChangeFeed delivers row-level change notifications from the gateway for
// the tables that support push updates. Events arrive already translated
// into domain sync events.
type ChangeFeed interface {
	Subscribe(ctx context.Context, handler func(domain.SyncEvent)) error
	Close()
}
