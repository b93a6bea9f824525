package domain

import (
	"time"
)

// SyncState tracks whether an optimistically written row has been
// confirmed by the remote gateway.
type SyncState string

const (
	SyncPending   SyncState = "pending"
	SyncConfirmed SyncState = "confirmed"
	SyncFailed    SyncState = "failed"
)

// Bus lifecycle statuses.
const (
	BusActive      = "active"
	BusMaintenance = "maintenance"
	BusInactive    = "inactive"
)

// Driver duty statuses.
const (
	DriverOnDuty  = "on_duty"
	DriverOffDuty = "off_duty"
)

// Request/complaint statuses shared by the approval workflows.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
)

// BusCapacity is the fixed seat capacity of a campus bus. Industrial-visit
// headcounts are validated against it at submission time; there is no
// multi-bus splitting path.
const BusCapacity = 51

// Stop is a scheduled pickup point on a route. Order is 1-based and used
// for display sorting only, never for identity.
type Stop struct {
	Name       string   `json:"name"`
	PickupTime string   `json:"pickup_time"`
	Order      int      `json:"order"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
}

// Route is a campus bus route with its ordered stops. Routes are seeded by
// import and immutable from this service's perspective.
type Route struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartPoint string `json:"start_point"`
	City       string `json:"city"`
	Color      string `json:"color"`
	Stops      []Stop `json:"stops"`
}

// Bus references at most one route and at most one driver at a time.
type Bus struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	TotalSeats int    `json:"total_seats"`
	RouteID    string `json:"route_id,omitempty"`
	DriverID   string `json:"driver_id,omitempty"`
	Status     string `json:"status"`
}

// Driver and Bus keep their cross-references mutually consistent: after any
// reassignment, Driver.BusID and Bus.DriverID agree.
type Driver struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	License        string  `json:"license"`
	Status         string  `json:"status"`
	Rating         float64 `json:"rating"`
	ConductorName  string  `json:"conductor_name"`
	ConductorPhone string  `json:"conductor_phone"`
	Experience     string  `json:"experience"`
	BusID          string  `json:"bus_id,omitempty"`
}

// Student carries no seat field: the seat-bookings map is the single
// authoritative source of occupancy.
type Student struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	RouteID string `json:"route_id,omitempty"`
	BusID   string `json:"bus_id,omitempty"`
	FeePaid bool   `json:"fee_paid"`
}

// SeatBooking maps (bus, seat) to exactly one student. A student holds at
// most one booking across the whole fleet.
type SeatBooking struct {
	BusID       string    `json:"bus_id"`
	SeatNumber  string    `json:"seat_number"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	Sync        SyncState `json:"sync_state,omitempty"`
}

// Complaint status moves forward only: pending → in_progress → resolved.
type Complaint struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	BusID       string    `json:"bus_id"`
	Category    string    `json:"category"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Response    string    `json:"response,omitempty"`
	Date        string    `json:"date"`
	Sync        SyncState `json:"sync_state,omitempty"`
}

// BusChangeRequest: approving one request auto-rejects every other pending
// request from the same student, so a student ends the workflow with at
// most one approved request.
type BusChangeRequest struct {
	ID             string    `json:"id"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	CurrentBusID   string    `json:"current_bus_id"`
	RequestedBusID string    `json:"requested_bus_id"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	AdminNote      string    `json:"admin_note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Sync           SyncState `json:"sync_state,omitempty"`
}

// IndustrialVisit is a faculty trip request. BusAssigned is set only on
// approval.
type IndustrialVisit struct {
	ID          string    `json:"id"`
	FacultyID   string    `json:"faculty_id"`
	FacultyName string    `json:"faculty_name"`
	Destination string    `json:"destination"`
	VisitDate   string    `json:"visit_date"`
	Students    int       `json:"students"`
	Purpose     string    `json:"purpose"`
	Stops       []string  `json:"stops,omitempty"`
	Status      string    `json:"status"`
	BusAssigned string    `json:"bus_assigned,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Sync        SyncState `json:"sync_state,omitempty"`
}

// LivePosition is the simulated location of a bus. Ephemeral: regenerated
// on store startup and never persisted remotely.
type LivePosition struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Heading int     `json:"heading"`
	Speed   int     `json:"speed"`
}

// DriverUpdate carries field-level driver edits; nil means "leave as is".
type DriverUpdate struct {
	Name           *string `json:"name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	License        *string `json:"license,omitempty"`
	Status         *string `json:"status,omitempty"`
	ConductorName  *string `json:"conductor_name,omitempty"`
	ConductorPhone *string `json:"conductor_phone,omitempty"`
	Experience     *string `json:"experience,omitempty"`
}
