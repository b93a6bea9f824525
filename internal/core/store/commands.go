package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// autoRejectNote is stamped on pending bus-change requests that lose to an
// approved sibling from the same student.
const autoRejectNote = "Auto-rejected: another request was approved"

const statusDate = "2006-01-02"

// publish pushes a sync event to the broadcast bus, if one is wired.
func (s *Store) publish(ev domain.SyncEvent) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishSync(s.opCtx(), ev); err != nil {
		s.log.Warn("broadcast publish failed", "kind", ev.Kind, "error", err)
	}
}

func (s *Store) opCtx() context.Context {
	if s.baseCtx != nil {
		return s.baseCtx
	}
	return context.Background()
}

// initialSync is the state stamped on a fresh optimistic write: pending when
// a remote gateway will confirm it, confirmed immediately when running on
// local data only.
func (s *Store) initialSync(hasRepo bool) domain.SyncState {
	if hasRepo {
		return domain.SyncPending
	}
	return domain.SyncConfirmed
}

// --- Seats ----------------------------------------------------------------

// BookSeat records an optimistic seat booking. Both seat invariants are
// checked locally first: the student must hold no seat anywhere in the
// fleet, and the target seat must be free. The remote insert then decides
// authoritatively; losing the race rolls the local booking back.
func (s *Store) BookSeat(ctx context.Context, busID, seatNumber, studentID, studentName string) (domain.SeatBooking, error) {
	if studentID == "" || seatNumber == "" {
		return domain.SeatBooking{}, domain.Invalidf("student id and seat number are required")
	}

	s.mu.Lock()
	bus, ok := s.busByIDLocked(busID)
	if !ok {
		s.mu.Unlock()
		return domain.SeatBooking{}, domain.ErrNotFound
	}
	if !validSeatNumber(bus, seatNumber) {
		s.mu.Unlock()
		return domain.SeatBooking{}, domain.Invalidf("bus %s has no seat %s", busID, seatNumber)
	}
	if cur, held := s.studentBookingLocked(studentID); held {
		s.mu.Unlock()
		return domain.SeatBooking{}, domain.Conflictf("student %s already holds seat %s on bus %s", studentID, cur.SeatNumber, cur.BusID)
	}
	if cur, taken := s.seats[busID][seatNumber]; taken {
		s.mu.Unlock()
		return domain.SeatBooking{}, domain.Conflictf("seat %s on bus %s is already booked by %s", seatNumber, busID, cur.StudentName)
	}

	booking := domain.SeatBooking{
		BusID:       busID,
		SeatNumber:  seatNumber,
		StudentID:   studentID,
		StudentName: studentName,
		Sync:        s.initialSync(s.gw.Seats != nil),
	}
	if s.seats[busID] == nil {
		s.seats[busID] = make(map[string]domain.SeatBooking)
	}
	s.seats[busID][seatNumber] = booking
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventNewSeat, Seat: &booking})

	if s.gw.Seats != nil {
		remote := booking
		s.asyncWrite(remoteOp{
			name: "seat.book",
			run: func(ctx context.Context) error {
				return s.gw.Seats.Book(ctx, &remote)
			},
			confirm: func() { s.setSeatSync(busID, seatNumber, studentID, domain.SyncConfirmed) },
			fail:    func() { s.setSeatSync(busID, seatNumber, studentID, domain.SyncFailed) },
			reject: func(err error) bool {
				if !errors.Is(err, domain.ErrSeatConflict) {
					return false
				}
				// Lost the authoritative race. Roll the optimistic
				// booking back and tell sibling contexts.
				s.log.Warn("seat booking lost remote race", "bus", busID, "seat", seatNumber, "student", studentID)
				s.rollbackSeat(busID, seatNumber, studentID)
				return true
			},
		})
	}
	return booking, nil
}

func validSeatNumber(bus domain.Bus, seatNumber string) bool {
	capacity := bus.TotalSeats
	if capacity == 0 {
		capacity = bus.Capacity
	}
	if capacity == 0 {
		capacity = domain.BusCapacity
	}
	for _, row := range domain.SeatLayout(bus.ID, capacity, nil) {
		for _, seat := range row {
			if seat.SeatNumber == seatNumber {
				return true
			}
		}
	}
	return false
}

func (s *Store) setSeatSync(busID, seatNumber, studentID string, state domain.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.seats[busID][seatNumber]; ok && cur.StudentID == studentID {
		cur.Sync = state
		s.seats[busID][seatNumber] = cur
	}
}

func (s *Store) rollbackSeat(busID, seatNumber, studentID string) {
	s.mu.Lock()
	removed := false
	if cur, ok := s.seats[busID][seatNumber]; ok && cur.StudentID == studentID {
		delete(s.seats[busID], seatNumber)
		removed = true
	}
	s.mu.Unlock()
	if removed {
		s.publish(domain.SyncEvent{Kind: domain.EventRemoveSeat, Seat: &domain.SeatBooking{
			BusID: busID, SeatNumber: seatNumber, StudentID: studentID,
		}})
	}
}

// --- Complaints -----------------------------------------------------------

var complaintRank = map[string]int{
	domain.StatusPending:    0,
	domain.StatusInProgress: 1,
	domain.StatusResolved:   2,
}

// AddComplaint files a new complaint with a pending status.
func (s *Store) AddComplaint(ctx context.Context, c domain.Complaint) (domain.Complaint, error) {
	if c.StudentID == "" || c.Subject == "" {
		return domain.Complaint{}, domain.Invalidf("student id and subject are required")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = domain.StatusPending
	c.Response = ""
	if c.Date == "" {
		c.Date = time.Now().Format(statusDate)
	}
	c.Sync = s.initialSync(s.gw.Complaints != nil)

	s.mu.Lock()
	if next, ok := insertNew(s.complaints, complaintID, c); ok {
		s.complaints = next
		s.persistComplaintsLocked()
	}
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventNewComplaint, Complaint: &c})

	if s.gw.Complaints != nil {
		remote := c
		s.asyncWrite(remoteOp{
			name:    "complaint.insert",
			run:     func(ctx context.Context) error { return s.gw.Complaints.Insert(ctx, &remote) },
			confirm: func() { s.setComplaintSync(c.ID, domain.SyncConfirmed) },
			fail:    func() { s.setComplaintSync(c.ID, domain.SyncFailed) },
		})
	}
	return c, nil
}

// UpdateComplaintStatus advances a complaint. Status only moves forward
// (pending, in_progress, resolved); an empty response keeps the existing
// one.
func (s *Store) UpdateComplaintStatus(ctx context.Context, id, status, response string) (domain.Complaint, error) {
	newRank, ok := complaintRank[status]
	if !ok {
		return domain.Complaint{}, domain.Invalidf("unknown complaint status %q", status)
	}

	s.mu.Lock()
	idx := -1
	for i, c := range s.complaints {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Complaint{}, domain.ErrNotFound
	}
	cur := s.complaints[idx]
	if newRank < complaintRank[cur.Status] {
		s.mu.Unlock()
		return domain.Complaint{}, domain.Conflictf("complaint status cannot move from %q back to %q", cur.Status, status)
	}
	cur.Status = status
	if response != "" {
		cur.Response = response
	}
	cur.Sync = s.initialSync(s.gw.Complaints != nil)
	s.complaints[idx] = cur
	s.persistComplaintsLocked()
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventUpdateComplaint, Complaint: &cur})

	if s.gw.Complaints != nil {
		s.asyncWrite(remoteOp{
			name:    "complaint.status",
			run:     func(ctx context.Context) error { return s.gw.Complaints.UpdateStatus(ctx, id, status, response) },
			confirm: func() { s.setComplaintSync(id, domain.SyncConfirmed) },
			fail:    func() { s.setComplaintSync(id, domain.SyncFailed) },
		})
	}
	return cur, nil
}

func (s *Store) setComplaintSync(id string, state domain.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.complaints {
		if c.ID == id {
			s.complaints[i].Sync = state
			s.persistComplaintsLocked()
			return
		}
	}
}

// --- Bus change requests --------------------------------------------------

// SubmitBusChange files a pending bus-change request for a student.
func (s *Store) SubmitBusChange(ctx context.Context, r domain.BusChangeRequest) (domain.BusChangeRequest, error) {
	if r.StudentID == "" || r.RequestedBusID == "" {
		return domain.BusChangeRequest{}, domain.Invalidf("student id and requested bus are required")
	}
	if r.RequestedBusID == r.CurrentBusID {
		return domain.BusChangeRequest{}, domain.Invalidf("requested bus matches the current bus")
	}

	s.mu.Lock()
	if _, ok := s.busByIDLocked(r.RequestedBusID); !ok {
		s.mu.Unlock()
		return domain.BusChangeRequest{}, domain.ErrNotFound
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = domain.StatusPending
	r.AdminNote = ""
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.Sync = s.initialSync(s.gw.BusChanges != nil)
	if next, ok := insertNew(s.busChanges, busChangeID, r); ok {
		s.busChanges = next
		s.persistBusChangesLocked()
	}
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventNewBusChange, BusChange: &r})

	if s.gw.BusChanges != nil {
		remote := r
		s.asyncWrite(remoteOp{
			name:    "buschange.insert",
			run:     func(ctx context.Context) error { return s.gw.BusChanges.Insert(ctx, &remote) },
			confirm: func() { s.setBusChangeSync(r.ID, domain.SyncConfirmed) },
			fail:    func() { s.setBusChangeSync(r.ID, domain.SyncFailed) },
		})
	}
	return r, nil
}

// DecideBusChange resolves a pending request. Rejection is a single status
// write. Approval is a composite transition: the request moves to approved,
// every other pending request from the same student is auto-rejected, and
// the student is moved onto the requested bus. A request is decided at most
// once.
func (s *Store) DecideBusChange(ctx context.Context, id, decision, note string) (domain.BusChangeRequest, error) {
	if decision != domain.StatusApproved && decision != domain.StatusRejected {
		return domain.BusChangeRequest{}, domain.Invalidf("decision must be approved or rejected, got %q", decision)
	}

	s.mu.Lock()
	idx := -1
	for i, r := range s.busChanges {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.BusChangeRequest{}, domain.ErrNotFound
	}
	cur := s.busChanges[idx]
	if cur.Status != domain.StatusPending {
		s.mu.Unlock()
		return domain.BusChangeRequest{}, domain.Conflictf("request %s is already %s", id, cur.Status)
	}

	cur.Status = decision
	cur.AdminNote = note
	cur.Sync = s.initialSync(s.gw.BusChanges != nil)
	s.busChanges[idx] = cur

	var autoRejected []domain.BusChangeRequest
	if decision == domain.StatusApproved {
		for i, other := range s.busChanges {
			if other.StudentID == cur.StudentID && other.ID != id && other.Status == domain.StatusPending {
				other.Status = domain.StatusRejected
				other.AdminNote = autoRejectNote
				other.Sync = cur.Sync
				s.busChanges[i] = other
				autoRejected = append(autoRejected, other)
			}
		}
		for i, st := range s.students {
			if st.ID == cur.StudentID {
				s.students[i].BusID = cur.RequestedBusID
				break
			}
		}
	}
	s.persistBusChangesLocked()
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventUpdateBusChange, BusChange: &cur})
	for i := range autoRejected {
		s.publish(domain.SyncEvent{Kind: domain.EventUpdateBusChange, BusChange: &autoRejected[i]})
	}

	switch {
	case decision == domain.StatusRejected && s.gw.BusChanges != nil:
		s.asyncWrite(remoteOp{
			name:    "buschange.reject",
			run:     func(ctx context.Context) error { return s.gw.BusChanges.UpdateStatus(ctx, id, domain.StatusRejected, note) },
			confirm: func() { s.setBusChangeSync(id, domain.SyncConfirmed) },
			fail:    func() { s.setBusChangeSync(id, domain.SyncFailed) },
		})
	case decision == domain.StatusApproved && s.approvals != nil:
		// A durable executor owns the multi-write remote transition.
		req := cur
		s.asyncWrite(remoteOp{
			name: "buschange.approve.dispatch",
			run: func(ctx context.Context) error {
				return s.approvals.DispatchApproval(ctx, req.ID, req.StudentID, req.RequestedBusID, note)
			},
			confirm: func() { s.setBusChangeSync(id, domain.SyncConfirmed) },
			fail:    func() { s.setBusChangeSync(id, domain.SyncFailed) },
		})
	case decision == domain.StatusApproved && s.gw.BusChanges != nil:
		req := cur
		s.asyncWrite(remoteOp{
			name: "buschange.approve",
			run: func(ctx context.Context) error {
				if err := s.gw.BusChanges.UpdateStatus(ctx, req.ID, domain.StatusApproved, note); err != nil {
					return err
				}
				if err := s.gw.BusChanges.RejectOtherPending(ctx, req.StudentID, req.ID, autoRejectNote); err != nil {
					return err
				}
				if s.gw.Students != nil {
					return s.gw.Students.SetBus(ctx, req.StudentID, req.RequestedBusID)
				}
				return nil
			},
			confirm: func() { s.setBusChangeSync(id, domain.SyncConfirmed) },
			fail:    func() { s.setBusChangeSync(id, domain.SyncFailed) },
		})
	}
	return cur, nil
}

func (s *Store) setBusChangeSync(id string, state domain.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.busChanges {
		if r.ID == id {
			s.busChanges[i].Sync = state
			s.persistBusChangesLocked()
			return
		}
	}
}

// --- Industrial visits ----------------------------------------------------

// AddVisit files an industrial-visit request. Headcount is capped at one
// bus; oversized groups are rejected at submission with the number of buses
// the trip would actually need.
func (s *Store) AddVisit(ctx context.Context, v domain.IndustrialVisit) (domain.IndustrialVisit, error) {
	if v.FacultyID == "" || v.Destination == "" || v.VisitDate == "" {
		return domain.IndustrialVisit{}, domain.Invalidf("faculty id, destination and visit date are required")
	}
	if v.Students <= 0 {
		return domain.IndustrialVisit{}, domain.Invalidf("student count must be positive")
	}
	if v.Students > domain.BusCapacity {
		needed := (v.Students + domain.BusCapacity - 1) / domain.BusCapacity
		return domain.IndustrialVisit{}, domain.Invalidf(
			"a single bus seats %d students; %d students would need %d buses",
			domain.BusCapacity, v.Students, needed)
	}

	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	v.Status = domain.StatusPending
	v.BusAssigned = ""
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.Sync = s.initialSync(s.gw.Visits != nil)

	s.mu.Lock()
	if next, ok := insertNew(s.visits, visitID, v); ok {
		s.visits = next
		s.persistVisitsLocked()
	}
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventNewVisit, Visit: &v})

	if s.gw.Visits != nil {
		remote := v
		s.asyncWrite(remoteOp{
			name:    "visit.insert",
			run:     func(ctx context.Context) error { return s.gw.Visits.Insert(ctx, &remote) },
			confirm: func() { s.setVisitSync(v.ID, domain.SyncConfirmed) },
			fail:    func() { s.setVisitSync(v.ID, domain.SyncFailed) },
		})
	}
	return v, nil
}

// ApproveVisit approves a pending visit and assigns it a bus. A bus is
// mandatory: approval without an assignment is rejected.
func (s *Store) ApproveVisit(ctx context.Context, id, busID string) (domain.IndustrialVisit, error) {
	if busID == "" {
		return domain.IndustrialVisit{}, domain.Invalidf("an approved visit needs a bus assigned")
	}
	return s.decideVisit(id, domain.StatusApproved, busID)
}

// UpdateVisitStatus moves a pending visit to a terminal status without a
// bus assignment, which in practice means rejection.
func (s *Store) UpdateVisitStatus(ctx context.Context, id, status string) (domain.IndustrialVisit, error) {
	if status != domain.StatusApproved && status != domain.StatusRejected {
		return domain.IndustrialVisit{}, domain.Invalidf("unknown visit status %q", status)
	}
	if status == domain.StatusApproved {
		return domain.IndustrialVisit{}, domain.Invalidf("an approved visit needs a bus assigned")
	}
	return s.decideVisit(id, status, "")
}

func (s *Store) decideVisit(id, status, busAssigned string) (domain.IndustrialVisit, error) {
	s.mu.Lock()
	if busAssigned != "" {
		if _, ok := s.busByIDLocked(busAssigned); !ok {
			s.mu.Unlock()
			return domain.IndustrialVisit{}, domain.ErrNotFound
		}
	}
	idx := -1
	for i, v := range s.visits {
		if v.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.IndustrialVisit{}, domain.ErrNotFound
	}
	cur := s.visits[idx]
	if cur.Status != domain.StatusPending {
		s.mu.Unlock()
		return domain.IndustrialVisit{}, domain.Conflictf("visit %s is already %s", id, cur.Status)
	}
	cur.Status = status
	cur.BusAssigned = busAssigned
	cur.Sync = s.initialSync(s.gw.Visits != nil)
	s.visits[idx] = cur
	s.persistVisitsLocked()
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventUpdateVisit, Visit: &cur})

	if s.gw.Visits != nil {
		s.asyncWrite(remoteOp{
			name:    "visit.status",
			run:     func(ctx context.Context) error { return s.gw.Visits.UpdateStatus(ctx, id, status, busAssigned) },
			confirm: func() { s.setVisitSync(id, domain.SyncConfirmed) },
			fail:    func() { s.setVisitSync(id, domain.SyncFailed) },
		})
	}
	return cur, nil
}

func (s *Store) setVisitSync(id string, state domain.SyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range s.visits {
		if v.ID == id {
			s.visits[i].Sync = state
			s.persistVisitsLocked()
			return
		}
	}
}

// --- Drivers --------------------------------------------------------------

// AddDriver registers a driver, filling in the usual defaults for a new
// hire.
func (s *Store) AddDriver(ctx context.Context, d domain.Driver) (domain.Driver, error) {
	if d.Name == "" || d.Phone == "" {
		return domain.Driver{}, domain.Invalidf("driver name and phone are required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = domain.DriverOnDuty
	}
	if d.Rating == 0 {
		d.Rating = 4.5
	}
	d.BusID = ""

	s.mu.Lock()
	if next, ok := insertNew(s.drivers, driverID, d); ok {
		s.drivers = next
	}
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventNewDriver, Driver: &d})

	if s.gw.Drivers != nil {
		remote := d
		s.asyncWrite(remoteOp{
			name: "driver.insert",
			run:  func(ctx context.Context) error { return s.gw.Drivers.Insert(ctx, &remote) },
		})
	}
	return d, nil
}

// UpdateDriver applies field-level edits to a driver. Nil fields are left
// untouched; bus assignment goes through ReassignDriver, never through
// here.
func (s *Store) UpdateDriver(ctx context.Context, id string, upd domain.DriverUpdate) (domain.Driver, error) {
	s.mu.Lock()
	idx := -1
	for i, d := range s.drivers {
		if d.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Driver{}, domain.ErrNotFound
	}
	cur := s.drivers[idx]
	if upd.Name != nil {
		cur.Name = *upd.Name
	}
	if upd.Phone != nil {
		cur.Phone = *upd.Phone
	}
	if upd.License != nil {
		cur.License = *upd.License
	}
	if upd.Status != nil {
		cur.Status = *upd.Status
	}
	if upd.ConductorName != nil {
		cur.ConductorName = *upd.ConductorName
	}
	if upd.ConductorPhone != nil {
		cur.ConductorPhone = *upd.ConductorPhone
	}
	if upd.Experience != nil {
		cur.Experience = *upd.Experience
	}
	s.drivers[idx] = cur
	s.mu.Unlock()

	s.publish(domain.SyncEvent{Kind: domain.EventUpdateDriver, Driver: &cur})

	if s.gw.Drivers != nil {
		s.asyncWrite(remoteOp{
			name: "driver.update",
			run:  func(ctx context.Context) error { return s.gw.Drivers.Update(ctx, id, upd) },
		})
	}
	return cur, nil
}

// ReassignDriver moves a driver onto a bus, or off all buses when busID is
// empty. The bidirectional links stay consistent throughout: the bus's
// previous driver is unlinked, the driver's previous bus is unlinked, and
// then both sides of the new pairing are set.
func (s *Store) ReassignDriver(ctx context.Context, driverID, busID string) (domain.Driver, error) {
	s.mu.Lock()
	idx := -1
	for i, d := range s.drivers {
		if d.ID == driverID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Driver{}, domain.ErrNotFound
	}
	if busID != "" {
		if _, ok := s.busByIDLocked(busID); !ok {
			s.mu.Unlock()
			return domain.Driver{}, domain.ErrNotFound
		}
	}

	var touched []domain.Driver

	// Unlink whoever currently drives the target bus.
	if busID != "" {
		for i, d := range s.drivers {
			if d.ID != driverID && d.BusID == busID {
				s.drivers[i].BusID = ""
				touched = append(touched, s.drivers[i])
			}
		}
	}
	// Unlink the driver's previous bus.
	if prev := s.drivers[idx].BusID; prev != "" && prev != busID {
		for i, b := range s.buses {
			if b.ID == prev {
				s.buses[i].DriverID = ""
				break
			}
		}
	}
	s.drivers[idx].BusID = busID
	if busID != "" {
		for i, b := range s.buses {
			if b.ID == busID {
				s.buses[i].DriverID = driverID
				break
			}
		}
	}
	cur := s.drivers[idx]
	s.mu.Unlock()

	for i := range touched {
		s.publish(domain.SyncEvent{Kind: domain.EventUpdateDriver, Driver: &touched[i]})
	}
	s.publish(domain.SyncEvent{Kind: domain.EventUpdateDriver, Driver: &cur})

	if s.gw.Drivers != nil {
		s.asyncWrite(remoteOp{
			name: "driver.reassign",
			run: func(ctx context.Context) error {
				if busID != "" {
					if err := s.gw.Drivers.ClearBus(ctx, busID); err != nil {
						return err
					}
				}
				if err := s.gw.Drivers.SetBus(ctx, driverID, busID); err != nil {
					return err
				}
				if s.gw.Buses != nil && busID != "" {
					return s.gw.Buses.SetDriver(ctx, busID, driverID)
				}
				return nil
			},
		})
	}
	return cur, nil
}
