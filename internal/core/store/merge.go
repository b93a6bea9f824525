package store

import (
	"github.com/adityarao/campus-transit/internal/core/domain"
)

// Apply merges one sync event into the store. Both the broadcast bus and the
// gateway change feed deliver through this single routine, and both deliver
// at-least-once, so every branch is idempotent: replaying an event, or
// receiving the echo of an event this process published, leaves the state
// unchanged.
func (s *Store) Apply(ev domain.SyncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case domain.EventNewComplaint:
		if ev.Complaint == nil {
			return
		}
		if next, ok := insertNew(s.complaints, complaintID, *ev.Complaint); ok {
			s.complaints = next
			s.persistComplaintsLocked()
		}
	case domain.EventUpdateComplaint:
		if ev.Complaint == nil {
			return
		}
		if next, ok := replaceByID(s.complaints, complaintID, *ev.Complaint, mergeComplaint); ok {
			s.complaints = next
			s.persistComplaintsLocked()
		}
	case domain.EventRemoveComplaint:
		if ev.Complaint == nil {
			return
		}
		if next, ok := removeByID(s.complaints, complaintID, ev.Complaint.ID); ok {
			s.complaints = next
			s.persistComplaintsLocked()
		}

	case domain.EventNewVisit:
		if ev.Visit == nil {
			return
		}
		if next, ok := insertNew(s.visits, visitID, *ev.Visit); ok {
			s.visits = next
			s.persistVisitsLocked()
		}
	case domain.EventUpdateVisit:
		if ev.Visit == nil {
			return
		}
		if next, ok := replaceByID(s.visits, visitID, *ev.Visit, mergeVisit); ok {
			s.visits = next
			s.persistVisitsLocked()
		}
	case domain.EventRemoveVisit:
		if ev.Visit == nil {
			return
		}
		if next, ok := removeByID(s.visits, visitID, ev.Visit.ID); ok {
			s.visits = next
			s.persistVisitsLocked()
		}

	case domain.EventNewBusChange:
		if ev.BusChange == nil {
			return
		}
		if next, ok := insertNew(s.busChanges, busChangeID, *ev.BusChange); ok {
			s.busChanges = next
			s.persistBusChangesLocked()
		}
	case domain.EventUpdateBusChange:
		if ev.BusChange == nil {
			return
		}
		if next, ok := replaceByID(s.busChanges, busChangeID, *ev.BusChange, mergeBusChange); ok {
			s.busChanges = next
			s.persistBusChangesLocked()
		}
	case domain.EventRemoveBusChange:
		if ev.BusChange == nil {
			return
		}
		if next, ok := removeByID(s.busChanges, busChangeID, ev.BusChange.ID); ok {
			s.busChanges = next
			s.persistBusChangesLocked()
		}

	case domain.EventNewDriver:
		if ev.Driver == nil {
			return
		}
		if next, ok := insertNew(s.drivers, driverID, *ev.Driver); ok {
			s.drivers = next
		}
	case domain.EventUpdateDriver:
		if ev.Driver == nil {
			return
		}
		if next, ok := replaceByID(s.drivers, driverID, *ev.Driver, nil); ok {
			s.drivers = next
		}
	case domain.EventRemoveDriver:
		if ev.Driver == nil {
			return
		}
		if next, ok := removeByID(s.drivers, driverID, ev.Driver.ID); ok {
			s.drivers = next
		}

	case domain.EventNewSeat:
		if ev.Seat == nil {
			return
		}
		s.applySeatLocked(*ev.Seat)
	case domain.EventRemoveSeat:
		if ev.Seat == nil {
			return
		}
		// A removal only ever targets the booking it was issued for. A
		// losing tab's rollback must not erase the seat's current holder.
		if byBus := s.seats[ev.Seat.BusID]; byBus != nil {
			if cur, ok := byBus[ev.Seat.SeatNumber]; ok && cur.StudentID == ev.Seat.StudentID {
				delete(byBus, ev.Seat.SeatNumber)
				if len(byBus) == 0 {
					delete(s.seats, ev.Seat.BusID)
				}
			}
		}

	default:
		s.log.Warn("unknown sync event", "kind", ev.Kind)
	}
}

func (s *Store) applySeatLocked(b domain.SeatBooking) {
	byBus := s.seats[b.BusID]
	if byBus == nil {
		byBus = make(map[string]domain.SeatBooking)
		s.seats[b.BusID] = byBus
	}
	if cur, ok := byBus[b.SeatNumber]; ok {
		// An echo of our own booking must not downgrade a confirmed seat
		// back to pending, so same-student deliveries keep the stronger
		// sync state.
		if cur.StudentID == b.StudentID {
			if cur.Sync == domain.SyncConfirmed {
				return
			}
		} else if b.Sync != domain.SyncConfirmed {
			// An occupied seat yields only to the remote authority. A
			// sibling tab's optimistic booking for the same seat stays
			// out; the remote race decides who keeps it, and the loser's
			// rollback removal carries its own student id.
			return
		}
	}
	byBus[b.SeatNumber] = b
}

// insertNew prepends item unless a row with its id is already present.
func insertNew[T any](list []T, id func(T) string, item T) ([]T, bool) {
	key := id(item)
	for _, cur := range list {
		if id(cur) == key {
			return list, false
		}
	}
	next := make([]T, 0, len(list)+1)
	next = append(next, item)
	next = append(next, list...)
	return next, true
}

// replaceByID swaps in item at the position of the row sharing its id. The
// optional merge hook lets a collection keep locally meaningful fields that
// the incoming payload omits.
func replaceByID[T any](list []T, id func(T) string, item T, merge func(old, incoming T) T) ([]T, bool) {
	key := id(item)
	for i, cur := range list {
		if id(cur) != key {
			continue
		}
		next := append([]T(nil), list...)
		if merge != nil {
			item = merge(cur, item)
		}
		next[i] = item
		return next, true
	}
	return list, false
}

func removeByID[T any](list []T, id func(T) string, key string) ([]T, bool) {
	for i, cur := range list {
		if id(cur) != key {
			continue
		}
		next := make([]T, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		return next, true
	}
	return list, false
}

func complaintID(c domain.Complaint) string        { return c.ID }
func visitID(v domain.IndustrialVisit) string      { return v.ID }
func busChangeID(r domain.BusChangeRequest) string { return r.ID }
func driverID(d domain.Driver) string              { return d.ID }

func mergeComplaint(old, incoming domain.Complaint) domain.Complaint {
	if incoming.Response == "" {
		incoming.Response = old.Response
	}
	if incoming.Sync == "" {
		incoming.Sync = old.Sync
	}
	return incoming
}

func mergeVisit(old, incoming domain.IndustrialVisit) domain.IndustrialVisit {
	if incoming.BusAssigned == "" {
		incoming.BusAssigned = old.BusAssigned
	}
	if incoming.Sync == "" {
		incoming.Sync = old.Sync
	}
	return incoming
}

func mergeBusChange(old, incoming domain.BusChangeRequest) domain.BusChangeRequest {
	if incoming.AdminNote == "" {
		incoming.AdminNote = old.AdminNote
	}
	if incoming.Sync == "" {
		incoming.Sync = old.Sync
	}
	return incoming
}
