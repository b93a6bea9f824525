package domain

// EventKind discriminates sync events. The same kinds flow over the
// cross-context broadcast bus and out of the gateway change feed, so one
// merge routine can serve both channels.
type EventKind string

const (
	EventNewComplaint    EventKind = "NEW_COMPLAINT"
	EventUpdateComplaint EventKind = "UPDATE_COMPLAINT"
	EventRemoveComplaint EventKind = "REMOVE_COMPLAINT"

	EventNewVisit    EventKind = "NEW_VISIT"
	EventUpdateVisit EventKind = "UPDATE_VISIT"
	EventRemoveVisit EventKind = "REMOVE_VISIT"

	EventNewBusChange    EventKind = "NEW_BUS_CHANGE"
	EventUpdateBusChange EventKind = "UPDATE_BUS_CHANGE"
	EventRemoveBusChange EventKind = "REMOVE_BUS_CHANGE"

	EventNewDriver    EventKind = "NEW_DRIVER"
	EventUpdateDriver EventKind = "UPDATE_DRIVER"
	EventRemoveDriver EventKind = "REMOVE_DRIVER"

	EventNewSeat    EventKind = "NEW_SEAT"
	EventRemoveSeat EventKind = "REMOVE_SEAT"
)

// SyncEvent is a tagged union: exactly one payload pointer is set,
// matching Kind. Delivery is at-least-once; application must be
// idempotent (apply-twice equals apply-once).
type SyncEvent struct {
	Kind      EventKind         `json:"kind"`
	Complaint *Complaint        `json:"complaint,omitempty"`
	BusChange *BusChangeRequest `json:"bus_change,omitempty"`
	Visit     *IndustrialVisit  `json:"visit,omitempty"`
	Driver    *Driver           `json:"driver,omitempty"`
	Seat      *SeatBooking      `json:"seat,omitempty"`
}
