package domain

import "strconv"

// Seat is one cell in a bus seat layout. Occupancy is sourced from the
// seat-bookings map, never from a denormalized student field.
type Seat struct {
	ID          string `json:"id"`
	SeatNumber  string `json:"seat_number"`
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Booked      bool   `json:"booked"`
	StudentName string `json:"student_name,omitempty"`
	StudentID   string `json:"student_id,omitempty"`
}

var seatLabels = [4]string{"A", "B", "C", "D"}

// SeatLayout arranges capacity seats into rows of four labeled A-D, with
// any remainder (capacity mod 4) forming a final short row that reuses the
// labels from A. Pure and deterministic: identical inputs always yield an
// identical layout.
func SeatLayout(busID string, capacity int, bookings map[string]SeatBooking) [][]Seat {
	if capacity <= 0 {
		return nil
	}

	fullRows := capacity / 4
	remainder := capacity % 4

	layout := make([][]Seat, 0, fullRows+1)
	for r := 0; r < fullRows; r++ {
		layout = append(layout, buildRow(busID, r+1, 4, bookings))
	}
	if remainder > 0 {
		layout = append(layout, buildRow(busID, fullRows+1, remainder, bookings))
	}
	return layout
}

func buildRow(busID string, rowNum, seats int, bookings map[string]SeatBooking) []Seat {
	row := make([]Seat, 0, seats)
	for c := 0; c < seats; c++ {
		num := seatLabels[c] + strconv.Itoa(rowNum)
		seat := Seat{
			ID:         busID + "-" + num,
			SeatNumber: num,
			Row:        rowNum,
			Col:        c,
		}
		if b, ok := bookings[num]; ok {
			seat.Booked = true
			seat.StudentName = b.StudentName
			seat.StudentID = b.StudentID
		}
		row = append(row, seat)
	}
	return row
}
