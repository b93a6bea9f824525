package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// SeatRepo implements ports.SeatRepository. The table carries both seat
// invariants as constraints: a primary key on (bus_id, seat_number) and a
// unique index on student_id, so the insert is the authoritative decision
// for every booking race.
type SeatRepo struct {
	db *DB
}

func NewSeatRepo(db *DB) *SeatRepo { return &SeatRepo{db: db} }

func (r *SeatRepo) List(ctx context.Context) ([]domain.SeatBooking, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT bus_id, seat_number, student_id, student_name
		FROM seat_bookings ORDER BY bus_id, seat_number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.SeatBooking
	for rows.Next() {
		var b domain.SeatBooking
		if err := rows.Scan(&b.BusID, &b.SeatNumber, &b.StudentID, &b.StudentName); err != nil {
			return nil, err
		}
		b.Sync = domain.SyncConfirmed
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *SeatRepo) Book(ctx context.Context, b *domain.SeatBooking) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO seat_bookings (bus_id, seat_number, student_id, student_name)
		VALUES ($1, $2, $3, $4)
	`, b.BusID, b.SeatNumber, b.StudentID, b.StudentName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrSeatConflict
		}
		return err
	}
	return nil
}

func (r *SeatRepo) Release(ctx context.Context, busID, seatNumber string) error {
	_, err := r.db.Pool.Exec(ctx, `
		DELETE FROM seat_bookings WHERE bus_id = $1 AND seat_number = $2
	`, busID, seatNumber)
	return err
}
