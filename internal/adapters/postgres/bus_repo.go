package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// BusRepo implements ports.BusRepository.
type BusRepo struct {
	db *DB
}

func NewBusRepo(db *DB) *BusRepo { return &BusRepo{db: db} }

func (r *BusRepo) List(ctx context.Context) ([]domain.Bus, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, number, name, capacity, total_seats,
		       COALESCE(route_id, ''), COALESCE(driver_id, ''), status
		FROM buses ORDER BY number
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buses []domain.Bus
	for rows.Next() {
		var b domain.Bus
		if err := rows.Scan(&b.ID, &b.Number, &b.Name, &b.Capacity, &b.TotalSeats,
			&b.RouteID, &b.DriverID, &b.Status); err != nil {
			return nil, err
		}
		buses = append(buses, b)
	}
	return buses, rows.Err()
}

func (r *BusRepo) SetDriver(ctx context.Context, busID, driverID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE buses SET driver_id = NULLIF($2, '') WHERE id = $1
	`, busID, driverID)
	return err
}
