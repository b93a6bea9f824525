package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// DriverRepo implements ports.DriverRepository.
type DriverRepo struct {
	db *DB
}

func NewDriverRepo(db *DB) *DriverRepo { return &DriverRepo{db: db} }

func (r *DriverRepo) List(ctx context.Context) ([]domain.Driver, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, phone, COALESCE(license, ''), status, rating,
		       COALESCE(conductor_name, ''), COALESCE(conductor_phone, ''),
		       COALESCE(experience, ''), COALESCE(bus_id, '')
		FROM drivers ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		var d domain.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.License, &d.Status, &d.Rating,
			&d.ConductorName, &d.ConductorPhone, &d.Experience, &d.BusID); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *DriverRepo) Insert(ctx context.Context, d *domain.Driver) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO drivers (id, name, phone, license, status, rating, conductor_name, conductor_phone, experience, bus_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		ON CONFLICT (id) DO NOTHING
	`, d.ID, d.Name, d.Phone, d.License, d.Status, d.Rating,
		d.ConductorName, d.ConductorPhone, d.Experience, d.BusID)
	return err
}

// Update applies only the fields the caller set; nil pointers keep the
// stored value.
func (r *DriverRepo) Update(ctx context.Context, id string, upd domain.DriverUpdate) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE drivers SET
			name            = COALESCE($2, name),
			phone           = COALESCE($3, phone),
			license         = COALESCE($4, license),
			status          = COALESCE($5, status),
			conductor_name  = COALESCE($6, conductor_name),
			conductor_phone = COALESCE($7, conductor_phone),
			experience      = COALESCE($8, experience)
		WHERE id = $1
	`, id, upd.Name, upd.Phone, upd.License, upd.Status,
		upd.ConductorName, upd.ConductorPhone, upd.Experience)
	return err
}

func (r *DriverRepo) SetBus(ctx context.Context, driverID, busID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE drivers SET bus_id = NULLIF($2, '') WHERE id = $1
	`, driverID, busID)
	return err
}

// ClearBus unlinks every driver currently holding the bus.
func (r *DriverRepo) ClearBus(ctx context.Context, busID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE drivers SET bus_id = NULL WHERE bus_id = $1
	`, busID)
	return err
}
