package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// VisitRepo implements ports.VisitRepository.
type VisitRepo struct {
	db *DB
}

func NewVisitRepo(db *DB) *VisitRepo { return &VisitRepo{db: db} }

func (r *VisitRepo) List(ctx context.Context) ([]domain.IndustrialVisit, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, faculty_id, faculty_name, destination, visit_date, students,
		       COALESCE(purpose, ''), COALESCE(stops, '{}'), status,
		       COALESCE(bus_assigned, ''), created_at
		FROM industrial_visits ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []domain.IndustrialVisit
	for rows.Next() {
		var v domain.IndustrialVisit
		if err := rows.Scan(&v.ID, &v.FacultyID, &v.FacultyName, &v.Destination, &v.VisitDate,
			&v.Students, &v.Purpose, &v.Stops, &v.Status, &v.BusAssigned, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.Sync = domain.SyncConfirmed
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *VisitRepo) Insert(ctx context.Context, v *domain.IndustrialVisit) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO industrial_visits (id, faculty_id, faculty_name, destination, visit_date, students, purpose, stops, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, v.ID, v.FacultyID, v.FacultyName, v.Destination, v.VisitDate,
		v.Students, v.Purpose, v.Stops, v.Status, v.CreatedAt)
	return err
}

func (r *VisitRepo) UpdateStatus(ctx context.Context, id, status, busAssigned string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE industrial_visits SET status = $2, bus_assigned = NULLIF($3, '')
		WHERE id = $1
	`, id, status, busAssigned)
	return err
}
