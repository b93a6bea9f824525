package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// StudentRepo implements ports.StudentRepository.
type StudentRepo struct {
	db *DB
}

func NewStudentRepo(db *DB) *StudentRepo { return &StudentRepo{db: db} }

func (r *StudentRepo) List(ctx context.Context) ([]domain.Student, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, email, COALESCE(phone, ''),
		       COALESCE(route_id, ''), COALESCE(bus_id, ''), fee_paid
		FROM students ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone,
			&s.RouteID, &s.BusID, &s.FeePaid); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *StudentRepo) SetBus(ctx context.Context, studentID, busID string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE students SET bus_id = NULLIF($2, '') WHERE id = $1
	`, studentID, busID)
	return err
}
