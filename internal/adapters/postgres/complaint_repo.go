package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// ComplaintRepo implements ports.ComplaintRepository.
type ComplaintRepo struct {
	db *DB
}

func NewComplaintRepo(db *DB) *ComplaintRepo { return &ComplaintRepo{db: db} }

func (r *ComplaintRepo) List(ctx context.Context) ([]domain.Complaint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, student_id, student_name, COALESCE(bus_id, ''), category,
		       subject, description, status, COALESCE(response, ''), filed_on
		FROM complaints ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []domain.Complaint
	for rows.Next() {
		var c domain.Complaint
		if err := rows.Scan(&c.ID, &c.StudentID, &c.StudentName, &c.BusID, &c.Category,
			&c.Subject, &c.Description, &c.Status, &c.Response, &c.Date); err != nil {
			return nil, err
		}
		c.Sync = domain.SyncConfirmed
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

func (r *ComplaintRepo) Insert(ctx context.Context, c *domain.Complaint) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO complaints (id, student_id, student_name, bus_id, category, subject, description, status, filed_on)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, c.ID, c.StudentID, c.StudentName, c.BusID, c.Category,
		c.Subject, c.Description, c.Status, c.Date)
	return err
}

// UpdateStatus moves a complaint and, when response is non-empty, records
// it; an empty response keeps whatever is stored.
func (r *ComplaintRepo) UpdateStatus(ctx context.Context, id, status, response string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE complaints
		SET status = $2,
		    response = CASE WHEN $3 = '' THEN response ELSE $3 END
		WHERE id = $1
	`, id, status, response)
	return err
}
