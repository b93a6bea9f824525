package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// BusChangeRepo implements ports.BusChangeRepository.
type BusChangeRepo struct {
	db *DB
}

func NewBusChangeRepo(db *DB) *BusChangeRepo { return &BusChangeRepo{db: db} }

func (r *BusChangeRepo) List(ctx context.Context) ([]domain.BusChangeRequest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, student_id, student_name, COALESCE(current_bus_id, ''),
		       requested_bus_id, reason, status, COALESCE(admin_note, ''), created_at
		FROM bus_change_requests ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.BusChangeRequest
	for rows.Next() {
		var req domain.BusChangeRequest
		if err := rows.Scan(&req.ID, &req.StudentID, &req.StudentName, &req.CurrentBusID,
			&req.RequestedBusID, &req.Reason, &req.Status, &req.AdminNote, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.Sync = domain.SyncConfirmed
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *BusChangeRepo) Insert(ctx context.Context, req *domain.BusChangeRequest) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO bus_change_requests (id, student_id, student_name, current_bus_id, requested_bus_id, reason, status, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, req.ID, req.StudentID, req.StudentName, req.CurrentBusID,
		req.RequestedBusID, req.Reason, req.Status, req.CreatedAt)
	return err
}

func (r *BusChangeRepo) UpdateStatus(ctx context.Context, id, status, note string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE bus_change_requests SET status = $2, admin_note = NULLIF($3, '')
		WHERE id = $1
	`, id, status, note)
	return err
}

// RejectOtherPending closes every other pending request from the student in
// one statement, so an approval can never leave a second live request.
func (r *BusChangeRepo) RejectOtherPending(ctx context.Context, studentID, exceptID, note string) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE bus_change_requests SET status = $4, admin_note = $3
		WHERE student_id = $1 AND id <> $2 AND status = $5
	`, studentID, exceptID, note, domain.StatusRejected, domain.StatusPending)
	return err
}
