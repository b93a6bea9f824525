package workflows

import (
	"context"
	"fmt"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/core/ports"
)

// autoRejectNote is stamped on the losing pending requests when one request
// from the student is approved.
const autoRejectNote = "Auto-rejected: another request was approved"

// ApprovalActivities holds the activity implementations for the bus-change
// approval workflow.
type ApprovalActivities struct {
	BusChanges ports.BusChangeRepository
	Students   ports.StudentRepository
}

// MarkApproved writes the approved status on the request.
func (a *ApprovalActivities) MarkApproved(ctx context.Context, requestID, note string) error {
	if err := a.BusChanges.UpdateStatus(ctx, requestID, domain.StatusApproved, note); err != nil {
		return fmt.Errorf("approve request %s: %w", requestID, err)
	}
	return nil
}

// RejectSiblings closes every other pending request from the student.
func (a *ApprovalActivities) RejectSiblings(ctx context.Context, studentID, requestID string) error {
	if err := a.BusChanges.RejectOtherPending(ctx, studentID, requestID, autoRejectNote); err != nil {
		return fmt.Errorf("reject sibling requests for %s: %w", studentID, err)
	}
	return nil
}

// MoveStudent reassigns the student to the approved bus.
func (a *ApprovalActivities) MoveStudent(ctx context.Context, studentID, busID string) error {
	if err := a.Students.SetBus(ctx, studentID, busID); err != nil {
		return fmt.Errorf("move student %s to %s: %w", studentID, busID, err)
	}
	return nil
}

// RevertApproval puts the request back to pending (saga compensation).
func (a *ApprovalActivities) RevertApproval(ctx context.Context, requestID string) error {
	if err := a.BusChanges.UpdateStatus(ctx, requestID, domain.StatusPending, ""); err != nil {
		return fmt.Errorf("revert request %s: %w", requestID, err)
	}
	return nil
}
