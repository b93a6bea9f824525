package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the default queue the approval worker listens on.
const TaskQueue = "bus-change-approvals"

// ApprovalInput is the input for the bus-change approval workflow.
type ApprovalInput struct {
	RequestID      string
	StudentID      string
	RequestedBusID string
	Note           string
}

// BusChangeApprovalWorkflow applies the remote side of an approval: mark
// the request approved, auto-reject the student's other pending requests,
// and move the student onto the requested bus. If the student move fails
// the approval is reverted to pending (saga compensation), so the gateway
// never holds an approved request for a student still on the old bus.
func BusChangeApprovalWorkflow(ctx workflow.Context, input ApprovalInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting bus-change approval", "request", input.RequestID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: mark the request approved
	if err := workflow.ExecuteActivity(ctx, "MarkApproved", input.RequestID, input.Note).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: auto-reject the student's other pending requests
	if err := workflow.ExecuteActivity(ctx, "RejectSiblings", input.StudentID, input.RequestID).Get(ctx, nil); err != nil {
		logger.Warn("sibling rejection failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RevertApproval", input.RequestID).Get(ctx, nil)
		return err
	}

	// Step 3: move the student onto the approved bus
	if err := workflow.ExecuteActivity(ctx, "MoveStudent", input.StudentID, input.RequestedBusID).Get(ctx, nil); err != nil {
		logger.Warn("student move failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RevertApproval", input.RequestID).Get(ctx, nil)
		return err
	}

	logger.Info("Bus change approved", "request", input.RequestID, "bus", input.RequestedBusID)
	return nil
}
