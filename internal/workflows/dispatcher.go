package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"
)

// Dispatcher implements ports.ApprovalDispatcher by starting the approval
// workflow on Temporal. One workflow per request ID, so a re-dispatched
// approval dedupes instead of running twice.
type Dispatcher struct {
	client    client.Client
	taskQueue string
}

// NewDispatcher connects a Temporal client for dispatching approvals.
func NewDispatcher(hostPort, namespace, taskQueue string) (*Dispatcher, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal dial: %w", err)
	}
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Dispatcher{client: c, taskQueue: taskQueue}, nil
}

func (d *Dispatcher) DispatchApproval(ctx context.Context, requestID, studentID, requestedBusID, note string) error {
	opts := client.StartWorkflowOptions{
		ID:        "bus-change-approval-" + requestID,
		TaskQueue: d.taskQueue,
	}
	_, err := d.client.ExecuteWorkflow(ctx, opts, BusChangeApprovalWorkflow, ApprovalInput{
		RequestID:      requestID,
		StudentID:      studentID,
		RequestedBusID: requestedBusID,
		Note:           note,
	})
	if err != nil {
		return fmt.Errorf("start approval workflow: %w", err)
	}
	return nil
}

// Close releases the Temporal client.
func (d *Dispatcher) Close() {
	d.client.Close()
}
