package main

import (
	"context"
	"log"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/adityarao/campus-transit/internal/adapters/postgres"
	"github.com/adityarao/campus-transit/internal/pkg/config"
	"github.com/adityarao/campus-transit/internal/workflows"
)

func main() {
	cfg, err := config.Load("campus-transit-approver")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Activities write through the same gateway tables as the portal.
	db, err := postgres.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.BusChangeApprovalWorkflow)
	w.RegisterActivity(&workflows.ApprovalActivities{
		BusChanges: postgres.NewBusChangeRepo(db),
		Students:   postgres.NewStudentRepo(db),
	})

	log.Println("approval worker started")
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
