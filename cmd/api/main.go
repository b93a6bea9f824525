package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/adityarao/campus-transit/internal/adapters/http"
	natsadapter "github.com/adityarao/campus-transit/internal/adapters/nats"
	"github.com/adityarao/campus-transit/internal/adapters/postgres"
	"github.com/adityarao/campus-transit/internal/adapters/valkey"
	"github.com/adityarao/campus-transit/internal/core/ports"
	"github.com/adityarao/campus-transit/internal/core/store"
	"github.com/adityarao/campus-transit/internal/pkg/config"
	"github.com/adityarao/campus-transit/internal/pkg/logging"
	"github.com/adityarao/campus-transit/internal/pkg/metrics"
	"github.com/adityarao/campus-transit/internal/pkg/telemetry"
	"github.com/adityarao/campus-transit/internal/workflows"
)

func main() {
	cfg, err := config.Load("campus-transit-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Remote gateway. The portal stays up on its fallback dataset when
	// the database is unreachable, so this is a warning, not a fatal.
	var (
		db      *postgres.DB
		gateway ports.Gateway
		feed    ports.ChangeFeed
	)
	db, err = postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("gateway unavailable, serving fallback dataset", "error", err)
		db = nil
	} else {
		defer db.Close()
		gateway = ports.Gateway{
			Routes:     postgres.NewRouteRepo(db),
			Buses:      postgres.NewBusRepo(db),
			Drivers:    postgres.NewDriverRepo(db),
			Students:   postgres.NewStudentRepo(db),
			Complaints: postgres.NewComplaintRepo(db),
			Seats:      postgres.NewSeatRepo(db),
			BusChanges: postgres.NewBusChangeRepo(db),
			Visits:     postgres.NewVisitRepo(db),
		}
		listener := postgres.NewListener(db, slog.Default())
		defer listener.Close()
		feed = listener
	}

	// Durable local cache
	var cache *valkey.Cache
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	// Broadcast bus
	var (
		pub ports.SyncPublisher
		sub ports.SyncSubscriber
	)
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats publisher unavailable", "error", err)
	} else {
		defer p.Close()
		pub = p
	}
	if s, err := natsadapter.NewSubscriber(cfg.NATS.URL, slog.Default()); err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer s.Close()
		sub = s
	}

	// Raw NATS connection for the WebSocket relay
	var natsConn *nats.Conn
	if nc, err := natsadapter.Connect(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		natsConn = nc
		defer nc.Close()
	}

	// Temporal approval workflow (optional)
	var approvals ports.ApprovalDispatcher
	if cfg.Temporal.Enabled {
		dispatcher, err := workflows.NewDispatcher(cfg.Temporal.HostPort, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue)
		if err != nil {
			slog.Warn("temporal unavailable, deciding bus changes inline", "error", err)
		} else {
			defer dispatcher.Close()
			approvals = dispatcher
		}
	}

	storeCfg := store.Config{
		Gateway:      gateway,
		Publisher:    pub,
		Subscriber:   sub,
		Feed:         feed,
		Approvals:    approvals,
		Logger:       slog.Default(),
		TickInterval: time.Duration(cfg.Store.SimulatorTickMS) * time.Millisecond,
	}
	if cache != nil {
		storeCfg.Cache = cache
	}

	st := store.New(storeCfg)
	if err := st.Start(ctx); err != nil {
		log.Fatalf("store start: %v", err)
	}
	defer st.Stop()

	// Pool gauges for the /metrics endpoint
	if db != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(db.Pool.Stat())
				}
			}
		}()
	}

	deps := &http.Dependencies{
		Store: st,
		NATS:  natsConn,
		DB:    db,
		Cache: cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Campus Transit API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PATCH,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "data_source", st.DataSource())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
