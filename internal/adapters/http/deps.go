package http

import (
	"github.com/nats-io/nats.go"

	"github.com/adityarao/campus-transit/internal/adapters/postgres"
	"github.com/adityarao/campus-transit/internal/adapters/valkey"
	"github.com/adityarao/campus-transit/internal/core/store"
)

// Dependencies holds everything the HTTP handlers need.
type Dependencies struct {
	Store *store.Store
	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
