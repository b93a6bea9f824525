package postgres

import (
	"context"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository.
type RouteRepo struct {
	db *DB
}

func NewRouteRepo(db *DB) *RouteRepo { return &RouteRepo{db: db} }

// ListWithStops loads every route and attaches its stops in pickup order.
func (r *RouteRepo) ListWithStops(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, start_point, city, color
		FROM routes ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []domain.Route
	index := make(map[string]int)
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.StartPoint, &rt.City, &rt.Color); err != nil {
			return nil, err
		}
		index[rt.ID] = len(routes)
		routes = append(routes, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, nil
	}

	stopRows, err := r.db.Pool.Query(ctx, `
		SELECT route_id, name, pickup_time, stop_order, lat, lon
		FROM route_stops ORDER BY route_id, stop_order
	`)
	if err != nil {
		return nil, err
	}
	defer stopRows.Close()

	for stopRows.Next() {
		var routeID string
		var st domain.Stop
		if err := stopRows.Scan(&routeID, &st.Name, &st.PickupTime, &st.Order, &st.Lat, &st.Lon); err != nil {
			return nil, err
		}
		if i, ok := index[routeID]; ok {
			routes[i].Stops = append(routes[i].Stops, st)
		}
	}
	return routes, stopRows.Err()
}
