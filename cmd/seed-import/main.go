// seed-import loads the transport office's master workbook into the
// gateway database. The registrar maintains routes, stops, buses, drivers
// and student allotments as Excel sheets; this tool is the bridge from
// that workbook to the tables the portal syncs from.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xuri/excelize/v2"

	"github.com/adityarao/campus-transit/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: seed-import <workbook.xlsx>")
	}

	cfg, err := config.Load("campus-transit-seed-import")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	wb, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	// Sheets in dependency order: routes before stops and buses, buses
	// before drivers and students.
	steps := []struct {
		sheet string
		fn    func(context.Context, *pgxpool.Pool, [][]string) (int, error)
	}{
		{"Routes", importRoutes},
		{"Stops", importStops},
		{"Buses", importBuses},
		{"Drivers", importDrivers},
		{"Students", importStudents},
	}

	for _, step := range steps {
		rows, err := wb.GetRows(step.sheet)
		if err != nil {
			log.Printf("SKIP %s: %v", step.sheet, err)
			continue
		}
		if len(rows) < 2 {
			log.Printf("SKIP %s: no data rows", step.sheet)
			continue
		}

		n, err := step.fn(ctx, pool, rows)
		if err != nil {
			log.Fatalf("%s: %v", step.sheet, err)
		}
		log.Printf("OK  %-8s %d rows", step.sheet, n)
	}

	log.Println("workbook imported")
}

// headerIndex maps normalized column names to their positions so the
// workbook's column order does not matter.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), " ", "_"))
		idx[key] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellInt(row []string, idx map[string]int, name string, fallback int) int {
	v := cell(row, idx, name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func cellFloat(row []string, idx map[string]int, name string) (float64, bool) {
	v := cell(row, idx, name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func importRoutes(ctx context.Context, pool *pgxpool.Pool, rows [][]string) (int, error) {
	idx := headerIndex(rows[0])
	count := 0
	for rn, row := range rows[1:] {
		id := cell(row, idx, "id")
		if id == "" {
			continue
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO routes (id, name, start_point, city, color)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, start_point = EXCLUDED.start_point,
				city = EXCLUDED.city, color = EXCLUDED.color
		`, id, cell(row, idx, "name"), cell(row, idx, "start_point"),
			cell(row, idx, "city"), cell(row, idx, "color"))
		if err != nil {
			return count, fmt.Errorf("row %d: %w", rn+2, err)
		}
		count++
	}
	return count, nil
}

func importStops(ctx context.Context, pool *pgxpool.Pool, rows [][]string) (int, error) {
	idx := headerIndex(rows[0])
	count := 0
	for rn, row := range rows[1:] {
		routeID := cell(row, idx, "route_id")
		name := cell(row, idx, "name")
		if routeID == "" || name == "" {
			continue
		}

		var lat, lon interface{}
		if v, ok := cellFloat(row, idx, "lat"); ok {
			lat = v
		}
		if v, ok := cellFloat(row, idx, "lon"); ok {
			lon = v
		}

		_, err := pool.Exec(ctx, `
			INSERT INTO route_stops (route_id, name, pickup_time, stop_order, lat, lon)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (route_id, stop_order) DO UPDATE SET
				name = EXCLUDED.name, pickup_time = EXCLUDED.pickup_time,
				lat = EXCLUDED.lat, lon = EXCLUDED.lon
		`, routeID, name, cell(row, idx, "pickup_time"),
			cellInt(row, idx, "stop_order", rn+1), lat, lon)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", rn+2, err)
		}
		count++
	}
	return count, nil
}

func importBuses(ctx context.Context, pool *pgxpool.Pool, rows [][]string) (int, error) {
	idx := headerIndex(rows[0])
	count := 0
	for rn, row := range rows[1:] {
		id := cell(row, idx, "id")
		if id == "" {
			continue
		}
		status := cell(row, idx, "status")
		if status == "" {
			status = "active"
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO buses (id, number, name, capacity, total_seats, route_id, status)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
			ON CONFLICT (id) DO UPDATE SET
				number = EXCLUDED.number, name = EXCLUDED.name,
				capacity = EXCLUDED.capacity, total_seats = EXCLUDED.total_seats,
				route_id = EXCLUDED.route_id, status = EXCLUDED.status
		`, id, cell(row, idx, "number"), cell(row, idx, "name"),
			cellInt(row, idx, "capacity", 51), cellInt(row, idx, "total_seats", 51),
			cell(row, idx, "route_id"), status)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", rn+2, err)
		}
		count++
	}
	return count, nil
}

func importDrivers(ctx context.Context, pool *pgxpool.Pool, rows [][]string) (int, error) {
	idx := headerIndex(rows[0])
	count := 0
	for rn, row := range rows[1:] {
		id := cell(row, idx, "id")
		if id == "" {
			continue
		}
		status := cell(row, idx, "status")
		if status == "" {
			status = "on_duty"
		}
		rating := 4.5
		if v, ok := cellFloat(row, idx, "rating"); ok {
			rating = v
		}
		busID := cell(row, idx, "bus_id")

		_, err := pool.Exec(ctx, `
			INSERT INTO drivers (id, name, phone, license, status, rating,
				conductor_name, conductor_phone, experience, bus_id)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NULLIF($10, ''))
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, phone = EXCLUDED.phone,
				license = EXCLUDED.license, status = EXCLUDED.status,
				rating = EXCLUDED.rating, conductor_name = EXCLUDED.conductor_name,
				conductor_phone = EXCLUDED.conductor_phone,
				experience = EXCLUDED.experience, bus_id = EXCLUDED.bus_id
		`, id, cell(row, idx, "name"), cell(row, idx, "phone"),
			cell(row, idx, "license"), status, rating,
			cell(row, idx, "conductor_name"), cell(row, idx, "conductor_phone"),
			cell(row, idx, "experience"), busID)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", rn+2, err)
		}

		// Keep the bus side of the link in step with the driver side.
		if busID != "" {
			if _, err := pool.Exec(ctx,
				`UPDATE buses SET driver_id = $1 WHERE id = $2`, id, busID); err != nil {
				return count, fmt.Errorf("row %d: link bus: %w", rn+2, err)
			}
		}
		count++
	}
	return count, nil
}

func importStudents(ctx context.Context, pool *pgxpool.Pool, rows [][]string) (int, error) {
	idx := headerIndex(rows[0])
	count := 0
	for rn, row := range rows[1:] {
		id := cell(row, idx, "id")
		if id == "" {
			continue
		}
		feePaid := strings.EqualFold(cell(row, idx, "fee_paid"), "yes") ||
			strings.EqualFold(cell(row, idx, "fee_paid"), "true")

		_, err := pool.Exec(ctx, `
			INSERT INTO students (id, name, email, phone, route_id, bus_id, fee_paid)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, email = EXCLUDED.email,
				phone = EXCLUDED.phone, route_id = EXCLUDED.route_id,
				bus_id = EXCLUDED.bus_id, fee_paid = EXCLUDED.fee_paid
		`, id, cell(row, idx, "name"), cell(row, idx, "email"),
			cell(row, idx, "phone"), cell(row, idx, "route_id"),
			cell(row, idx, "bus_id"), feePaid)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", rn+2, err)
		}
		count++
	}
	return count, nil
}
