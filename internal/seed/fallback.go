// Package seed bundles the static fallback data the store runs on when the
// remote gateway is unreachable or empty.
package seed

import (
	"math/rand"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// Campus centroid used to scatter simulated bus positions.
const (
	CampusLat = 28.257
	CampusLon = 77.050
)

func f(v float64) *float64 { return &v }

// Routes returns the bundled fallback routes with ordered stops.
func Routes() []domain.Route {
	return []domain.Route{
		{
			ID: "R1", Name: "Route A - Gurugram City", StartPoint: "Campus Gate", City: "Gurugram", Color: "#6c5ce7",
			Stops: []domain.Stop{
				{Name: "Campus Gate", PickupTime: "7:00 AM", Order: 1, Lat: f(28.2570), Lon: f(77.0500)},
				{Name: "Sohna Chowk", PickupTime: "7:10 AM", Order: 2, Lat: f(28.2470), Lon: f(77.0650)},
				{Name: "Subhash Chowk", PickupTime: "7:30 AM", Order: 3, Lat: f(28.4190), Lon: f(77.0420)},
				{Name: "IFFCO Chowk", PickupTime: "7:55 AM", Order: 4, Lat: f(28.4729), Lon: f(77.0725)},
			},
		},
		{
			ID: "R2", Name: "Route B - Delhi South", StartPoint: "Campus Gate", City: "Delhi", Color: "#00cec9",
			Stops: []domain.Stop{
				{Name: "Campus Gate", PickupTime: "6:45 AM", Order: 1, Lat: f(28.2570), Lon: f(77.0500)},
				{Name: "Mehrauli", PickupTime: "7:30 AM", Order: 2, Lat: f(28.5253), Lon: f(77.1851)},
				{Name: "Saket Metro", PickupTime: "7:40 AM", Order: 3, Lat: f(28.5215), Lon: f(77.2029)},
				{Name: "Hauz Khas", PickupTime: "7:50 AM", Order: 4, Lat: f(28.5494), Lon: f(77.2001)},
			},
		},
		{
			ID: "R3", Name: "Route C - Faridabad Link", StartPoint: "Campus Gate", City: "Faridabad", Color: "#fd79a8",
			Stops: []domain.Stop{
				{Name: "Campus Gate", PickupTime: "6:50 AM", Order: 1, Lat: f(28.2570), Lon: f(77.0500)},
				{Name: "Ballabgarh", PickupTime: "7:15 AM", Order: 2, Lat: f(28.3424), Lon: f(77.3221)},
				{Name: "NIT Faridabad", PickupTime: "7:40 AM", Order: 3, Lat: f(28.3670), Lon: f(77.3200)},
				{Name: "Badarpur Border", PickupTime: "7:55 AM", Order: 4, Lat: f(28.5090), Lon: f(77.3040)},
			},
		},
	}
}

// Buses returns the bundled fallback fleet.
func Buses() []domain.Bus {
	return []domain.Bus{
		{ID: "BUS01", Number: "CT-01", Name: "Campus Express", Capacity: 51, TotalSeats: 51, RouteID: "R1", DriverID: "DRV01", Status: domain.BusActive},
		{ID: "BUS02", Number: "CT-02", Name: "Campus Cruiser", Capacity: 51, TotalSeats: 51, RouteID: "R2", DriverID: "DRV02", Status: domain.BusActive},
		{ID: "BUS03", Number: "CT-03", Name: "Scholar Shuttle", Capacity: 51, TotalSeats: 51, RouteID: "R3", DriverID: "DRV03", Status: domain.BusMaintenance},
	}
}

// Drivers returns the bundled fallback drivers.
func Drivers() []domain.Driver {
	return []domain.Driver{
		{ID: "DRV01", Name: "Ramesh Yadav", Phone: "+91 80000 11111", License: "HR-2024-001234", Status: domain.DriverOnDuty, Rating: 4.6, ConductorName: "Suresh Kumar", ConductorPhone: "+91 80000 11112", Experience: "8 yrs", BusID: "BUS01"},
		{ID: "DRV02", Name: "Vijay Singh", Phone: "+91 80000 22222", License: "HR-2024-005678", Status: domain.DriverOnDuty, Rating: 4.8, ConductorName: "Manoj Tiwari", ConductorPhone: "+91 80000 22223", Experience: "5 yrs", BusID: "BUS02"},
		{ID: "DRV03", Name: "Kiran Pal", Phone: "+91 80000 33333", License: "HR-2024-009101", Status: domain.DriverOffDuty, Rating: 4.9, ConductorName: "Ashok Meena", ConductorPhone: "+91 80000 33334", Experience: "12 yrs", BusID: "BUS03"},
	}
}

// Positions scatters buses around the campus centroid. Buses not in active
// status get speed 0 and stay stationary in the simulator.
func Positions(buses []domain.Bus, rng *rand.Rand) map[string]domain.LivePosition {
	positions := make(map[string]domain.LivePosition, len(buses))
	for _, b := range buses {
		speed := 0
		if b.Status == domain.BusActive {
			speed = 20 + rng.Intn(30)
		}
		positions[b.ID] = domain.LivePosition{
			Lat:     CampusLat + (rng.Float64()-0.5)*0.15,
			Lon:     CampusLon + (rng.Float64()-0.5)*0.15,
			Heading: rng.Intn(360),
			Speed:   speed,
		}
	}
	return positions
}
