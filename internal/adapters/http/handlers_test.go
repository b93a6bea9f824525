package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/adityarao/campus-transit/internal/adapters/http"
	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/core/store"
)

// ---- Test helpers ----

// setupApp wires the router against a store running on the built-in
// fallback dataset. No gateway, bus, or cache is configured, so writes
// confirm locally.
func setupApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	st := store.New(store.Config{})
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, &handler.Dependencies{Store: st})
	return app, st
}

// ---- Read endpoints ----

func TestListBuses_Success(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/buses", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Bus `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 3 {
		t.Errorf("expected 3 buses, got %d", len(result.Data))
	}
}

func TestListBuses_StatusFilter(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/buses?status=maintenance", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.Bus `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 1 {
		t.Fatalf("expected 1 bus in maintenance, got %d", len(result.Data))
	}
	if result.Data[0].ID != "BUS03" {
		t.Errorf("expected BUS03, got %s", result.Data[0].ID)
	}
}

func TestGetBus_NotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/buses/BUS99", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", apiErr.Code)
	}
}

func TestBusSeats_LayoutShape(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/buses/BUS01/seats", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var layout [][]domain.Seat
	if err := json.NewDecoder(resp.Body).Decode(&layout); err != nil {
		t.Fatal(err)
	}
	if len(layout) != 13 {
		t.Fatalf("expected 13 rows for a 51-seat bus, got %d", len(layout))
	}
	if len(layout[12]) != 3 {
		t.Errorf("expected 3 seats in the last row, got %d", len(layout[12]))
	}
}

func TestBusDriver_Success(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/buses/BUS01/driver", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var driver domain.Driver
	json.NewDecoder(resp.Body).Decode(&driver)
	if driver.ID != "DRV01" {
		t.Errorf("expected DRV01, got %s", driver.ID)
	}
}

func TestGetRoute_Success(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/routes/R1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	json.NewDecoder(resp.Body).Decode(&route)
	if route.City != "Gurugram" {
		t.Errorf("unexpected route city: %s", route.City)
	}
	if len(route.Stops) == 0 {
		t.Error("expected route stops to be populated")
	}
}

func TestPositions_CoversFleet(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/positions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var positions map[string]domain.LivePosition
	json.NewDecoder(resp.Body).Decode(&positions)
	if len(positions) != 3 {
		t.Errorf("expected positions for 3 buses, got %d", len(positions))
	}
}

// ---- Seat booking ----

func TestBookSeat_Success(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"bus_id":"BUS01","seat_number":"A1","student_id":"STU100","student_name":"Priya Nair"}`
	req := httptest.NewRequest("POST", "/v1/seats", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var booking domain.SeatBooking
	json.NewDecoder(resp.Body).Decode(&booking)
	if booking.SeatNumber != "A1" || booking.StudentID != "STU100" {
		t.Errorf("unexpected booking: %+v", booking)
	}
}

func TestBookSeat_SecondBookingConflicts(t *testing.T) {
	app, _ := setupApp(t)

	first := `{"bus_id":"BUS01","seat_number":"A1","student_id":"STU100","student_name":"Priya Nair"}`
	req := httptest.NewRequest("POST", "/v1/seats", strings.NewReader(first))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("first booking: expected 201, got %d", resp.StatusCode)
	}

	// Same student, different bus: fleet-wide one seat per student
	second := `{"bus_id":"BUS02","seat_number":"C3","student_id":"STU100","student_name":"Priya Nair"}`
	req = httptest.NewRequest("POST", "/v1/seats", strings.NewReader(second))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("second booking: expected 409, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "conflict" {
		t.Errorf("expected conflict error, got %s", apiErr.Code)
	}
}

func TestBookSeat_TakenSeatConflicts(t *testing.T) {
	app, _ := setupApp(t)

	first := `{"bus_id":"BUS01","seat_number":"B2","student_id":"STU100","student_name":"Priya Nair"}`
	req := httptest.NewRequest("POST", "/v1/seats", strings.NewReader(first))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("first booking: expected 201, got %d", resp.StatusCode)
	}

	second := `{"bus_id":"BUS01","seat_number":"B2","student_id":"STU200","student_name":"Arjun Mehta"}`
	req = httptest.NewRequest("POST", "/v1/seats", strings.NewReader(second))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("second booking: expected 409, got %d", resp.StatusCode)
	}
}

func TestBookSeat_InvalidSeatNumber(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"bus_id":"BUS01","seat_number":"Z99","student_id":"STU100","student_name":"Priya Nair"}`
	req := httptest.NewRequest("POST", "/v1/seats", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookSeat_UnknownBus(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"bus_id":"BUS99","seat_number":"A1","student_id":"STU100","student_name":"Priya Nair"}`
	req := httptest.NewRequest("POST", "/v1/seats", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Complaints ----

func TestComplaintLifecycle(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"student_id":"STU100","student_name":"Priya Nair","bus_id":"BUS01","category":"cleanliness","subject":"Dusty seats","description":"Back rows need cleaning"}`
	req := httptest.NewRequest("POST", "/v1/complaints", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var complaint domain.Complaint
	json.NewDecoder(resp.Body).Decode(&complaint)
	if complaint.ID == "" {
		t.Fatal("expected a generated complaint ID")
	}
	if complaint.Status != domain.StatusPending {
		t.Errorf("expected pending status, got %s", complaint.Status)
	}

	update := `{"status":"in_progress","response":"Crew scheduled"}`
	req = httptest.NewRequest("PATCH", "/v1/complaints/"+complaint.ID, strings.NewReader(update))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Backward transition is rejected
	back := `{"status":"pending"}`
	req = httptest.NewRequest("PATCH", "/v1/complaints/"+complaint.ID, strings.NewReader(back))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409 for backward transition, got %d", resp.StatusCode)
	}
}

// ---- Bus changes ----

func TestBusChangeDecision(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"student_id":"STU100","student_name":"Priya Nair","current_bus_id":"BUS01","requested_bus_id":"BUS02","reason":"Moved closer to Route B"}`
	req := httptest.NewRequest("POST", "/v1/bus-changes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var change domain.BusChangeRequest
	json.NewDecoder(resp.Body).Decode(&change)

	decision := `{"decision":"approved","note":"ok"}`
	req = httptest.NewRequest("POST", "/v1/bus-changes/"+change.ID+"/decision", strings.NewReader(decision))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var decided domain.BusChangeRequest
	json.NewDecoder(resp.Body).Decode(&decided)
	if decided.Status != domain.StatusApproved {
		t.Errorf("expected approved, got %s", decided.Status)
	}

	// Deciding twice is a conflict
	req = httptest.NewRequest("POST", "/v1/bus-changes/"+change.ID+"/decision", strings.NewReader(decision))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409 on second decision, got %d", resp.StatusCode)
	}
}

func TestBusChange_SameBusRejected(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"student_id":"STU100","student_name":"Priya Nair","current_bus_id":"BUS01","requested_bus_id":"BUS01","reason":"none"}`
	req := httptest.NewRequest("POST", "/v1/bus-changes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Industrial visits ----

func TestAddVisit_OverCapacity(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"faculty_id":"FAC01","faculty_name":"Dr. Rao","destination":"Maruti Plant","visit_date":"2026-09-15","students":120,"purpose":"Plant tour"}`
	req := httptest.NewRequest("POST", "/v1/visits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if !strings.Contains(apiErr.Message, "3 buses") {
		t.Errorf("expected bus-count hint in error, got %q", apiErr.Message)
	}
}

func TestVisitApprovalRequiresBus(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"faculty_id":"FAC01","faculty_name":"Dr. Rao","destination":"Maruti Plant","visit_date":"2026-09-15","students":40,"purpose":"Plant tour"}`
	req := httptest.NewRequest("POST", "/v1/visits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var visit domain.IndustrialVisit
	json.NewDecoder(resp.Body).Decode(&visit)

	// Approval without a bus is rejected
	noBus := `{"status":"approved"}`
	req = httptest.NewRequest("POST", "/v1/visits/"+visit.ID+"/decision", strings.NewReader(noBus))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	withBus := `{"status":"approved","bus_id":"BUS02"}`
	req = httptest.NewRequest("POST", "/v1/visits/"+visit.ID+"/decision", strings.NewReader(withBus))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var approved domain.IndustrialVisit
	json.NewDecoder(resp.Body).Decode(&approved)
	if approved.BusAssigned != "BUS02" {
		t.Errorf("expected BUS02 assigned, got %s", approved.BusAssigned)
	}
}

// ---- Drivers ----

func TestReassignDriver(t *testing.T) {
	app, st := setupApp(t)

	body := `{"bus_id":"BUS01"}`
	req := httptest.NewRequest("PUT", "/v1/drivers/DRV02/bus", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var driver domain.Driver
	json.NewDecoder(resp.Body).Decode(&driver)
	if driver.BusID != "BUS01" {
		t.Errorf("expected DRV02 on BUS01, got %s", driver.BusID)
	}

	bus, _ := st.BusByID("BUS01")
	if bus.DriverID != "DRV02" {
		t.Errorf("expected BUS01 linked to DRV02, got %s", bus.DriverID)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_LocalFallbackIsReady(t *testing.T) {
	app, _ := setupApp(t)

	// No gateway configured: the portal still serves its local dataset
	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		DataSource string `json:"data_source"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.DataSource != store.SourceFallback {
		t.Errorf("expected fallback data source, got %s", result.DataSource)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// ---- Link header on pagination ----

func TestListStudents_LinkHeader(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/v1/students?offset=0&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
}

// ---- GraphQL ----

func TestGraphQL_BusesQuery(t *testing.T) {
	app, _ := setupApp(t)

	body := `{"query":"{ buses { id status } stats { buses data_source } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Buses []struct {
				ID string `json:"id"`
			} `json:"buses"`
			Stats struct {
				Buses      int    `json:"buses"`
				DataSource string `json:"data_source"`
			} `json:"stats"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if len(result.Data.Buses) != 3 {
		t.Errorf("expected 3 buses, got %d", len(result.Data.Buses))
	}
	if result.Data.Stats.DataSource != store.SourceFallback {
		t.Errorf("expected fallback data source, got %s", result.Data.Stats.DataSource)
	}
}
