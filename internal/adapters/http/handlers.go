package http

import (
	"github.com/gofiber/fiber/v2"
)

// PortalStats summarizes the store for admin dashboards.
type PortalStats struct {
	DataSource string `json:"data_source"`
	Routes     int    `json:"routes"`
	Buses      int    `json:"buses"`
	Drivers    int    `json:"drivers"`
	Students   int    `json:"students"`
	Complaints int    `json:"complaints"`
	BusChanges int    `json:"bus_changes"`
	Visits     int    `json:"visits"`
}

// StatsHandler returns collection counts and the active data source.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s := deps.Store
		stats := PortalStats{
			DataSource: s.DataSource(),
			Routes:     len(s.Routes()),
			Buses:      len(s.Buses()),
			Drivers:    len(s.Drivers()),
			Students:   len(s.Students()),
			Complaints: len(s.Complaints()),
			BusChanges: len(s.BusChanges()),
			Visits:     len(s.Visits()),
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListRoutesHandler returns all routes with their stops.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		routes, pg := paginate(c, deps.Store.Routes())
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a single route.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, ok := deps.Store.RouteByID(c.Params("id"))
		if !ok {
			return errNotFound(c, "route not found")
		}
		return c.JSON(route)
	}
}

// RouteStopsHandler returns the ordered stops of a route.
func RouteStopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, ok := deps.Store.RouteByID(c.Params("id"))
		if !ok {
			return errNotFound(c, "route not found")
		}
		return c.JSON(route.Stops)
	}
}

// ListBusesHandler returns the fleet, optionally filtered by status.
func ListBusesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		buses := deps.Store.Buses()
		if status := c.Query("status"); status != "" {
			filtered := buses[:0]
			for _, b := range buses {
				if b.Status == status {
					filtered = append(filtered, b)
				}
			}
			buses = filtered
		}
		page, pg := paginate(c, buses)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetBusHandler returns a single bus.
func GetBusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bus, ok := deps.Store.BusByID(c.Params("id"))
		if !ok {
			return errNotFound(c, "bus not found")
		}
		return c.JSON(bus)
	}
}

// BusSeatsHandler returns the bus's seat layout with current bookings.
func BusSeatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layout, err := deps.Store.SeatLayout(c.Params("id"))
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(layout)
	}
}

// BusDriverHandler returns the driver currently linked to a bus.
func BusDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := deps.Store.BusByID(c.Params("id")); !ok {
			return errNotFound(c, "bus not found")
		}
		driver, ok := deps.Store.DriverByBusID(c.Params("id"))
		if !ok {
			return errNotFound(c, "bus has no driver assigned")
		}
		return c.JSON(driver)
	}
}

// BusRouteHandler resolves the route a bus runs on.
func BusRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, ok := deps.Store.RouteByBusID(c.Params("id"))
		if !ok {
			return errNotFound(c, "bus or route not found")
		}
		return c.JSON(route)
	}
}

// PositionsHandler returns the current simulated position of every bus.
func PositionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Store.Positions())
	}
}

// ListDriversHandler returns all drivers.
func ListDriversHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		drivers, pg := paginate(c, deps.Store.Drivers())
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: drivers, Pagination: pg})
	}
}

// ListStudentsHandler returns all students, optionally filtered by bus.
func ListStudentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		students := deps.Store.Students()
		if busID := c.Query("bus_id"); busID != "" {
			filtered := students[:0]
			for _, s := range students {
				if s.BusID == busID {
					filtered = append(filtered, s)
				}
			}
			students = filtered
		}
		page, pg := paginate(c, students)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// StudentSeatHandler returns the student's seat booking, if any.
func StudentSeatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		booking, ok := deps.Store.StudentBooking(c.Params("id"))
		if !ok {
			return errNotFound(c, "student holds no seat")
		}
		return c.JSON(booking)
	}
}

// ListComplaintsHandler returns complaints, optionally for one student.
func ListComplaintsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		complaints := deps.Store.Complaints()
		if studentID := c.Query("student_id"); studentID != "" {
			filtered := complaints[:0]
			for _, cm := range complaints {
				if cm.StudentID == studentID {
					filtered = append(filtered, cm)
				}
			}
			complaints = filtered
		}
		page, pg := paginate(c, complaints)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ListBusChangesHandler returns bus-change requests with optional filters.
func ListBusChangesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqs := deps.Store.BusChanges()
		studentID := c.Query("student_id")
		status := c.Query("status")
		if studentID != "" || status != "" {
			filtered := reqs[:0]
			for _, r := range reqs {
				if studentID != "" && r.StudentID != studentID {
					continue
				}
				if status != "" && r.Status != status {
					continue
				}
				filtered = append(filtered, r)
			}
			reqs = filtered
		}
		page, pg := paginate(c, reqs)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// ListVisitsHandler returns industrial-visit requests, optionally filtered
// by status.
func ListVisitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		visits := deps.Store.Visits()
		if status := c.Query("status"); status != "" {
			filtered := visits[:0]
			for _, v := range visits {
				if v.Status == status {
					filtered = append(filtered, v)
				}
			}
			visits = filtered
		}
		page, pg := paginate(c, visits)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}
