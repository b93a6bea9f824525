package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/adityarao/campus-transit/internal/core/domain"
	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

func recordCommand(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.CommandsTotal.WithLabelValues(name, outcome).Inc()
}

type bookSeatRequest struct {
	BusID       string `json:"bus_id"`
	SeatNumber  string `json:"seat_number"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// BookSeatHandler books a seat for a student.
func BookSeatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bookSeatRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		booking, err := deps.Store.BookSeat(c.Context(), req.BusID, req.SeatNumber, req.StudentID, req.StudentName)
		recordCommand("book_seat", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(booking)
	}
}

type complaintRequest struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	BusID       string `json:"bus_id"`
	Category    string `json:"category"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// AddComplaintHandler files a complaint.
func AddComplaintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req complaintRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		complaint, err := deps.Store.AddComplaint(c.Context(), domain.Complaint{
			StudentID:   req.StudentID,
			StudentName: req.StudentName,
			BusID:       req.BusID,
			Category:    req.Category,
			Subject:     req.Subject,
			Description: req.Description,
		})
		recordCommand("add_complaint", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(complaint)
	}
}

type complaintStatusRequest struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

// UpdateComplaintHandler advances a complaint's status.
func UpdateComplaintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req complaintStatusRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		complaint, err := deps.Store.UpdateComplaintStatus(c.Context(), c.Params("id"), req.Status, req.Response)
		recordCommand("update_complaint", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(complaint)
	}
}

type busChangeRequest struct {
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name"`
	CurrentBusID   string `json:"current_bus_id"`
	RequestedBusID string `json:"requested_bus_id"`
	Reason         string `json:"reason"`
}

// SubmitBusChangeHandler files a bus-change request.
func SubmitBusChangeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req busChangeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.Store.SubmitBusChange(c.Context(), domain.BusChangeRequest{
			StudentID:      req.StudentID,
			StudentName:    req.StudentName,
			CurrentBusID:   req.CurrentBusID,
			RequestedBusID: req.RequestedBusID,
			Reason:         req.Reason,
		})
		recordCommand("submit_bus_change", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// DecideBusChangeHandler approves or rejects a pending request.
func DecideBusChangeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req decisionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.Store.DecideBusChange(c.Context(), c.Params("id"), req.Decision, req.Note)
		recordCommand("decide_bus_change", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(out)
	}
}

type visitRequest struct {
	FacultyID   string   `json:"faculty_id"`
	FacultyName string   `json:"faculty_name"`
	Destination string   `json:"destination"`
	VisitDate   string   `json:"visit_date"`
	Students    int      `json:"students"`
	Purpose     string   `json:"purpose"`
	Stops       []string `json:"stops"`
}

// AddVisitHandler files an industrial-visit request.
func AddVisitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req visitRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		visit, err := deps.Store.AddVisit(c.Context(), domain.IndustrialVisit{
			FacultyID:   req.FacultyID,
			FacultyName: req.FacultyName,
			Destination: req.Destination,
			VisitDate:   req.VisitDate,
			Students:    req.Students,
			Purpose:     req.Purpose,
			Stops:       req.Stops,
		})
		recordCommand("add_visit", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(visit)
	}
}

type visitDecisionRequest struct {
	Status string `json:"status"`
	BusID  string `json:"bus_id"`
}

// DecideVisitHandler approves (with a bus) or rejects a pending visit.
func DecideVisitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req visitDecisionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		var (
			visit domain.IndustrialVisit
			err   error
		)
		if req.Status == domain.StatusApproved {
			visit, err = deps.Store.ApproveVisit(c.Context(), c.Params("id"), req.BusID)
		} else {
			visit, err = deps.Store.UpdateVisitStatus(c.Context(), c.Params("id"), req.Status)
		}
		recordCommand("decide_visit", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(visit)
	}
}

type driverRequest struct {
	Name           string  `json:"name"`
	Phone          string  `json:"phone"`
	License        string  `json:"license"`
	Status         string  `json:"status"`
	Rating         float64 `json:"rating"`
	ConductorName  string  `json:"conductor_name"`
	ConductorPhone string  `json:"conductor_phone"`
	Experience     string  `json:"experience"`
}

// AddDriverHandler registers a driver.
func AddDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req driverRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		driver, err := deps.Store.AddDriver(c.Context(), domain.Driver{
			Name:           req.Name,
			Phone:          req.Phone,
			License:        req.License,
			Status:         req.Status,
			Rating:         req.Rating,
			ConductorName:  req.ConductorName,
			ConductorPhone: req.ConductorPhone,
			Experience:     req.Experience,
		})
		recordCommand("add_driver", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(driver)
	}
}

// UpdateDriverHandler applies field-level driver edits.
func UpdateDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var upd domain.DriverUpdate
		if err := c.BodyParser(&upd); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		driver, err := deps.Store.UpdateDriver(c.Context(), c.Params("id"), upd)
		recordCommand("update_driver", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(driver)
	}
}

type reassignRequest struct {
	BusID string `json:"bus_id"`
}

// ReassignDriverHandler moves a driver onto a bus (or off all buses).
func ReassignDriverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req reassignRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		driver, err := deps.Store.ReassignDriver(c.Context(), c.Params("id"), req.BusID)
		recordCommand("reassign_driver", err)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(driver)
	}
}
