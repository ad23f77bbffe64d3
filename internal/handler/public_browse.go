// Package handler exposes HTTP handlers for both authenticated and public
// endpoints. This file defines the public browsing API: unauthenticated
// users can list active tours, view a tour's capacity map, and browse the
// tour-operator directory. Sensitive fields are filtered from responses.

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing. It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	Tours    *repository.TourRepo
	Accounts *repository.AccountRepo
}

// PublicTour is a tour in list responses. Remaining counts are included so
// clients can grey out sold-out tiers before attempting to book.
type PublicTour struct {
	ID              uint64        `json:"id"`
	Title           string        `json:"title"`
	Category        string        `json:"category"`
	Country         string        `json:"country"`
	TripStart       time.Time     `json:"trip_start"`
	TripEnd         time.Time     `json:"trip_end"`
	BookingDeadline time.Time     `json:"booking_deadline"`
	DurationDays    uint32        `json:"duration_days"`
	DurationNights  uint32        `json:"duration_nights"`
	Pricing         model.Pricing `json:"pricing"`
	CompanyID       uint64        `json:"company_id"`
}

// PublicCompany represents a tour operator in the public directory.
type PublicCompany struct {
	ID          uint64 `json:"id"`
	Username    string `json:"username"`
	Description string `json:"description,omitempty"`
}

func publicTourFrom(t model.Tour) PublicTour {
	return PublicTour{
		ID:              t.ID,
		Title:           t.Title,
		Category:        t.Category,
		Country:         t.Country,
		TripStart:       t.TripStart,
		TripEnd:         t.TripEnd,
		BookingDeadline: t.BookingDeadline,
		DurationDays:    t.DurationDays,
		DurationNights:  t.DurationNights,
		Pricing:         t.Pricing,
		CompanyID:       t.CompanyID,
	}
}

// ListTours returns all active tours. Response JSON contains an "items"
// array of PublicTour.
func (h *PublicHandler) ListTours(c echo.Context) error {
	ctx := c.Request().Context()
	tours, err := h.Tours.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicTour, 0, len(tours))
	for _, t := range tours {
		out = append(out, publicTourFrom(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTour returns one tour with its full description and capacity map.
// Inactive tours are not exposed publicly.
func (h *PublicHandler) GetTour(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Tours.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrTourNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !t.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	out := publicTourFrom(*t)
	return c.JSON(http.StatusOK, echo.Map{
		"tour":        out,
		"description": t.Description,
	})
}

// ListCompanies returns the public tour-operator directory.
func (h *PublicHandler) ListCompanies(c echo.Context) error {
	ctx := c.Request().Context()
	ops, err := h.Accounts.ListOperators(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicCompany, 0, len(ops))
	for _, a := range ops {
		out = append(out, PublicCompany{ID: a.ID, Username: a.Username, Description: a.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetCompany returns one operator's public profile together with its
// active tours.
func (h *PublicHandler) GetCompany(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrAccountNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if a.Role != model.RoleTourOperator || !a.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "company not found"})
	}
	tours, err := h.Tours.ListActiveByCompany(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	outTours := make([]PublicTour, 0, len(tours))
	for _, t := range tours {
		outTours = append(outTours, publicTourFrom(t))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"company": PublicCompany{ID: a.ID, Username: a.Username, Description: a.Description},
		"tours":   outTours,
	})
}
