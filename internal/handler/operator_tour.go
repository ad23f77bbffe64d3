package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/model"
	"github.com/iliyamo/tour-booking/internal/repository"
)

// OperatorHandler bundles dependencies for tour-operator endpoints: tour
// authoring, attendee rosters and ledger repair.
type OperatorHandler struct {
	Tours  *repository.TourRepo
	Engine *booking.Engine
}

func NewOperatorHandler(tours *repository.TourRepo, engine *booking.Engine) *OperatorHandler {
	if tours == nil || engine == nil {
		panic("nil dependency passed to NewOperatorHandler")
	}
	return &OperatorHandler{Tours: tours, Engine: engine}
}

// categoryRateReq is one age tier in a create request. Remaining is not
// accepted from clients; it always starts equal to capacity.
type categoryRateReq struct {
	PriceCents uint32 `json:"price_cents"`
	Capacity   uint32 `json:"capacity"`
}

type createTourReq struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Country         string           `json:"country"`
	TripStart       time.Time        `json:"trip_start"`
	TripEnd         time.Time        `json:"trip_end"`
	BookingDeadline time.Time        `json:"booking_deadline"`
	DurationDays    uint32           `json:"duration_days"`
	DurationNights  uint32           `json:"duration_nights"`
	Adult           *categoryRateReq `json:"adult"`
	Child           *categoryRateReq `json:"child"`
	Toddler         *categoryRateReq `json:"toddler"`
	Baby            *categoryRateReq `json:"baby"`
}

// CreateTour handles POST /v1/operator/tours. The adult tier is mandatory;
// the other three default to a zero rate when omitted.
func (h *OperatorHandler) CreateTour(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.Adult == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "adult pricing required"})
	}
	if req.TripStart.IsZero() || req.TripEnd.IsZero() || req.BookingDeadline.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_start/trip_end/booking_deadline required"})
	}
	if req.TripEnd.Before(req.TripStart) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trip_end before trip_start"})
	}

	rate := func(r *categoryRateReq) model.CategoryRate {
		if r == nil {
			return model.CategoryRate{}
		}
		return model.CategoryRate{PriceCents: r.PriceCents, Capacity: r.Capacity, Remaining: r.Capacity}
	}
	t := &model.Tour{
		CompanyID:       uid,
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Country:         req.Country,
		TripStart:       req.TripStart,
		TripEnd:         req.TripEnd,
		BookingDeadline: req.BookingDeadline,
		DurationDays:    req.DurationDays,
		DurationNights:  req.DurationNights,
		IsActive:        true,
		Pricing: model.Pricing{
			Adult:   rate(req.Adult),
			Child:   rate(req.Child),
			Toddler: rate(req.Toddler),
			Baby:    rate(req.Baby),
		},
	}
	if err := h.Tours.Create(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tour failed"})
	}
	return c.JSON(http.StatusCreated, t)
}

type updateTourReq struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Category        *string    `json:"category"`
	Country         *string    `json:"country"`
	TripStart       *time.Time `json:"trip_start"`
	TripEnd         *time.Time `json:"trip_end"`
	BookingDeadline *time.Time `json:"booking_deadline"`
	IsActive        *bool      `json:"is_active"`
}

// UpdateTour handles PUT /v1/operator/tours/:id. Capacity and prices are
// not editable after creation; they feed live reservation snapshots.
func (h *OperatorHandler) UpdateTour(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tourID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := repository.TourUpdate{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Country:         req.Country,
		TripStart:       req.TripStart,
		TripEnd:         req.TripEnd,
		BookingDeadline: req.BookingDeadline,
		IsActive:        req.IsActive,
	}
	t, err := h.Tours.Update(c.Request().Context(), tourID, uid, upd)
	if err != nil {
		switch err {
		case repository.ErrTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update tour failed"})
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTour handles DELETE /v1/operator/tours/:id. Tours with attendees
// cannot be deleted.
func (h *OperatorHandler) DeleteTour(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tourID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Tours.Delete(c.Request().Context(), tourID, uid); err != nil {
		switch err {
		case repository.ErrTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "tour has attendees"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete tour failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMyTours handles GET /v1/operator/tours: every tour published by the
// calling company, active or not.
func (h *OperatorHandler) ListMyTours(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tours, err := h.Tours.ListByCompany(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": tours})
}

// ListAttendees handles GET /v1/operator/tours/:id/attendees. Only the
// company that published the tour may read its roster.
func (h *OperatorHandler) ListAttendees(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tourID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	items, err := h.Engine.ListAttendeesForTour(c.Request().Context(), tourID, uid)
	if err != nil {
		switch err {
		case repository.ErrTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListRepairs handles GET /v1/operator/repairs: bookings whose ledger
// writes did not complete and await remediation.
func (h *OperatorHandler) ListRepairs(c echo.Context) error {
	items, err := h.Engine.PendingRepairs(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RunRepairs handles POST /v1/operator/repairs/run: re-applies the missing
// ledger appends for every pending entry.
func (h *OperatorHandler) RunRepairs(c echo.Context) error {
	n, err := h.Engine.RunRepairs(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "repair run failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"repaired": n})
}
