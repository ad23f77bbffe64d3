package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/booking"
	"github.com/iliyamo/tour-booking/internal/model"
)

// CustomerHandler exposes the reservation endpoints. It delegates the
// whole pipeline to the booking engine and only translates its typed
// errors into HTTP responses.
type CustomerHandler struct {
	Engine *booking.Engine
}

func NewCustomerHandler(e *booking.Engine) *CustomerHandler {
	if e == nil {
		panic("nil engine passed to NewCustomerHandler")
	}
	return &CustomerHandler{Engine: e}
}

type createBookingReq struct {
	TourID   uint64 `json:"tour_id"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Toddlers int    `json:"toddlers"`
	Babies   int    `json:"babies"`
}

// CreateBooking handles POST /v1/bookings. On success the client receives
// the booking id, the total charged and the capacity snapshot the price was
// computed from.
func (h *CustomerHandler) CreateBooking(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TourID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tour_id required"})
	}

	ctx := c.Request().Context()
	conf, err := h.Engine.Reserve(ctx, req.TourID, uid, quantitiesFrom(req))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, conf)
}

// ListMyBookings handles GET /v1/my-bookings: the caller's booking ledger
// with tour summaries resolved, in append order.
func (h *CustomerHandler) ListMyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Engine.ListBookingsForAccount(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func quantitiesFrom(req createBookingReq) model.Quantities {
	return model.Quantities{
		Adults:   req.Adults,
		Children: req.Children,
		Toddlers: req.Toddlers,
		Babies:   req.Babies,
	}
}

// bookingError maps the engine's typed errors onto HTTP responses.
// Capacity rejections answer 409 with the short categories so the client
// can adjust quantities instead of guessing.
func bookingError(c echo.Context, err error) error {
	var vErr *booking.ValidationError
	if errors.As(err, &vErr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Msg})
	}
	var eErr *booking.EligibilityError
	if errors.As(err, &eErr) {
		switch eErr.Reason {
		case booking.ReasonNotACustomer:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only customers can book tours"})
		case booking.ReasonTourNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		case booking.ReasonTourInactive:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tour is not active"})
		case booking.ReasonDeadlinePassed:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking deadline has passed"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": eErr.Reason})
	}
	var cErr *booking.CapacityError
	if errors.As(err, &cErr) {
		short := make([]string, 0, len(cErr.Short))
		for _, cat := range cErr.Short {
			short = append(short, string(cat))
		}
		return c.JSON(http.StatusConflict, echo.Map{
			"error":            "insufficient capacity",
			"short_categories": short,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
}
