package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT and the customer role. Customers can place
// bookings, view their booking ledger and manage favourites.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, p *handler.ProfileHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/my-bookings", h.ListMyBookings)

	g.GET("/favourites", p.ListFavourites)
	g.POST("/favourites/:tourId", p.AddFavourite)
	g.DELETE("/favourites/:tourId", p.RemoveFavourite)
}
