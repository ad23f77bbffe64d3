package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
	"github.com/iliyamo/tour-booking/internal/model"
)

// RegisterOperator registers tour-operator endpoints under /v1/operator.
// All routes require a valid JWT and the tourOperator role.
func RegisterOperator(e *echo.Echo, h *handler.OperatorHandler, jwtSecret string) {
	g := e.Group(
		"/v1/operator",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleTourOperator),
	)
	g.POST("/tours", h.CreateTour)
	g.GET("/tours", h.ListMyTours)
	g.PUT("/tours/:id", h.UpdateTour)
	g.DELETE("/tours/:id", h.DeleteTour)
	g.GET("/tours/:id/attendees", h.ListAttendees)

	// Ledger repair queue. Listing shows bookings whose dual writes did
	// not complete; run re-applies the missing idempotent appends.
	g.GET("/repairs", h.ListRepairs)
	g.POST("/repairs/run", h.RunRepairs)
}
