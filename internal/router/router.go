// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tour-booking/internal/handler"
	"github.com/iliyamo/tour-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// /refresh rotates the refresh token; /refresh-access issues a new
	// access token while reusing the existing refresh token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT middleware: a refresh token in the body
	// is enough to terminate a session.
	g.POST("/logout", a.Logout)

	// Also reachable at the top level so clients can log out with either
	// path.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints. The handlers
// return sanitized tour and company data for guest users; no JWT or role
// middleware applies. The cacheMW parameter wraps list/detail responses in
// the Redis response cache when enabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheMW echo.MiddlewareFunc) {
	g := e.Group("", cacheMW)
	g.GET("/v1/tours", p.ListTours)
	g.GET("/v1/tours/:id", p.GetTour)
	g.GET("/v1/companies", p.ListCompanies)
	g.GET("/v1/companies/:id", p.GetCompany)
}

// RegisterProfile registers the role-conditioned profile endpoints for any
// authenticated account, assigned role or not. GET /v1/me answers with a
// customer, operator or unassigned view depending on the account's role.
func RegisterProfile(e *echo.Echo, h *handler.ProfileHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.GET("/me", h.GetProfile)
	g.PUT("/accounts/:id", h.UpdateProfile)
}
