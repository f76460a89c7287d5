package router // package router defines how HTTP routes are registered for the API

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/minibus-booking/internal/handler"
	"github.com/iliyamo/minibus-booking/internal/middleware"
	"github.com/iliyamo/minibus-booking/internal/model"
)

// RegisterRoutes registers the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, redisPing func(context.Context) error) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db, redisPing))
}

// RegisterAuth registers registration and login under /v1/auth and the
// profile endpoint, which requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
}

// RegisterPublic registers the guest endpoints: the city directory, trip
// search and seat maps.  cache wraps the city directory only.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/cities", t.Cities, cache)
	// Search results carry available_seats and seat maps carry seat
	// status; both change with every booking and are never cached.
	e.GET("/v1/trips/search", t.Search)
	e.GET("/v1/trips/:id/seats", t.SeatMap)
}
