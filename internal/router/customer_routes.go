package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/minibus-booking/internal/handler"
	"github.com/iliyamo/minibus-booking/internal/middleware"
	"github.com/iliyamo/minibus-booking/internal/model"
)

// RegisterCustomer registers the booking wizard and the customer's own
// bookings.  Sessions are open to customers and to admins booking on
// someone's behalf; a session is only visible to the account that
// started it.
func RegisterCustomer(e *echo.Echo, s *handler.SessionHandler, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1/sessions",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("", s.Create)
	g.GET("/:id", s.Get)
	g.DELETE("/:id", s.Abandon)
	g.POST("/:id/seats/:seat/toggle", s.Toggle)
	g.POST("/:id/proceed", s.Proceed)
	g.POST("/:id/back", s.Back)
	g.POST("/:id/confirm", s.Confirm)

	b := e.Group(
		"/v1/my-bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	b.GET("", h.MyBookings)
	b.GET("/:id", h.MyBooking)
}
