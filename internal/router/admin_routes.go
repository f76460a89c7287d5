package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/minibus-booking/internal/handler"
	"github.com/iliyamo/minibus-booking/internal/middleware"
	"github.com/iliyamo/minibus-booking/internal/model"
)

// RegisterAdmin registers the admin console under /v1/admin.  All routes
// require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/dashboard", a.Dashboard)

	// ---- Bookings ----
	g.GET("/bookings", a.ListBookings)
	g.POST("/bookings", a.CreateWalkIn) // walk-in booking taken at the counter
	g.DELETE("/bookings/:id", a.CancelBooking)

	// ---- Payments ----
	g.PATCH("/bookings/:id/payment", a.UpdatePayment)
	g.POST("/bookings/:id/payment-link", a.SendPaymentLink)
}
