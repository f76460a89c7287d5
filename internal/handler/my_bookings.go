package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/repository"
)

// CustomerHandler serves a customer's own bookings.
type CustomerHandler struct {
    Bookings BookingRepository
    Currency string
}

func NewCustomerHandler(bookings BookingRepository, currency string) *CustomerHandler {
    return &CustomerHandler{Bookings: bookings, Currency: currency}
}

// MyBookings handles GET /v1/my-bookings.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    list, err := h.Bookings.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": newBookingViews(list, h.Currency)})
}

// MyBooking handles GET /v1/my-bookings/:id.  Bookings of other users
// are reported as missing.
func (h *CustomerHandler) MyBooking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    b, err := h.Bookings.GetByID(c.Request().Context(), c.Param("id"))
    if err == nil && b.UserID != uid {
        err = repository.ErrBookingNotFound
    }
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, newBookingView(b, h.Currency))
}
