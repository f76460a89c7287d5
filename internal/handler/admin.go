package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/logger"
    "github.com/iliyamo/minibus-booking/internal/model"
    "github.com/iliyamo/minibus-booking/internal/queue"
    "github.com/iliyamo/minibus-booking/internal/repository"
    "github.com/iliyamo/minibus-booking/internal/seating"
)

// AdminHandler serves the admin console.
type AdminHandler struct {
    Trips           repository.TripSource
    Bookings        BookingRepository
    Notify          Notifier
    Log             *logger.Logger
    Currency        string
    PaymentLinkBase string
    Now             func() time.Time
}

func NewAdminHandler(trips repository.TripSource, bookings BookingRepository, notify Notifier, log *logger.Logger, currency, paymentLinkBase string) *AdminHandler {
    return &AdminHandler{
        Trips:           trips,
        Bookings:        bookings,
        Notify:          notify,
        Log:             log,
        Currency:        currency,
        PaymentLinkBase: paymentLinkBase,
        Now:             time.Now,
    }
}

var (
    bookingStatuses = map[string]bool{model.BookingConfirmed: true, model.BookingPending: true, model.BookingCancelled: true}
    paymentStatuses = map[string]bool{model.PaymentPending: true, model.PaymentPaid: true, model.PaymentFailed: true}
)

func (h *AdminHandler) bookingError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, repository.ErrBookingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
    default:
        h.Log.ErrorWithContext(c.Request().Context(), "admin booking request failed", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
}

// ListBookings handles GET /v1/admin/bookings with search, status,
// payment_status, limit and offset query parameters.
func (h *AdminHandler) ListBookings(c echo.Context) error {
    f := repository.BookingFilter{
        Search:        c.QueryParam("search"),
        Status:        strings.ToLower(c.QueryParam("status")),
        PaymentStatus: strings.ToLower(c.QueryParam("payment_status")),
    }
    if f.Status == "all" {
        f.Status = ""
    }
    if f.PaymentStatus == "all" {
        f.PaymentStatus = ""
    }
    if f.Status != "" && !bookingStatuses[f.Status] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    if f.PaymentStatus != "" && !paymentStatuses[f.PaymentStatus] {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment_status"})
    }
    for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
        if s := c.QueryParam(name); s != "" {
            n, err := strconv.Atoi(s)
            if err != nil || n < 0 {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + name})
            }
            *dst = n
        }
    }
    list, err := h.Bookings.List(c.Request().Context(), f)
    if err != nil {
        return h.bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": newBookingViews(list, h.Currency)})
}

type walkInReq struct {
    TripID        string `json:"trip_id" validate:"required"`
    TravelDate    string `json:"travel_date" validate:"required"`
    CustomerName  string `json:"customer_name" validate:"required"`
    CustomerPhone string `json:"customer_phone" validate:"required"`
    Seats         []int  `json:"seats" validate:"required,min=1,dive,gte=1"`
}

// walkInPassengers names the first seat after the customer and the rest
// "Passenger N", all reachable on the customer's phone.
func walkInPassengers(seats []int, name, phone string) []booking.Passenger {
    out := make([]booking.Passenger, len(seats))
    for i, n := range seats {
        p := booking.Passenger{SeatNumber: n, Name: fmt.Sprintf("Passenger %d", i+1), Phone: phone}
        if i == 0 {
            p.Name = name
        }
        out[i] = p
    }
    return out
}

// CreateWalkIn handles POST /v1/admin/bookings: a booking taken at the
// counter.  It runs the same selection and confirmation steps as the
// customer wizard, with the seat cap lifted to the vehicle capacity.
func (h *AdminHandler) CreateWalkIn(c echo.Context) error {
    var req walkInReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    now := h.Now()
    date, err := parseTravelDate(req.TravelDate, now)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    trip, err := h.Trips.GetTrip(ctx, req.TripID)
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    booked, err := h.Trips.BookedSeats(ctx, trip.ID, date)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    s := booking.NewSession("", 0, booking.TripSnapshot{
        TripID:       trip.ID,
        Capacity:     trip.Capacity(),
        BookedSeats:  booked,
        PricePerSeat: trip.PricePerSeat,
        DepartureAt:  trip.DepartureOn(date),
        RouteName:    trip.Route.Name,
    }, date, trip.Capacity(), now)
    for _, n := range req.Seats {
        if s.Selected.Has(n) {
            continue
        }
        out, _ := s.Toggle(n, now)
        if out != seating.OutcomeSelected {
            return c.JSON(http.StatusConflict, echo.Map{"error": fmt.Sprintf("seat %d is not available", n), "outcome": out})
        }
    }
    if err := s.Proceed(now); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    rec, err := s.Confirm(ctx, h.Bookings, walkInPassengers(s.Checkout.Seats, req.CustomerName, req.CustomerPhone), now)
    if err != nil {
        var verr *booking.ValidationError
        switch {
        case errors.As(err, &verr):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": booking.ErrValidationFailed.Error(), "problems": verr.Problems})
        case errors.Is(err, booking.ErrSeatConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats were booked meanwhile"})
        default:
            h.Log.ErrorWithContext(ctx, "walk-in booking failed", err)
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking could not be saved, please retry"})
        }
    }
    h.Log.LogBookingConfirmed(ctx, rec.BookingID, rec.TripID, 0, rec.SeatNumbers, rec.TotalAmount)
    if h.Notify != nil {
        ev := confirmedEvent(rec, trip.Route.Name, trip.DepartureAt, h.Currency)
        publishAsync(ctx, func(ctx context.Context) error { return h.Notify.PublishBookingConfirmed(ctx, ev) })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   rec.BookingID,
        "seat_numbers": rec.SeatNumbers,
        "total_amount": rec.TotalAmount,
        "passengers":   rec.Passengers,
    })
}

// SendPaymentLink handles POST /v1/admin/bookings/:id/payment-link.
func (h *AdminHandler) SendPaymentLink(c echo.Context) error {
    adminID, _ := getUserID(c)
    ctx := c.Request().Context()
    b, err := h.Bookings.GetByID(ctx, c.Param("id"))
    if err != nil {
        return h.bookingError(c, err)
    }
    if b.Status == model.BookingCancelled {
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
    }
    if b.PaymentStatus == model.PaymentPaid {
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already paid"})
    }
    if h.Notify == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "notifications are not configured"})
    }
    link := h.PaymentLinkBase + b.ID
    err = h.Notify.PublishPaymentLink(ctx, queue.PaymentLinkEvent{
        BookingID:   b.ID,
        Phone:       b.CustomerPhone,
        Link:        link,
        TotalAmount: b.TotalAmount,
        Currency:    h.Currency,
        RequestedBy: adminID,
        RequestedAt: h.Now().UTC().Format(time.RFC3339),
    })
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not queue payment link"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"booking_id": b.ID, "phone": b.CustomerPhone, "link": link})
}

type paymentReq struct {
    Status string `json:"status" validate:"required,oneof=pending paid failed"`
    Method string `json:"method" validate:"omitempty,max=32"`
}

// UpdatePayment handles PATCH /v1/admin/bookings/:id/payment.
func (h *AdminHandler) UpdatePayment(c echo.Context) error {
    var req paymentReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    id := c.Param("id")
    if err := h.Bookings.UpdatePaymentStatus(c.Request().Context(), id, req.Status, req.Method); err != nil {
        return h.bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking_id": id, "payment_status": req.Status})
}

// CancelBooking handles DELETE /v1/admin/bookings/:id.  The seats become
// bookable again.
func (h *AdminHandler) CancelBooking(c echo.Context) error {
    adminID, _ := getUserID(c)
    ctx := c.Request().Context()
    id := c.Param("id")
    if err := h.Bookings.Cancel(ctx, id); err != nil {
        return h.bookingError(c, err)
    }
    h.Log.LogBookingCancelled(ctx, id, adminID)
    return c.NoContent(http.StatusNoContent)
}

// Dashboard handles GET /v1/admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
    st, err := h.Bookings.Stats(c.Request().Context(), h.Now())
    if err != nil {
        return h.bookingError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "total_bookings":   st.TotalBookings,
        "revenue":          st.Revenue,
        "today_bookings":   st.TodayBookings,
        "pending_payments": st.PendingPayments,
        "currency":         h.Currency,
        "recent":           newBookingViews(st.Recent, h.Currency),
    })
}
