package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/logger"
    "github.com/iliyamo/minibus-booking/internal/queue"
    "github.com/iliyamo/minibus-booking/internal/repository"
    "github.com/iliyamo/minibus-booking/internal/session"
)

// SessionHandler drives the booking wizard.  Every mutation goes through
// Sessions.Update so two requests for one session never interleave.
type SessionHandler struct {
    Trips    repository.TripSource
    Sessions session.Store
    Bookings booking.Store
    Notify   Notifier
    Log      *logger.Logger
    MaxSeats int
    Currency string
    Now      func() time.Time
    // SaveTimeout bounds the booking write inside Confirm.  It stays below
    // the session lock lifetime so a slow write cannot outlive the lock.
    SaveTimeout time.Duration
}

func NewSessionHandler(trips repository.TripSource, sessions session.Store, bookings booking.Store, notify Notifier, log *logger.Logger, maxSeats int, currency string) *SessionHandler {
    return &SessionHandler{
        Trips:    trips,
        Sessions: sessions,
        Bookings: bookings,
        Notify:   notify,
        Log:      log,
        MaxSeats: maxSeats,
        Currency: currency,
        Now:      time.Now,

        SaveTimeout: session.DefaultLockTTL * 2 / 3,
    }
}

var errNotOwner = errors.New("session belongs to another user")

type createSessionReq struct {
    TripID     string `json:"trip_id" validate:"required"`
    TravelDate string `json:"travel_date" validate:"required"`
}

type passengerReq struct {
    SeatNumber int    `json:"seat_number" validate:"gte=0"`
    Name       string `json:"name"`
    Phone      string `json:"phone"`
    Email      string `json:"email" validate:"omitempty,email"`
}

type confirmReq struct {
    Passengers []passengerReq `json:"passengers" validate:"dive"`
}

// writeSessionError maps session and booking errors to responses.
func (h *SessionHandler) writeSessionError(c echo.Context, err error) error {
    var verr *booking.ValidationError
    switch {
    case errors.Is(err, errInvalidUser):
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    case errors.Is(err, session.ErrNotFound), errors.Is(err, errNotOwner):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
    case errors.Is(err, session.ErrBusy):
        return c.JSON(http.StatusConflict, echo.Map{"error": "session is being updated, retry"})
    case errors.Is(err, booking.ErrWrongState):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, booking.ErrNoSeatsSelected):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.As(err, &verr):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": booking.ErrValidationFailed.Error(), "problems": verr.Problems})
    case errors.Is(err, booking.ErrSeatConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "one or more seats were booked by someone else, start a new session to see current availability"})
    case errors.Is(err, booking.ErrPersistenceFailed):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking could not be saved, please retry"})
    default:
        h.Log.ErrorWithContext(c.Request().Context(), "session request failed", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

// update applies fn to the caller's session.  Ownership is checked before
// Update so a foreign request never writes the session or extends its TTL.
func (h *SessionHandler) update(c echo.Context, fn func(*booking.Session) error) (*booking.Session, error) {
    uid, err := getUserID(c)
    if err != nil {
        return nil, err
    }
    ctx := c.Request().Context()
    cur, err := h.Sessions.Get(ctx, c.Param("id"))
    if err != nil {
        return nil, err
    }
    if cur.UserID != uid {
        return nil, errNotOwner
    }
    return h.Sessions.Update(ctx, cur.ID, func(s *booking.Session) error {
        if s.UserID != uid {
            return errNotOwner
        }
        return fn(s)
    })
}

// Create handles POST /v1/sessions.  The booked seats are read once here
// and frozen into the session.
func (h *SessionHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createSessionReq
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

    s := booking.NewSession("", uid, booking.TripSnapshot{
        TripID:       trip.ID,
        Capacity:     trip.Capacity(),
        BookedSeats:  booked,
        PricePerSeat: trip.PricePerSeat,
        DepartureAt:  trip.DepartureOn(date),
        RouteName:    trip.Route.Name,
    }, date, h.MaxSeats, now)
    if err := h.Sessions.Create(ctx, s); err != nil {
        return h.writeSessionError(c, err)
    }
    return c.JSON(http.StatusCreated, newSessionView(s, h.Currency))
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    s, err := h.Sessions.Get(c.Request().Context(), c.Param("id"))
    if err == nil && s.UserID != uid {
        err = errNotOwner
    }
    if err != nil {
        return h.writeSessionError(c, err)
    }
    return c.JSON(http.StatusOK, newSessionView(s, h.Currency))
}

// Toggle handles POST /v1/sessions/:id/seats/:seat/toggle.  Rejected
// toggles are not errors: the response carries the outcome and the
// unchanged selection.
func (h *SessionHandler) Toggle(c echo.Context) error {
    seat, err := strconv.Atoi(c.Param("seat"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
    }
    var outcome string
    s, err := h.update(c, func(s *booking.Session) error {
        out, err := s.Toggle(seat, h.Now())
        outcome = string(out)
        return err
    })
    if err != nil {
        return h.writeSessionError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"outcome": outcome, "session": newSessionView(s, h.Currency)})
}

// Proceed handles POST /v1/sessions/:id/proceed.
func (h *SessionHandler) Proceed(c echo.Context) error {
    s, err := h.update(c, func(s *booking.Session) error { return s.Proceed(h.Now()) })
    if err != nil {
        return h.writeSessionError(c, err)
    }
    return c.JSON(http.StatusOK, newSessionView(s, h.Currency))
}

// Back handles POST /v1/sessions/:id/back.
func (h *SessionHandler) Back(c echo.Context) error {
    s, err := h.update(c, func(s *booking.Session) error { return s.Back(h.Now()) })
    if err != nil {
        return h.writeSessionError(c, err)
    }
    return c.JSON(http.StatusOK, newSessionView(s, h.Currency))
}

// Confirm handles POST /v1/sessions/:id/confirm.  An empty passenger list
// retries with the passengers kept from a failed attempt.
func (h *SessionHandler) Confirm(c echo.Context) error {
    var req confirmReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    passengers := make([]booking.Passenger, 0, len(req.Passengers))
    for _, p := range req.Passengers {
        passengers = append(passengers, booking.Passenger{SeatNumber: p.SeatNumber, Name: p.Name, Phone: p.Phone, Email: p.Email})
    }

    ctx := c.Request().Context()
    var rec booking.Record
    s, err := h.update(c, func(s *booking.Session) error {
        saveCtx, cancel := ctx, context.CancelFunc(func() {})
        if h.SaveTimeout > 0 {
            saveCtx, cancel = context.WithTimeout(ctx, h.SaveTimeout)
        }
        defer cancel()
        var err error
        rec, err = s.Confirm(saveCtx, h.Bookings, passengers, h.Now())
        if errors.Is(err, booking.ErrSeatConflict) {
            h.Log.LogSeatConflict(ctx, s.ID, s.Trip.TripID, s.SelectedSeats())
        }
        return err
    })
    if err != nil {
        return h.writeSessionError(c, err)
    }

    h.Log.LogBookingConfirmed(ctx, rec.BookingID, rec.TripID, rec.UserID, rec.SeatNumbers, rec.TotalAmount)
    if h.Notify != nil {
        ev := confirmedEvent(rec, s.Trip.RouteName, s.Trip.DepartureAt, h.Currency)
        publishAsync(ctx, func(ctx context.Context) error { return h.Notify.PublishBookingConfirmed(ctx, ev) })
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_id":   rec.BookingID,
        "total_amount": rec.TotalAmount,
        "passengers":   rec.Passengers,
        "session":      newSessionView(s, h.Currency),
    })
}

// Abandon handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Abandon(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    s, err := h.Sessions.Get(ctx, c.Param("id"))
    if err == nil && s.UserID != uid {
        err = errNotOwner
    }
    if err != nil {
        return h.writeSessionError(c, err)
    }
    if err := h.Sessions.Delete(ctx, s.ID); err != nil {
        return h.writeSessionError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func confirmedEvent(rec booking.Record, routeName string, departure time.Time, currency string) queue.BookingConfirmedEvent {
    contacts := make([]queue.PassengerContact, 0, len(rec.Passengers))
    for _, p := range rec.Passengers {
        contacts = append(contacts, queue.PassengerContact{SeatNumber: p.SeatNumber, Name: p.Name, Phone: p.Phone, Email: p.Email})
    }
    return queue.BookingConfirmedEvent{
        BookingID:   rec.BookingID,
        UserID:      rec.UserID,
        TripID:      rec.TripID,
        RouteName:   routeName,
        TravelDate:  rec.TravelDate,
        DepartureAt: departure.Format("15:04"),
        Seats:       rec.SeatNumbers,
        TotalAmount: rec.TotalAmount,
        Currency:    currency,
        Passengers:  contacts,
        ConfirmedAt: rec.BookedAt.Format(time.RFC3339),
    }
}
