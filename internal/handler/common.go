package handler // handler holds the echo handlers of the booking API

import (
    "context"
    "errors"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/middleware"
    "github.com/iliyamo/minibus-booking/internal/model"
    "github.com/iliyamo/minibus-booking/internal/queue"
    "github.com/iliyamo/minibus-booking/internal/repository"
)

// BookingRepository is the booking persistence the handlers use.
// *repository.BookingRepo implements it.
type BookingRepository interface {
    booking.Store
    GetByID(ctx context.Context, id string) (model.Booking, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
    List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
    UpdatePaymentStatus(ctx context.Context, id, status, method string) error
    Cancel(ctx context.Context, id string) error
    Stats(ctx context.Context, now time.Time) (repository.DashboardStats, error)
}

// Notifier publishes booking events.  *service.Publisher implements it.
type Notifier interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
    PublishPaymentLink(ctx context.Context, ev queue.PaymentLinkEvent) error
}

const dateLayout = "2006-01-02"

var errInvalidUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get(middleware.CtxUserID).(type) {
    case uint64:
        if t != 0 {
            return t, nil
        }
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
            return n, nil
        }
    }
    return 0, errInvalidUser
}

// parseTravelDate accepts YYYY-MM-DD dates from today (UTC) onwards.
func parseTravelDate(s string, now time.Time) (string, error) {
    d, err := time.Parse(dateLayout, s)
    if err != nil {
        return "", errors.New("date must be YYYY-MM-DD")
    }
    now = now.UTC()
    today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
    if d.Before(today) {
        return "", errors.New("date is in the past")
    }
    return d.Format(dateLayout), nil
}

// publishAsync hands ev to publish on a detached context.  Failures are
// logged by the publisher and never reach the client.
func publishAsync(ctx context.Context, publish func(context.Context) error) {
    ctx = context.WithoutCancel(ctx)
    go func() {
        ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
        defer cancel()
        _ = publish(ctx)
    }()
}
