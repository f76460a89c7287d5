package handler

import (
    "context"
    "net/http"
    "sync/atomic"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/logger"
    "github.com/iliyamo/minibus-booking/internal/middleware"
    "github.com/iliyamo/minibus-booking/internal/model"
    "github.com/iliyamo/minibus-booking/internal/repository"
    "github.com/iliyamo/minibus-booking/internal/session"
)

// countingStore counts the writes that reach the wrapped store.
type countingStore struct {
    session.Store
    updates atomic.Int32
}

func (s *countingStore) Update(ctx context.Context, id string, fn func(*booking.Session) error) (*booking.Session, error) {
    s.updates.Add(1)
    return s.Store.Update(ctx, id, fn)
}

// slowBookings blocks until the write's context is done.
type slowBookings struct{}

func (slowBookings) SaveBooking(ctx context.Context, _ booking.Record) error {
    <-ctx.Done()
    return ctx.Err()
}

func newSessionApp(t *testing.T, store session.Store, bookings booking.Store) (*testApp, *SessionHandler) {
    t.Helper()
    e := echo.New()
    e.Validator = NewRequestValidator()
    sh := NewSessionHandler(repository.NewStaticTripSource(nil), store, bookings, nil, logger.Discard(), 4, "ETB")
    sh.Now = func() time.Time { return testNow }
    g := e.Group("/v1/sessions", middleware.JWTAuth(testSecret), middleware.RequireRole(model.RoleCustomer))
    g.POST("", sh.Create)
    g.GET("/:id", sh.Get)
    g.POST("/:id/seats/:seat/toggle", sh.Toggle)
    g.POST("/:id/proceed", sh.Proceed)
    g.POST("/:id/confirm", sh.Confirm)
    return &testApp{e: e}, sh
}

func TestSessions_ForeignRequestDoesNotWrite(t *testing.T) {
    store := &countingStore{Store: session.NewMemoryStore(time.Hour)}
    app, _ := newSessionApp(t, store, &fakeBookings{})
    alice := bearer(t, 7, model.RoleCustomer)
    bob := bearer(t, 8, model.RoleCustomer)
    s := app.startSession(t, alice, "trip-1")

    for _, path := range []string{"/seats/13/toggle", "/proceed", "/confirm"} {
        body := ""
        if path == "/confirm" {
            body = twoPassengers
        }
        if code := app.do(t, http.MethodPost, "/v1/sessions/"+s.ID+path, bob, body, nil); code != http.StatusNotFound {
            t.Fatalf("%s: expected 404, got %d", path, code)
        }
    }
    if n := store.updates.Load(); n != 0 {
        t.Fatalf("expected no session writes from another user, got %d", n)
    }

    app.toggle(t, alice, s.ID, "13")
    if n := store.updates.Load(); n != 1 {
        t.Fatalf("expected the owner's toggle to write once, got %d", n)
    }
}

func TestSessions_ConfirmWriteIsBounded(t *testing.T) {
    app, sh := newSessionApp(t, session.NewMemoryStore(time.Hour), slowBookings{})
    sh.SaveTimeout = 50 * time.Millisecond
    alice := bearer(t, 7, model.RoleCustomer)
    s := app.startSession(t, alice, "trip-1")
    app.toggle(t, alice, s.ID, "13")
    app.toggle(t, alice, s.ID, "14")
    if code := app.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/proceed", alice, "", nil); code != http.StatusOK {
        t.Fatalf("expected 200, got %d", code)
    }

    start := time.Now()
    if code := app.do(t, http.MethodPost, "/v1/sessions/"+s.ID+"/confirm", alice, twoPassengers, nil); code != http.StatusServiceUnavailable {
        t.Fatalf("expected 503 when the booking write times out, got %d", code)
    }
    if elapsed := time.Since(start); elapsed > 2*time.Second {
        t.Fatalf("expected the write to be cut off by SaveTimeout, took %s", elapsed)
    }

    var after sessionResp
    app.do(t, http.MethodGet, "/v1/sessions/"+s.ID, alice, "", &after)
    if after.State != "entering_passenger_details" {
        t.Fatalf("expected session to stay in passenger entry, got %s", after.State)
    }
}

func TestNewSessionHandler_SaveTimeoutBelowLock(t *testing.T) {
    sh := NewSessionHandler(nil, nil, nil, nil, logger.Discard(), 4, "ETB")
    if sh.SaveTimeout <= 0 || sh.SaveTimeout >= session.DefaultLockTTL {
        t.Fatalf("expected save timeout below %s, got %s", session.DefaultLockTTL, sh.SaveTimeout)
    }
}
