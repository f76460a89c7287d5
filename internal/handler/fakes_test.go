package handler

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/logger"
    "github.com/iliyamo/minibus-booking/internal/middleware"
    "github.com/iliyamo/minibus-booking/internal/model"
    "github.com/iliyamo/minibus-booking/internal/queue"
    "github.com/iliyamo/minibus-booking/internal/repository"
    "github.com/iliyamo/minibus-booking/internal/session"
    "github.com/iliyamo/minibus-booking/internal/utils"
)

const testSecret = "test-secret"

var (
    testNow    = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
    travelDate = "2026-03-14"
)

// fakeBookings keeps bookings in memory and enforces one active booking
// per trip, date and seat like the booking_seats unique key.
type fakeBookings struct {
    mu   sync.Mutex
    list []model.Booking
}

func (f *fakeBookings) taken(tripID, date string) map[int]bool {
    out := map[int]bool{}
    for _, b := range f.list {
        if b.TripID != tripID || b.TravelDate != date || b.Status == model.BookingCancelled {
            continue
        }
        for _, n := range b.SeatNumbers {
            out[n] = true
        }
    }
    return out
}

func (f *fakeBookings) SaveBooking(_ context.Context, rec booking.Record) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    taken := f.taken(rec.TripID, rec.TravelDate)
    for _, n := range rec.SeatNumbers {
        if taken[n] {
            return fmt.Errorf("seat %d: %w", n, repository.ErrSeatConflict)
        }
    }
    details, _ := json.Marshal(rec.Passengers)
    f.list = append(f.list, model.Booking{
        ID:               rec.BookingID,
        UserID:           rec.UserID,
        TripID:           rec.TripID,
        TravelDate:       rec.TravelDate,
        SeatNumbers:      rec.SeatNumbers,
        TotalAmount:      rec.TotalAmount,
        CustomerName:     rec.Passengers[0].Name,
        CustomerPhone:    rec.Passengers[0].Phone,
        PassengerDetails: string(details),
        Status:           model.BookingConfirmed,
        PaymentStatus:    model.PaymentPending,
        PaymentMethod:    "pending",
        BookedAt:         rec.BookedAt,
    })
    return nil
}

func (f *fakeBookings) BookedSeats(_ context.Context, tripID, date string) ([]int, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var out []int
    for n := range f.taken(tripID, date) {
        out = append(out, n)
    }
    return out, nil
}

func (f *fakeBookings) find(id string) (int, error) {
    for i, b := range f.list {
        if b.ID == id {
            return i, nil
        }
    }
    return -1, repository.ErrBookingNotFound
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    i, err := f.find(id)
    if err != nil {
        return model.Booking{}, err
    }
    return f.list[i], nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.list {
        if b.UserID == userID {
            out = append(out, b)
        }
    }
    return out, nil
}

func (f *fakeBookings) List(_ context.Context, flt repository.BookingFilter) ([]model.Booking, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.Booking{}
    for _, b := range f.list {
        if flt.Status != "" && b.Status != flt.Status {
            continue
        }
        if flt.PaymentStatus != "" && b.PaymentStatus != flt.PaymentStatus {
            continue
        }
        if flt.Search != "" && !strings.Contains(b.CustomerName+b.CustomerPhone+b.ID, flt.Search) {
            continue
        }
        out = append(out, b)
    }
    return out, nil
}

func (f *fakeBookings) UpdatePaymentStatus(_ context.Context, id, status, method string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    i, err := f.find(id)
    if err != nil {
        return err
    }
    if f.list[i].Status == model.BookingCancelled {
        return repository.ErrConflict
    }
    f.list[i].PaymentStatus = status
    if method != "" {
        f.list[i].PaymentMethod = method
    }
    return nil
}

func (f *fakeBookings) Cancel(_ context.Context, id string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    i, err := f.find(id)
    if err != nil {
        return err
    }
    if f.list[i].Status == model.BookingCancelled {
        return repository.ErrConflict
    }
    f.list[i].Status = model.BookingCancelled
    return nil
}

func (f *fakeBookings) Stats(_ context.Context, _ time.Time) (repository.DashboardStats, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    var st repository.DashboardStats
    for _, b := range f.list {
        st.TotalBookings++
        if b.Status != model.BookingCancelled {
            st.Revenue += b.TotalAmount
        }
        if b.PaymentStatus == model.PaymentPending && b.Status != model.BookingCancelled {
            st.PendingPayments++
        }
    }
    st.Recent = append([]model.Booking(nil), f.list...)
    return st, nil
}

// fakeNotifier records published events on buffered channels.
type fakeNotifier struct {
    confirmed chan queue.BookingConfirmedEvent
    links     chan queue.PaymentLinkEvent
}

func newFakeNotifier() *fakeNotifier {
    return &fakeNotifier{
        confirmed: make(chan queue.BookingConfirmedEvent, 8),
        links:     make(chan queue.PaymentLinkEvent, 8),
    }
}

func (n *fakeNotifier) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
    n.confirmed <- ev
    return nil
}

func (n *fakeNotifier) PublishPaymentLink(_ context.Context, ev queue.PaymentLinkEvent) error {
    n.links <- ev
    return nil
}

type testApp struct {
    e        *echo.Echo
    bookings *fakeBookings
    notify   *fakeNotifier
}

// newTestApp wires the handlers over the static timetable, an in-memory
// session store and the fakes, with the same route layout the server uses.
func newTestApp(t *testing.T) *testApp {
    t.Helper()
    app := &testApp{e: echo.New(), bookings: &fakeBookings{}, notify: newFakeNotifier()}
    e := app.e
    e.Validator = NewRequestValidator()
    log := logger.Discard()
    now := func() time.Time { return testNow }

    trips := repository.NewStaticTripSource(app.bookings)
    th := NewTripHandler(trips, "ETB")
    th.Now = now
    sh := NewSessionHandler(trips, session.NewMemoryStore(time.Hour), app.bookings, app.notify, log, 4, "ETB")
    sh.Now = now
    ah := NewAdminHandler(trips, app.bookings, app.notify, log, "ETB", "https://pay.test/b/")
    ah.Now = now
    ch := NewCustomerHandler(app.bookings, "ETB")

    e.GET("/v1/cities", th.Cities)
    e.GET("/v1/trips/search", th.Search)
    e.GET("/v1/trips/:id/seats", th.SeatMap)

    auth := middleware.JWTAuth(testSecret)
    g := e.Group("/v1/sessions", auth, middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
    g.POST("", sh.Create)
    g.GET("/:id", sh.Get)
    g.DELETE("/:id", sh.Abandon)
    g.POST("/:id/seats/:seat/toggle", sh.Toggle)
    g.POST("/:id/proceed", sh.Proceed)
    g.POST("/:id/back", sh.Back)
    g.POST("/:id/confirm", sh.Confirm)
    e.GET("/v1/my-bookings", ch.MyBookings, auth, middleware.RequireRole(model.RoleCustomer))
    e.GET("/v1/my-bookings/:id", ch.MyBooking, auth, middleware.RequireRole(model.RoleCustomer))

    a := e.Group("/v1/admin", auth, middleware.RequireRole(model.RoleAdmin))
    a.GET("/dashboard", ah.Dashboard)
    a.GET("/bookings", ah.ListBookings)
    a.POST("/bookings", ah.CreateWalkIn)
    a.DELETE("/bookings/:id", ah.CancelBooking)
    a.PATCH("/bookings/:id/payment", ah.UpdatePayment)
    a.POST("/bookings/:id/payment-link", ah.SendPaymentLink)
    return app
}

func bearer(t *testing.T, userID uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, userID, role, 15)
    if err != nil {
        t.Fatalf("sign token: %v", err)
    }
    return "Bearer " + tok.Token
}

// do sends a request and decodes a JSON response into out when out is
// not nil.
func (app *testApp) do(t *testing.T, method, path, auth, body string, out interface{}) int {
    t.Helper()
    var req *http.Request
    if body != "" {
        req = httptest.NewRequest(method, path, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    } else {
        req = httptest.NewRequest(method, path, nil)
    }
    if auth != "" {
        req.Header.Set(echo.HeaderAuthorization, auth)
    }
    rec := httptest.NewRecorder()
    app.e.ServeHTTP(rec, req)
    if out != nil && rec.Body.Len() > 0 {
        if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
            t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
        }
    }
    return rec.Code
}
