package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/iliyamo/minibus-booking/internal/logger"
)

func sampleConfirmed() BookingConfirmedEvent {
    return BookingConfirmedEvent{
        BookingID:   "BK1",
        TripID:      "trip-1",
        RouteName:   "Addis Ababa → Bahir Dar",
        TravelDate:  "2026-03-14",
        DepartureAt: "06:00",
        Seats:       []int{13, 14},
        TotalAmount: 900,
        Currency:    "ETB",
        Passengers: []PassengerContact{
            {SeatNumber: 13, Name: "Abebe", Phone: "+251911000001", Email: "abebe@example.com"},
            {SeatNumber: 14, Name: "Sara", Phone: "+251911000001"},
        },
    }
}

func TestBookingConfirmedNotifications(t *testing.T) {
    notes := BookingConfirmedNotifications(sampleConfirmed())
    if len(notes) != 2 {
        t.Fatalf("expected one sms for the shared phone and one email, got %+v", notes)
    }
    if notes[0].Channel != "sms" || notes[1].Channel != "email" || notes[1].To != "abebe@example.com" {
        t.Fatalf("unexpected notifications %+v", notes)
    }
    if !strings.Contains(notes[0].Body, "seats 13,14") || !strings.Contains(notes[0].Body, "900 ETB") {
        t.Fatalf("unexpected body %q", notes[0].Body)
    }
}

func newTestConsumer(t *testing.T) *Consumer {
    t.Helper()
    c := NewConsumer("amqp://unused", t.TempDir(), logger.Discard())
    c.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
    return c
}

func readLog(t *testing.T, c *Consumer) string {
    t.Helper()
    b, err := os.ReadFile(filepath.Join(c.LogDir, NotificationLogFile))
    if err != nil {
        t.Fatalf("read log: %v", err)
    }
    return string(b)
}

func TestConsumer_HandleMessage(t *testing.T) {
    c := newTestConsumer(t)
    body, _ := json.Marshal(sampleConfirmed())
    if err := c.handleMessage(BookingConfirmedQueue, body); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }
    link, _ := json.Marshal(PaymentLinkEvent{BookingID: "BK1", Phone: "+251911000001", Link: "https://pay/BK1", TotalAmount: 900, Currency: "ETB"})
    if err := c.handleMessage(PaymentLinkQueue, link); err != nil {
        t.Fatalf("expected nil error, got %v", err)
    }

    lines := strings.Split(strings.TrimSpace(readLog(t, c)), "\n")
    if len(lines) != 3 {
        t.Fatalf("expected 3 log lines, got %d: %v", len(lines), lines)
    }
    if !strings.HasPrefix(lines[0], "[2026-03-01T09:00:00Z] SMS to=+251911000001") {
        t.Fatalf("unexpected first line %q", lines[0])
    }
    if !strings.Contains(lines[2], "https://pay/BK1") {
        t.Fatalf("unexpected payment line %q", lines[2])
    }
}

func TestConsumer_HandleMessageRejects(t *testing.T) {
    c := newTestConsumer(t)
    if err := c.handleMessage(BookingConfirmedQueue, []byte("{")); err == nil {
        t.Fatal("expected malformed body to be rejected")
    }
    if err := c.handleMessage(PaymentLinkQueue, []byte(`{"booking_id":"BK1"}`)); err == nil {
        t.Fatal("expected payment link without phone to be rejected")
    }
    if err := c.handleMessage("other", []byte("{}")); err == nil {
        t.Fatal("expected unknown queue to be rejected")
    }
}
