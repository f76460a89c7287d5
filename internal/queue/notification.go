package queue

import (
    "fmt"
    "os"
    "path/filepath"
    "strconv"
    "strings"
)

// NotificationLogFile is the file, inside the configured directory, that
// outbound notifications are appended to.
const NotificationLogFile = "notifications.log"

// Notification is one outbound SMS or email.
type Notification struct {
    Channel string // "sms" or "email"
    To      string
    Body    string
}

// BookingConfirmedNotifications renders one SMS per distinct phone and one
// email per distinct address among the passengers.
func BookingConfirmedNotifications(ev BookingConfirmedEvent) []Notification {
    seats := make([]string, len(ev.Seats))
    for i, n := range ev.Seats {
        seats[i] = strconv.Itoa(n)
    }
    body := fmt.Sprintf("Booking %s confirmed: %s on %s %s, seats %s, total %d %s. A payment link will follow by SMS.",
        ev.BookingID, ev.RouteName, ev.TravelDate, ev.DepartureAt, strings.Join(seats, ","), ev.TotalAmount, ev.Currency)

    var out []Notification
    seen := map[string]bool{}
    for _, p := range ev.Passengers {
        if p.Phone != "" && !seen["sms:"+p.Phone] {
            seen["sms:"+p.Phone] = true
            out = append(out, Notification{Channel: "sms", To: p.Phone, Body: body})
        }
    }
    for _, p := range ev.Passengers {
        if p.Email != "" && !seen["email:"+p.Email] {
            seen["email:"+p.Email] = true
            out = append(out, Notification{Channel: "email", To: p.Email, Body: "Dear " + p.Name + ", " + body})
        }
    }
    return out
}

// PaymentLinkNotification renders the payment link SMS.
func PaymentLinkNotification(ev PaymentLinkEvent) Notification {
    return Notification{
        Channel: "sms",
        To:      ev.Phone,
        Body:    fmt.Sprintf("Pay %d %s for booking %s: %s", ev.TotalAmount, ev.Currency, ev.BookingID, ev.Link),
    }
}

// appendNotifications writes one line per notification to
// dir/notifications.log, creating the directory when needed.
func appendNotifications(dir, at string, notes []Notification) error {
    if len(notes) == 0 {
        return nil
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, NotificationLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    var b strings.Builder
    for _, n := range notes {
        fmt.Fprintf(&b, "[%s] %s to=%s | %s\n", at, strings.ToUpper(n.Channel), n.To, n.Body)
    }
    if _, err := f.WriteString(b.String()); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
