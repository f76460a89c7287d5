// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into customer notifications.
package queue

// Queue names.  Both are durable and use the default exchange with the
// queue name as routing key.
const (
    BookingConfirmedQueue = "booking.confirmed"
    PaymentLinkQueue      = "booking.payment_link"
)

// PassengerContact is the part of a passenger a notification needs.
type PassengerContact struct {
    SeatNumber int    `json:"seat_number"`
    Name       string `json:"name"`
    Phone      string `json:"phone"`
    Email      string `json:"email,omitempty"`
}

// BookingConfirmedEvent is published when a booking is persisted.  It
// carries enough for the consumer to notify every passenger without
// querying the primary database.
type BookingConfirmedEvent struct {
    BookingID   string             `json:"booking_id"`
    UserID      uint64             `json:"user_id"`
    TripID      string             `json:"trip_id"`
    RouteName   string             `json:"route_name"`
    TravelDate  string             `json:"travel_date"`
    DepartureAt string             `json:"departure_at"`
    Seats       []int              `json:"seats"`
    TotalAmount int64              `json:"total_amount"`
    Currency    string             `json:"currency"`
    Passengers  []PassengerContact `json:"passengers"`
    ConfirmedAt string             `json:"confirmed_at"`
}

// PaymentLinkEvent asks the consumer to text a payment link to the
// customer of a pending booking.
type PaymentLinkEvent struct {
    BookingID   string `json:"booking_id"`
    Phone       string `json:"phone"`
    Link        string `json:"link"`
    TotalAmount int64  `json:"total_amount"`
    Currency    string `json:"currency"`
    RequestedBy uint64 `json:"requested_by"`
    RequestedAt string `json:"requested_at"`
}
