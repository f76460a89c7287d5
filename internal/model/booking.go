package model

import "time"

// Booking status values.
const (
    BookingConfirmed = "confirmed"
    BookingPending   = "pending"
    BookingCancelled = "cancelled"
)

// Payment status values.  Payment happens out of band: an admin sends a
// payment link after the booking is confirmed and records the result.
const (
    PaymentPending = "pending"
    PaymentPaid    = "paid"
    PaymentFailed  = "failed"
)

// Booking is a confirmed group of seats on one trip for one travel date.
// Seats are stored individually in booking_seats, which carries the
// unique key that prevents two bookings from holding the same seat.
//
// Fields:
//  ID                – booking reference (e.g. BK1718000000000A1B2).
//  UserID            – customer account that booked (0 for admin walk-ins).
//  TripID            – trip booked.
//  TravelDate        – travel date, YYYY-MM-DD.
//  SeatNumbers       – seats in ascending order.
//  TotalAmount       – price of all seats.
//  CustomerName      – first passenger's name, used by the admin console.
//  CustomerPhone     – first passenger's phone.
//  PassengerDetails  – JSON array of passengers.
//  Status            – confirmed, pending or cancelled.
//  PaymentStatus     – pending, paid or failed.
//  PaymentMethod     – how payment was collected, "pending" until paid.
//  Notes             – optional admin notes.
//  BookedAt          – when the booking was made.
type Booking struct {
    ID               string    // bookings.id
    UserID           uint64    // bookings.user_id
    TripID           string    // bookings.trip_id
    TravelDate       string    // bookings.travel_date
    SeatNumbers      []int     // booking_seats.seat_number
    TotalAmount      int64     // bookings.total_amount
    CustomerName     string    // bookings.customer_name
    CustomerPhone    string    // bookings.customer_phone
    PassengerDetails string    // bookings.passenger_details (JSON)
    Status           string    // bookings.status
    PaymentStatus    string    // bookings.payment_status
    PaymentMethod    string    // bookings.payment_method
    Notes            *string   // bookings.notes (nullable)
    BookedAt         time.Time // bookings.booked_at
    UpdatedAt        time.Time // bookings.updated_at
}
