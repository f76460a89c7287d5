// Package booking models one customer's booking session for a minibus trip:
// choosing seats, entering passenger details and confirming.  A Session is
// owned by its caller and only changes through its methods; it never
// reaches for shared state.
package booking

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/minibus-booking/internal/seating"
)

// State is a step of the booking wizard.
type State string

const (
	StateSelectingSeats           State = "selecting_seats"
	StateEnteringPassengerDetails State = "entering_passenger_details"
	StateConfirmed                State = "confirmed"
)

// TripSnapshot is the trip data a session is started with.  BookedSeats is
// read once at session start and never refreshed by the session.
type TripSnapshot struct {
	TripID       string    `json:"trip_id"`
	Capacity     int       `json:"capacity"`
	BookedSeats  []int     `json:"booked_seats"`
	PricePerSeat int64     `json:"price_per_seat"`
	DepartureAt  time.Time `json:"departure_at"`
	RouteName    string    `json:"route_name,omitempty"`
}

// Checkout is the frozen hand-off from seat selection to passenger entry.
type Checkout struct {
	Seats        []int `json:"seats"`
	PricePerSeat int64 `json:"price_per_seat"`
	TotalAmount  int64 `json:"total_amount"`
}

// PerPassengerShare is the rounded-down share shown in summaries.
func (c Checkout) PerPassengerShare() int64 {
	return seating.PerPassengerShare(c.TotalAmount, len(c.Seats))
}

// Record is what a confirmed session hands to the booking store.
type Record struct {
	BookingID    string      `json:"booking_id"`
	TripID       string      `json:"trip_id"`
	UserID       uint64      `json:"user_id"`
	TravelDate   string      `json:"travel_date"`
	SeatNumbers  []int       `json:"seat_numbers"`
	PricePerSeat int64       `json:"price_per_seat"`
	TotalAmount  int64       `json:"total_amount"`
	Passengers   []Passenger `json:"passengers"`
	BookedAt     time.Time   `json:"booked_at"`
}

// Store persists confirmed bookings.  Implementations return an error
// wrapping ErrSeatConflict when a seat was taken since the snapshot.
type Store interface {
	SaveBooking(ctx context.Context, rec Record) error
}

// Session is one actor's walk through the booking wizard.  Fields are
// exported for serialization by session stores; mutate only through the
// methods.
type Session struct {
	ID            string            `json:"id"`
	UserID        uint64            `json:"user_id"`
	Trip          TripSnapshot      `json:"trip"`
	TravelDate    string            `json:"travel_date"`
	MaxSelectable int               `json:"max_selectable"`
	State         State             `json:"state"`
	Selected      seating.SeatSet   `json:"selected"`
	Checkout      *Checkout         `json:"checkout,omitempty"`
	Passengers    map[int]Passenger `json:"passengers,omitempty"`
	BookingID     string            `json:"booking_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewSession starts a session in StateSelectingSeats with an empty
// selection.  An empty id gets a random UUID.
func NewSession(id string, userID uint64, trip TripSnapshot, travelDate string, maxSelectable int, now time.Time) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if maxSelectable < 1 {
		maxSelectable = seating.DefaultMaxSelectable
	}
	return &Session{
		ID:            id,
		UserID:        userID,
		Trip:          trip,
		TravelDate:    travelDate,
		MaxSelectable: maxSelectable,
		State:         StateSelectingSeats,
		Selected:      seating.SeatSet{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Inventory returns the seat inventory built from the session's snapshot.
func (s *Session) Inventory() seating.Inventory {
	return seating.NewInventory(s.Trip.Capacity, s.Trip.BookedSeats, s.MaxSelectable)
}

// SelectedSeats lists the current selection in ascending order.  Once the
// session has moved to checkout it lists the checkout seats.
func (s *Session) SelectedSeats() []int {
	if s.Checkout != nil {
		return append([]int(nil), s.Checkout.Seats...)
	}
	return s.Selected.Sorted()
}

// TotalPrice is derived from the selection on every call.
func (s *Session) TotalPrice() int64 {
	if s.Checkout != nil {
		return s.Checkout.TotalAmount
	}
	return seating.TotalPrice(s.Trip.PricePerSeat, s.Selected)
}

// Toggle selects or deselects a seat.  Rejections come back as outcomes,
// not errors; the error is reserved for calling Toggle outside seat
// selection.
func (s *Session) Toggle(seat int, now time.Time) (seating.Outcome, error) {
	if s.State != StateSelectingSeats {
		return "", fmt.Errorf("toggle seat %d in %s: %w", seat, s.State, ErrWrongState)
	}
	next, out := s.Inventory().Toggle(seat, s.Selected)
	if out.Applied() {
		s.Selected = next
		s.UpdatedAt = now
	}
	return out, nil
}

// Proceed freezes the selection into a Checkout and moves to passenger
// entry.  Passenger data kept from an earlier visit survives only for seats
// that are still selected.
func (s *Session) Proceed(now time.Time) error {
	if s.State != StateSelectingSeats {
		return fmt.Errorf("proceed from %s: %w", s.State, ErrWrongState)
	}
	if s.Selected.Len() < 1 {
		return ErrNoSeatsSelected
	}
	seats := s.Selected.Sorted()
	s.Checkout = &Checkout{
		Seats:        seats,
		PricePerSeat: s.Trip.PricePerSeat,
		TotalAmount:  seating.TotalPrice(s.Trip.PricePerSeat, s.Selected),
	}
	for seat := range s.Passengers {
		if !s.Selected.Has(seat) {
			delete(s.Passengers, seat)
		}
	}
	s.Selected = nil
	s.State = StateEnteringPassengerDetails
	s.UpdatedAt = now
	return nil
}

// Back returns to seat selection with the checkout seats reselected.
func (s *Session) Back(now time.Time) error {
	if s.State != StateEnteringPassengerDetails {
		return fmt.Errorf("back from %s: %w", s.State, ErrWrongState)
	}
	s.Selected = seating.NewSeatSet(s.Checkout.Seats...)
	s.Checkout = nil
	s.State = StateSelectingSeats
	s.UpdatedAt = now
	return nil
}

// Confirm validates the passengers, persists the booking and makes the
// session terminal.  On a validation error nothing changes.  On a store
// error the validated passengers are kept on the session so a retry does
// not need them again, and the returned error wraps ErrPersistenceFailed
// together with the store's error.
func (s *Session) Confirm(ctx context.Context, store Store, submitted []Passenger, now time.Time) (Record, error) {
	if s.State != StateEnteringPassengerDetails {
		return Record{}, fmt.Errorf("confirm from %s: %w", s.State, ErrWrongState)
	}
	if len(submitted) == 0 && len(s.Passengers) > 0 {
		submitted = s.RetainedPassengers()
	}
	passengers, err := AssignPassengers(s.Checkout.Seats, submitted)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		BookingID:    NewBookingID(now),
		TripID:       s.Trip.TripID,
		UserID:       s.UserID,
		TravelDate:   s.TravelDate,
		SeatNumbers:  append([]int(nil), s.Checkout.Seats...),
		PricePerSeat: s.Checkout.PricePerSeat,
		TotalAmount:  s.Checkout.TotalAmount,
		Passengers:   passengers,
		BookedAt:     now.UTC(),
	}
	if err := store.SaveBooking(ctx, rec); err != nil {
		s.Passengers = make(map[int]Passenger, len(passengers))
		for _, p := range passengers {
			s.Passengers[p.SeatNumber] = p
		}
		s.UpdatedAt = now
		return Record{}, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}

	s.BookingID = rec.BookingID
	s.State = StateConfirmed
	s.UpdatedAt = now
	return rec, nil
}

// RetainedPassengers lists passenger data kept from a failed confirmation,
// in seat order.
func (s *Session) RetainedPassengers() []Passenger {
	if len(s.Passengers) == 0 {
		return nil
	}
	seats := make(seating.SeatSet, len(s.Passengers))
	for seat := range s.Passengers {
		seats[seat] = struct{}{}
	}
	out := make([]Passenger, 0, len(s.Passengers))
	for _, seat := range seats.Sorted() {
		out = append(out, s.Passengers[seat])
	}
	return out
}

// NewBookingID mints a booking reference: BK, the millisecond timestamp and
// a short random suffix so two bookings in the same millisecond differ.
func NewBookingID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "BK" + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
