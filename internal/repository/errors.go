// Package repository holds the MySQL-backed data access layer and the
// sentinel errors that handlers map to HTTP status codes.
package repository

import (
	"errors"

	"github.com/iliyamo/minibus-booking/internal/booking"
)

// ErrForbidden is returned when the caller attempts an operation on a
// booking they do not own.  Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be applied because of the
// record's current state, such as cancelling a booking twice.  Handlers
// translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrTripNotFound is returned when a trip id is unknown.
var ErrTripNotFound = errors.New("trip not found")

// ErrBookingNotFound is returned when a booking id is unknown.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned by UserRepo.Create for a taken email.
var ErrEmailExists = errors.New("email already exists")

// ErrSeatConflict is returned by BookingRepo.SaveBooking when one of the
// seats was booked by someone else after the session took its snapshot.
// It is the booking package's sentinel so sessions can recognise it.
var ErrSeatConflict = booking.ErrSeatConflict
