package booking

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrWrongState is returned when an operation is attempted from a
	// state that does not allow it (e.g. toggling seats after Proceed).
	ErrWrongState = errors.New("operation not allowed in current session state")

	// ErrNoSeatsSelected blocks Proceed while the selection is empty.
	ErrNoSeatsSelected = errors.New("at least one seat must be selected")

	// ErrPersistenceFailed wraps any failure of the booking store.  The
	// session stays in EnteringPassengerDetails so the caller can retry.
	ErrPersistenceFailed = errors.New("booking could not be saved")

	// ErrSeatConflict is reported by a Store when one of the seats was
	// committed by another booking after this session's snapshot.
	ErrSeatConflict = errors.New("seat already booked by another session")
)

// FieldProblem names one passenger field that failed validation.
type FieldProblem struct {
	Passenger  int    `json:"passenger"` // 1-based position in the checkout
	SeatNumber int    `json:"seat_number"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// ValidationError lists every problem found in a passenger submission.
// It matches ErrValidationFailed under errors.Is.
type ValidationError struct {
	Problems []FieldProblem
}

// ErrValidationFailed is the sentinel matched by every *ValidationError.
var ErrValidationFailed = errors.New("passenger validation failed")

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		if p.SeatNumber > 0 {
			parts = append(parts, fmt.Sprintf("passenger %d (seat %d): %s %s", p.Passenger, p.SeatNumber, p.Field, p.Reason))
		} else {
			parts = append(parts, fmt.Sprintf("passenger %d: %s %s", p.Passenger, p.Field, p.Reason))
		}
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
