// Package session stores booking sessions between HTTP requests.  A
// session is always read, changed and written back through Update so
// that two requests for the same session cannot interleave.
package session

import (
	"context"
	"errors"

	"github.com/iliyamo/minibus-booking/internal/booking"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned when another request is updating the same
	// session.  Nothing is applied; the caller may retry.
	ErrBusy = errors.New("session was modified concurrently")
)

// Store persists sessions keyed by their ID.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, s *booking.Session) error
	// Get loads a session.
	Get(ctx context.Context, id string) (*booking.Session, error)
	// Update loads the session, applies fn and writes the result back
	// atomically.  When fn returns an error the session is still written
	// back, so partial progress recorded by fn (such as retained passenger
	// data) survives; the error is returned to the caller.  A session
	// deleted while fn runs is not written back and Update returns
	// ErrNotFound.
	Update(ctx context.Context, id string, fn func(*booking.Session) error) (*booking.Session, error)
	// Delete removes a session.  Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}
