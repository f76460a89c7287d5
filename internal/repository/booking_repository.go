package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/minibus-booking/internal/booking"
	"github.com/iliyamo/minibus-booking/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key
// violation.
const mysqlDuplicateEntry = 1062

// BookingRepo persists bookings and their seats.  Seats live in
// booking_seats whose unique key (trip_id, travel_date, seat_number)
// guarantees a seat is sold at most once per departure.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingFilter selects bookings for the admin console.  Zero values do
// not filter.
type BookingFilter struct {
	// Search matches a substring of the customer name or booking id
	// (ignoring case) or of the customer phone.
	Search string
	// Status keeps bookings with this status (confirmed, pending,
	// cancelled).
	Status string
	// PaymentStatus keeps bookings with this payment status (pending,
	// paid, failed).
	PaymentStatus string
	// Limit caps the number of rows; 0 means 50 and values above 200 are
	// clamped.
	Limit int
	// Offset skips rows for paging.
	Offset int
}

// DashboardStats feeds the admin dashboard.  Revenue counts every booking
// that is not cancelled, paid or not.
type DashboardStats struct {
	TotalBookings   int64           `json:"total_bookings"`
	Revenue         int64           `json:"revenue"`
	TodayBookings   int64           `json:"today_bookings"`
	PendingPayments int64           `json:"pending_payments"`
	Recent          []model.Booking `json:"-"`
}

// SaveBooking stores a confirmed booking with one booking_seats row per
// seat in a single transaction.  A duplicate seat yields an error wrapping
// ErrSeatConflict and nothing is written.
func (r *BookingRepo) SaveBooking(ctx context.Context, rec booking.Record) error {
	if len(rec.SeatNumbers) == 0 || len(rec.Passengers) == 0 {
		return fmt.Errorf("booking %s has no seats", rec.BookingID)
	}
	details, err := json.Marshal(rec.Passengers)
	if err != nil {
		return err
	}
	lead := rec.Passengers[0]

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO bookings (id, user_id, trip_id, travel_date, seat_numbers, total_amount,
			customer_name, customer_phone, passenger_details, status, payment_status, payment_method, booked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		rec.BookingID, rec.UserID, rec.TripID, rec.TravelDate, joinSeats(rec.SeatNumbers), rec.TotalAmount,
		lead.Name, lead.Phone, string(details), model.BookingConfirmed, model.PaymentPending, "pending", rec.BookedAt,
	); err != nil {
		return err
	}

	query := `INSERT INTO booking_seats (booking_id, trip_id, travel_date, seat_number) VALUES `
	args := make([]any, 0, len(rec.SeatNumbers)*4)
	for i, n := range rec.SeatNumbers {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, rec.BookingID, rec.TripID, rec.TravelDate, n)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return fmt.Errorf("trip %s on %s: %w", rec.TripID, rec.TravelDate, ErrSeatConflict)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// BookedSeats lists seats held by bookings for a trip and travel date.
func (r *BookingRepo) BookedSeats(ctx context.Context, tripID, travelDate string) ([]int, error) {
	return bookedSeats(ctx, r.db, tripID, travelDate)
}

const bookingColumns = `id, user_id, trip_id, travel_date, seat_numbers, total_amount, customer_name, customer_phone,
		passenger_details, status, payment_status, payment_method, notes, booked_at, updated_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	var travel time.Time
	var seats string
	var notes sql.NullString
	err := s.Scan(&b.ID, &b.UserID, &b.TripID, &travel, &seats, &b.TotalAmount, &b.CustomerName, &b.CustomerPhone,
		&b.PassengerDetails, &b.Status, &b.PaymentStatus, &b.PaymentMethod, &notes, &b.BookedAt, &b.UpdatedAt)
	if err != nil {
		return b, err
	}
	b.TravelDate = travel.Format("2006-01-02")
	b.SeatNumbers = splitSeats(seats)
	if notes.Valid {
		v := notes.String
		b.Notes = &v
	}
	return b, nil
}

func (r *BookingRepo) queryBookings(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// GetByID loads one booking.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// ListByUser returns the bookings made by a customer, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY booked_at DESC`
	return r.queryBookings(ctx, q, userID)
}

// List returns bookings matching f, newest first.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	where := []string{}
	args := []any{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(LOWER(customer_name) LIKE ? OR customer_phone LIKE ? OR LOWER(id) LIKE ?)")
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, "%"+s+"%", like)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.PaymentStatus != "" {
		where = append(where, "payment_status = ?")
		args = append(args, f.PaymentStatus)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + cond + ` ORDER BY booked_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	return r.queryBookings(ctx, q, args...)
}

// lockStatusTx reads a booking's status with a row lock.
func lockStatusTx(ctx context.Context, tx *sql.Tx, id string) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBookingNotFound
	}
	return status, err
}

// UpdatePaymentStatus records the outcome of an out-of-band payment.
// Cancelled bookings are rejected with ErrConflict.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id, status, method string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	cur, err := lockStatusTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if cur == model.BookingCancelled {
		return ErrConflict
	}
	if method == "" {
		method = "pending"
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET payment_status = ?, payment_method = ? WHERE id = ?`, status, method, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Cancel marks a booking cancelled and releases its seats.  Cancelling an
// already cancelled booking yields ErrConflict.
func (r *BookingRepo) Cancel(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	cur, err := lockStatusTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if cur == model.BookingCancelled {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, model.BookingCancelled, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Stats computes the dashboard counters.  Today is the UTC calendar day of
// now.
func (r *BookingRepo) Stats(ctx context.Context, now time.Time) (DashboardStats, error) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	const q = `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status <> 'cancelled' THEN total_amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN booked_at >= ? AND booked_at < ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN payment_status = 'pending' AND status <> 'cancelled' THEN 1 ELSE 0 END), 0)
		FROM bookings`
	var st DashboardStats
	if err := r.db.QueryRowContext(ctx, q, start, end).Scan(&st.TotalBookings, &st.Revenue, &st.TodayBookings, &st.PendingPayments); err != nil {
		return st, err
	}
	recent, err := r.List(ctx, BookingFilter{Limit: 5})
	if err != nil {
		return st, err
	}
	st.Recent = recent
	return st, nil
}

func joinSeats(seats []int) string {
	parts := make([]string, len(seats))
	for i, n := range seats {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func splitSeats(s string) []int {
	out := []int{}
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}
