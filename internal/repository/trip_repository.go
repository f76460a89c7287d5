package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/minibus-booking/internal/model"
)

// TripRepo is the MySQL TripSource.  Trip rows carry only the departure
// time of day; booked seats come from booking_seats for the travel date.
type TripRepo struct {
	db     *sql.DB
	cities *CityRepo
}

// NewTripRepo returns a TripRepo bound to db.
func NewTripRepo(db *sql.DB) *TripRepo {
	return &TripRepo{db: db, cities: NewCityRepo(db)}
}

const tripColumns = `t.id, t.departure_time, t.arrival_time, t.price_per_seat, t.status,
		r.id, r.name, r.departure_city_id, r.destination_city_id, r.distance_km, r.estimated_duration_minutes,
		dc.name, ac.name,
		v.id, v.plate_number, v.model, v.capacity, v.vehicle_type, v.operator,
		d.id, d.full_name, d.phone`

const tripJoins = `FROM trips t
		JOIN routes r   ON r.id = t.route_id
		JOIN cities dc  ON dc.id = r.departure_city_id
		JOIN cities ac  ON ac.id = r.destination_city_id
		JOIN vehicles v ON v.id = t.vehicle_id
		JOIN drivers d  ON d.id = t.driver_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrip reads tripColumns plus any extra destinations appended after
// them.
func scanTrip(s rowScanner, extra ...any) (model.Trip, error) {
	var t model.Trip
	var dep string
	var arr sql.NullString
	var dist, dur sql.NullInt64
	dest := []any{
		&t.ID, &dep, &arr, &t.PricePerSeat, &t.Status,
		&t.Route.ID, &t.Route.Name, &t.Route.DepartureCityID, &t.Route.DestinationCityID, &dist, &dur,
		&t.DepartureCity, &t.DestinationCity,
		&t.Vehicle.ID, &t.Vehicle.PlateNumber, &t.Vehicle.Model, &t.Vehicle.Capacity, &t.Vehicle.VehicleType, &t.Vehicle.Operator,
		&t.Driver.ID, &t.Driver.FullName, &t.Driver.Phone,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return t, err
	}
	at, err := parseClock(dep)
	if err != nil {
		return t, fmt.Errorf("trip %s departure_time: %w", t.ID, err)
	}
	t.DepartureAt = at
	if arr.Valid {
		if v, err := parseClock(arr.String); err == nil {
			t.ArrivalAt = &v
		}
	}
	if dist.Valid {
		v := uint32(dist.Int64)
		t.Route.DistanceKm = &v
	}
	if dur.Valid {
		v := uint32(dur.Int64)
		t.Route.EstimatedDurationMinutes = &v
	}
	return t, nil
}

// parseClock parses a MySQL TIME value such as "06:00:00".
func parseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time of day %q", s)
}

func (r *TripRepo) ListCities(ctx context.Context) ([]model.City, error) {
	return r.cities.ListAll(ctx)
}

func (r *TripRepo) GetTrip(ctx context.Context, id string) (model.Trip, error) {
	q := `SELECT ` + tripColumns + ` ` + tripJoins + ` WHERE t.id = ?`
	t, err := scanTrip(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Trip{}, ErrTripNotFound
	}
	return t, err
}

func (r *TripRepo) BookedSeats(ctx context.Context, tripID, travelDate string) ([]int, error) {
	return bookedSeats(ctx, r.db, tripID, travelDate)
}

func bookedSeats(ctx context.Context, db *sql.DB, tripID, travelDate string) ([]int, error) {
	const q = `SELECT seat_number FROM booking_seats WHERE trip_id = ? AND travel_date = ? ORDER BY seat_number`
	rows, err := db.QueryContext(ctx, q, tripID, travelDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

// SearchTrips filters on route and status in SQL and applies q.Filter to
// the rows in Go so the filter semantics live in one place.
func (r *TripRepo) SearchTrips(ctx context.Context, q TripQuery) ([]TripSummary, error) {
	where := []string{"t.status = 'SCHEDULED'"}
	args := []any{q.TravelDate}
	if q.DepartureCityID != "" {
		where = append(where, "r.departure_city_id = ?")
		args = append(args, q.DepartureCityID)
	}
	if q.DestinationCityID != "" {
		where = append(where, "r.destination_city_id = ?")
		args = append(args, q.DestinationCityID)
	}
	sqlStr := `SELECT ` + tripColumns + `,
			(SELECT COUNT(*) FROM booking_seats bs WHERE bs.trip_id = t.id AND bs.travel_date = ?) AS booked
		` + tripJoins + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY t.departure_time ASC`

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []TripSummary{}
	for rows.Next() {
		var booked int
		t, err := scanTrip(rows, &booked)
		if err != nil {
			return nil, err
		}
		if !q.Filter.Match(t) {
			continue
		}
		out = append(out, summarize(t, booked))
	}
	return out, rows.Err()
}
