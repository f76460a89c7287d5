package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var tripCols = []string{"t.id", "t.departure_time", "t.arrival_time", "t.price_per_seat", "t.status",
	"r.id", "r.name", "r.departure_city_id", "r.destination_city_id", "r.distance_km", "r.estimated_duration_minutes",
	"dc.name", "ac.name",
	"v.id", "v.plate_number", "v.model", "v.capacity", "v.vehicle_type", "v.operator",
	"d.id", "d.full_name", "d.phone"}

func tripRow(id, dep string, price int64, capacity int, operator string) []driver.Value {
	return []driver.Value{id, dep, nil, price, "SCHEDULED",
		"route-1", "Addis Ababa → Bahir Dar", "addis-ababa", "bahir-dar", 450, nil,
		"Addis Ababa", "Bahir Dar",
		"vehicle-" + id, "AA-123-456", "Toyota Hiace", capacity, "MINIBUS", operator,
		"driver-1", "Abebe Kebede", "+251911234567"}
}

func TestTripRepo_GetTrip(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectQuery("FROM trips t").WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows(tripCols).AddRow(tripRow("trip-1", "06:00:00", 450, 20, "Zoza Transport")...))
	mock.ExpectQuery("FROM trips t").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	trip, err := repo.GetTrip(context.Background(), "trip-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if trip.Capacity() != 20 || trip.DepartureAt.Hour() != 6 || trip.Route.DistanceKm == nil || *trip.Route.DistanceKm != 450 {
		t.Fatalf("unexpected trip %+v", trip)
	}
	if got := trip.DepartureOn("2026-03-14").Format("2006-01-02 15:04"); got != "2026-03-14 06:00" {
		t.Fatalf("unexpected departure %s", got)
	}
	if _, err := repo.GetTrip(context.Background(), "nope"); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestTripRepo_SearchAppliesFilter(t *testing.T) {
	mock, _, repo := newMock(t)
	cols := append(append([]string{}, tripCols...), "booked")
	rows := sqlmock.NewRows(cols).
		AddRow(append(tripRow("trip-1", "06:00:00", 450, 20, "Zoza Transport"), 12)...).
		AddRow(append(tripRow("trip-2", "08:30:00", 380, 18, "Ethiopian Minibus Co."), 15)...)
	mock.ExpectQuery("FROM trips t").WithArgs("2026-03-14", "addis-ababa", "bahir-dar").WillReturnRows(rows)

	got, err := repo.SearchTrips(context.Background(), TripQuery{
		DepartureCityID:   "addis-ababa",
		DestinationCityID: "bahir-dar",
		TravelDate:        "2026-03-14",
		Filter:            TripFilter{MinPrice: 400},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(got) != 1 || got[0].Trip.ID != "trip-1" || got[0].AvailableSeats != 8 {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestTripRepo_BookedSeats(t *testing.T) {
	mock, _, repo := newMock(t)
	mock.ExpectQuery("SELECT seat_number FROM booking_seats").WithArgs("trip-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(3).AddRow(4))
	got, err := repo.BookedSeats(context.Background(), "trip-1", "2026-03-14")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reflect.DeepEqual(got, []int{3, 4}) {
		t.Fatalf("unexpected seats %v", got)
	}
}
