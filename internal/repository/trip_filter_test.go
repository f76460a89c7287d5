package repository

import (
	"context"
	"reflect"
	"testing"

	"github.com/iliyamo/minibus-booking/internal/model"
)

func TestTripFilter_Match(t *testing.T) {
	trip := model.Trip{
		PricePerSeat: 450,
		DepartureAt:  clock(6, 0),
		Vehicle:      model.Vehicle{Operator: "Zoza Transport", VehicleType: "MINIBUS"},
	}
	cases := []struct {
		name string
		f    TripFilter
		want bool
	}{
		{"zero value", TripFilter{}, true},
		{"price in range", TripFilter{MinPrice: 0, MaxPrice: 1000}, true},
		{"price above max", TripFilter{MaxPrice: 400}, false},
		{"price below min", TripFilter{MinPrice: 500}, false},
		{"operator case-insensitive", TripFilter{Operators: []string{"zoza transport"}}, true},
		{"other operator", TripFilter{Operators: []string{"Addis Express"}}, false},
		{"early slot", TripFilter{TimeSlots: []string{SlotEarly}}, true},
		{"evening slot", TripFilter{TimeSlots: []string{SlotEvening}}, false},
		{"any of slots", TripFilter{TimeSlots: []string{SlotEvening, SlotEarly}}, true},
		{"vehicle type", TripFilter{VehicleTypes: []string{"MIDIBUS"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(trip); got != tc.want {
				t.Fatalf("Match = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTripFilter_SlotBoundaries(t *testing.T) {
	f := TripFilter{TimeSlots: []string{SlotMorning}}
	for h, want := range map[int]bool{8: false, 9: true, 11: true, 12: false} {
		if got := f.Match(model.Trip{DepartureAt: clock(h, 0)}); got != want {
			t.Fatalf("hour %d: Match = %v, want %v", h, got, want)
		}
	}
}

func TestTripFilter_Validate(t *testing.T) {
	if err := (TripFilter{TimeSlots: []string{"midnight"}}).Validate(); err == nil {
		t.Fatal("expected unknown slot to be rejected")
	}
	if err := (TripFilter{MinPrice: 500, MaxPrice: 100}).Validate(); err == nil {
		t.Fatal("expected inverted range to be rejected")
	}
	if err := (TripFilter{MinPrice: 100, TimeSlots: []string{"Morning"}}).Validate(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

type fixedSeats []int

func (f fixedSeats) BookedSeats(context.Context, string, string) ([]int, error) { return f, nil }

func TestStaticTripSource(t *testing.T) {
	src := NewStaticTripSource(fixedSeats{15, 3})
	ctx := context.Background()

	booked, err := src.BookedSeats(ctx, "trip-1", "2026-03-14")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(booked) != 13 || booked[12] != 15 {
		t.Fatalf("expected seats 1-12 plus 15, got %v", booked)
	}

	res, err := src.SearchTrips(ctx, TripQuery{
		DepartureCityID:   "addis-ababa",
		DestinationCityID: "bahir-dar",
		TravelDate:        "2026-03-14",
		Filter:            TripFilter{TimeSlots: []string{SlotEarly}},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	ids := []string{}
	for _, r := range res {
		ids = append(ids, r.Trip.ID)
	}
	if !reflect.DeepEqual(ids, []string{"trip-1", "trip-2"}) {
		t.Fatalf("unexpected trips %v", ids)
	}
	if res[0].AvailableSeats != 7 {
		t.Fatalf("expected 7 seats left on trip-1, got %d", res[0].AvailableSeats)
	}

	none, _ := src.SearchTrips(ctx, TripQuery{DepartureCityID: "gondar", DestinationCityID: "hawassa"})
	if len(none) != 0 {
		t.Fatalf("expected no trips, got %d", len(none))
	}
	if _, err := src.GetTrip(ctx, "trip-9"); err != ErrTripNotFound {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}
