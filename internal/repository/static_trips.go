package repository

import (
	"context"
	"sort"
	"time"

	"github.com/iliyamo/minibus-booking/internal/model"
)

// SeatLister reports seats taken by stored bookings.  BookingRepo
// implements it.
type SeatLister interface {
	BookedSeats(ctx context.Context, tripID, travelDate string) ([]int, error)
}

// StaticTripSource serves a fixed catalogue of cities and trips from
// memory.  It is selected with TRIP_SOURCE=static for demos and is used by
// handler tests.  Every trip starts with its first PreBooked seats taken on
// any travel date; seats booked through Bookings are added on top.
type StaticTripSource struct {
	Cities    []model.City
	Trips     []model.Trip
	PreBooked map[string]int
	Bookings  SeatLister
}

func clock(h, m int) time.Time { return time.Date(0, 1, 1, h, m, 0, 0, time.UTC) }

// NewStaticTripSource returns the demo catalogue: three departures from
// Addis Ababa to Bahir Dar with 12, 15 and 8 seats already taken.
func NewStaticTripSource(bookings SeatLister) *StaticTripSource {
	dist, dur := uint32(450), uint32(270)
	route := model.Route{
		ID:                       "route-1",
		Name:                     "Addis Ababa → Bahir Dar",
		DepartureCityID:          "addis-ababa",
		DestinationCityID:        "bahir-dar",
		DistanceKm:               &dist,
		EstimatedDurationMinutes: &dur,
	}
	trip := func(id string, dep, arr time.Time, price int64, v model.Vehicle, d model.Driver) model.Trip {
		return model.Trip{
			ID:              id,
			Route:           route,
			DepartureCity:   "Addis Ababa",
			DestinationCity: "Bahir Dar",
			Vehicle:         v,
			Driver:          d,
			DepartureAt:     dep,
			ArrivalAt:       &arr,
			PricePerSeat:    price,
			Status:          "SCHEDULED",
		}
	}
	return &StaticTripSource{
		Cities: []model.City{
			{ID: "adama", Name: "Adama"},
			{ID: "addis-ababa", Name: "Addis Ababa"},
			{ID: "bahir-dar", Name: "Bahir Dar"},
			{ID: "dire-dawa", Name: "Dire Dawa"},
			{ID: "gondar", Name: "Gondar"},
			{ID: "hawassa", Name: "Hawassa"},
			{ID: "mekelle", Name: "Mekelle"},
		},
		Trips: []model.Trip{
			trip("trip-1", clock(6, 0), clock(10, 30), 450,
				model.Vehicle{ID: "vehicle-1", PlateNumber: "AA-123-456", Model: "Toyota Hiace", Capacity: 20, VehicleType: "MINIBUS", Operator: "Zoza Transport"},
				model.Driver{ID: "driver-1", FullName: "Abebe Kebede", Phone: "+251911234567"}),
			trip("trip-2", clock(8, 30), clock(13, 0), 380,
				model.Vehicle{ID: "vehicle-2", PlateNumber: "AA-789-012", Model: "Nissan Urvan", Capacity: 18, VehicleType: "MINIBUS", Operator: "Ethiopian Minibus Co."},
				model.Driver{ID: "driver-2", FullName: "Mulugeta Tadesse", Phone: "+251922345678"}),
			trip("trip-3", clock(14, 0), clock(18, 30), 520,
				model.Vehicle{ID: "vehicle-3", PlateNumber: "AA-345-678", Model: "Mercedes Sprinter", Capacity: 22, VehicleType: "MIDIBUS", Operator: "Addis Express"},
				model.Driver{ID: "driver-3", FullName: "Dawit Haile", Phone: "+251933456789"}),
		},
		PreBooked: map[string]int{"trip-1": 12, "trip-2": 15, "trip-3": 8},
		Bookings:  bookings,
	}
}

func (s *StaticTripSource) ListCities(context.Context) ([]model.City, error) {
	return append([]model.City(nil), s.Cities...), nil
}

func (s *StaticTripSource) GetTrip(_ context.Context, id string) (model.Trip, error) {
	for _, t := range s.Trips {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Trip{}, ErrTripNotFound
}

func (s *StaticTripSource) BookedSeats(ctx context.Context, tripID, travelDate string) ([]int, error) {
	taken := map[int]struct{}{}
	for n := 1; n <= s.PreBooked[tripID]; n++ {
		taken[n] = struct{}{}
	}
	if s.Bookings != nil {
		extra, err := s.Bookings.BookedSeats(ctx, tripID, travelDate)
		if err != nil {
			return nil, err
		}
		for _, n := range extra {
			taken[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(taken))
	for n := range taken {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

func (s *StaticTripSource) SearchTrips(ctx context.Context, q TripQuery) ([]TripSummary, error) {
	out := []TripSummary{}
	for _, t := range s.Trips {
		if q.DepartureCityID != "" && t.Route.DepartureCityID != q.DepartureCityID {
			continue
		}
		if q.DestinationCityID != "" && t.Route.DestinationCityID != q.DestinationCityID {
			continue
		}
		if !q.Filter.Match(t) {
			continue
		}
		booked, err := s.BookedSeats(ctx, t.ID, q.TravelDate)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(t, len(booked)))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Trip.DepartureAt.Before(out[j].Trip.DepartureAt)
	})
	return out, nil
}
