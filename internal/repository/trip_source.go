package repository

import (
	"context"

	"github.com/iliyamo/minibus-booking/internal/model"
)

// TripSource is everything the HTTP layer needs to know about trips.  The
// MySQL TripRepo and the in-memory StaticTripSource both implement it.
type TripSource interface {
	// ListCities returns the city directory ordered by name.
	ListCities(ctx context.Context) ([]model.City, error)
	// GetTrip loads one trip.  Unknown ids yield ErrTripNotFound.
	GetTrip(ctx context.Context, id string) (model.Trip, error)
	// BookedSeats lists the seats already taken on a trip for a travel
	// date (YYYY-MM-DD), ascending.
	BookedSeats(ctx context.Context, tripID, travelDate string) ([]int, error)
	// SearchTrips lists scheduled trips between two cities for a travel
	// date, narrowed by q.Filter and ordered by departure time.
	SearchTrips(ctx context.Context, q TripQuery) ([]TripSummary, error)
}

// TripQuery selects trips for the search results page.
type TripQuery struct {
	DepartureCityID   string
	DestinationCityID string
	TravelDate        string
	Filter            TripFilter
}

// TripSummary is a search result: the trip and how many seats are still
// free on the requested travel date.
type TripSummary struct {
	Trip           model.Trip
	BookedCount    int
	AvailableSeats int
}

func summarize(t model.Trip, booked int) TripSummary {
	avail := t.Capacity() - booked
	if avail < 0 {
		avail = 0
	}
	return TripSummary{Trip: t, BookedCount: booked, AvailableSeats: avail}
}
