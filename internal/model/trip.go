package model

import "time"

// Trip is one scheduled departure of a vehicle on a route.  The price is
// per seat in whole currency units.  Booked seats are not stored here; they
// are derived from the booking_seats of active bookings for a travel date.
//
// Fields:
//  ID           – primary key identifier.
//  Route        – route with both city names resolved.
//  Vehicle      – vehicle including capacity and operator.
//  Driver       – assigned driver.
//  DepartureAt  – departure time of day (the date part is the travel date
//                 chosen by the customer).
//  ArrivalAt    – optional scheduled arrival.
//  PricePerSeat – price of one seat.
//  Status       – SCHEDULED, CANCELLED or COMPLETED.
type Trip struct {
    ID              string     // trips.id
    Route           Route      // joined routes row
    DepartureCity   string     // joined cities.name (departure)
    DestinationCity string     // joined cities.name (destination)
    Vehicle         Vehicle    // joined vehicles row
    Driver          Driver     // joined drivers row
    DepartureAt     time.Time  // trips.departure_time
    ArrivalAt       *time.Time // trips.arrival_time (nullable)
    PricePerSeat    int64      // trips.price_per_seat
    Status          string     // trips.status
}

// Capacity is the number of seats of the trip's vehicle.
func (t Trip) Capacity() int { return t.Vehicle.Capacity }

// DepartureOn combines the departure time of day with a travel date
// (YYYY-MM-DD).  An unparsable date yields the zero time.
func (t Trip) DepartureOn(travelDate string) time.Time {
    d, err := time.Parse("2006-01-02", travelDate)
    if err != nil {
        return time.Time{}
    }
    h, m, s := t.DepartureAt.Clock()
    return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC)
}
