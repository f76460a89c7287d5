package model

import "time"

// City is a stop that routes depart from or arrive at.  Cities feed the
// departure/destination pickers of the trip search form.
//
// Fields:
//  ID        – primary key identifier (slug such as "addis-ababa").
//  Name      – display name.
//  Region    – optional administrative region.
//  CreatedAt – timestamp when the city was created.
type City struct {
    ID        string    // cities.id
    Name      string    // cities.name
    Region    *string   // cities.region (nullable)
    CreatedAt time.Time // cities.created_at
}

// Route connects two cities.  Trips are scheduled departures on a route.
//
// Fields:
//  ID                       – primary key identifier.
//  Name                     – display name, e.g. "Addis Ababa → Bahir Dar".
//  DepartureCityID          – city the route starts from.
//  DestinationCityID        – city the route ends at.
//  DistanceKm               – optional distance.
//  EstimatedDurationMinutes – optional scheduled travel time.
type Route struct {
    ID                       string  // routes.id
    Name                     string  // routes.name
    DepartureCityID          string  // routes.departure_city_id
    DestinationCityID        string  // routes.destination_city_id
    DistanceKm               *uint32 // routes.distance_km (nullable)
    EstimatedDurationMinutes *uint32 // routes.estimated_duration_minutes (nullable)
}
