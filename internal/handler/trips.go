package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/minibus-booking/internal/repository"
    "github.com/iliyamo/minibus-booking/internal/seating"
)

// TripHandler serves the public city directory, trip search and seat maps.
type TripHandler struct {
    Trips    repository.TripSource
    Currency string
    Now      func() time.Time
}

func NewTripHandler(trips repository.TripSource, currency string) *TripHandler {
    return &TripHandler{Trips: trips, Currency: currency, Now: time.Now}
}

type cityView struct {
    ID     string  `json:"id"`
    Name   string  `json:"name"`
    Region *string `json:"region,omitempty"`
}

// Cities handles GET /v1/cities.
func (h *TripHandler) Cities(c echo.Context) error {
    list, err := h.Trips.ListCities(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]cityView, 0, len(list))
    for _, city := range list {
        out = append(out, cityView{ID: city.ID, Name: city.Name, Region: city.Region})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// splitList reads a comma separated query parameter; repeated parameters
// are accepted too.
func splitList(c echo.Context, name string) []string {
    var out []string
    for _, raw := range c.QueryParams()[name] {
        for _, p := range strings.Split(raw, ",") {
            if p = strings.TrimSpace(p); p != "" {
                out = append(out, p)
            }
        }
    }
    return out
}

func queryInt64(c echo.Context, name string) (int64, error) {
    s := strings.TrimSpace(c.QueryParam(name))
    if s == "" {
        return 0, nil
    }
    return strconv.ParseInt(s, 10, 64)
}

// Search handles GET /v1/trips/search.  departure, destination and date
// are required; min_price, max_price, operators, time_slots and
// vehicle_types narrow the result.
func (h *TripHandler) Search(c echo.Context) error {
    dep := strings.TrimSpace(c.QueryParam("departure"))
    dest := strings.TrimSpace(c.QueryParam("destination"))
    if dep == "" || dest == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure and destination are required"})
    }
    if dep == dest {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure and destination must differ"})
    }
    date, err := parseTravelDate(c.QueryParam("date"), h.Now())
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    minPrice, err1 := queryInt64(c, "min_price")
    maxPrice, err2 := queryInt64(c, "max_price")
    if err1 != nil || err2 != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid price range"})
    }
    filter := repository.TripFilter{
        MinPrice:     minPrice,
        MaxPrice:     maxPrice,
        Operators:    splitList(c, "operators"),
        TimeSlots:    splitList(c, "time_slots"),
        VehicleTypes: splitList(c, "vehicle_types"),
    }
    if err := filter.Validate(); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    res, err := h.Trips.SearchTrips(c.Request().Context(), repository.TripQuery{
        DepartureCityID:   dep,
        DestinationCityID: dest,
        TravelDate:        date,
        Filter:            filter,
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items := make([]tripView, 0, len(res))
    for _, r := range res {
        v := newTripView(r.Trip, date, h.Currency)
        avail := r.AvailableSeats
        v.AvailableSeats = &avail
        items = append(items, v)
    }
    return c.JSON(http.StatusOK, echo.Map{"travel_date": date, "items": items, "total": len(items)})
}

// SeatMap handles GET /v1/trips/:id/seats?date=YYYY-MM-DD.
func (h *TripHandler) SeatMap(c echo.Context) error {
    date, err := parseTravelDate(c.QueryParam("date"), h.Now())
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx := c.Request().Context()
    trip, err := h.Trips.GetTrip(ctx, c.Param("id"))
    if err != nil {
        if errors.Is(err, repository.ErrTripNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    booked, err := h.Trips.BookedSeats(ctx, trip.ID, date)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    inv := seating.NewInventory(trip.Capacity(), booked, 0)
    v := newTripView(trip, date, h.Currency)
    avail := inv.Available()
    v.AvailableSeats = &avail
    return c.JSON(http.StatusOK, echo.Map{
        "trip":          v,
        "travel_date":   date,
        "seats_per_row": seating.SeatsPerRow,
        "rows":          inv.SeatMap(nil),
        "booked_seats":  inv.Booked.Sorted(),
    })
}
