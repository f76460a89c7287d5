package handler

import (
    "encoding/json"
    "time"

    "github.com/iliyamo/minibus-booking/internal/booking"
    "github.com/iliyamo/minibus-booking/internal/model"
    "github.com/iliyamo/minibus-booking/internal/seating"
)

type vehicleView struct {
    PlateNumber string `json:"plate_number"`
    Model       string `json:"model"`
    VehicleType string `json:"vehicle_type"`
    Operator    string `json:"operator"`
}

type driverView struct {
    Name  string `json:"name"`
    Phone string `json:"phone"`
}

type tripView struct {
    ID                string      `json:"id"`
    RouteName         string      `json:"route_name"`
    DepartureCityID   string      `json:"departure_city_id"`
    DepartureCity     string      `json:"departure_city"`
    DestinationCityID string      `json:"destination_city_id"`
    DestinationCity   string      `json:"destination_city"`
    DepartureTime     string      `json:"departure_time"`
    ArrivalTime       *string     `json:"arrival_time,omitempty"`
    DepartureAt       *time.Time  `json:"departure_at,omitempty"`
    DistanceKm        *uint32     `json:"distance_km,omitempty"`
    DurationMinutes   *uint32     `json:"estimated_duration_minutes,omitempty"`
    PricePerSeat      int64       `json:"price_per_seat"`
    Currency          string      `json:"currency"`
    Capacity          int         `json:"capacity"`
    AvailableSeats    *int        `json:"available_seats,omitempty"`
    Vehicle           vehicleView `json:"vehicle"`
    Driver            driverView  `json:"driver"`
}

// newTripView renders t.  With a travel date departure_at is the full
// departure timestamp on that date.
func newTripView(t model.Trip, travelDate, currency string) tripView {
    v := tripView{
        ID:                t.ID,
        RouteName:         t.Route.Name,
        DepartureCityID:   t.Route.DepartureCityID,
        DepartureCity:     t.DepartureCity,
        DestinationCityID: t.Route.DestinationCityID,
        DestinationCity:   t.DestinationCity,
        DepartureTime:     t.DepartureAt.Format("15:04"),
        DistanceKm:        t.Route.DistanceKm,
        DurationMinutes:   t.Route.EstimatedDurationMinutes,
        PricePerSeat:      t.PricePerSeat,
        Currency:          currency,
        Capacity:          t.Capacity(),
        Vehicle: vehicleView{
            PlateNumber: t.Vehicle.PlateNumber,
            Model:       t.Vehicle.Model,
            VehicleType: t.Vehicle.VehicleType,
            Operator:    t.Vehicle.Operator,
        },
        Driver: driverView{Name: t.Driver.FullName, Phone: t.Driver.Phone},
    }
    if t.ArrivalAt != nil {
        s := t.ArrivalAt.Format("15:04")
        v.ArrivalTime = &s
    }
    if at := t.DepartureOn(travelDate); !at.IsZero() {
        v.DepartureAt = &at
    }
    return v
}

type checkoutView struct {
    Seats             []int `json:"seats"`
    PricePerSeat      int64 `json:"price_per_seat"`
    TotalAmount       int64 `json:"total_amount"`
    PerPassengerShare int64 `json:"per_passenger_share"`
}

type sessionView struct {
    ID                string                 `json:"id"`
    State             booking.State          `json:"state"`
    TripID            string                 `json:"trip_id"`
    RouteName         string                 `json:"route_name,omitempty"`
    DepartureAt       time.Time              `json:"departure_at"`
    TravelDate        string                 `json:"travel_date"`
    MaxSelectable     int                    `json:"max_selectable"`
    SelectedSeats     []int                  `json:"selected_seats"`
    TotalPrice        int64                  `json:"total_price"`
    PerPassengerShare int64                  `json:"per_passenger_share"`
    Currency          string                 `json:"currency"`
    SeatMap           [][]seating.SeatView   `json:"seat_map,omitempty"`
    Checkout          *checkoutView          `json:"checkout,omitempty"`
    Passengers        []booking.Passenger    `json:"passengers,omitempty"`
    BookingID         string                 `json:"booking_id,omitempty"`
    UpdatedAt         time.Time              `json:"updated_at"`
}

// newSessionView renders s.  The seat map is only included while seats
// are being chosen.
func newSessionView(s *booking.Session, currency string) sessionView {
    selected := s.SelectedSeats()
    v := sessionView{
        ID:                s.ID,
        State:             s.State,
        TripID:            s.Trip.TripID,
        RouteName:         s.Trip.RouteName,
        DepartureAt:       s.Trip.DepartureAt,
        TravelDate:        s.TravelDate,
        MaxSelectable:     s.MaxSelectable,
        SelectedSeats:     selected,
        TotalPrice:        s.TotalPrice(),
        PerPassengerShare: seating.PerPassengerShare(s.TotalPrice(), len(selected)),
        Currency:          currency,
        Passengers:        s.RetainedPassengers(),
        BookingID:         s.BookingID,
        UpdatedAt:         s.UpdatedAt,
    }
    if s.State == booking.StateSelectingSeats {
        v.SeatMap = s.Inventory().SeatMap(s.Selected)
    }
    if s.Checkout != nil {
        v.Checkout = &checkoutView{
            Seats:             s.Checkout.Seats,
            PricePerSeat:      s.Checkout.PricePerSeat,
            TotalAmount:       s.Checkout.TotalAmount,
            PerPassengerShare: s.Checkout.PerPassengerShare(),
        }
    }
    return v
}

type bookingView struct {
    ID                string              `json:"id"`
    UserID            uint64              `json:"user_id,omitempty"`
    TripID            string              `json:"trip_id"`
    TravelDate        string              `json:"travel_date"`
    SeatNumbers       []int               `json:"seat_numbers"`
    TotalAmount       int64               `json:"total_amount"`
    PerPassengerShare int64               `json:"per_passenger_share"`
    Currency          string              `json:"currency"`
    CustomerName      string              `json:"customer_name"`
    CustomerPhone     string              `json:"customer_phone"`
    Passengers        []booking.Passenger `json:"passengers"`
    Status            string              `json:"status"`
    PaymentStatus     string              `json:"payment_status"`
    PaymentMethod     string              `json:"payment_method"`
    Notes             *string             `json:"notes,omitempty"`
    BookedAt          time.Time           `json:"booked_at"`
}

func newBookingView(b model.Booking, currency string) bookingView {
    var passengers []booking.Passenger
    if err := json.Unmarshal([]byte(b.PassengerDetails), &passengers); err != nil || passengers == nil {
        passengers = []booking.Passenger{}
    }
    return bookingView{
        ID:                b.ID,
        UserID:            b.UserID,
        TripID:            b.TripID,
        TravelDate:        b.TravelDate,
        SeatNumbers:       b.SeatNumbers,
        TotalAmount:       b.TotalAmount,
        PerPassengerShare: seating.PerPassengerShare(b.TotalAmount, len(b.SeatNumbers)),
        Currency:          currency,
        CustomerName:      b.CustomerName,
        CustomerPhone:     b.CustomerPhone,
        Passengers:        passengers,
        Status:            b.Status,
        PaymentStatus:     b.PaymentStatus,
        PaymentMethod:     b.PaymentMethod,
        Notes:             b.Notes,
        BookedAt:          b.BookedAt,
    }
}

func newBookingViews(list []model.Booking, currency string) []bookingView {
    out := make([]bookingView, 0, len(list))
    for _, b := range list {
        out = append(out, newBookingView(b, currency))
    }
    return out
}
