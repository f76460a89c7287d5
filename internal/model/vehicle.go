package model

// Vehicle is a minibus operated on trips.  Capacity is the number of
// passenger seats and drives the seat layout of every trip using it.
//
// Fields:
//  ID          – primary key identifier.
//  PlateNumber – licence plate.
//  Model       – make and model, e.g. "Toyota Hiace".
//  Capacity    – passenger seats.
//  VehicleType – category used by the search filter (e.g. MINIBUS, MIDIBUS).
//  Operator    – transport company operating the vehicle.
type Vehicle struct {
    ID          string // vehicles.id
    PlateNumber string // vehicles.plate_number
    Model       string // vehicles.model
    Capacity    int    // vehicles.capacity
    VehicleType string // vehicles.vehicle_type
    Operator    string // vehicles.operator
}

// Driver is the person driving a trip.
type Driver struct {
    ID       string // drivers.id
    FullName string // drivers.full_name
    Phone    string // drivers.phone
}
