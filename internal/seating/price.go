package seating

// Amounts are whole units of the trip currency's smallest display unit
// (birr for ETB fares).

// TotalPrice is pricePerSeat times the number of selected seats.  It is
// always derived from the selection and never stored on its own.
func TotalPrice(pricePerSeat int64, selected SeatSet) int64 {
	return pricePerSeat * int64(selected.Len())
}

// PerPassengerShare splits a total across count passengers, rounding down.
// Every summary uses this function so the displayed share is consistent;
// no remainder is carried.  A count below 1 yields 0.
func PerPassengerShare(total int64, count int) int64 {
	if count < 1 {
		return 0
	}
	return total / int64(count)
}
