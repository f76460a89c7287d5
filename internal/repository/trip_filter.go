package repository

import (
	"fmt"
	"strings"

	"github.com/iliyamo/minibus-booking/internal/model"
)

// Time-of-day buckets accepted by TripFilter.TimeSlots.  Each covers
// departures from its start hour (inclusive) to its end hour (exclusive).
const (
	SlotEarly     = "early"     // 05:00-09:00
	SlotMorning   = "morning"   // 09:00-12:00
	SlotAfternoon = "afternoon" // 12:00-17:00
	SlotEvening   = "evening"   // 17:00-21:00
)

var slotHours = map[string][2]int{
	SlotEarly:     {5, 9},
	SlotMorning:   {9, 12},
	SlotAfternoon: {12, 17},
	SlotEvening:   {17, 21},
}

// TripFilter narrows trip search results.  The zero value matches every
// trip.  Within a list field any entry may match; across fields every
// non-empty field must match.
type TripFilter struct {
	// MinPrice drops trips whose seat price is below it.
	MinPrice int64
	// MaxPrice drops trips whose seat price is above it.  Zero means no
	// upper bound.
	MaxPrice int64
	// Operators keeps only trips run by one of these operators.  Matching
	// ignores case.
	Operators []string
	// TimeSlots keeps only trips departing in one of these buckets
	// (early, morning, afternoon, evening).
	TimeSlots []string
	// VehicleTypes keeps only trips using one of these vehicle types
	// (e.g. MINIBUS).  Matching ignores case.
	VehicleTypes []string
}

// Validate rejects unknown time slots and an inverted price range.
func (f TripFilter) Validate() error {
	if f.MinPrice < 0 || f.MaxPrice < 0 {
		return fmt.Errorf("price bounds must not be negative")
	}
	if f.MaxPrice > 0 && f.MinPrice > f.MaxPrice {
		return fmt.Errorf("min_price %d is above max_price %d", f.MinPrice, f.MaxPrice)
	}
	for _, s := range f.TimeSlots {
		if _, ok := slotHours[strings.ToLower(s)]; !ok {
			return fmt.Errorf("unknown time slot %q", s)
		}
	}
	return nil
}

// Match reports whether t passes every non-empty criterion.
func (f TripFilter) Match(t model.Trip) bool {
	if t.PricePerSeat < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && t.PricePerSeat > f.MaxPrice {
		return false
	}
	if len(f.Operators) > 0 && !containsFold(f.Operators, t.Vehicle.Operator) {
		return false
	}
	if len(f.VehicleTypes) > 0 && !containsFold(f.VehicleTypes, t.Vehicle.VehicleType) {
		return false
	}
	if len(f.TimeSlots) > 0 {
		hour := t.DepartureAt.Hour()
		ok := false
		for _, s := range f.TimeSlots {
			if r, found := slotHours[strings.ToLower(s)]; found && hour >= r[0] && hour < r[1] {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
