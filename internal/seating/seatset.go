package seating

import (
	"encoding/json"
	"sort"
)

// SeatSet is an unordered set of seat numbers.  Listing helpers always
// return seats in ascending order so that every display site agrees.
// The zero value (nil) is an empty set and is safe to read from.
type SeatSet map[int]struct{}

// NewSeatSet builds a set from the given seat numbers.  Duplicates are
// collapsed.
func NewSeatSet(seats ...int) SeatSet {
	s := make(SeatSet, len(seats))
	for _, n := range seats {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether seat is a member of the set.
func (s SeatSet) Has(seat int) bool {
	_, ok := s[seat]
	return ok
}

// Len returns the number of seats in the set.
func (s SeatSet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s SeatSet) Clone() SeatSet {
	out := make(SeatSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Sorted lists the seats in ascending numeric order.  An empty set yields
// an empty, non-nil slice so JSON encodes it as [].
func (s SeatSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// MarshalJSON encodes the set as an ascending JSON array.
func (s SeatSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of seat numbers.
func (s *SeatSet) UnmarshalJSON(b []byte) error {
	var seats []int
	if err := json.Unmarshal(b, &seats); err != nil {
		return err
	}
	*s = NewSeatSet(seats...)
	return nil
}
