package seating

// DefaultMaxSelectable is the per-booking seat cap used when none is
// configured.
const DefaultMaxSelectable = 4

// SeatStatus is the derived state of one seat for one session.
type SeatStatus string

const (
	StatusAvailable SeatStatus = "available"
	StatusSelected  SeatStatus = "selected"
	StatusBooked    SeatStatus = "booked"
)

// Status resolves a seat's status.  Booked wins over selected, which wins
// over available, so a booked seat is never reported as selected.
func Status(seat int, booked, selected SeatSet) SeatStatus {
	if booked.Has(seat) {
		return StatusBooked
	}
	if selected.Has(seat) {
		return StatusSelected
	}
	return StatusAvailable
}

// Outcome describes what a toggle did.  Rejections are outcomes rather
// than errors so callers can warn the user without unwinding anything.
type Outcome string

const (
	OutcomeSelected              Outcome = "selected"
	OutcomeDeselected            Outcome = "deselected"
	OutcomeSeatUnavailable       Outcome = "seat_unavailable"
	OutcomeSelectionLimitReached Outcome = "selection_limit_reached"
)

// Applied reports whether the toggle changed the selection.
func (o Outcome) Applied() bool {
	return o == OutcomeSelected || o == OutcomeDeselected
}

// Toggle adds or removes seat from selected and returns the resulting set.
// The input set is never modified; on rejection the returned set is a copy
// equal to the input.
//
//   - a booked seat is rejected with OutcomeSeatUnavailable
//   - a selected seat is always removed
//   - an unselected seat is rejected with OutcomeSelectionLimitReached when
//     the selection already holds maxSelectable seats
//   - otherwise the seat is added
//
// A maxSelectable below 1 falls back to DefaultMaxSelectable.
func Toggle(seat int, selected, booked SeatSet, maxSelectable int) (SeatSet, Outcome) {
	if maxSelectable < 1 {
		maxSelectable = DefaultMaxSelectable
	}
	next := selected.Clone()
	switch Status(seat, booked, selected) {
	case StatusBooked:
		return next, OutcomeSeatUnavailable
	case StatusSelected:
		delete(next, seat)
		return next, OutcomeDeselected
	}
	if next.Len() >= maxSelectable {
		return next, OutcomeSelectionLimitReached
	}
	next[seat] = struct{}{}
	return next, OutcomeSelected
}

// Inventory binds the fixed inputs of one trip's seat map: the vehicle
// capacity, the booked-seat snapshot and the selection cap.  It is a value
// type; the booked set must not be mutated after construction.
type Inventory struct {
	Capacity      int
	Booked        SeatSet
	MaxSelectable int
}

// NewInventory builds an Inventory, dropping booked seat numbers that fall
// outside the vehicle.
func NewInventory(capacity int, booked []int, maxSelectable int) Inventory {
	set := make(SeatSet, len(booked))
	for _, n := range booked {
		if n >= 1 && n <= capacity {
			set[n] = struct{}{}
		}
	}
	if maxSelectable < 1 {
		maxSelectable = DefaultMaxSelectable
	}
	return Inventory{Capacity: capacity, Booked: set, MaxSelectable: maxSelectable}
}

// InRange reports whether seat exists in the vehicle.
func (inv Inventory) InRange(seat int) bool {
	return seat >= 1 && seat <= inv.Capacity
}

// Toggle applies the selection rules with the inventory's booked set and
// cap.  Seats outside the vehicle are rejected as unavailable.
func (inv Inventory) Toggle(seat int, selected SeatSet) (SeatSet, Outcome) {
	if !inv.InRange(seat) {
		return selected.Clone(), OutcomeSeatUnavailable
	}
	return Toggle(seat, selected, inv.Booked, inv.MaxSelectable)
}

// Available returns the number of seats that are not booked.
func (inv Inventory) Available() int {
	return inv.Capacity - inv.Booked.Len()
}

// SeatView is one cell of a rendered seat map.
type SeatView struct {
	Number      int        `json:"number"`
	Status      SeatStatus `json:"status"`
	LeftOfAisle bool       `json:"left_of_aisle"`
}

// SeatMap renders the layout with each seat's status for the given
// selection.
func (inv Inventory) SeatMap(selected SeatSet) [][]SeatView {
	layout := Layout(inv.Capacity)
	out := make([][]SeatView, 0, len(layout))
	for _, row := range layout {
		views := make([]SeatView, 0, len(row))
		for _, n := range row {
			views = append(views, SeatView{
				Number:      n,
				Status:      Status(n, inv.Booked, selected),
				LeftOfAisle: LeftOfAisle(n),
			})
		}
		out = append(out, views)
	}
	return out
}
