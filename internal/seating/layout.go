// Package seating implements the seat inventory of a single minibus trip:
// the row layout of the vehicle, the status of each seat, the rules for
// toggling a seat in and out of a booking selection, and the price derived
// from that selection.  Everything in this package is pure; callers own the
// state and pass it in.
package seating

// SeatsPerRow is the number of seats across one minibus row: two on the
// left of the aisle and two on the right.
const SeatsPerRow = 4

// AisleAfter is the row position after which the aisle runs.  Positions
// 1..AisleAfter sit left of the aisle, the rest sit right of it.
const AisleAfter = 2

// Layout maps a vehicle capacity to its rows.  Seats are numbered
// 1..capacity row-major, SeatsPerRow per row; the last row holds only the
// remaining seats and is never padded.  A capacity below 1 yields no rows.
func Layout(capacity int) [][]int {
	if capacity < 1 {
		return [][]int{}
	}
	rows := (capacity + SeatsPerRow - 1) / SeatsPerRow
	out := make([][]int, 0, rows)
	for r := 0; r < rows; r++ {
		row := make([]int, 0, SeatsPerRow)
		for p := 0; p < SeatsPerRow; p++ {
			seat := r*SeatsPerRow + p + 1
			if seat > capacity {
				break
			}
			row = append(row, seat)
		}
		out = append(out, row)
	}
	return out
}

// RowOf returns the zero-based row index and one-based position of a seat
// within its row.  The seat is assumed to be in range.
func RowOf(seat int) (row, position int) {
	return (seat - 1) / SeatsPerRow, (seat-1)%SeatsPerRow + 1
}

// LeftOfAisle reports whether the seat sits on the left side of the aisle.
func LeftOfAisle(seat int) bool {
	_, pos := RowOf(seat)
	return pos <= AisleAfter
}
