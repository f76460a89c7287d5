package booking

import "strings"

// Passenger is the traveller assigned to one seat of a booking.  Name and
// Phone are required; Email is optional.
type Passenger struct {
	SeatNumber int    `json:"seat_number"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
}

func (p Passenger) normalized() Passenger {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	return p
}

// AssignPassengers matches a submission against the checkout seats and
// returns one trimmed passenger per seat, in seat order.  Passengers that
// carry no seat number are assigned positionally when every passenger
// omits it and the counts match.  All problems are collected into a
// single *ValidationError.
func AssignPassengers(seats []int, submitted []Passenger) ([]Passenger, error) {
	positional := len(submitted) == len(seats)
	for _, p := range submitted {
		if p.SeatNumber != 0 {
			positional = false
			break
		}
	}

	bySeat := make(map[int]Passenger, len(submitted))
	var problems []FieldProblem
	if positional {
		for i, p := range submitted {
			p.SeatNumber = seats[i]
			bySeat[seats[i]] = p
		}
	} else {
		want := make(map[int]bool, len(seats))
		for _, s := range seats {
			want[s] = true
		}
		for i, p := range submitted {
			switch {
			case !want[p.SeatNumber]:
				problems = append(problems, FieldProblem{Passenger: i + 1, SeatNumber: p.SeatNumber, Field: "seat_number", Reason: "is not part of this booking"})
			case hasSeat(bySeat, p.SeatNumber):
				problems = append(problems, FieldProblem{Passenger: i + 1, SeatNumber: p.SeatNumber, Field: "seat_number", Reason: "is assigned more than once"})
			default:
				bySeat[p.SeatNumber] = p
			}
		}
	}

	out := make([]Passenger, 0, len(seats))
	for i, seat := range seats {
		p, ok := bySeat[seat]
		if !ok {
			problems = append(problems, FieldProblem{Passenger: i + 1, SeatNumber: seat, Field: "passenger", Reason: "is missing"})
			continue
		}
		p = p.normalized()
		if p.Name == "" {
			problems = append(problems, FieldProblem{Passenger: i + 1, SeatNumber: seat, Field: "name", Reason: "is required"})
		}
		if p.Phone == "" {
			problems = append(problems, FieldProblem{Passenger: i + 1, SeatNumber: seat, Field: "phone", Reason: "is required"})
		}
		out = append(out, p)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

func hasSeat(m map[int]Passenger, seat int) bool {
	_, ok := m[seat]
	return ok
}
