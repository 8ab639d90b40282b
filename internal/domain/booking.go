package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCheckedIn BookingStatus = "CHECKED_IN"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

type CabinClass string

const (
	CabinClassEconomy  CabinClass = "economy"
	CabinClassBusiness CabinClass = "business"
	CabinClassFirst    CabinClass = "first"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Passenger struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	SeatNumber string     `json:"seat_number,omitempty"`
	CabinClass CabinClass `json:"cabin_class"`
}

type Pricing struct {
	BaseFare float64 `json:"base_fare"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
}

type Payment struct {
	TransactionID string        `json:"transaction_id"`
	Status        PaymentStatus `json:"status"`
}

type Booking struct {
	ID               string
	ConfirmationCode string
	CustomerID       string
	FlightID         string
	Passengers       []Passenger
	Pricing          Pricing
	Payment          Payment
	Status           BookingStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SeatCounts holds per-cabin seat numbers, either as availability reported by
// the flights service or as a tally of seats a booking occupies.
type SeatCounts struct {
	Economy  int `json:"economy"`
	Business int `json:"business"`
	First    int `json:"first"`
}

// TallySeats counts how many seats per cabin class a passenger list occupies.
func TallySeats(passengers []Passenger) SeatCounts {
	var counts SeatCounts
	for _, p := range passengers {
		switch p.CabinClass {
		case CabinClassEconomy:
			counts.Economy++
		case CabinClassBusiness:
			counts.Business++
		case CabinClassFirst:
			counts.First++
		}
	}
	return counts
}

// Covers reports whether every cabin class in need fits within c.
func (c SeatCounts) Covers(need SeatCounts) bool {
	return need.Economy <= c.Economy && need.Business <= c.Business && need.First <= c.First
}
