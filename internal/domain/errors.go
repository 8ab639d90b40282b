package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                   = errors.New("booking not found")
	ErrCustomerNotFound           = errors.New("customer not found")
	ErrFlightNotFound             = errors.New("flight not found")
	ErrInsufficientInventory      = errors.New("insufficient seats available")
	ErrInventoryReservationFailed = errors.New("failed to reserve seats")
	ErrAlreadyCancelled           = errors.New("booking is already cancelled")
)

// InvalidTransitionError is returned when a lifecycle operation is applied to a
// booking whose current status does not permit it.
type InvalidTransitionError struct {
	Action string
	Status BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.Status == BookingStatusCheckedIn && e.Action == "cancel" {
		return "cannot cancel a checked-in booking"
	}
	return fmt.Sprintf("cannot %s booking with status: %s", e.Action, e.Status)
}
