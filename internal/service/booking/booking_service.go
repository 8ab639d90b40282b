package booking

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chairlift/bookings-service/internal/clients"
	"github.com/chairlift/bookings-service/internal/domain"
	"github.com/chairlift/bookings-service/internal/kafka"
	"github.com/chairlift/bookings-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// Share of the booking total awarded (or clawed back) as loyalty points.
const loyaltyPointsRate = 0.10

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	CheckIn(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]domain.Booking, error)
	ListFlightBookings(ctx context.Context, flightID string) ([]domain.Booking, error)
}

type FlightsAPI interface {
	GetFlight(ctx context.Context, flightID string) (*clients.Flight, error)
	ReserveSeats(ctx context.Context, flightID string, seats domain.SeatCounts) (*clients.Flight, error)
	ReleaseSeats(ctx context.Context, flightID string, seats domain.SeatCounts) (*clients.Flight, error)
}

type CustomersAPI interface {
	GetCustomer(ctx context.Context, customerID string) (*clients.Customer, error)
	AdjustLoyaltyPoints(ctx context.Context, customerID string, adjustment clients.AdjustPointsRequest) (*clients.Customer, error)
}

type Cache interface {
	GetBookingID(ctx context.Context, code string) (string, error)
	SetBookingID(ctx context.Context, code, bookingID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings    repository.BookingRepository
	flights     FlightsAPI
	customers   CustomersAPI
	cache       Cache
	producer    Producer
	eventsTopic string
}

type CreateBookingInput struct {
	CustomerID string             `json:"customer_id"`
	FlightID   string             `json:"flight_id"`
	Passengers []domain.Passenger `json:"passengers"`
	Pricing    domain.Pricing     `json:"pricing"`
	Payment    domain.Payment     `json:"payment"`
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights FlightsAPI,
	customers CustomersAPI,
	cache Cache,
	producer Producer,
	eventsTopic string,
) *BookingService {
	return &BookingService{
		bookings:    bookings,
		flights:     flights,
		customers:   customers,
		cache:       cache,
		producer:    producer,
		eventsTopic: eventsTopic,
	}
}

// CreateBooking runs the create saga: validate customer and flight, check seat
// availability, persist the booking, reserve seats, then award loyalty points.
// The persisted booking is the commit point; a failed seat reservation rolls it
// back, while a failed loyalty award is logged and swallowed.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	log := logrus.WithFields(logrus.Fields{"customer_id": input.CustomerID, "flight_id": input.FlightID})

	customer, err := s.customers.GetCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}

	flight, err := s.flights.GetFlight(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, domain.ErrFlightNotFound
	}

	seatsNeeded := domain.TallySeats(input.Passengers)
	if !flight.AvailableSeats.Covers(seatsNeeded) {
		return nil, domain.ErrInsufficientInventory
	}

	booking, err := s.bookings.Create(ctx, repository.CreateBookingParams{
		CustomerID: input.CustomerID,
		FlightID:   input.FlightID,
		Passengers: input.Passengers,
		Pricing:    input.Pricing,
		Payment:    input.Payment,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.flights.ReserveSeats(ctx, input.FlightID, seatsNeeded); err != nil {
		log.WithError(err).Error("Failed to reserve seats, rolling back booking")
		if delErr := s.bookings.Delete(ctx, booking.ID); delErr != nil {
			log.WithError(delErr).Error("Rollback delete failed, booking may be orphaned")
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInventoryReservationFailed, err)
	}

	if customer.LoyaltyProgram != nil {
		points := loyaltyPoints(input.Pricing.Total)
		_, err := s.customers.AdjustLoyaltyPoints(ctx, input.CustomerID, clients.AdjustPointsRequest{
			Points:    points,
			Operation: clients.PointsAdd,
			Reason:    fmt.Sprintf("Booking %s", booking.ConfirmationCode),
		})
		if err != nil {
			log.WithError(err).Warn("Failed to award loyalty points, continuing anyway")
		}
	}

	if s.cache != nil {
		if err := s.cache.SetBookingID(ctx, booking.ConfirmationCode, booking.ID); err != nil {
			log.WithError(err).Warn("Failed to cache confirmation code")
		}
	}

	s.publish(ctx, "booking_created", booking)

	log.WithFields(logrus.Fields{"booking_id": booking.ID, "confirmation_code": booking.ConfirmationCode}).Info("Booking created")
	return booking, nil
}

// CancelBooking transitions a booking to CANCELLED, then releases its seats and
// deducts loyalty points. Both follow-up steps are best-effort: once the status
// write lands the cancellation stands, whatever the downstream services do.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	log := logrus.WithField("booking_id", bookingID)

	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if err := cancellable(current.Status); err != nil {
		return nil, err
	}

	cancelled, err := s.bookings.UpdateStatus(ctx, bookingID, current.Status, domain.BookingStatusCancelled)
	if err != nil {
		return nil, s.mapTransitionFailure(ctx, bookingID, "cancel", err)
	}

	seats := domain.TallySeats(cancelled.Passengers)
	if _, err := s.flights.ReleaseSeats(ctx, cancelled.FlightID, seats); err != nil {
		log.WithError(err).Error("Failed to release seats, but booking is cancelled")
	}

	_, err = s.customers.AdjustLoyaltyPoints(ctx, cancelled.CustomerID, clients.AdjustPointsRequest{
		Points:    loyaltyPoints(cancelled.Pricing.Total),
		Operation: clients.PointsSubtract,
		Reason:    fmt.Sprintf("Cancellation of booking %s", cancelled.ConfirmationCode),
	})
	if err != nil {
		log.WithError(err).Warn("Failed to deduct loyalty points, continuing anyway")
	}

	s.publish(ctx, "booking_cancelled", cancelled)

	log.Info("Booking cancelled")
	return cancelled, nil
}

// CheckIn moves a CONFIRMED booking to CHECKED_IN. Single-resource operation,
// no external calls.
func (s *BookingService) CheckIn(ctx context.Context, bookingID string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if current.Status != domain.BookingStatusConfirmed {
		return nil, &domain.InvalidTransitionError{Action: "check in", Status: current.Status}
	}

	checkedIn, err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusConfirmed, domain.BookingStatusCheckedIn)
	if err != nil {
		return nil, s.mapTransitionFailure(ctx, bookingID, "check in", err)
	}

	s.publish(ctx, "booking_checked_in", checkedIn)

	logrus.WithField("booking_id", bookingID).Info("Booking checked in")
	return checkedIn, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// GetByConfirmationCode resolves a booking through the code cache when
// possible, falling back to the store's confirmation-code index.
func (s *BookingService) GetByConfirmationCode(ctx context.Context, code string) (*domain.Booking, error) {
	if s.cache != nil {
		if id, err := s.cache.GetBookingID(ctx, code); err == nil && id != "" {
			if b, err := s.bookings.GetByID(ctx, id); err == nil && b != nil {
				return b, nil
			}
		}
	}

	b, err := s.bookings.GetByConfirmationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNotFound
	}
	if s.cache != nil {
		_ = s.cache.SetBookingID(ctx, code, b.ID)
	}
	return b, nil
}

func (s *BookingService) ListCustomerBookings(ctx context.Context, customerID string) ([]domain.Booking, error) {
	return s.bookings.GetByCustomerID(ctx, customerID)
}

func (s *BookingService) ListFlightBookings(ctx context.Context, flightID string) ([]domain.Booking, error) {
	return s.bookings.GetByFlightID(ctx, flightID)
}

func cancellable(status domain.BookingStatus) error {
	switch status {
	case domain.BookingStatusCancelled:
		return domain.ErrAlreadyCancelled
	case domain.BookingStatusCheckedIn:
		return &domain.InvalidTransitionError{Action: "cancel", Status: status}
	default:
		return nil
	}
}

// mapTransitionFailure turns a conditional-update miss into the deterministic
// failure for the state the booking actually reached. The store cannot tell a
// vanished row from a concurrent transition, so we re-read.
func (s *BookingService) mapTransitionFailure(ctx context.Context, bookingID, action string, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	current, readErr := s.bookings.GetByID(ctx, bookingID)
	if readErr != nil || current == nil {
		return domain.ErrNotFound
	}
	if action == "cancel" {
		if cErr := cancellable(current.Status); cErr != nil {
			return cErr
		}
	}
	return &domain.InvalidTransitionError{Action: action, Status: current.Status}
}

func loyaltyPoints(total float64) int {
	return int(math.Floor(total * loyaltyPointsRate))
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		CustomerID:       b.CustomerID,
		FlightID:         b.FlightID,
		Status:           string(b.Status),
		Total:            b.Pricing.Total,
	}
	if err := s.producer.Publish(ctx, s.eventsTopic, b.ID, event); err != nil {
		logrus.WithError(err).WithField("booking_id", b.ID).Warnf("Failed to publish %s event", eventType)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
