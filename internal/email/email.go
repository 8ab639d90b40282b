package email

import (
	"context"

	"github.com/chairlift/bookings-service/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers booking notifications. The transport is a stub; the worker
// logs what would be sent.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	logrus.WithFields(logrus.Fields{
		"customer_id":       event.CustomerID,
		"confirmation_code": event.ConfirmationCode,
		"event":             event.Type,
	}).Info("Sending booking notification email")
	return nil
}
