package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/chairlift/bookings-service/internal/domain"
	"github.com/chairlift/bookings-service/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingResponse struct {
	BookingID        string             `json:"booking_id"`
	ConfirmationCode string             `json:"confirmation_code"`
	CustomerID       string             `json:"customer_id"`
	FlightID         string             `json:"flight_id"`
	Passengers       []domain.Passenger `json:"passengers"`
	Pricing          domain.Pricing     `json:"pricing"`
	Payment          domain.Payment     `json:"payment"`
	Status           string             `json:"status"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings/:id", h.get)
	router.DELETE("/bookings/:id", h.cancel)
	router.POST("/bookings/:id/check-in", h.checkIn)
	router.GET("/confirmations/:code", h.getByConfirmation)
	router.GET("/customers/:customerId/bookings", h.listForCustomer)
	router.GET("/flights/:flightId/bookings", h.listForFlight)
}

func (h *BookingHandler) create(c *gin.Context) {
	var input booking.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if n := len(input.Passengers); n < 1 || n > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passengers must contain between 1 and 10 entries"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(created))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) getByConfirmation(c *gin.Context) {
	b, err := h.service.GetByConfirmationCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) listForCustomer(c *gin.Context) {
	bookings, err := h.service.ListCustomerBookings(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": responses})
}

func (h *BookingHandler) listForFlight(c *gin.Context) {
	bookings, err := h.service.ListFlightBookings(c.Request.Context(), c.Param("flightId"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		responses = append(responses, toResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": responses})
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	b, err := h.service.CheckIn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(b))
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFromError(err), gin.H{"error": err.Error()})
}

func statusFromError(err error) int {
	var transitionErr *domain.InvalidTransitionError
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrFlightNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientInventory),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.As(err, &transitionErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInventoryReservationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func toResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:        b.ID,
		ConfirmationCode: b.ConfirmationCode,
		CustomerID:       b.CustomerID,
		FlightID:         b.FlightID,
		Passengers:       b.Passengers,
		Pricing:          b.Pricing,
		Payment:          b.Payment,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        b.UpdatedAt.Format(time.RFC3339),
	}
}
