package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/chairlift/bookings-service/config"
	"github.com/chairlift/bookings-service/internal/domain"
	"github.com/sirupsen/logrus"
)

type Flight struct {
	FlightID       string            `json:"flight_id"`
	FlightNumber   string            `json:"flight_number"`
	AvailableSeats domain.SeatCounts `json:"available_seats"`
	Status         string            `json:"status"`
}

// FlightsClient talks to the flights service, which owns flight records and
// seat inventory.
type FlightsClient struct {
	http    *http.Client
	baseURL string
}

func NewFlightsClient(cfg config.UpstreamConfig) *FlightsClient {
	return &FlightsClient{
		http:    &http.Client{Timeout: cfg.Timeout()},
		baseURL: cfg.BaseURL,
	}
}

// GetFlight returns nil without error when the flight does not exist.
func (c *FlightsClient) GetFlight(ctx context.Context, flightID string) (*Flight, error) {
	var flight Flight
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/flights/%s", c.baseURL, flightID), &flight)
	if err != nil {
		return nil, fmt.Errorf("fetch flight %s: %w", flightID, err)
	}
	if !found {
		return nil, nil
	}
	return &flight, nil
}

// ReserveSeats deducts the given per-cabin counts from the flight's
// availability. The flights service rejects the update if it would drive any
// counter negative.
func (c *FlightsClient) ReserveSeats(ctx context.Context, flightID string, seats domain.SeatCounts) (*Flight, error) {
	logrus.WithFields(logrus.Fields{"flight_id": flightID, "seats": seats}).Info("Reserving seats")
	return c.updateSeats(ctx, flightID, domain.SeatCounts{
		Economy:  -seats.Economy,
		Business: -seats.Business,
		First:    -seats.First,
	})
}

// ReleaseSeats adds the given per-cabin counts back to the flight's availability.
func (c *FlightsClient) ReleaseSeats(ctx context.Context, flightID string, seats domain.SeatCounts) (*Flight, error) {
	logrus.WithFields(logrus.Fields{"flight_id": flightID, "seats": seats}).Info("Releasing seats")
	return c.updateSeats(ctx, flightID, seats)
}

func (c *FlightsClient) updateSeats(ctx context.Context, flightID string, delta domain.SeatCounts) (*Flight, error) {
	body, err := json.Marshal(delta)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/flights/%s/seats", c.baseURL, flightID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update seats for flight %s: %w", flightID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("update seats for flight %s: unexpected status %d", flightID, resp.StatusCode)
	}

	var envelope struct {
		Data Flight `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("update seats for flight %s: decode response: %w", flightID, err)
	}
	return &envelope.Data, nil
}

func (c *FlightsClient) getJSON(ctx context.Context, url string, out interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
