package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chairlift/bookings-service/config"
	"github.com/sirupsen/logrus"
)

type LoyaltyProgram struct {
	MembershipNumber string `json:"membership_number"`
	Tier             string `json:"tier"`
	Points           int    `json:"points"`
}

type Customer struct {
	CustomerID     string          `json:"customer_id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Email          string          `json:"email"`
	LoyaltyProgram *LoyaltyProgram `json:"loyalty_program,omitempty"`
}

type PointsOperation string

const (
	PointsAdd      PointsOperation = "add"
	PointsSubtract PointsOperation = "subtract"
)

type AdjustPointsRequest struct {
	Points    int             `json:"points"`
	Operation PointsOperation `json:"operation"`
	Reason    string          `json:"reason"`
}

// CustomersClient talks to the customers service, which owns customer records
// and loyalty balances.
type CustomersClient struct {
	http    *http.Client
	baseURL string
}

func NewCustomersClient(cfg config.UpstreamConfig) *CustomersClient {
	return &CustomersClient{
		http:    &http.Client{Timeout: cfg.Timeout()},
		baseURL: cfg.BaseURL,
	}
}

// GetCustomer returns nil without error when the customer does not exist.
func (c *CustomersClient) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/customers/%s", c.baseURL, customerID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch customer %s: %w", customerID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("fetch customer %s: unexpected status %d", customerID, resp.StatusCode)
	}

	var envelope struct {
		Data Customer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("fetch customer %s: decode response: %w", customerID, err)
	}
	return &envelope.Data, nil
}

// AdjustLoyaltyPoints adds or subtracts points from a customer's balance.
func (c *CustomersClient) AdjustLoyaltyPoints(ctx context.Context, customerID string, adjustment AdjustPointsRequest) (*Customer, error) {
	logrus.WithFields(logrus.Fields{
		"customer_id": customerID,
		"points":      adjustment.Points,
		"operation":   adjustment.Operation,
	}).Info("Adjusting loyalty points")

	body, err := json.Marshal(adjustment)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/customers/%s/loyalty-points", c.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adjust loyalty points for customer %s: %w", customerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("adjust loyalty points for customer %s: unexpected status %d", customerID, resp.StatusCode)
	}

	var envelope struct {
		Data Customer `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("adjust loyalty points for customer %s: decode response: %w", customerID, err)
	}
	return &envelope.Data, nil
}
