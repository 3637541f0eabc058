/**
 * @description
 * This package provides a client for the external card-payment gateway used
 * to buy coins. It encapsulates the logic for making authenticated HTTP
 * requests to the gateway, handling request body construction, and parsing
 * responses.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client is a client for the payment gateway API.
type Client struct {
	BaseURL    string
	APIKey     string
	Currency   string
	HTTPClient *http.Client
}

// NewClient creates a new payment gateway client.
func NewClient(baseURL, apiKey, currency string) *Client {
	if currency == "" {
		currency = "usd"
	}
	return &Client{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Currency: currency,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Intent is a payment intent opened with the gateway. The client secret is
// handed to the frontend to complete the charge.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

type intentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// ErrorResponse represents an error from the gateway API.
type ErrorResponse struct {
	Err struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *ErrorResponse) Error() string {
	if e.Err.Message != "" {
		return fmt.Sprintf("payment gateway error: %s - %s", e.Err.Code, e.Err.Message)
	}
	return "unknown payment gateway error"
}

// CreateIntent opens a payment intent for the given amount in minor
// currency units.
func (c *Client) CreateIntent(ctx context.Context, amount int64) (*Intent, error) {
	body, err := json.Marshal(intentRequest{Amount: amount, Currency: c.Currency})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/payment_intents", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create intent request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute intent request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read intent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=payments_client op=create_intent status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=payments_client op=create_intent status=%d code=%q message=%q", resp.StatusCode, errResp.Err.Code, errResp.Err.Message)
		return nil, &errResp
	}

	var intent Intent
	if err := json.Unmarshal(bodyBytes, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode success response: %w", err)
	}
	return &intent, nil
}
