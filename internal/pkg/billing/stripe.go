// Package billing opens Stripe checkouts and records the payments the
// processor reports back.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trendhack/dashboard/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// ErrStripeNotConfigured is returned when STRIPE_SECRET_KEY is empty.
var ErrStripeNotConfigured = errors.New("STRIPE_SECRET_KEY is not configured")

type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

// CheckoutParams describes a one-plan subscription checkout.
type CheckoutParams struct {
	PriceID       string
	UserID        string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// StripeError is the error object of a non-2xx Stripe response.
type StripeError struct {
	StatusCode int
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *StripeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("stripe request failed: status=%d", e.StatusCode)
}

func NewStripeClientFromEnv() (*StripeClient, error) {
	key := strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", ""))
	if key == "" {
		return nil, ErrStripeNotConfigured
	}
	return &StripeClient{
		SecretKey:  key,
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// CreateCheckoutSession opens a hosted subscription checkout for one unit of
// the price. Every call carries a fresh idempotency key.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, ErrStripeNotConfigured
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("payment_method_types[0]", "card")
	form.Set("line_items[0][price]", p.PriceID)
	form.Set("line_items[0][quantity]", strconv.Itoa(1))
	form.Set("metadata[userId]", p.UserID)
	if p.CustomerEmail != "" {
		form.Set("customer_email", p.CustomerEmail)
	}
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/checkout/sessions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var wrapped struct {
			Error StripeError `json:"error"`
		}
		_ = json.Unmarshal(body, &wrapped)
		wrapped.Error.StatusCode = resp.StatusCode
		return nil, &wrapped.Error
	}

	var out CheckoutSession
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, errors.New("stripe checkout session returned empty url")
	}
	return &out, nil
}
