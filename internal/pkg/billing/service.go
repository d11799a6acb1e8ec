package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trendhack/dashboard/app/models"
	"github.com/trendhack/dashboard/app/repository"
	"github.com/trendhack/dashboard/internal/pkg/realtime"
)

var ErrMissingCheckoutFields = errors.New("missing priceId or userId")

// CheckoutCreator is the part of StripeClient the service uses.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error)
}

// MetricsRefresher schedules a recompute of a user's dashboard counters.
type MetricsRefresher interface {
	EnqueueRefreshMetrics(ctx context.Context, userID uint) error
}

// CheckoutRequest is the JSON body of the checkout endpoint.
type CheckoutRequest struct {
	PriceID       string `json:"priceId"`
	UserID        string `json:"userId"`
	CustomerEmail string `json:"customerEmail"`
}

// Service opens checkouts and records the payments reported back by the processor.
type Service struct {
	checkout  CheckoutCreator
	payments  repository.PaymentRepository
	publisher realtime.Publisher
	metrics   MetricsRefresher
}

func NewService(checkout CheckoutCreator, payments repository.PaymentRepository, publisher realtime.Publisher, metrics MetricsRefresher) *Service {
	return &Service{checkout: checkout, payments: payments, publisher: publisher, metrics: metrics}
}

// SuccessURL and CancelURL are where Stripe sends the browser back to.
func SuccessURL(origin string) string {
	return strings.TrimRight(origin, "/") + "/dashboard/planos?success=true&session_id={CHECKOUT_SESSION_ID}"
}

func CancelURL(origin string) string {
	return strings.TrimRight(origin, "/") + "/dashboard/planos?canceled=true"
}

// Checkout returns the hosted checkout url for in.
func (s *Service) Checkout(ctx context.Context, origin string, in CheckoutRequest) (string, error) {
	priceID := strings.TrimSpace(in.PriceID)
	userID := strings.TrimSpace(in.UserID)
	if priceID == "" || userID == "" {
		return "", ErrMissingCheckoutFields
	}

	session, err := s.checkout.CreateCheckoutSession(ctx, CheckoutParams{
		PriceID:       priceID,
		UserID:        userID,
		CustomerEmail: strings.TrimSpace(in.CustomerEmail),
		SuccessURL:    SuccessURL(origin),
		CancelURL:     CancelURL(origin),
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	log.Infof("[Billing] Checkout session %s created for user %s", session.ID, userID)
	return session.URL, nil
}

// RecordPayment stores a processor-reported payment. Replays of the same
// reference never grant gemas twice.
func (s *Service) RecordPayment(ctx context.Context, payment *models.Payment) (*repository.PaymentResult, error) {
	payment.Reference = strings.TrimSpace(payment.Reference)

	res, err := s.payments.Record(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("record payment %q: %w", payment.Reference, err)
	}
	if res.Granted {
		log.Infof("[Billing] Granted %d gemas to user %d for payment %s", res.Payment.Gemas, res.Payment.UserID, res.Payment.Reference)
	}

	action := realtime.ActionUpdate
	if res.Created {
		action = realtime.ActionInsert
	}
	evt := realtime.Event{Table: realtime.TablePayments, Action: action, RowID: res.Payment.ID}
	if err := s.publisher.Publish(ctx, res.Payment.UserID, evt); err != nil {
		log.Warnf("[Billing] Realtime publish for payment %d failed: %v", res.Payment.ID, err)
	}
	if err := s.metrics.EnqueueRefreshMetrics(ctx, res.Payment.UserID); err != nil {
		log.Warnf("[Billing] Metrics refresh for user %d not queued: %v", res.Payment.UserID, err)
	}
	return res, nil
}
