// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

// Package billing creates Stripe checkout sessions and mirrors subscription
// webhooks into the subscriptions table.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/tomtom215/replayrhythms/internal/config"
	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/logging"
	"github.com/tomtom215/replayrhythms/internal/models"
)

// MetadataUserID is the metadata key carrying the ReplayRhythms user id.
const MetadataUserID = "userId"

var (
	// ErrNotConfigured is returned when STRIPE_SECRET_KEY is not set.
	ErrNotConfigured = errors.New("Stripe is not configured") //nolint:staticcheck // user-facing message

	// ErrInvalidWebhook wraps signature and payload errors of incoming webhooks.
	ErrInvalidWebhook = errors.New("invalid webhook")
)

// API is the subset of the Stripe API used by Service.
type API interface {
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// SubscriptionStore persists subscriptions. *database.DB satisfies it.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, s *models.Subscription) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	EndSubscription(ctx context.Context, id, status string, endedAt time.Time) error
}

type stripeAPI struct {
	sc *client.API
}

func (a *stripeAPI) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return a.sc.CheckoutSessions.New(params)
}

func (a *stripeAPI) GetSubscription(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	return a.sc.Subscriptions.Get(id, params)
}

// CheckoutSession is returned to the browser for redirecting to Stripe.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Service wires Stripe to the subscriptions table.
type Service struct {
	api           API
	store         SubscriptionStore
	webhookSecret string
	priceID       string
	appURL        string
	now           func() time.Time
}

// NewService returns a service backed by the real Stripe API. When no secret
// key is configured every call returns ErrNotConfigured.
func NewService(cfg *config.StripeConfig, appURL string, store SubscriptionStore) *Service {
	var api API
	if cfg.Enabled() {
		sc := &client.API{}
		sc.Init(cfg.SecretKey, nil)
		api = &stripeAPI{sc: sc}
	}
	return newService(api, store, cfg.WebhookSecret, cfg.PriceID, appURL)
}

func newService(api API, store SubscriptionStore, webhookSecret, priceID, appURL string) *Service {
	return &Service{
		api:           api,
		store:         store,
		webhookSecret: webhookSecret,
		priceID:       priceID,
		appURL:        strings.TrimRight(appURL, "/"),
		now:           time.Now,
	}
}

// Configured reports whether the Stripe API is available.
func (s *Service) Configured() bool {
	return s.api != nil
}

// CreateCheckoutSession starts a subscription checkout for one seat of the
// configured price.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID, email string) (*CheckoutSession, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(s.priceID),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(s.appURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.appURL + "/payment/cancel"),
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata(MetadataUserID, userID)
	params.Context = ctx

	sess, err := s.api.NewCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and applies a Stripe event. It returns the event
// type. Verification failures wrap ErrInvalidWebhook.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}

	eventType := string(event.Type)
	logger := logging.Ctx(ctx).With().Str("event_id", event.ID).Str("event_type", eventType).Logger()

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return eventType, fmt.Errorf("%w: failed to parse checkout session: %w", ErrInvalidWebhook, err)
		}
		return eventType, s.checkoutCompleted(ctx, &sess)

	case stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return eventType, fmt.Errorf("%w: failed to parse subscription: %w", ErrInvalidWebhook, err)
		}
		return eventType, s.subscriptionUpdated(ctx, &sub)

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return eventType, fmt.Errorf("%w: failed to parse subscription: %w", ErrInvalidWebhook, err)
		}
		if err := s.store.EndSubscription(ctx, sub.ID, string(sub.Status), s.now()); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				logger.Warn().Str("subscription_id", sub.ID).Msg("Deleted subscription is not tracked")
				return eventType, nil
			}
			return eventType, fmt.Errorf("failed to end subscription: %w", err)
		}
		logger.Info().Str("subscription_id", sub.ID).Msg("Subscription ended")
		return eventType, nil

	default:
		logger.Debug().Msg("Ignoring Stripe event")
		return eventType, nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Subscription == nil || sess.Subscription.ID == "" {
		logging.Ctx(ctx).Warn().Str("session_id", sess.ID).Msg("Checkout session has no subscription")
		return nil
	}
	userID := sess.Metadata[MetadataUserID]
	if userID == "" {
		logging.Ctx(ctx).Warn().Str("session_id", sess.ID).Msg("Checkout session has no user id")
		return nil
	}
	if !s.Configured() {
		return ErrNotConfigured
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := s.api.GetSubscription(sess.Subscription.ID, params)
	if err != nil {
		return fmt.Errorf("failed to retrieve subscription %s: %w", sess.Subscription.ID, err)
	}
	if err := s.store.UpsertSubscription(ctx, s.toModel(sub, userID)); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	logging.Ctx(ctx).Info().Str("subscription_id", sub.ID).Str("user_id", userID).Msg("Subscription created")
	return nil
}

func (s *Service) subscriptionUpdated(ctx context.Context, sub *stripe.Subscription) error {
	userID := sub.Metadata[MetadataUserID]
	if userID == "" {
		existing, err := s.store.GetSubscription(ctx, sub.ID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			logging.Ctx(ctx).Warn().Str("subscription_id", sub.ID).Msg("Updated subscription has no known user")
			return nil
		case err != nil:
			return fmt.Errorf("failed to load subscription: %w", err)
		}
		userID = existing.UserID
	}
	if err := s.store.UpsertSubscription(ctx, s.toModel(sub, userID)); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// toModel maps a Stripe subscription onto the stored row.
func (s *Service) toModel(sub *stripe.Subscription, userID string) *models.Subscription {
	m := &models.Subscription{
		ID:                 sub.ID,
		UserID:             userID,
		Status:             string(sub.Status),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CancelAt:           unixTime(sub.CancelAt),
		CanceledAt:         unixTime(sub.CanceledAt),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		EndedAt:            unixTime(sub.EndedAt),
	}
	if sub.Created > 0 {
		m.CreatedAt = time.Unix(sub.Created, 0).UTC()
	} else {
		m.CreatedAt = s.now().UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil && item.Price.ID != "" {
			m.PriceID = &item.Price.ID
		}
		q := item.Quantity
		m.Quantity = &q
	}
	return m
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
