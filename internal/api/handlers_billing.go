// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/tomtom215/replayrhythms/internal/billing"
	"github.com/tomtom215/replayrhythms/internal/logging"
)

// maxWebhookBodySize matches the limit Stripe documents for event payloads.
const maxWebhookBodySize = 64 << 10

type checkoutRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

// StripeCheckoutSession starts a subscription checkout for the caller.
//
// POST /api/stripe/checkout-session
func (h *Handler) StripeCheckoutSession(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	user, ok := currentUser(rw, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}
	if !h.billing.Configured() {
		rw.ServiceUnavailable(billing.ErrNotConfigured.Error())
		return
	}

	email := req.Email
	if email == "" {
		email = user.Email
	}

	sess, err := h.billing.CreateCheckoutSession(r.Context(), user.ID, email)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("user_id", logging.SanitizeUserID(user.ID)).
			Msg("Checkout session creation failed")
		rw.InternalError("Error creating checkout session")
		return
	}
	rw.Success(map[string]interface{}{"session": sess})
}

// StripeWebhook verifies and applies a Stripe event. The body is read raw
// because the signature covers the exact bytes.
//
// POST /api/webhooks/stripe
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		rw.BadRequest("Webhook Error: failed to read body")
		return
	}

	eventType, err := h.billing.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
	case errors.Is(err, billing.ErrInvalidWebhook):
		h.security.LogWebhookRejected("stripe", r.RemoteAddr, err.Error())
		rw.BadRequest("Webhook Error: " + err.Error())
		return
	case errors.Is(err, billing.ErrNotConfigured):
		rw.ServiceUnavailable(billing.ErrNotConfigured.Error())
		return
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("event_type", eventType).Msg("Webhook handling failed")
		rw.InternalError("Webhook handler failed")
		return
	}

	logging.Ctx(r.Context()).Info().Str("event_type", eventType).Msg("Stripe webhook processed")
	rw.Success(map[string]bool{"received": true})
}
