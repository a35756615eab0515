// ReplayRhythms - Rocket League Replay Analysis and Music Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/replayrhythms

package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/tomtom215/replayrhythms/internal/database"
	"github.com/tomtom215/replayrhythms/internal/models"
)

const testSecret = "whsec_test"

type fakeAPI struct {
	sessionParams *stripe.CheckoutSessionParams
	sub           *stripe.Subscription
	err           error
}

func (f *fakeAPI) NewCheckoutSession(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.sessionParams = p
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil
}

func (f *fakeAPI) GetSubscription(id string, _ *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sub, nil
}

type fakeStore struct {
	upserted []*models.Subscription
	existing map[string]*models.Subscription
	ended    map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: map[string]*models.Subscription{}, ended: map[string]string{}}
}

func (s *fakeStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.upserted = append(s.upserted, sub)
	return nil
}

func (s *fakeStore) GetSubscription(_ context.Context, id string) (*models.Subscription, error) {
	if sub, ok := s.existing[id]; ok {
		return sub, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeStore) EndSubscription(_ context.Context, id, status string, _ time.Time) error {
	if _, ok := s.existing[id]; !ok {
		return database.ErrNotFound
	}
	s.ended[id] = status
	return nil
}

func signedEvent(t *testing.T, payload string) (body []byte, header string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestCreateCheckoutSession(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	svc := newService(api, newFakeStore(), testSecret, "price_123", "https://app.example/")

	sess, err := svc.CreateCheckoutSession(context.Background(), "user-1", "a@b.c")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if sess.ID != "cs_1" || sess.URL == "" {
		t.Errorf("session = %+v", sess)
	}

	p := api.sessionParams
	if *p.Mode != "subscription" || *p.LineItems[0].Price != "price_123" || *p.LineItems[0].Quantity != 1 {
		t.Errorf("params = %+v", p)
	}
	if *p.SuccessURL != "https://app.example/payment/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("success url = %s", *p.SuccessURL)
	}
	if *p.CancelURL != "https://app.example/payment/cancel" || *p.CustomerEmail != "a@b.c" {
		t.Errorf("cancel=%s email=%s", *p.CancelURL, *p.CustomerEmail)
	}
	if p.Metadata["userId"] != "user-1" {
		t.Errorf("metadata = %v", p.Metadata)
	}
}

func TestCreateCheckoutSession_NotConfigured(t *testing.T) {
	t.Parallel()

	svc := newService(nil, newFakeStore(), "", "", "")
	if _, err := svc.CreateCheckoutSession(context.Background(), "u", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v", err)
	}
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeAPI{}, newFakeStore(), testSecret, "", "")
	_, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidWebhook) {
		t.Errorf("err = %v, want ErrInvalidWebhook", err)
	}
}

func TestHandleWebhook_CheckoutCompleted(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sub: &stripe.Subscription{
		ID:               "sub_1",
		Status:           stripe.SubscriptionStatusActive,
		Created:          1700000000,
		CurrentPeriodEnd: 1702592000,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			Price:    &stripe.Price{ID: "price_123"},
			Quantity: 1,
		}}},
	}}
	store := newFakeStore()
	svc := newService(api, store, testSecret, "price_123", "")

	body, header := signedEvent(t, `{"id":"evt_1","object":"event","type":"checkout.session.completed",
		"data":{"object":{"id":"cs_1","object":"checkout.session","subscription":"sub_1","metadata":{"userId":"user-1"}}}}`)

	typ, err := svc.HandleWebhook(context.Background(), body, header)
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if typ != "checkout.session.completed" {
		t.Errorf("type = %s", typ)
	}
	if len(store.upserted) != 1 {
		t.Fatalf("upserted = %d", len(store.upserted))
	}
	got := store.upserted[0]
	if got.ID != "sub_1" || got.UserID != "user-1" || got.Status != "active" {
		t.Errorf("subscription = %+v", got)
	}
	if got.PriceID == nil || *got.PriceID != "price_123" || got.Quantity == nil || *got.Quantity != 1 {
		t.Errorf("item fields = %+v", got)
	}
	if got.CurrentPeriodEnd == nil || got.CurrentPeriodEnd.Unix() != 1702592000 || got.CancelAt != nil {
		t.Errorf("times = %+v", got)
	}
}

func TestHandleWebhook_SubscriptionUpdatedUsesExistingUser(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.existing["sub_1"] = &models.Subscription{ID: "sub_1", UserID: "user-9"}
	svc := newService(&fakeAPI{}, store, testSecret, "", "")

	body, header := signedEvent(t, `{"id":"evt_2","object":"event","type":"customer.subscription.updated",
		"data":{"object":{"id":"sub_1","object":"subscription","status":"past_due","cancel_at_period_end":true}}}`)

	if _, err := svc.HandleWebhook(context.Background(), body, header); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(store.upserted) != 1 || store.upserted[0].UserID != "user-9" || !store.upserted[0].CancelAtPeriodEnd {
		t.Errorf("upserted = %+v", store.upserted)
	}
}

func TestHandleWebhook_SubscriptionDeleted(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.existing["sub_1"] = &models.Subscription{ID: "sub_1", UserID: "user-1"}
	svc := newService(&fakeAPI{}, store, testSecret, "", "")

	body, header := signedEvent(t, `{"id":"evt_3","object":"event","type":"customer.subscription.deleted",
		"data":{"object":{"id":"sub_1","object":"subscription","status":"canceled"}}}`)

	if _, err := svc.HandleWebhook(context.Background(), body, header); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if store.ended["sub_1"] != "canceled" {
		t.Errorf("ended = %v", store.ended)
	}
}

func TestHandleWebhook_OtherEventsAcknowledged(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeAPI{}, newFakeStore(), testSecret, "", "")
	body, header := signedEvent(t, `{"id":"evt_4","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)

	typ, err := svc.HandleWebhook(context.Background(), body, header)
	if err != nil || typ != "invoice.paid" {
		t.Errorf("HandleWebhook = %q, %v", typ, err)
	}
}
