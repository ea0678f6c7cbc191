package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/entitlekit/pkg/billing"
	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/lifecycle"
)

const webhookSecret = "pdl_ntfset_test_secret"

// signPayload produces a Paddle-Signature header for the payload: an
// HMAC-SHA256 over "<ts>:<body>" keyed with the webhook secret.
func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d:%s", ts, payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newGateway(t *testing.T) *billing.PaddleGateway {
	t.Helper()

	gateway, err := billing.NewPaddleGateway(billing.Config{
		APIKey:        "pdl_sdbx_apikey_test",
		WebhookSecret: webhookSecret,
		Environment:   "sandbox",
	}, billing.MustNewPlanMap(testPlans()))
	require.NoError(t, err)
	return gateway
}

func TestVerifyAndParseEvent(t *testing.T) {
	t.Parallel()

	t.Run("subscription created becomes checkout completed", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_01",
			"event_type": "subscription.created",
			"occurred_at": "2026-07-01T12:00:00Z",
			"data": {
				"id": "sub_01",
				"status": "active",
				"customer_id": "ctm_01",
				"current_billing_period": {
					"starts_at": "2026-07-01T12:00:00Z",
					"ends_at": "2026-08-01T12:00:00Z"
				},
				"items": [{"price": {"id": "pri_pro_monthly"}}]
			}
		}`)

		event, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		require.NoError(t, err)

		checkout, ok := event.(*lifecycle.CheckoutCompleted)
		require.True(t, ok, "expected CheckoutCompleted, got %T", event)
		assert.Equal(t, "evt_01", checkout.EventID)
		assert.Equal(t, "sub_01", checkout.SubscriptionRef)
		assert.Equal(t, "ctm_01", checkout.CustomerRef)
		assert.Equal(t, catalog.TierPro, checkout.Tier)
		assert.Equal(t, catalog.CycleMonthly, checkout.Cycle)
		require.NotNil(t, checkout.PeriodEnd)
		assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), *checkout.PeriodEnd)
	})

	t.Run("subscription updated maps status and plan change", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_02",
			"event_type": "subscription.updated",
			"occurred_at": "2026-07-05T08:00:00Z",
			"data": {
				"id": "sub_01",
				"status": "past_due",
				"customer_id": "ctm_01",
				"items": [{"price": {"id": "pri_plus_monthly"}}]
			}
		}`)

		event, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		require.NoError(t, err)

		updated, ok := event.(*lifecycle.SubscriptionUpdated)
		require.True(t, ok, "expected SubscriptionUpdated, got %T", event)
		assert.Equal(t, lifecycle.StatusPastDue, updated.Status)
		require.NotNil(t, updated.NewTier)
		assert.Equal(t, catalog.TierPlus, *updated.NewTier)
	})

	t.Run("paused maps to unpaid", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_03",
			"event_type": "subscription.paused",
			"occurred_at": "2026-07-06T08:00:00Z",
			"data": {"id": "sub_01", "status": "paused", "customer_id": "ctm_01"}
		}`)

		event, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		require.NoError(t, err)

		updated, ok := event.(*lifecycle.SubscriptionUpdated)
		require.True(t, ok)
		assert.Equal(t, lifecycle.StatusUnpaid, updated.Status)
		assert.Nil(t, updated.NewTier, "no plan change without a mapped price")
	})

	t.Run("subscription canceled", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_04",
			"event_type": "subscription.canceled",
			"occurred_at": "2026-07-07T08:00:00Z",
			"data": {"id": "sub_01", "status": "canceled", "customer_id": "ctm_01"}
		}`)

		event, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		require.NoError(t, err)
		assert.IsType(t, &lifecycle.SubscriptionCancelled{}, event)
	})

	t.Run("payment failed resolves subscription from transaction", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_05",
			"event_type": "transaction.payment_failed",
			"occurred_at": "2026-07-08T08:00:00Z",
			"data": {"id": "txn_01", "subscription_id": "sub_01", "customer_id": "ctm_01"}
		}`)

		event, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		require.NoError(t, err)

		failed, ok := event.(*lifecycle.PaymentFailed)
		require.True(t, ok)
		assert.Equal(t, "sub_01", failed.SubscriptionRef)
	})

	t.Run("untranslated event type is reported as unsupported", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_06",
			"event_type": "address.created",
			"occurred_at": "2026-07-09T08:00:00Z",
			"data": {"id": "add_01"}
		}`)

		_, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		assert.ErrorIs(t, err, lifecycle.ErrUnsupportedEvent)
	})

	t.Run("unmapped price on signup is malformed", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{
			"event_id": "evt_07",
			"event_type": "subscription.created",
			"occurred_at": "2026-07-10T08:00:00Z",
			"data": {"id": "sub_02", "status": "active", "customer_id": "ctm_02",
				"items": [{"price": {"id": "pri_retired"}}]}
		}`)

		_, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, signPayload(payload))
		assert.ErrorIs(t, err, lifecycle.ErrMalformedEvent)
		assert.ErrorIs(t, err, billing.ErrPriceNotMapped)
	})

	t.Run("tampered payload fails verification", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{"event_id":"evt_08","event_type":"subscription.canceled","data":{"id":"sub_01"}}`)
		signature := signPayload(payload)
		tampered := []byte(`{"event_id":"evt_08","event_type":"subscription.canceled","data":{"id":"sub_99"}}`)

		_, err := newGateway(t).VerifyAndParseEvent(context.Background(), tampered, signature)
		assert.ErrorIs(t, err, lifecycle.ErrSignatureInvalid)
	})

	t.Run("garbage signature header fails verification", func(t *testing.T) {
		t.Parallel()

		payload := []byte(`{"event_id":"evt_09","event_type":"subscription.canceled","data":{}}`)
		_, err := newGateway(t).VerifyAndParseEvent(context.Background(), payload, "not-a-signature")
		assert.ErrorIs(t, err, lifecycle.ErrSignatureInvalid)
	})
}

func TestNewPaddleGateway(t *testing.T) {
	t.Parallel()

	plans := billing.MustNewPlanMap(testPlans())

	t.Run("requires api key", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPaddleGateway(billing.Config{WebhookSecret: "s"}, plans)
		assert.Error(t, err)
	})

	t.Run("requires webhook secret", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPaddleGateway(billing.Config{APIKey: "k"}, plans)
		assert.Error(t, err)
	})

	t.Run("requires plan map", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPaddleGateway(billing.Config{APIKey: "k", WebhookSecret: "s"}, nil)
		assert.Error(t, err)
	})

	t.Run("rejects unknown environment", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewPaddleGateway(billing.Config{APIKey: "k", WebhookSecret: "s", Environment: "staging"}, plans)
		assert.Error(t, err)
	})
}
