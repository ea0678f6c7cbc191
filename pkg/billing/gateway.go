package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/entitlekit/pkg/catalog"
	"github.com/dmitrymomot/entitlekit/pkg/lifecycle"
)

// PaddleGateway implements lifecycle.Gateway on Paddle Billing. All
// Paddle naming, price ids, status strings, event types, and the
// signature scheme stay behind this type.
type PaddleGateway struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	plans    *PlanMap
	config   Config
}

// NewPaddleGateway creates the Paddle-backed billing gateway.
func NewPaddleGateway(config Config, plans *PlanMap) (*PaddleGateway, error) {
	if config.APIKey == "" {
		return nil, errors.New("billing: paddle API key is required")
	}
	if config.WebhookSecret == "" {
		return nil, errors.New("billing: paddle webhook secret is required")
	}
	if plans == nil {
		return nil, errors.New("billing: plan map is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, fmt.Errorf("billing: invalid paddle environment %q", config.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePaddleClient, err)
	}

	return &PaddleGateway{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		plans:    plans,
		config:   config,
	}, nil
}

// webhookPayload is the subset of Paddle's webhook envelope the
// lifecycle needs. Paddle sends far more; everything else is ignored.
type webhookPayload struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		SubscriptionID string `json:"subscription_id"`
		CustomerID     string `json:"customer_id"`

		CurrentBillingPeriod *struct {
			StartsAt time.Time `json:"starts_at"`
			EndsAt   time.Time `json:"ends_at"`
		} `json:"current_billing_period"`

		Items []struct {
			// Subscription items nest the price object; transaction
			// items carry a flat price_id. Accept both.
			PriceID string `json:"price_id"`
			Price   struct {
				ID string `json:"id"`
			} `json:"price"`

			TrialDates *struct {
				EndsAt time.Time `json:"ends_at"`
			} `json:"trial_dates"`
		} `json:"items"`
	} `json:"data"`
}

func (p *webhookPayload) priceID() string {
	for _, item := range p.Data.Items {
		if item.PriceID != "" {
			return item.PriceID
		}
		if item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func (p *webhookPayload) trialEndsAt() *time.Time {
	for _, item := range p.Data.Items {
		if item.TrialDates != nil && !item.TrialDates.EndsAt.IsZero() {
			ends := item.TrialDates.EndsAt
			return &ends
		}
	}
	return nil
}

// VerifyAndParseEvent checks the Paddle-Signature over the raw payload
// and translates the envelope into the lifecycle event union.
//
// The verifier works on an http.Request, so the raw bytes are wrapped
// in a synthetic one; the signature covers the exact body, which is why
// the payload must never be re-serialized before this call.
func (g *PaddleGateway) VerifyAndParseEvent(ctx context.Context, raw []byte, signatureHeader string) (lifecycle.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Join(lifecycle.ErrSignatureInvalid, err)
	}
	req.Header.Set("Paddle-Signature", signatureHeader)

	valid, err := g.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(lifecycle.ErrSignatureInvalid, err)
	}
	if !valid {
		return nil, lifecycle.ErrSignatureInvalid
	}

	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Join(lifecycle.ErrMalformedEvent, err)
	}
	if payload.EventID == "" || payload.EventType == "" {
		return nil, errors.Join(lifecycle.ErrMalformedEvent, errors.New("missing event_id or event_type"))
	}

	return g.translate(&payload)
}

func (g *PaddleGateway) translate(payload *webhookPayload) (lifecycle.Event, error) {
	meta := lifecycle.EventMeta{
		EventID:     payload.EventID,
		Type:        payload.EventType,
		OccurredAt:  payload.OccurredAt,
		CustomerRef: payload.Data.CustomerID,
	}

	// Subscription events carry their own id; transaction events point
	// at the subscription they settle.
	if strings.HasPrefix(payload.EventType, "subscription.") {
		meta.SubscriptionRef = payload.Data.ID
	} else {
		meta.SubscriptionRef = payload.Data.SubscriptionID
	}

	var periodStart, periodEnd *time.Time
	if bp := payload.Data.CurrentBillingPeriod; bp != nil {
		start, end := bp.StartsAt, bp.EndsAt
		periodStart, periodEnd = &start, &end
	}

	switch payload.EventType {
	case "subscription.created":
		plan, err := g.plans.PlanByPrice(payload.priceID())
		if err != nil {
			return nil, errors.Join(lifecycle.ErrMalformedEvent, err)
		}
		return &lifecycle.CheckoutCompleted{
			EventMeta:   meta,
			Tier:        plan.Tier,
			Cycle:       plan.Cycle,
			TrialEndsAt: payload.trialEndsAt(),
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}, nil

	case "subscription.updated", "subscription.activated", "subscription.resumed", "subscription.past_due", "subscription.paused":
		status, ok := mapProviderStatus(payload.Data.Status)
		if !ok {
			return nil, errors.Join(lifecycle.ErrMalformedEvent,
				fmt.Errorf("unknown subscription status %q", payload.Data.Status))
		}
		event := &lifecycle.SubscriptionUpdated{
			EventMeta:   meta,
			Status:      status,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}
		// Plan changes ride along on updated events; a price we can map
		// moves the tier, an absent one means status-only.
		if priceID := payload.priceID(); priceID != "" {
			if plan, err := g.plans.PlanByPrice(priceID); err == nil {
				tier, cycle := plan.Tier, plan.Cycle
				event.NewTier = &tier
				event.NewCycle = &cycle
			}
		}
		return event, nil

	case "subscription.canceled":
		return &lifecycle.SubscriptionCancelled{EventMeta: meta}, nil

	case "transaction.payment_failed":
		return &lifecycle.PaymentFailed{EventMeta: meta}, nil

	default:
		return nil, errors.Join(lifecycle.ErrUnsupportedEvent,
			fmt.Errorf("event type %q", payload.EventType))
	}
}

// CreateCustomer registers the account with Paddle and returns the
// Paddle customer id. The account id travels in custom data so webhooks
// can be traced back even if the reference mapping is ever lost.
func (g *PaddleGateway) CreateCustomer(ctx context.Context, account *lifecycle.Account) (string, error) {
	if account.Email == "" {
		return "", errors.Join(ErrFailedToCreateCustomer, errors.New("account email is required"))
	}

	customer, err := g.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email: account.Email,
		CustomData: paddle.CustomData{
			"account_id": account.ID.String(),
		},
	})
	if err != nil {
		return "", errors.Join(ErrFailedToCreateCustomer, err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession creates a Paddle transaction for the plan's
// price and returns the hosted checkout URL.
func (g *PaddleGateway) CreateCheckoutSession(ctx context.Context, customerRef string, tier catalog.Tier, cycle catalog.BillingCycle) (string, error) {
	priceID, err := g.plans.PriceByPlan(tier, cycle)
	if err != nil {
		return "", err
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})
	req := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(customerRef),
	}
	if g.config.SuccessURL != "" {
		req.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(g.config.SuccessURL),
		}
	}

	transaction, err := g.client.TransactionsClient.CreateTransaction(ctx, req)
	if err != nil {
		return "", errors.Join(ErrFailedToCreateCheckout, err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return "", errors.Join(ErrFailedToCreateCheckout, errors.New("no checkout URL returned"))
	}
	return *transaction.Checkout.URL, nil
}

// CancelAtPeriodEnd schedules the subscription to end with the current
// billing period. The actual state change arrives later as a
// subscription.canceled webhook.
func (g *PaddleGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionRef string) error {
	_, err := g.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionRef,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromNextBillingPeriod),
	})
	if err != nil {
		return errors.Join(ErrFailedToCancelSubscription, err)
	}
	return nil
}

// RetrieveSubscription fetches Paddle's current view of a subscription
// and maps it into lifecycle terms, for drift repair.
func (g *PaddleGateway) RetrieveSubscription(ctx context.Context, subscriptionRef string) (*lifecycle.SubscriptionInfo, error) {
	sub, err := g.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionRef,
	})
	if err != nil {
		return nil, errors.Join(ErrFailedToGetSubscription, err)
	}

	status, ok := mapProviderStatus(string(sub.Status))
	if !ok {
		return nil, errors.Join(ErrFailedToGetSubscription,
			fmt.Errorf("unknown subscription status %q", sub.Status))
	}

	info := &lifecycle.SubscriptionInfo{Status: status}
	if len(sub.Items) > 0 {
		if plan, err := g.plans.PlanByPrice(sub.Items[0].Price.ID); err == nil {
			info.Tier = plan.Tier
		}
	}
	if sub.CurrentBillingPeriod != nil {
		if ends, err := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); err == nil {
			info.CurrentPeriodEnd = &ends
		}
	}
	return info, nil
}
