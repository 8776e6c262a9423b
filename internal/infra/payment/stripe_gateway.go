package payment

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	"subscription-storefront/internal/domain/ports/adapter"
)

var _ adapter.CheckoutGateway = (*StripeGateway)(nil)

// StripeGateway implements adapter.CheckoutGateway on top of Stripe hosted
// Checkout. The storefront never touches card data; it creates a session,
// redirects the customer to Stripe, and resolves the session afterwards.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateSession(ctx context.Context, customerEmail, priceID, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	if priceID == "" {
		return nil, errors.New("price id empty")
	}
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(customerEmail),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return &adapter.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		CustomerEmail: customerEmail,
		PriceID:       priceID,
	}, nil
}

// ResolveSession retrieves a session with its line items expanded so the
// purchased price (and therefore the plan) can be resolved in one call.
func (g *StripeGateway) ResolveSession(ctx context.Context, sessionID string) (*adapter.CheckoutSession, error) {
	if sessionID == "" {
		return nil, errors.New("session id empty")
	}
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("line_items")

	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	out := &adapter.CheckoutSession{
		ID:            s.ID,
		CustomerEmail: s.CustomerEmail,
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	if s.LineItems != nil && len(s.LineItems.Data) > 0 && s.LineItems.Data[0].Price != nil {
		out.PriceID = s.LineItems.Data[0].Price.ID
	}
	return out, nil
}
