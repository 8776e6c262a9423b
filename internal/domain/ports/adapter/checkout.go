package adapter

import "context"

// CheckoutSession is the subset of a hosted checkout session the storefront
// cares about once the customer returns from the provider.
type CheckoutSession struct {
	ID             string
	URL            string
	SubscriptionID string
	CustomerEmail  string
	PriceID        string
}

// CheckoutGateway abstracts the hosted subscription-checkout provider
// (Stripe in production). The provider owns the payment UI; the storefront
// only creates sessions and resolves them afterwards.
type CheckoutGateway interface {
	Name() string
	// CreateSession starts a hosted checkout for priceID and returns the
	// session with its redirect URL populated.
	CreateSession(ctx context.Context, customerEmail, priceID, successURL, cancelURL string) (*CheckoutSession, error)
	// ResolveSession retrieves a finished session including the purchased
	// price id from its line items.
	ResolveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
