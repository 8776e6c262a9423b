package repository

import (
	"context"
	"time"
)

// TokenKind namespaces single-use tokens in the token store.
type TokenKind string

const (
	TokenActivation    TokenKind = "activation"
	TokenPasswordReset TokenKind = "pwreset"
)

// TokenStore holds short-lived single-use tokens (account activation,
// password reset) keyed by an opaque code and mapped to a user id.
type TokenStore interface {
	Put(ctx context.Context, kind TokenKind, code, userID string, ttl time.Duration) error
	// Redeem returns the user id for the code and removes it, making the
	// token single-use. ErrTokenNotFound when missing or expired.
	Redeem(ctx context.Context, kind TokenKind, code string) (string, error)
}

// EventLog records processed webhook event ids for idempotent handling.
type EventLog interface {
	// MarkHandled records the event id; ErrEventAlreadyHandled when it was
	// seen before.
	MarkHandled(ctx context.Context, eventID string, ttl time.Duration) error
	// Unmark forgets the event id so a failed delivery can be retried.
	Unmark(ctx context.Context, eventID string) error
}
