package services

import (
	"context"

	"tickethub/internal/cache"
	"tickethub/internal/services/gateway"
	"tickethub/internal/store"
	"tickethub/models"
)

// Store is the persistence surface the purchase and settlement services
// depend on, implemented by *store.Store.
type Store interface {
	FindEvent(ctx context.Context, id string) (*models.Event, error)
	FindTier(ctx context.Context, id string) (*models.PricingTier, error)
	FindUser(ctx context.Context, id string) (*models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
	TicketCountForBuyer(ctx context.Context, tierID, buyerID string) (int, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	CreatePendingTransaction(ctx context.Context, t *models.Transaction) error
	AttachGatewayReference(ctx context.Context, id, gatewayRef string) error
	MarkTransactionFailed(ctx context.Context, id string) error
	SettleTransaction(ctx context.Context, p store.SettleParams) error
}

// CheckoutGateway starts hosted checkouts, implemented by *gateway.Gateway.
type CheckoutGateway interface {
	InitializeCheckout(ctx context.Context, f *gateway.CheckoutRequest) (*gateway.Checkout, error)
}

// SessionCache is the redis fast path, implemented by *cache.Cache.
type SessionCache interface {
	PutSession(ctx context.Context, s *cache.Session) error
	MarkSettled(ctx context.Context, reference, finalStatus string) error
	AlreadySettled(ctx context.Context, reference string) bool
}

// Notifier delivers post-settlement side effects. Implementations must never
// fail the settlement: errors are logged and swallowed.
type Notifier interface {
	SettlementSucceeded(ctx context.Context, t *models.Transaction)
}
