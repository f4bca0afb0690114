// Package gateway is the client for the external payment provider. It
// initializes hosted checkouts for paid purchases and verifies transactions
// for reconciliation. Settlement itself arrives out-of-band on the provider's
// webhook, authenticated with an HMAC-SHA512 signature over the raw body.
package gateway

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL     string `json:"baseUrl" mapstructure:"base_url"`
	SecretKey   string `json:"secretKey" mapstructure:"secret_key"`
	CallbackURL string `json:"callbackUrl" mapstructure:"callback_url"`
}

// Metadata travels opaquely through the provider and comes back verbatim in
// the settlement webhook, so the settlement path never has to re-derive these
// identifiers from mutable state.
type Metadata struct {
	BuyerID     string `json:"buyer_id"`
	EventID     string `json:"event_id"`
	TierID      string `json:"tier_id"`
	AffiliateID string `json:"affiliate_id,omitempty"`
	Quantity    int    `json:"quantity"`
}

type CheckoutRequest struct {
	Reference string
	Email     string
	Amount    decimal.Decimal
	Metadata  Metadata
}

// Checkout is the provider-issued handle for a hosted payment page.
type Checkout struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifiedTransaction is the provider's own view of a transaction, used by
// reconciliation tooling.
type VerifiedTransaction struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	Currency  string
	PaidAt    string
}

// Gateway issues checkouts and answers verification queries.
type Gateway struct {
	client *Client
}

func New(_ context.Context, cfg *Config) (*Gateway, error) {
	if cfg.BaseURL == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("gateway: incomplete config: base url and secret key are required")
	}
	return &Gateway{client: newClient(cfg)}, nil
}

// InitializeCheckout creates a hosted checkout session for a pending
// transaction and returns the redirect handle.
func (g *Gateway) InitializeCheckout(ctx context.Context, f *CheckoutRequest) (*Checkout, error) {
	return g.client.initializeCheckout(ctx, f)
}

// VerifyTransaction fetches the provider's record for a reference.
func (g *Gateway) VerifyTransaction(ctx context.Context, reference string) (*VerifiedTransaction, error) {
	return g.client.verifyTransaction(ctx, reference)
}
