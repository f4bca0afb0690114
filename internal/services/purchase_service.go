package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"tickethub/internal/cache"
	"tickethub/internal/charge"
	"tickethub/internal/services/gateway"
	"tickethub/internal/status"
	"tickethub/internal/store"
	"tickethub/models"
	"tickethub/monitoring"
	"tickethub/utils"
)

const (
	// MaxQuantityPerPurchase caps a single purchase call.
	MaxQuantityPerPurchase = 10

	// MaxTicketsPerTier caps a buyer's total holdings in one tier.
	MaxTicketsPerTier = 10
)

type PurchaseRequest struct {
	BuyerID     string
	BuyerEmail  string
	EventID     string
	TierID      string
	Quantity    int
	UnitAmount  decimal.Decimal
	AffiliateID string
}

type PurchaseResult struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Quantity      int    `json:"quantity"`
	CheckoutURL   string `json:"checkout_url,omitempty"`
}

// PurchaseService is the front door for new purchases: it validates the
// request, then either settles inline (zero-cost tickets) or creates a
// pending transaction and hands off to the payment gateway.
type PurchaseService struct {
	store    Store
	gateway  CheckoutGateway
	sessions SessionCache
}

func NewPurchaseService(st Store, gw CheckoutGateway, sessions SessionCache) *PurchaseService {
	return &PurchaseService{
		store:    st,
		gateway:  gw,
		sessions: sessions,
	}
}

// Initiate runs the validation chain in a fixed order so every rejection has
// one distinct reason, then dispatches to the zero-cost or paid path.
//
// The seat check here is advisory. The authoritative check happens inside
// the settlement transaction, because seats can be exhausted by concurrent
// settlements between now and the provider callback.
func (s *PurchaseService) Initiate(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	if req.Quantity <= 0 || req.Quantity > MaxQuantityPerPurchase {
		return nil, status.ErrQuantityExceeded
	}

	event, err := s.store.FindEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !event.OnSale() {
		return nil, status.ErrEventNotOnSale
	}

	if req.AffiliateID != "" {
		known, err := s.store.UserExists(ctx, req.AffiliateID)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, status.ErrUnknownAffiliate
		}
	}

	tier, err := s.store.FindTier(ctx, req.TierID)
	if err != nil {
		return nil, err
	}
	if tier.EventID != req.EventID {
		return nil, status.ErrTierMismatch
	}
	if !tier.UnitAmount.Equal(req.UnitAmount) {
		return nil, status.ErrStaleUnitAmount
	}

	if tier.AvailableSeats < req.Quantity {
		return nil, status.ErrInsufficientSeats
	}

	owned, err := s.store.TicketCountForBuyer(ctx, req.TierID, req.BuyerID)
	if err != nil {
		return nil, err
	}
	if owned+req.Quantity > MaxTicketsPerTier {
		return nil, status.ErrOwnershipCap
	}

	reference, err := newReference()
	if err != nil {
		return nil, err
	}

	if req.UnitAmount.IsZero() {
		return s.issueFree(ctx, req, reference)
	}
	return s.initiatePaid(ctx, req, reference)
}

// issueFree settles a zero-cost purchase inline: no gateway round-trip, no
// fee split, but the same atomic issue primitive as the paid path.
func (s *PurchaseService) issueFree(ctx context.Context, req PurchaseRequest, reference string) (*PurchaseResult, error) {
	t := &models.Transaction{
		Reference:   reference,
		BuyerID:     req.BuyerID,
		EventID:     req.EventID,
		TierID:      req.TierID,
		AffiliateID: req.AffiliateID,
		Quantity:    req.Quantity,
	}

	if err := s.store.SettleTransaction(ctx, store.SettleParams{Transaction: t}); err != nil {
		return nil, err
	}

	monitoring.PurchaseInitiated("free")
	slog.Info("purchase: zero-cost tickets issued",
		"reference", reference, "buyer", req.BuyerID, "quantity", req.Quantity)

	return &PurchaseResult{
		TransactionID: t.ID,
		Reference:     t.Reference,
		Status:        t.Status,
		Quantity:      t.Quantity,
	}, nil
}

func (s *PurchaseService) initiatePaid(ctx context.Context, req PurchaseRequest, reference string) (*PurchaseResult, error) {
	gross := req.UnitAmount.Mul(decimal.NewFromInt(int64(req.Quantity)))
	breakdown := charge.Compute(gross, req.Quantity, req.UnitAmount, req.AffiliateID != "")

	t := &models.Transaction{
		Reference:       reference,
		BuyerID:         req.BuyerID,
		EventID:         req.EventID,
		TierID:          req.TierID,
		AffiliateID:     req.AffiliateID,
		Quantity:        req.Quantity,
		ActualAmount:    gross,
		PlatformCharge:  breakdown.PlatformCharge,
		GatewayCharge:   breakdown.GatewayCharge,
		AffiliateCharge: breakdown.AffiliateShare,
	}
	if err := s.store.CreatePendingTransaction(ctx, t); err != nil {
		return nil, err
	}

	checkout, err := s.gateway.InitializeCheckout(ctx, &gateway.CheckoutRequest{
		Reference: reference,
		Email:     req.BuyerEmail,
		Amount:    gross,
		Metadata: gateway.Metadata{
			BuyerID:     req.BuyerID,
			EventID:     req.EventID,
			TierID:      req.TierID,
			AffiliateID: req.AffiliateID,
			Quantity:    req.Quantity,
		},
	})
	if err != nil {
		// The pending transaction stays as-is: either the buyer retries with
		// a fresh transaction or reconciliation resolves it later.
		slog.Error("purchase: gateway checkout failed", "reference", reference, "error", err)
		return nil, fmt.Errorf("purchase: initialize checkout: %w", err)
	}

	if err := s.store.AttachGatewayReference(ctx, t.ID, checkout.AccessCode); err != nil {
		return nil, err
	}

	if err := s.sessions.PutSession(ctx, &cache.Session{
		Reference:   reference,
		BuyerID:     req.BuyerID,
		EventID:     req.EventID,
		TierID:      req.TierID,
		Amount:      gross.String(),
		Status:      models.TxStatusPending,
		CheckoutURL: checkout.AuthorizationURL,
	}); err != nil {
		slog.Warn("purchase: session cache write failed", "reference", reference, "error", err)
	}

	monitoring.PurchaseInitiated("paid")

	return &PurchaseResult{
		TransactionID: t.ID,
		Reference:     reference,
		Status:        models.TxStatusPending,
		Quantity:      req.Quantity,
		CheckoutURL:   checkout.AuthorizationURL,
	}, nil
}

func newReference() (string, error) {
	code, err := utils.GenerateCode(6)
	if err != nil {
		return "", fmt.Errorf("purchase: generate reference: %w", err)
	}
	return "TX-" + code, nil
}
