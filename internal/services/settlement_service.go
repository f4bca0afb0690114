package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tickethub/internal/charge"
	"tickethub/internal/services/gateway"
	"tickethub/internal/status"
	"tickethub/internal/store"
	"tickethub/models"
	"tickethub/monitoring"
)

// Notification is the payment provider's webhook payload.
type Notification struct {
	Event string           `json:"event"`
	Data  NotificationData `json:"data"`
}

type NotificationData struct {
	Status    string           `json:"status"`
	Reference string           `json:"reference"`
	Amount    decimal.Decimal  `json:"amount"`
	Currency  string           `json:"currency"`
	Metadata  gateway.Metadata `json:"metadata"`
}

// Outcome tells the webhook handler which acknowledgement to send.
type Outcome string

const (
	OutcomeSettled        Outcome = "settled"
	OutcomeAlreadySettled Outcome = "already_settled"
	OutcomeMarkedFailed   Outcome = "marked_failed"
)

// SettlementService converges transaction, inventory, and fund state from
// provider notifications, however many times they are delivered.
type SettlementService struct {
	store    Store
	cache    SessionCache
	notifier Notifier
	secret   []byte
}

func NewSettlementService(st Store, c SessionCache, n Notifier, webhookSecret string) *SettlementService {
	return &SettlementService{
		store:    st,
		cache:    c,
		notifier: n,
		secret:   []byte(webhookSecret),
	}
}

// HandleNotification processes one webhook delivery end to end: signature
// check, idempotency gate, status branch, then the atomic settlement. It is
// safe to call with the same body any number of times.
func (s *SettlementService) HandleNotification(ctx context.Context, body []byte, signature string) (Outcome, error) {
	start := time.Now()

	if !gateway.VerifySignature(body, s.secret, signature) {
		slog.Warn("settlement: rejected unauthenticated webhook", "body_size", len(body))
		monitoring.WebhookAuthFailure()
		return "", status.ErrInvalidSignature
	}

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return "", fmt.Errorf("%w: %v", status.ErrMalformedNotification, err)
	}
	if n.Data.Reference == "" {
		return "", fmt.Errorf("%w: missing reference", status.ErrMalformedNotification)
	}

	// Fast path for provider redeliveries; the database gate below stays
	// authoritative when the cache has no answer.
	if s.cache.AlreadySettled(ctx, n.Data.Reference) {
		monitoring.ObserveSettlement(string(OutcomeAlreadySettled), time.Since(start))
		return OutcomeAlreadySettled, nil
	}

	t, err := s.store.FindTransactionByReference(ctx, n.Data.Reference)
	if err != nil {
		return "", err
	}
	if t.Settled() {
		monitoring.ObserveSettlement(string(OutcomeAlreadySettled), time.Since(start))
		return OutcomeAlreadySettled, nil
	}

	switch n.Data.Status {
	case "failed":
		return s.markFailed(ctx, t, start)
	case "pending":
		return "", status.ErrNotActionable
	case "success", "processed":
		// Both strings trigger full settlement on the provider's wire.
	default:
		return "", fmt.Errorf("%w: %q", status.ErrUnknownStatus, n.Data.Status)
	}

	tier, err := s.store.FindTier(ctx, t.TierID)
	if err != nil {
		return "", err
	}

	// Recompute the split from the provider-reported amount and the recorded
	// quantity; nothing charge-related is trusted from the notification body
	// beyond the gross amount the provider itself attests to.
	t.ActualAmount = n.Data.Amount
	breakdown := charge.Compute(n.Data.Amount, t.Quantity, tier.UnitAmount, t.AffiliateID != "")

	if err := s.store.SettleTransaction(ctx, store.SettleParams{
		Transaction: t,
		Breakdown:   breakdown,
	}); err != nil {
		if errors.Is(err, status.ErrAlreadySettled) {
			monitoring.ObserveSettlement(string(OutcomeAlreadySettled), time.Since(start))
			return OutcomeAlreadySettled, nil
		}
		if errors.Is(err, status.ErrInsufficientSeats) {
			monitoring.OversellRejection()
			slog.Warn("settlement: seats exhausted between initiation and settlement",
				"reference", t.Reference, "tier", t.TierID, "quantity", t.Quantity)
		}
		return "", err
	}

	monitoring.ObserveSettlement(string(OutcomeSettled), time.Since(start))

	if err := s.cache.MarkSettled(ctx, t.Reference, models.TxStatusSuccess); err != nil {
		slog.Warn("settlement: replay cache update failed", "reference", t.Reference, "error", err)
	}

	// Post-commit side effects only; the settlement above is already durable.
	s.notifier.SettlementSucceeded(ctx, t)

	return OutcomeSettled, nil
}

func (s *SettlementService) markFailed(ctx context.Context, t *models.Transaction, start time.Time) (Outcome, error) {
	if err := s.store.MarkTransactionFailed(ctx, t.ID); err != nil {
		if errors.Is(err, status.ErrAlreadySettled) {
			return OutcomeAlreadySettled, nil
		}
		return "", err
	}

	monitoring.ObserveSettlement(string(OutcomeMarkedFailed), time.Since(start))

	if err := s.cache.MarkSettled(ctx, t.Reference, models.TxStatusFailed); err != nil {
		slog.Warn("settlement: replay cache update failed", "reference", t.Reference, "error", err)
	}
	return OutcomeMarkedFailed, nil
}
