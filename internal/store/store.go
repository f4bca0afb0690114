// Package store is the persistence layer over the PocketBase collections.
// Every mutation of seat counts and fund balances goes through here; the
// settlement path runs as a single database transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/status"
	"tickethub/models"
)

type Store struct {
	app core.App
}

// New wraps an explicitly passed app handle. No package-level singleton: the
// same store code runs against the live app and against transaction-scoped
// apps inside RunInTransaction.
func New(app core.App) *Store {
	return &Store{app: app}
}

func (s *Store) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	rec, err := s.app.FindRecordById("events", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("store: find event: %w", err)
	}
	return recordToEvent(rec), nil
}

func (s *Store) FindTier(ctx context.Context, id string) (*models.PricingTier, error) {
	rec, err := s.app.FindRecordById("pricing_tiers", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTierNotFound
		}
		return nil, fmt.Errorf("store: find tier: %w", err)
	}
	return recordToTier(rec), nil
}

func (s *Store) FindUser(ctx context.Context, id string) (*models.User, error) {
	rec, err := s.app.FindRecordById("users", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrUnknownAffiliate
		}
		return nil, fmt.Errorf("store: find user: %w", err)
	}
	return &models.User{
		ID:    rec.Id,
		Name:  rec.GetString("name"),
		Email: rec.GetString("email"),
	}, nil
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := s.app.FindRecordById("users", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("store: user exists: %w", err)
	}
	return true, nil
}

// TicketCountForBuyer counts the buyer's existing tickets for a tier,
// used to enforce the per-buyer ownership cap.
func (s *Store) TicketCountForBuyer(ctx context.Context, tierID, buyerID string) (int, error) {
	var count int
	err := s.app.DB().
		NewQuery("SELECT COUNT(*) FROM tickets WHERE tier_id = {:tier} AND buyer_id = {:buyer}").
		Bind(dbx.Params{"tier": tierID, "buyer": buyerID}).
		Row(&count)
	if err != nil {
		return 0, fmt.Errorf("store: ticket count: %w", err)
	}
	return count, nil
}

func (s *Store) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"transactions",
		"reference = {:reference}",
		dbx.Params{"reference": reference},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("store: find transaction: %w", err)
	}
	return recordToTransaction(rec), nil
}

// CreatePendingTransaction persists a new purchase attempt in pending state
// and fills in the generated record id.
func (s *Store) CreatePendingTransaction(ctx context.Context, t *models.Transaction) error {
	col, err := s.app.FindCollectionByNameOrId("transactions")
	if err != nil {
		return fmt.Errorf("store: transactions collection: %w", err)
	}

	rec := core.NewRecord(col)
	applyTransaction(rec, t)
	rec.Set("status", models.TxStatusPending)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("store: create pending transaction: %w", err)
	}

	t.ID = rec.Id
	t.Status = models.TxStatusPending
	return nil
}

// AttachGatewayReference stores the provider-issued checkout handle on a
// pending transaction before the purchase call returns.
func (s *Store) AttachGatewayReference(ctx context.Context, id, gatewayRef string) error {
	rec, err := s.app.FindRecordById("transactions", id)
	if err != nil {
		return fmt.Errorf("store: attach gateway ref: %w", err)
	}
	rec.Set("gateway_ref", gatewayRef)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("store: attach gateway ref: %w", err)
	}
	return nil
}

// MarkTransactionFailed transitions a pending transaction to failed. The
// pending check is folded into the UPDATE so a concurrent settlement that
// already moved the record to a terminal status cannot be clobbered; zero
// rows affected is reported as already settled.
func (s *Store) MarkTransactionFailed(ctx context.Context, id string) error {
	res, err := s.app.DB().
		NewQuery(`UPDATE transactions
			SET status = {:failed}
			WHERE id = {:id} AND status = {:pending}`).
		Bind(dbx.Params{
			"failed":  models.TxStatusFailed,
			"id":      id,
			"pending": models.TxStatusPending,
		}).
		Execute()
	if err != nil {
		return fmt.Errorf("store: mark failed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: mark failed: %w", err)
	}
	if rows == 0 {
		return status.ErrAlreadySettled
	}
	return nil
}

func recordToEvent(rec *core.Record) *models.Event {
	return &models.Event{
		ID:          rec.Id,
		Name:        rec.GetString("name"),
		Description: rec.GetString("description"),
		OrganizerID: rec.GetString("organizer_id"),
		Venue:       rec.GetString("venue"),
		StartTime:   rec.GetDateTime("start_time").Time(),
		EndTime:     rec.GetDateTime("end_time").Time(),
		Status:      rec.GetString("status"),
	}
}

func recordToTier(rec *core.Record) *models.PricingTier {
	return &models.PricingTier{
		ID:                  rec.Id,
		EventID:             rec.GetString("event_id"),
		Name:                rec.GetString("name"),
		TotalSeats:          rec.GetInt("total_seats"),
		AvailableSeats:      rec.GetInt("available_seats"),
		UnitAmount:          decimal.NewFromFloat(rec.GetFloat("unit_amount")),
		AffiliateUnitAmount: decimal.NewFromFloat(rec.GetFloat("affiliate_unit_amount")),
	}
}

func recordToTransaction(rec *core.Record) *models.Transaction {
	return &models.Transaction{
		ID:              rec.Id,
		Reference:       rec.GetString("reference"),
		BuyerID:         rec.GetString("buyer_id"),
		EventID:         rec.GetString("event_id"),
		TierID:          rec.GetString("tier_id"),
		AffiliateID:     rec.GetString("affiliate_id"),
		Quantity:        rec.GetInt("quantity"),
		ActualAmount:    decimal.NewFromFloat(rec.GetFloat("actual_amount")),
		PlatformCharge:  decimal.NewFromFloat(rec.GetFloat("platform_charge")),
		GatewayCharge:   decimal.NewFromFloat(rec.GetFloat("gateway_charge")),
		AffiliateCharge: decimal.NewFromFloat(rec.GetFloat("affiliate_charge")),
		Status:          rec.GetString("status"),
		GatewayRef:      rec.GetString("gateway_ref"),
		Created:         rec.GetDateTime("created").Time(),
		Updated:         rec.GetDateTime("updated").Time(),
	}
}

func applyTransaction(rec *core.Record, t *models.Transaction) {
	rec.Set("reference", t.Reference)
	rec.Set("buyer_id", t.BuyerID)
	rec.Set("event_id", t.EventID)
	rec.Set("tier_id", t.TierID)
	rec.Set("affiliate_id", t.AffiliateID)
	rec.Set("quantity", t.Quantity)
	rec.Set("actual_amount", t.ActualAmount.InexactFloat64())
	rec.Set("platform_charge", t.PlatformCharge.InexactFloat64())
	rec.Set("gateway_charge", t.GatewayCharge.InexactFloat64())
	rec.Set("affiliate_charge", t.AffiliateCharge.InexactFloat64())
}
