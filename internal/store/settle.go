package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"tickethub/internal/charge"
	"tickethub/internal/status"
	"tickethub/models"
)

// SettleParams drives one atomic settlement. Transaction is the pending
// record to finalize; the zero-cost path leaves Transaction.ID empty and the
// record is created directly in success inside the same unit of work.
type SettleParams struct {
	Transaction *models.Transaction
	Breakdown   charge.Breakdown
}

// SettleTransaction converges inventory, tickets, funds, and the transaction
// record in one database transaction. Either every step commits or none do:
// a seat shortfall aborts the whole unit of work with ErrInsufficientSeats,
// and a transaction already out of pending aborts with ErrAlreadySettled
// before anything is written.
func (s *Store) SettleTransaction(ctx context.Context, p SettleParams) error {
	t := p.Transaction

	err := s.app.RunInTransaction(func(txApp core.App) error {
		var rec *core.Record
		var err error

		if t.ID != "" {
			rec, err = txApp.FindRecordById("transactions", t.ID)
			if err != nil {
				return fmt.Errorf("load transaction: %w", err)
			}
			// Idempotency re-check under the write transaction: a concurrent
			// delivery that won the race leaves this one a no-op.
			if rec.GetString("status") != models.TxStatusPending {
				return status.ErrAlreadySettled
			}
		} else {
			col, err := txApp.FindCollectionByNameOrId("transactions")
			if err != nil {
				return fmt.Errorf("transactions collection: %w", err)
			}
			rec = core.NewRecord(col)
			applyTransaction(rec, t)
		}

		if err := reserveSeats(txApp, t.TierID, t.Quantity); err != nil {
			return err
		}

		if err := issueTickets(txApp, rec, t); err != nil {
			return err
		}

		if p.Breakdown.CompanyShare.Sign() != 0 {
			if err := creditFunds(txApp, models.FundAccountCompany, "", p.Breakdown.CompanyShare); err != nil {
				return err
			}
		}
		if t.AffiliateID != "" && p.Breakdown.AffiliateShare.Sign() != 0 {
			if err := creditFunds(txApp, models.FundAccountClient, t.AffiliateID, p.Breakdown.AffiliateShare); err != nil {
				return err
			}
		}

		rec.Set("status", models.TxStatusSuccess)
		rec.Set("actual_amount", t.ActualAmount.InexactFloat64())
		rec.Set("platform_charge", p.Breakdown.PlatformCharge.InexactFloat64())
		rec.Set("gateway_charge", p.Breakdown.GatewayCharge.InexactFloat64())
		rec.Set("affiliate_charge", p.Breakdown.AffiliateShare.InexactFloat64())
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("finalize transaction: %w", err)
		}

		t.ID = rec.Id
		return nil
	})
	if err != nil {
		if errors.Is(err, status.ErrAlreadySettled) || errors.Is(err, status.ErrInsufficientSeats) {
			return err
		}
		return fmt.Errorf("store: settle transaction: %w", err)
	}

	t.Status = models.TxStatusSuccess
	return nil
}

// reserveSeats decrements available_seats with the availability check folded
// into the UPDATE itself. Zero rows affected means the tier no longer has
// enough seats: purchase-time checks are advisory only, this is the
// authoritative one.
func reserveSeats(txApp core.App, tierID string, quantity int) error {
	res, err := txApp.DB().
		NewQuery(`UPDATE pricing_tiers
			SET available_seats = available_seats - {:qty}
			WHERE id = {:tier} AND available_seats >= {:qty}`).
		Bind(dbx.Params{"qty": quantity, "tier": tierID}).
		Execute()
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	if rows == 0 {
		return status.ErrInsufficientSeats
	}
	return nil
}

// ReleaseSeats returns seats to a tier, bounded by total_seats. Used by
// cancellation flows; settlement never releases.
func (s *Store) ReleaseSeats(ctx context.Context, tierID string, quantity int) error {
	res, err := s.app.DB().
		NewQuery(`UPDATE pricing_tiers
			SET available_seats = available_seats + {:qty}
			WHERE id = {:tier} AND available_seats + {:qty} <= total_seats`).
		Bind(dbx.Params{"qty": quantity, "tier": tierID}).
		Execute()
	if err != nil {
		return fmt.Errorf("store: release seats: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: release seats: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("store: release seats: release of %d would exceed total for tier %s", quantity, tierID)
	}
	return nil
}

func issueTickets(txApp core.App, txRec *core.Record, t *models.Transaction) error {
	col, err := txApp.FindCollectionByNameOrId("tickets")
	if err != nil {
		return fmt.Errorf("tickets collection: %w", err)
	}

	for i := 0; i < t.Quantity; i++ {
		ticket := core.NewRecord(col)
		ticket.Set("event_id", t.EventID)
		ticket.Set("tier_id", t.TierID)
		ticket.Set("transaction_id", txRec.Id)
		ticket.Set("buyer_id", t.BuyerID)
		ticket.Set("owner_id", t.BuyerID)
		ticket.Set("affiliate_id", t.AffiliateID)
		ticket.Set("status", models.TicketStatusActive)
		if err := txApp.Save(ticket); err != nil {
			return fmt.Errorf("issue ticket %d/%d: %w", i+1, t.Quantity, err)
		}
	}
	return nil
}

func creditFunds(txApp core.App, accountType, ownerID string, amount decimal.Decimal) error {
	rec, err := txApp.FindFirstRecordByFilter(
		"fund_accounts",
		"type = {:type} && owner_id = {:owner}",
		dbx.Params{"type": accountType, "owner": ownerID},
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("find fund account: %w", err)
		}
		col, err := txApp.FindCollectionByNameOrId("fund_accounts")
		if err != nil {
			return fmt.Errorf("fund_accounts collection: %w", err)
		}
		rec = core.NewRecord(col)
		rec.Set("type", accountType)
		rec.Set("owner_id", ownerID)
		rec.Set("balance", 0)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("create fund account: %w", err)
		}
	}

	_, err = txApp.DB().
		NewQuery("UPDATE fund_accounts SET balance = balance + {:amount} WHERE id = {:id}").
		Bind(dbx.Params{"amount": amount.InexactFloat64(), "id": rec.Id}).
		Execute()
	if err != nil {
		return fmt.Errorf("credit fund account: %w", err)
	}
	return nil
}
