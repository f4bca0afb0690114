package store

import (
	"context"
	"testing"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/internal/charge"
	"tickethub/internal/status"
	"tickethub/models"

	_ "tickethub/migrations"
)

// newTestApp boots an isolated app in a temp dir and applies the registered
// collection migrations against it.
func newTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	return app
}

func createUser(t *testing.T, app core.App, email string) string {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("email", email)
	rec.Set("password", "0123456789")
	require.NoError(t, app.Save(rec))
	return rec.Id
}

func createEvent(t *testing.T, app core.App, organizerID string) string {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("name", "Launch Night")
	rec.Set("organizer_id", organizerID)
	rec.Set("status", models.EventStatusPublished)
	require.NoError(t, app.Save(rec))
	return rec.Id
}

func createTier(t *testing.T, app core.App, eventID string, total, available int, unitAmount int64) string {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("pricing_tiers")
	require.NoError(t, err)

	rec := core.NewRecord(col)
	rec.Set("event_id", eventID)
	rec.Set("name", "General")
	rec.Set("total_seats", total)
	rec.Set("available_seats", available)
	rec.Set("unit_amount", unitAmount)
	require.NoError(t, app.Save(rec))
	return rec.Id
}

func createPending(t *testing.T, s *Store, reference, buyerID, eventID, tierID, affiliateID string, quantity int) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Reference:   reference,
		BuyerID:     buyerID,
		EventID:     eventID,
		TierID:      tierID,
		AffiliateID: affiliateID,
		Quantity:    quantity,
	}
	require.NoError(t, s.CreatePendingTransaction(context.Background(), tx))
	return tx
}

func availableSeats(t *testing.T, app core.App, tierID string) int {
	t.Helper()

	rec, err := app.FindRecordById("pricing_tiers", tierID)
	require.NoError(t, err)
	return rec.GetInt("available_seats")
}

func ticketCount(t *testing.T, app core.App, tierID string) int {
	t.Helper()

	n, err := app.CountRecords("tickets", dbx.HashExp{"tier_id": tierID})
	require.NoError(t, err)
	return int(n)
}

func fundBalance(t *testing.T, app core.App, accountType, ownerID string) float64 {
	t.Helper()

	rec, err := app.FindFirstRecordByFilter(
		"fund_accounts",
		"type = {:type} && owner_id = {:owner}",
		dbx.Params{"type": accountType, "owner": ownerID},
	)
	require.NoError(t, err)
	return rec.GetFloat("balance")
}

func TestSettleTransactionLastSeatGoesToExactlyOne(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	first := createUser(t, app, "first@example.com")
	second := createUser(t, app, "second@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 1, 1500)

	txFirst := createPending(t, s, "TX-A1", first, eventID, tierID, "", 1)
	txSecond := createPending(t, s, "TX-A2", second, eventID, tierID, "", 1)

	breakdown := charge.Compute(decimal.NewFromInt(1500), 1, decimal.NewFromInt(1500), false)

	require.NoError(t, s.SettleTransaction(ctx, SettleParams{Transaction: txFirst, Breakdown: breakdown}))

	err := s.SettleTransaction(ctx, SettleParams{Transaction: txSecond, Breakdown: breakdown})
	require.ErrorIs(t, err, status.ErrInsufficientSeats)

	assert.Equal(t, 0, availableSeats(t, app, tierID))
	assert.Equal(t, 1, ticketCount(t, app, tierID))

	settled, err := s.FindTransactionByReference(ctx, "TX-A1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusSuccess, settled.Status)

	loser, err := s.FindTransactionByReference(ctx, "TX-A2")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, loser.Status)
}

func TestSettleTransactionShortfallLeavesNothingBehind(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	buyer := createUser(t, app, "buyer@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 1, 1500)

	tx := createPending(t, s, "TX-B1", buyer, eventID, tierID, "", 2)
	tx.ActualAmount = decimal.NewFromInt(3000)
	breakdown := charge.Compute(decimal.NewFromInt(3000), 2, decimal.NewFromInt(1500), false)

	err := s.SettleTransaction(ctx, SettleParams{Transaction: tx, Breakdown: breakdown})
	require.ErrorIs(t, err, status.ErrInsufficientSeats)

	assert.Equal(t, 1, availableSeats(t, app, tierID))
	assert.Equal(t, 0, ticketCount(t, app, tierID))
	assert.Zero(t, fundBalance(t, app, models.FundAccountCompany, ""))

	reloaded, err := s.FindTransactionByReference(ctx, "TX-B1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusPending, reloaded.Status)
}

func TestSettleTransactionCreditsFundsAndFinalizes(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	buyer := createUser(t, app, "buyer@example.com")
	affiliate := createUser(t, app, "affiliate@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 10, 3, 1500)

	tx := createPending(t, s, "TX-C1", buyer, eventID, tierID, affiliate, 2)
	tx.ActualAmount = decimal.NewFromInt(3000)

	// gateway 145, platform 600, profit 455 halved with the affiliate
	breakdown := charge.Compute(decimal.NewFromInt(3000), 2, decimal.NewFromInt(1500), true)

	require.NoError(t, s.SettleTransaction(ctx, SettleParams{Transaction: tx, Breakdown: breakdown}))

	assert.Equal(t, 1, availableSeats(t, app, tierID))
	assert.Equal(t, 2, ticketCount(t, app, tierID))
	assert.Equal(t, 227.5, fundBalance(t, app, models.FundAccountCompany, ""))
	assert.Equal(t, 227.5, fundBalance(t, app, models.FundAccountClient, affiliate))

	rec, err := app.FindRecordById("transactions", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusSuccess, rec.GetString("status"))
	assert.Equal(t, 3000.0, rec.GetFloat("actual_amount"))
	assert.Equal(t, 600.0, rec.GetFloat("platform_charge"))
	assert.Equal(t, 145.0, rec.GetFloat("gateway_charge"))
	assert.Equal(t, 227.5, rec.GetFloat("affiliate_charge"))

	// A redelivery of the same settlement is a no-op.
	err = s.SettleTransaction(ctx, SettleParams{Transaction: tx, Breakdown: breakdown})
	require.ErrorIs(t, err, status.ErrAlreadySettled)
	assert.Equal(t, 2, ticketCount(t, app, tierID))
	assert.Equal(t, 227.5, fundBalance(t, app, models.FundAccountCompany, ""))
}

func TestSettleTransactionZeroCostCreatesSettledRecord(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	buyer := createUser(t, app, "buyer@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 5, 0)

	tx := &models.Transaction{
		Reference: "TX-D1",
		BuyerID:   buyer,
		EventID:   eventID,
		TierID:    tierID,
		Quantity:  3,
	}

	require.NoError(t, s.SettleTransaction(ctx, SettleParams{Transaction: tx}))
	require.NotEmpty(t, tx.ID)

	assert.Equal(t, 2, availableSeats(t, app, tierID))
	assert.Equal(t, 3, ticketCount(t, app, tierID))
	assert.Zero(t, fundBalance(t, app, models.FundAccountCompany, ""))

	reloaded, err := s.FindTransactionByReference(ctx, "TX-D1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusSuccess, reloaded.Status)
}

func TestMarkTransactionFailedOnlyTransitionsPending(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	buyer := createUser(t, app, "buyer@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 5, 1500)

	tx := createPending(t, s, "TX-E1", buyer, eventID, tierID, "", 1)

	require.NoError(t, s.MarkTransactionFailed(ctx, tx.ID))
	reloaded, err := s.FindTransactionByReference(ctx, "TX-E1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusFailed, reloaded.Status)

	err = s.MarkTransactionFailed(ctx, tx.ID)
	assert.ErrorIs(t, err, status.ErrAlreadySettled)
}

func TestMarkTransactionFailedNeverClobbersSettled(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	buyer := createUser(t, app, "buyer@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 5, 1500)

	tx := createPending(t, s, "TX-F1", buyer, eventID, tierID, "", 1)
	tx.ActualAmount = decimal.NewFromInt(1500)
	breakdown := charge.Compute(decimal.NewFromInt(1500), 1, decimal.NewFromInt(1500), false)
	require.NoError(t, s.SettleTransaction(ctx, SettleParams{Transaction: tx, Breakdown: breakdown}))

	// A stale failed notification arriving after settlement must not rewind
	// the record or detach its issued tickets.
	err := s.MarkTransactionFailed(ctx, tx.ID)
	require.ErrorIs(t, err, status.ErrAlreadySettled)

	reloaded, err := s.FindTransactionByReference(ctx, "TX-F1")
	require.NoError(t, err)
	assert.Equal(t, models.TxStatusSuccess, reloaded.Status)
	assert.Equal(t, 1, ticketCount(t, app, tierID))
}

func TestReleaseSeatsBoundedByTotal(t *testing.T) {
	app := newTestApp(t)
	s := New(app)
	ctx := context.Background()

	organizer := createUser(t, app, "organizer@example.com")
	eventID := createEvent(t, app, organizer)
	tierID := createTier(t, app, eventID, 5, 3, 1500)

	require.NoError(t, s.ReleaseSeats(ctx, tierID, 2))
	assert.Equal(t, 5, availableSeats(t, app, tierID))

	assert.Error(t, s.ReleaseSeats(ctx, tierID, 1))
	assert.Equal(t, 5, availableSeats(t, app, tierID))
}
