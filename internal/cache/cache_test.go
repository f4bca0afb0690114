package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGetSession(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, 10*time.Minute)
	ctx := context.Background()

	s := &Session{
		Reference:   "TX-AB12",
		BuyerID:     "user1",
		EventID:     "evt1",
		TierID:      "tier1",
		Amount:      "3000",
		Status:      "pending",
		CheckoutURL: "https://pay.example.com/abc",
	}

	mock.ExpectHSet("checkout:TX-AB12",
		"reference", "TX-AB12",
		"buyer_id", "user1",
		"event_id", "evt1",
		"tier_id", "tier1",
		"amount", "3000",
		"status", "pending",
		"checkout_url", "https://pay.example.com/abc",
	).SetVal(7)
	mock.ExpectExpire("checkout:TX-AB12", 10*time.Minute).SetVal(true)

	require.NoError(t, c.PutSession(ctx, s))

	mock.ExpectHGetAll("checkout:TX-AB12").SetVal(map[string]string{
		"reference":    "TX-AB12",
		"buyer_id":     "user1",
		"event_id":     "evt1",
		"tier_id":      "tier1",
		"amount":       "3000",
		"status":       "pending",
		"checkout_url": "https://pay.example.com/abc",
	})

	got, err := c.GetSession(ctx, "TX-AB12")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSessionMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	mock.ExpectHGetAll("checkout:TX-GONE").SetVal(map[string]string{})

	got, err := c.GetSession(context.Background(), "TX-GONE")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMarkAndCheckSettled(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)
	ctx := context.Background()

	mock.ExpectSet("settled:TX-1", "success", time.Minute).SetVal("OK")
	mock.ExpectHSet("checkout:TX-1", "status", "success").SetVal(1)
	require.NoError(t, c.MarkSettled(ctx, "TX-1", "success"))

	mock.ExpectExists("settled:TX-1").SetVal(1)
	assert.True(t, c.AlreadySettled(ctx, "TX-1"))

	mock.ExpectExists("settled:TX-2").SetVal(0)
	assert.False(t, c.AlreadySettled(ctx, "TX-2"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlreadySettledDegradesToFalseOnError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := New(db, time.Minute)

	mock.ExpectExists("settled:TX-ERR").SetErr(assert.AnError)
	assert.False(t, c.AlreadySettled(context.Background(), "TX-ERR"))
}
