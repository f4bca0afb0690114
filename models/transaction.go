package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one purchase attempt and its financial breakdown.
//
// Reference doubles as the idempotency key: it is generated at purchase
// initiation, passed to the payment gateway, and echoed back in the
// settlement webhook. A transaction leaves pending exactly once; terminal
// states are never re-transitioned, so a duplicate webhook delivery for the
// same reference is a safe no-op.
type Transaction struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	BuyerID         string          `json:"buyer_id"`
	EventID         string          `json:"event_id"`
	TierID          string          `json:"tier_id"`
	AffiliateID     string          `json:"affiliate_id,omitempty"`
	Quantity        int             `json:"quantity"`
	ActualAmount    decimal.Decimal `json:"actual_amount"`
	PlatformCharge  decimal.Decimal `json:"platform_charge"`
	GatewayCharge   decimal.Decimal `json:"gateway_charge"`
	AffiliateCharge decimal.Decimal `json:"affiliate_charge"`
	Status          string          `json:"status"` // pending, success, failed
	GatewayRef      string          `json:"gateway_ref,omitempty"`
	Created         time.Time       `json:"created"`
	Updated         time.Time       `json:"updated"`
}

const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

// Settled reports whether the transaction reached a terminal state.
func (t *Transaction) Settled() bool {
	return t.Status == TxStatusSuccess || t.Status == TxStatusFailed
}
