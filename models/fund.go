package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundAccount is a running balance credited by successful settlements.
// The platform holds a single company account; each affiliate gets a
// client account created on first credit.
type FundAccount struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"` // company, client
	OwnerID string          `json:"owner_id,omitempty"`
	Balance decimal.Decimal `json:"balance"`
	Updated time.Time       `json:"updated"`
}

const (
	FundAccountCompany = "company"
	FundAccountClient  = "client"
)
