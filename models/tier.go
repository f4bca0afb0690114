package models

import (
	"github.com/shopspring/decimal"
)

// PricingTier is a priced ticket class for an event with finite seat
// inventory. available_seats is mutated only through the store's
// reserve/release operations, never written directly by callers.
type PricingTier struct {
	ID                  string          `json:"id"`
	EventID             string          `json:"event_id"`
	Name                string          `json:"name"`
	TotalSeats          int             `json:"total_seats"`
	AvailableSeats      int             `json:"available_seats"`
	UnitAmount          decimal.Decimal `json:"unit_amount"`
	AffiliateUnitAmount decimal.Decimal `json:"affiliate_unit_amount"`
}
