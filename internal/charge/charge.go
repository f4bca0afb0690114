// Package charge computes the fee split for a purchase. It is pure: the same
// inputs always produce the same breakdown, so the split can be recomputed at
// settlement time and for later audits without drift.
package charge

import (
	"github.com/shopspring/decimal"
)

var (
	gatewayRate     = decimal.NewFromFloat(0.015)
	gatewayFlatFee  = decimal.NewFromInt(100)
	gatewayFeeCap   = decimal.NewFromInt(2000)
	flatFeeFloor    = decimal.NewFromInt(2500)
	flatFeeCeiling  = decimal.NewFromInt(125500)
	lowTierCeiling  = decimal.NewFromInt(1000)
	midTierCeiling  = decimal.NewFromInt(5999)
	lowTierPerUnit  = decimal.NewFromInt(100)
	midTierPerUnit  = decimal.NewFromInt(300)
	highTierRate    = decimal.NewFromFloat(0.05)
	two             = decimal.NewFromInt(2)
)

// Breakdown is the fee split for one purchase, in the platform's base
// currency unit.
type Breakdown struct {
	GatewayCharge  decimal.Decimal
	PlatformCharge decimal.Decimal
	CompanyShare   decimal.Decimal
	AffiliateShare decimal.Decimal
}

// Compute derives the gateway fee, the platform charge, and the company and
// affiliate shares for a purchase of quantity units at unitPrice each, where
// gross is the total amount the gateway reported as paid.
//
// Zero-cost tickets never reach this function; that path settles inline
// without any fee computation.
func Compute(gross decimal.Decimal, quantity int, unitPrice decimal.Decimal, hasAffiliate bool) Breakdown {
	gateway := gatewayCharge(gross)
	platform := platformCharge(quantity, unitPrice)

	profit := platform.Sub(gateway)

	b := Breakdown{
		GatewayCharge:  gateway,
		PlatformCharge: platform,
	}
	if hasAffiliate {
		half := profit.Div(two)
		b.CompanyShare = half
		b.AffiliateShare = half
	} else {
		b.CompanyShare = profit
		b.AffiliateShare = decimal.Zero
	}
	return b
}

// gatewayCharge is tiered on the gross amount: 1.5% below 2500, 1.5% plus a
// flat 100 between 2500 and 125500 inclusive, and a flat 2000 above that.
func gatewayCharge(gross decimal.Decimal) decimal.Decimal {
	switch {
	case gross.LessThan(flatFeeFloor):
		return gross.Mul(gatewayRate)
	case gross.LessThanOrEqual(flatFeeCeiling):
		return gross.Mul(gatewayRate).Add(gatewayFlatFee)
	default:
		return gatewayFeeCap
	}
}

// platformCharge is a per-unit policy scaled by quantity: 100 per unit up to
// a unit price of 1000, 300 per unit up to 5999, 5% of the unit price above.
func platformCharge(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))

	switch {
	case unitPrice.LessThanOrEqual(lowTierCeiling):
		return lowTierPerUnit.Mul(qty)
	case unitPrice.LessThanOrEqual(midTierCeiling):
		return midTierPerUnit.Mul(qty)
	default:
		return unitPrice.Mul(highTierRate).Mul(qty)
	}
}
