package charge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestComputeMidBracketNoAffiliate(t *testing.T) {
	// gross=3000, qty=2, unit=1500: gateway = 3000*0.015+100 = 145,
	// platform = 300*2 = 600, company gets the whole 455 profit.
	b := Compute(d("3000"), 2, d("1500"), false)

	assert.True(t, b.GatewayCharge.Equal(d("145")), "gateway charge = %s", b.GatewayCharge)
	assert.True(t, b.PlatformCharge.Equal(d("600")), "platform charge = %s", b.PlatformCharge)
	assert.True(t, b.CompanyShare.Equal(d("455")), "company share = %s", b.CompanyShare)
	assert.True(t, b.AffiliateShare.IsZero())
}

func TestComputeAffiliateSplitsProfit(t *testing.T) {
	b := Compute(d("3000"), 2, d("1500"), true)

	require.True(t, b.CompanyShare.Equal(b.AffiliateShare))
	assert.True(t, b.CompanyShare.Equal(d("227.5")), "company share = %s", b.CompanyShare)
	assert.True(t, b.CompanyShare.Add(b.AffiliateShare).Equal(d("455")))
}

func TestGatewayChargeBrackets(t *testing.T) {
	cases := []struct {
		gross string
		want  string
	}{
		{"1000", "15"},       // below 2500: pure 1.5%
		{"2499", "37.485"},   // still below the flat-fee floor
		{"2500", "137.5"},    // 1.5% + 100 kicks in at 2500
		{"125500", "1982.5"}, // last gross inside the flat-fee band
		{"125501", "2000"},   // capped above the band
		{"1000000", "2000"},
	}
	for _, c := range cases {
		got := gatewayCharge(d(c.gross))
		assert.True(t, got.Equal(d(c.want)), "gross %s: got %s, want %s", c.gross, got, c.want)
	}
}

func TestPlatformChargeBrackets(t *testing.T) {
	cases := []struct {
		unit string
		qty  int
		want string
	}{
		{"500", 1, "100"},
		{"1000", 3, "300"},  // boundary stays in the low bracket
		{"1001", 2, "600"},  // first price in the mid bracket
		{"5999", 1, "300"},
		{"6000", 1, "300"},  // 5% of 6000
		{"10000", 2, "1000"}, // 5% of 10000, twice
	}
	for _, c := range cases {
		got := platformCharge(c.qty, d(c.unit))
		assert.True(t, got.Equal(d(c.want)), "unit %s qty %d: got %s, want %s", c.unit, c.qty, got, c.want)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	first := Compute(d("87650"), 7, d("12521.43"), true)
	for i := 0; i < 100; i++ {
		again := Compute(d("87650"), 7, d("12521.43"), true)
		require.True(t, first.GatewayCharge.Equal(again.GatewayCharge))
		require.True(t, first.PlatformCharge.Equal(again.PlatformCharge))
		require.True(t, first.CompanyShare.Equal(again.CompanyShare))
		require.True(t, first.AffiliateShare.Equal(again.AffiliateShare))
	}
}

func TestComputeNegativeProfitStillSplits(t *testing.T) {
	// A cheap single ticket at a high gross can cost more in gateway fees
	// than the platform charge covers. The split still balances.
	b := Compute(d("125500"), 1, d("900"), true)

	require.True(t, b.PlatformCharge.Equal(d("100")))
	require.True(t, b.GatewayCharge.Equal(d("1982.5")))
	assert.True(t, b.CompanyShare.Add(b.AffiliateShare).Equal(b.PlatformCharge.Sub(b.GatewayCharge)))
	assert.True(t, b.CompanyShare.IsNegative())
}
