package affiliate

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/peptora/backoffice/calendar"
)

// =============================================================================
// REVENUE
// =============================================================================

// RevenueFromCents converts minor units to whole currency units.
func RevenueFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// NetReferredRevenue sums paid orders placed inside window, in whole units.
func NetReferredRevenue(orders []Order, window calendar.Range) decimal.Decimal {
	cents := lo.SumBy(orders, func(o Order) int64 {
		if !o.CountsTowardRevenue() || !window.Contains(o.PlacedOn) {
			return 0
		}
		return o.AmountCents
	})
	return RevenueFromCents(cents)
}

// =============================================================================
// EVALUATION
// =============================================================================

// Evaluation is an affiliate's standing for a given revenue figure.
type Evaluation struct {
	Revenue decimal.Decimal
	Tier    Tier
	Rate    decimal.Decimal

	// NextTier is nil at the top tier.
	NextTier      *Tier
	RevenueToNext decimal.Decimal
}

// Evaluate computes the tier, rate and distance to the next tier.
func Evaluate(revenue decimal.Decimal) Evaluation {
	tier := CalculateTier(revenue)
	eval := Evaluation{
		Revenue:       revenue,
		Tier:          tier,
		Rate:          tier.CommissionRate(),
		RevenueToNext: decimal.Zero,
	}
	if next, ok := tier.Next(); ok {
		eval.NextTier = &next
		eval.RevenueToNext = decimal.Max(next.MinRevenue().Sub(revenue), decimal.Zero)
	}
	return eval
}

// Commission returns the commission on amountCents at tier's rate, in cents,
// rounded half away from zero.
func Commission(amountCents int64, tier Tier) int64 {
	return decimal.NewFromInt(amountCents).Mul(tier.CommissionRate()).Round(0).IntPart()
}
