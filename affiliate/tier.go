package affiliate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER - Commission band keyed by trailing revenue
// =============================================================================

// Tier is ordered: a higher value is a higher band.
type Tier int

const (
	TierStarter Tier = iota
	TierGrowth
	TierScale
	TierElite
	TierApex
)

// TierBand is one row of the tier table.
type TierBand struct {
	Tier       Tier
	MinRevenue decimal.Decimal // inclusive, whole currency units
	Rate       decimal.Decimal // fraction of referred revenue
}

// tierTable is sorted by MinRevenue ascending. Adjusting a tier is a one-row edit.
var tierTable = []TierBand{
	{Tier: TierStarter, MinRevenue: decimal.NewFromInt(10_000), Rate: decimal.RequireFromString("0.10")},
	{Tier: TierGrowth, MinRevenue: decimal.NewFromInt(25_000), Rate: decimal.RequireFromString("0.14")},
	{Tier: TierScale, MinRevenue: decimal.NewFromInt(75_000), Rate: decimal.RequireFromString("0.18")},
	{Tier: TierElite, MinRevenue: decimal.NewFromInt(150_000), Rate: decimal.RequireFromString("0.21")},
	{Tier: TierApex, MinRevenue: decimal.NewFromInt(250_000), Rate: decimal.RequireFromString("0.23")},
}

var tierNames = map[Tier]string{
	TierStarter: "Starter",
	TierGrowth:  "Growth",
	TierScale:   "Scale",
	TierElite:   "Elite",
	TierApex:    "Apex",
}

// Tiers returns a copy of the tier table, lowest tier first.
func Tiers() []TierBand {
	out := make([]TierBand, len(tierTable))
	copy(out, tierTable)
	return out
}

// CalculateTier maps trailing-30-day net referred revenue, in whole currency
// units, to the highest tier whose threshold does not exceed it. Revenue
// below every threshold maps to the lowest tier.
func CalculateTier(revenue decimal.Decimal) Tier {
	for i := len(tierTable) - 1; i >= 0; i-- {
		if revenue.GreaterThanOrEqual(tierTable[i].MinRevenue) {
			return tierTable[i].Tier
		}
	}
	return tierTable[0].Tier
}

// CommissionRate returns the fixed rate of t. It panics for a value outside
// the tier table; that is a programming error, not bad input.
func CommissionRate(t Tier) decimal.Decimal {
	return t.band().Rate
}

func (t Tier) CommissionRate() decimal.Decimal { return CommissionRate(t) }
func (t Tier) MinRevenue() decimal.Decimal     { return t.band().MinRevenue }

func (t Tier) band() TierBand {
	band, ok := lo.Find(tierTable, func(b TierBand) bool { return b.Tier == t })
	if !ok {
		panic(fmt.Sprintf("affiliate: unknown tier %d", int(t)))
	}
	return band
}

// Next returns the tier above t, if any.
func (t Tier) Next() (Tier, bool) {
	if t >= TierApex || t < TierStarter {
		return t, false
	}
	return t + 1, true
}

func (t Tier) IsValid() bool {
	_, ok := tierNames[t]
	return ok
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// ParseTier accepts a tier name, case-insensitively.
func ParseTier(name string) (Tier, error) {
	for t, n := range tierNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return 0, &UnknownTierError{Name: name}
}

func (t Tier) MarshalJSON() ([]byte, error) {
	if !t.IsValid() {
		return nil, &UnknownTierError{Name: t.String()}
	}
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("tier must be a string: %w", err)
	}
	parsed, err := ParseTier(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
