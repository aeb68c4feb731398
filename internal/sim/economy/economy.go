// Package economy implements the cost-scaling upgrade purchases and the bar
// shop. All operations are pure mutations over in-memory state; failed
// preconditions report shortfalls instead of returning errors.
package economy

import (
	"math"
	"strings"

	"ironvale.gg/internal/sim/tuning"
)

// Upgrade is one purchasable multiplier. Cost is a cache of
// CostCurve(base, Level+1); the curve is the source of truth.
type Upgrade struct {
	Level int `json:"level"`
	Cost  int `json:"cost"`
}

// UpgradeKeys lists every purchasable upgrade, in display order.
var UpgradeKeys = []string{
	"coinMultiplier",
	"dpsMultiplier",
	"clickMultiplier",
	"oreMultiplier",
	"oreDpsMultiplier",
	"oreClickMultiplier",
}

// CostCurve returns the coin cost to buy into the given level:
// floor(base * growth^level).
func CostCurve(t tuning.Tuning, base, level int) int {
	return int(math.Floor(float64(base) * math.Pow(t.UpgradeCostGrowth, float64(level))))
}

// CachedCost returns the cost cache value for an upgrade sitting at level,
// i.e. the price of the next purchase.
func CachedCost(t tuning.Tuning, key string, level int) int {
	return CostCurve(t, t.UpgradeBaseCosts[key], level+1)
}

// Multiplier returns the effective multiplier for an upgrade at level.
func Multiplier(t tuning.Tuning, key string, level int) float64 {
	return 1.00 + t.UpgradeIncrements[key]*float64(level)
}

// IsOreClass reports whether the upgrade also costs ore per purchase.
func IsOreClass(key string) bool {
	return strings.HasPrefix(key, "ore")
}

// OreRequirement returns the ore item key and amount an ore-class upgrade at
// the given level needs for its next purchase.
func OreRequirement(t tuning.Tuning, level int) (oreKey string, amount int) {
	switch {
	case level < t.OreReqIronAt:
		oreKey = "copperOre"
	case level < t.OreReqGoldAt:
		oreKey = "ironOre"
	default:
		oreKey = "goldOre"
	}
	return oreKey, int(math.Floor(t.OreReqBase + t.OreReqPerLevel*float64(level)))
}

// PurchaseOutcome reports a Buy attempt. When Bought is false the shortfall
// fields say which resources were missing and by how much, for UI messaging;
// nothing was mutated.
type PurchaseOutcome struct {
	Bought bool

	CoinCost  int
	OreKey    string
	OreNeeded int

	CoinsShort int
	OreShort   int

	NewLevel int
	NewCost  int
}

// Buy attempts to purchase the next level of the upgrade, debiting coins
// (and ore, for ore-class upgrades) from inv. Preconditions are checked
// before any mutation.
func Buy(t tuning.Tuning, key string, u *Upgrade, inv map[string]int) PurchaseOutcome {
	out := PurchaseOutcome{CoinCost: u.Cost}
	if out.CoinCost <= 0 {
		out.CoinCost = CachedCost(t, key, u.Level)
	}

	if IsOreClass(key) {
		out.OreKey, out.OreNeeded = OreRequirement(t, u.Level)
	}

	if short := out.CoinCost - inv["coins"]; short > 0 {
		out.CoinsShort = short
	}
	if out.OreKey != "" {
		if short := out.OreNeeded - inv[out.OreKey]; short > 0 {
			out.OreShort = short
		}
	}
	if out.CoinsShort > 0 || out.OreShort > 0 {
		return out
	}

	inv["coins"] -= out.CoinCost
	if out.OreKey != "" {
		inv[out.OreKey] -= out.OreNeeded
		if inv[out.OreKey] < 0 {
			inv[out.OreKey] = 0
		}
	}

	u.Level++
	u.Cost = CachedCost(t, key, u.Level)

	out.Bought = true
	out.NewLevel = u.Level
	out.NewCost = u.Cost
	return out
}

// SellBars sells up to amount bars of the given kind at the catalog price,
// crediting coins. Selling more than held sells what is there; selling a
// non-bar key is a no-op.
func SellBars(t tuning.Tuning, barKey string, amount int, inv map[string]int) (sold, coins int) {
	price, ok := t.BarSellPrices[barKey]
	if !ok || amount <= 0 {
		return 0, 0
	}
	have := inv[barKey]
	if have <= 0 {
		return 0, 0
	}
	sold = amount
	if sold > have {
		sold = have
	}
	coins = sold * price
	inv[barKey] -= sold
	inv["coins"] += coins
	return sold, coins
}
