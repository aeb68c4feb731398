package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds every balance constant the rules engine consumes. Values load
// from tuning.yaml; servers start from Defaults() and overlay the file on top.
type Tuning struct {
	// XP curve: xpToNext(level) = floor(XPCurveFactor * level^XPCurveExponent).
	XPCurveFactor   float64 `yaml:"xp_curve_factor"`
	XPCurveExponent float64 `yaml:"xp_curve_exponent"`

	// Upgrade economy.
	UpgradeCostGrowth float64            `yaml:"upgrade_cost_growth"`
	UpgradeBaseCosts  map[string]int     `yaml:"upgrade_base_costs"`
	UpgradeIncrements map[string]float64 `yaml:"upgrade_increments"`

	// Ore requirement for ore-class upgrades: floor(OreReqBase + OreReqPerLevel*level),
	// material chosen by level bracket.
	OreReqBase     float64 `yaml:"ore_req_base"`
	OreReqPerLevel float64 `yaml:"ore_req_per_level"`
	OreReqIronAt   int     `yaml:"ore_req_iron_at"`
	OreReqGoldAt   int     `yaml:"ore_req_gold_at"`

	// Smithing, keyed by material.
	SmeltXP      map[string]int `yaml:"smelt_xp"`
	CraftXP      map[string]int `yaml:"craft_xp"`
	CraftBarCost map[string]int `yaml:"craft_bar_cost"`
	MatReqLevel  map[string]int `yaml:"mat_req_level"`

	// Shop.
	BarSellPrices map[string]int `yaml:"bar_sell_prices"`

	// Drops.
	CoinBaseValue float64 `yaml:"coin_base_value"`
	CoinDropMin   int     `yaml:"coin_drop_min"`
	CoinDropMax   int     `yaml:"coin_drop_max"`
	OreDropMin    int     `yaml:"ore_drop_min"`
	OreDropMax    int     `yaml:"ore_drop_max"`

	// Server-side clamps applied before commit.
	Clamps Clamps `yaml:"clamps"`
}

type Clamps struct {
	SkillLevelMin   int `yaml:"skill_level_min"`
	SkillLevelMax   int `yaml:"skill_level_max"`
	SkillXPMax      int `yaml:"skill_xp_max"`
	UpgradeLevelMax int `yaml:"upgrade_level_max"`
	ToolTierMin     int `yaml:"tool_tier_min"`
	ToolTierMax     int `yaml:"tool_tier_max"`
}

func Defaults() Tuning {
	return Tuning{
		XPCurveFactor:   50,
		XPCurveExponent: 1.5,

		UpgradeCostGrowth: 1.25,
		UpgradeBaseCosts: map[string]int{
			"coinMultiplier":     150,
			"dpsMultiplier":      100,
			"clickMultiplier":    60,
			"oreMultiplier":      50,
			"oreDpsMultiplier":   40,
			"oreClickMultiplier": 25,
		},
		UpgradeIncrements: map[string]float64{
			"coinMultiplier":     0.12,
			"dpsMultiplier":      0.12,
			"clickMultiplier":    0.12,
			"oreMultiplier":      0.20,
			"oreDpsMultiplier":   0.12,
			"oreClickMultiplier": 0.12,
		},

		OreReqBase:     5,
		OreReqPerLevel: 1.5,
		OreReqIronAt:   10,
		OreReqGoldAt:   20,

		SmeltXP:      map[string]int{"copper": 8, "iron": 16, "gold": 28},
		CraftXP:      map[string]int{"copper": 40, "iron": 70, "gold": 120},
		CraftBarCost: map[string]int{"copper": 100, "iron": 300, "gold": 500},
		MatReqLevel:  map[string]int{"copper": 1, "iron": 5, "gold": 10},

		BarSellPrices: map[string]int{"copperBar": 7, "ironBar": 15, "goldBar": 30},

		CoinBaseValue: 15,
		CoinDropMin:   3,
		CoinDropMax:   7,
		OreDropMin:    1,
		OreDropMax:    3,

		Clamps: Clamps{
			SkillLevelMin:   1,
			SkillLevelMax:   99,
			SkillXPMax:      999_999_999,
			UpgradeLevelMax: 50,
			ToolTierMin:     1,
			ToolTierMax:     5,
		},
	}
}

// Load reads tuning.yaml over the compiled-in defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
