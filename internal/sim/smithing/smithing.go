// Package smithing implements ore smelting and tool crafting. Both act on a
// plain inventory map plus an equipment tier pointer; skill XP awards are
// returned for the caller to apply.
package smithing

import (
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/tuning"
)

// Material names, shared by the smelt/craft tables.
var materials = map[string]struct{ ore, bar string }{
	"copper": {"copperOre", "copperBar"},
	"iron":   {"ironOre", "ironBar"},
	"gold":   {"goldOre", "goldBar"},
}

// tierMaterial maps the craft target tier to the material it consumes.
// Tier 1 is the starting tier and is never crafted.
var tierMaterial = map[int]string{2: "copper", 3: "iron", 4: "gold"}

// SmeltResult reports one smelt batch. Zero output is a no-op, not an error.
type SmeltResult struct {
	BarsProduced int `json:"barsProduced"`
	XPGained     int `json:"xpGained"`
}

// Smelt converts up to amount units of the material's ore into bars 1:1,
// granting smithing XP per bar. Unknown materials and empty inventories
// produce zero output.
func Smelt(t tuning.Tuning, material string, amount int, inv map[string]int) SmeltResult {
	keys, ok := materials[material]
	if !ok || amount <= 0 {
		return SmeltResult{}
	}
	n := inv[keys.ore]
	if n > amount {
		n = amount
	}
	if n <= 0 {
		return SmeltResult{}
	}
	inv[keys.ore] -= n
	inv[keys.bar] += n
	return SmeltResult{BarsProduced: n, XPGained: n * t.SmeltXP[material]}
}

// CraftReject explains a refused craft.
type CraftReject string

const (
	RejectBadTool   CraftReject = "bad_tool"
	RejectBadTier   CraftReject = "bad_tier"
	RejectLowSkill  CraftReject = "low_skill"
	RejectShortBars CraftReject = "short_bars"
)

// CraftResult reports a craft attempt. On rejection nothing was mutated.
type CraftResult struct {
	Crafted   bool        `json:"crafted"`
	Reject    CraftReject `json:"reject,omitempty"`
	NewTier   int         `json:"newTier,omitempty"`
	BarsUsed  int         `json:"barsUsed,omitempty"`
	BarKey    string      `json:"barKey,omitempty"`
	XPGained  int         `json:"xpGained,omitempty"`
	NeedBars  int         `json:"needBars,omitempty"`
	NeedSkill int         `json:"needSkill,omitempty"`
}

// CraftTool upgrades a tool one tier, consuming bars. targetTier must be
// exactly *tier+1 and at most catalogs.MaxToolTier; the smithing level must
// meet the target material's unlock threshold.
func CraftTool(t tuning.Tuning, tool string, targetTier, smithingLevel int, tier *int, inv map[string]int) CraftResult {
	if tool != "sword" && tool != "pickaxe" {
		return CraftResult{Reject: RejectBadTool}
	}
	if targetTier != *tier+1 || targetTier > catalogs.MaxToolTier {
		return CraftResult{Reject: RejectBadTier}
	}
	mat := tierMaterial[targetTier]

	if need := t.MatReqLevel[mat]; smithingLevel < need {
		return CraftResult{Reject: RejectLowSkill, NeedSkill: need}
	}
	barKey := materials[mat].bar
	need := t.CraftBarCost[mat]
	if inv[barKey] < need {
		return CraftResult{Reject: RejectShortBars, NeedBars: need, BarKey: barKey}
	}

	inv[barKey] -= need
	*tier = targetTier
	return CraftResult{
		Crafted:  true,
		NewTier:  targetTier,
		BarsUsed: need,
		BarKey:   barKey,
		XPGained: t.CraftXP[mat],
	}
}
