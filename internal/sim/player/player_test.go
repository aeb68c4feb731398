package player

import (
	"math"
	"reflect"
	"testing"

	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/economy"
	"ironvale.gg/internal/sim/tuning"
)

func TestNew_Defaults(t *testing.T) {
	tn := tuning.Defaults()
	p := New(tn, catalogs.Defaults())

	for _, name := range SkillNames {
		s := p.Skills[name]
		if s.Level != 1 || s.XP != 0 {
			t.Fatalf("skill %s = %+v, want level 1 xp 0", name, s)
		}
	}
	for _, key := range economy.UpgradeKeys {
		u := p.Upgrades[key]
		if u.Level != 0 {
			t.Fatalf("upgrade %s level = %d, want 0", key, u.Level)
		}
		if want := economy.CostCurve(tn, tn.UpgradeBaseCosts[key], 1); u.Cost != want {
			t.Fatalf("upgrade %s cost = %d, want %d", key, u.Cost, want)
		}
	}
	if p.Inventory["coins"] != 0 || p.Inventory["copperOre"] != 0 {
		t.Fatalf("inventory must default to zero: %v", p.Inventory)
	}
	if _, ok := p.Inventory["goldBar"]; !ok {
		t.Fatalf("every catalog item needs an inventory entry")
	}
	if p.SwordTier != 1 || p.PickaxeTier != 1 {
		t.Fatalf("tools must start at tier 1")
	}
}

func TestFromSnapshot_RoundTripIdempotent(t *testing.T) {
	tn := tuning.Defaults()
	cats := catalogs.Defaults()

	snap := Snapshot{
		Stats: map[string]int{
			"combatLevel": 7, "combatXp": 120,
			"miningLevel": 12, "miningXp": 44,
			"smithingLevel": 5, "smithingXp": 0,
			"coinMultiplierLevel": 3, "oreMultiplierLevel": 12,
			"swordTier": 2, "pickaxeTier": 3,
		},
		Inventory: map[string]int{"coins": 250, "ironOre": 23, "ironBar": 300},
	}

	p := FromSnapshot(tn, cats, 7, "miner_joe", snap)
	once := p.Snapshot()
	twice := FromSnapshot(tn, cats, 7, "miner_joe", once).Snapshot()
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("snapshot round trip not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}

	if p.Skills["combat"].Level != 7 || p.Skills["combat"].XP != 120 {
		t.Fatalf("combat skill lost: %+v", p.Skills["combat"])
	}
	if p.SwordTier != 2 || p.PickaxeTier != 3 {
		t.Fatalf("tiers lost: %d %d", p.SwordTier, p.PickaxeTier)
	}
	// Missing fields keep defaults.
	if p.Upgrades["dpsMultiplier"].Level != 0 {
		t.Fatalf("missing upgrade field must default to 0")
	}
	if once.Inventory["copperOre"] != 0 {
		t.Fatalf("missing inventory keys must serialize as 0")
	}
}

func TestFromSnapshot_ClampsAndNormalizes(t *testing.T) {
	tn := tuning.Defaults()
	cats := catalogs.Defaults()

	snap := Snapshot{
		Stats: map[string]int{
			"combatLevel":         150,
			"miningXp":            -9,
			"swordTier":           9,
			"coinMultiplierLevel": 200,
			// Over-threshold XP rolls into levels on load.
			"smithingLevel": 1, "smithingXp": 60,
		},
		Inventory: map[string]int{"coins": -50},
	}
	p := FromSnapshot(tn, cats, 1, "u", snap)

	if p.Skills["combat"].Level != 99 {
		t.Fatalf("combat level = %d, want clamp to 99", p.Skills["combat"].Level)
	}
	if p.Skills["mining"].XP != 0 {
		t.Fatalf("negative xp must clamp to 0")
	}
	if p.SwordTier != 5 {
		t.Fatalf("sword tier = %d, want clamp to 5", p.SwordTier)
	}
	if p.Upgrades["coinMultiplier"].Level != 50 {
		t.Fatalf("upgrade level = %d, want clamp to 50", p.Upgrades["coinMultiplier"].Level)
	}
	if s := p.Skills["smithing"]; s.Level != 2 || s.XP != 10 {
		t.Fatalf("over-threshold xp must normalize, got %+v", s)
	}
	if p.Inventory["coins"] != 0 {
		t.Fatalf("negative quantity must clamp to 0, got %d", p.Inventory["coins"])
	}
}

func TestMultiplier(t *testing.T) {
	tn := tuning.Defaults()
	p := New(tn, catalogs.Defaults())
	p.Upgrades["dpsMultiplier"].Level = 4
	if got := p.Multiplier(tn, "dpsMultiplier"); math.Abs(got-1.48) > 1e-9 {
		t.Fatalf("dps multiplier = %v, want 1.48", got)
	}
	if got := p.Multiplier(tn, "unknown"); got != 1.0 {
		t.Fatalf("unknown upgrade multiplier = %v, want 1.0", got)
	}
}
