// Package player holds the authoritative per-session aggregate: skills,
// upgrades, inventory and equipment tiers for one account. It is built from
// a persisted snapshot at login and serialized back wholesale on save.
package player

import (
	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/economy"
	"ironvale.gg/internal/sim/progression"
	"ironvale.gg/internal/sim/tuning"
)

// SkillNames lists every tracked skill.
var SkillNames = []string{"combat", "mining", "smithing"}

// Player is the in-memory source of truth for one session. Durable state
// lives only in the store; a Player is discarded when its session ends.
type Player struct {
	ID       int64
	Username string

	Skills    map[string]*progression.Skill
	Upgrades  map[string]*economy.Upgrade
	Inventory map[string]int

	SwordTier   int
	PickaxeTier int
}

// Snapshot is the flat save/load shape exchanged with the persistence layer
// and the client. Stats carries one entry per skill level/xp column, per
// upgrade level column and per equipment tier; Inventory is keyed by item key.
type Snapshot struct {
	Stats     map[string]int `json:"stats"`
	Inventory map[string]int `json:"inventory"`
}

// New returns a fresh aggregate with every field at its starting value:
// skills at level 1, upgrades at level 0 with the next cost cached, a zero
// quantity per catalog item, tools at tier 1.
func New(t tuning.Tuning, cats *catalogs.Catalogs) *Player {
	p := &Player{
		Skills:      make(map[string]*progression.Skill, len(SkillNames)),
		Upgrades:    make(map[string]*economy.Upgrade, len(economy.UpgradeKeys)),
		Inventory:   make(map[string]int),
		SwordTier:   1,
		PickaxeTier: 1,
	}
	for _, name := range SkillNames {
		p.Skills[name] = &progression.Skill{Level: 1, XP: 0}
	}
	for _, key := range economy.UpgradeKeys {
		p.Upgrades[key] = &economy.Upgrade{Level: 0, Cost: economy.CachedCost(t, key, 0)}
	}
	for _, it := range cats.Items.Defs {
		p.Inventory[it.Key] = 0
	}
	return p
}

// FromSnapshot reconstructs an aggregate from persisted state. Missing fields
// keep their defaults so older snapshots load cleanly; out-of-range values
// are clamped and skill XP is renormalized against the curve. Upgrade costs
// are recomputed from level, never trusted from the snapshot.
func FromSnapshot(t tuning.Tuning, cats *catalogs.Catalogs, id int64, username string, snap Snapshot) *Player {
	p := New(t, cats)
	p.ID = id
	p.Username = username

	for _, name := range SkillNames {
		s := p.Skills[name]
		if v, ok := snap.Stats[name+"Level"]; ok {
			s.Level = clamp(v, t.Clamps.SkillLevelMin, t.Clamps.SkillLevelMax)
		}
		if v, ok := snap.Stats[name+"Xp"]; ok {
			s.XP = clamp(v, 0, t.Clamps.SkillXPMax)
		}
		progression.Apply(t, s, 0, nil)
	}
	for _, key := range economy.UpgradeKeys {
		u := p.Upgrades[key]
		if v, ok := snap.Stats[key+"Level"]; ok {
			u.Level = clamp(v, 0, t.Clamps.UpgradeLevelMax)
		}
		u.Cost = economy.CachedCost(t, key, u.Level)
	}
	if v, ok := snap.Stats["swordTier"]; ok {
		p.SwordTier = clamp(v, t.Clamps.ToolTierMin, t.Clamps.ToolTierMax)
	}
	if v, ok := snap.Stats["pickaxeTier"]; ok {
		p.PickaxeTier = clamp(v, t.Clamps.ToolTierMin, t.Clamps.ToolTierMax)
	}
	for key, qty := range snap.Inventory {
		if qty < 0 {
			qty = 0
		}
		p.Inventory[key] = qty
	}
	return p
}

// Snapshot serializes the aggregate back into the flat save shape.
func (p *Player) Snapshot() Snapshot {
	snap := Snapshot{
		Stats:     make(map[string]int, 2*len(p.Skills)+len(p.Upgrades)+2),
		Inventory: make(map[string]int, len(p.Inventory)),
	}
	for name, s := range p.Skills {
		snap.Stats[name+"Level"] = s.Level
		snap.Stats[name+"Xp"] = s.XP
	}
	for key, u := range p.Upgrades {
		snap.Stats[key+"Level"] = u.Level
	}
	snap.Stats["swordTier"] = p.SwordTier
	snap.Stats["pickaxeTier"] = p.PickaxeTier
	for key, qty := range p.Inventory {
		snap.Inventory[key] = qty
	}
	return snap
}

// Multiplier returns the effective value of an upgrade for this player.
func (p *Player) Multiplier(t tuning.Tuning, key string) float64 {
	u, ok := p.Upgrades[key]
	if !ok {
		return 1.0
	}
	return economy.Multiplier(t, key, u.Level)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
