// Package session runs one account's live game loop server-side. A Session
// owns the player aggregate plus the active combat target and mining node,
// applies discrete ops against the rules packages and fires save checkpoints
// after state-changing ops.
package session

import (
	"math"
	"math/rand"
	"sync"

	"ironvale.gg/internal/sim/catalogs"
	"ironvale.gg/internal/sim/economy"
	"ironvale.gg/internal/sim/player"
	"ironvale.gg/internal/sim/progression"
	"ironvale.gg/internal/sim/smithing"
	"ironvale.gg/internal/sim/tuning"
)

// Event is a gameplay notification pushed to the client stream.
type Event struct {
	Type   string `json:"type"`
	Skill  string `json:"skill,omitempty"`
	Level  int    `json:"level,omitempty"`
	Unlock string `json:"unlock,omitempty"`
	Target string `json:"target,omitempty"`
	Coins  int    `json:"coins,omitempty"`
	Ore    string `json:"ore,omitempty"`
	OreQty int    `json:"oreQty,omitempty"`
	XP     int    `json:"xp,omitempty"`
}

const (
	EventLevelUp    = "level_up"
	EventUnlock     = "unlock"
	EventKill       = "kill"
	EventNodeBroken = "node_broken"
)

// Session serializes all ops for one account behind a mutex. Checkpoint is
// fire-and-forget: the engine never waits on persistence.
type Session struct {
	mu sync.Mutex

	t    tuning.Tuning
	cats *catalogs.Catalogs
	p    *player.Player
	rng  *rand.Rand

	monster   catalogs.MonsterDef
	monsterHP float64
	oreNode   catalogs.OreDef
	oreHP     float64

	notify     func(Event)
	checkpoint func(player.Snapshot)
}

// New starts a session over the given aggregate. notify and checkpoint may
// be nil. The rng is injected so tests can fix drop rolls.
func New(t tuning.Tuning, cats *catalogs.Catalogs, p *player.Player, rng *rand.Rand, notify func(Event), checkpoint func(player.Snapshot)) *Session {
	s := &Session{t: t, cats: cats, p: p, rng: rng, notify: notify, checkpoint: checkpoint}
	s.monster = cats.Monsters.CurrentForLevel(p.Skills["combat"].Level)
	s.monsterHP = s.monster.BaseHealth
	s.oreNode = cats.Ores.CurrentForLevel(p.Skills["mining"].Level)
	s.oreHP = s.oreNode.NodeHealth
	return s
}

// Player returns the aggregate under the session lock. Callers must not
// retain the pointer across ops.
func (s *Session) Player() *player.Player { return s.p }

// ClickEnemy lands one click of sword damage on the active monster.
func (s *Session) ClickEnemy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sword := s.cats.Tools.Stats("sword", s.p.SwordTier)
	s.hitMonster(sword.DPS * s.p.Multiplier(s.t, "clickMultiplier"))
}

// CombatTick applies one second of passive sword damage.
func (s *Session) CombatTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sword := s.cats.Tools.Stats("sword", s.p.SwordTier)
	s.hitMonster(sword.DPS * s.p.Multiplier(s.t, "dpsMultiplier"))
}

// ClickNode lands one click of pickaxe damage on the active ore node.
func (s *Session) ClickNode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	pick := s.cats.Tools.Stats("pickaxe", s.p.PickaxeTier)
	s.hitNode(pick.MiningPower * s.p.Multiplier(s.t, "oreClickMultiplier"))
}

// MiningTick applies one second of passive pickaxe damage.
func (s *Session) MiningTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	pick := s.cats.Tools.Stats("pickaxe", s.p.PickaxeTier)
	s.hitNode(pick.MiningPower * s.p.Multiplier(s.t, "oreDpsMultiplier"))
}

// BuyUpgrade purchases the next level of an upgrade.
func (s *Session) BuyUpgrade(key string) economy.PurchaseOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.p.Upgrades[key]
	if !ok {
		return economy.PurchaseOutcome{}
	}
	out := economy.Buy(s.t, key, u, s.p.Inventory)
	if out.Bought {
		s.save()
	}
	return out
}

// SellBars sells bars for coins at the shop price.
func (s *Session) SellBars(barKey string, amount int) (sold, coins int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sold, coins = economy.SellBars(s.t, barKey, amount, s.p.Inventory)
	if sold > 0 {
		s.save()
	}
	return sold, coins
}

// Smelt converts ore to bars, awarding smithing XP.
func (s *Session) Smelt(material string, amount int) smithing.SmeltResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := smithing.Smelt(s.t, material, amount, s.p.Inventory)
	if res.BarsProduced > 0 {
		s.awardXP("smithing", res.XPGained, nil)
		s.save()
	}
	return res
}

// CraftTool upgrades a tool one tier, consuming bars.
func (s *Session) CraftTool(tool string, targetTier int) smithing.CraftResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	tier := &s.p.SwordTier
	if tool == "pickaxe" {
		tier = &s.p.PickaxeTier
	}
	res := smithing.CraftTool(s.t, tool, targetTier, s.p.Skills["smithing"].Level, tier, s.p.Inventory)
	if res.Crafted {
		s.awardXP("smithing", res.XPGained, nil)
		s.save()
	}
	return res
}

func (s *Session) hitMonster(damage float64) {
	s.monsterHP -= damage
	if s.monsterHP > 0 {
		return
	}
	coins := s.coinDrop()
	s.p.Inventory["coins"] += coins
	s.awardXP("combat", s.monster.XPReward, s.cats.Monsters)
	s.emit(Event{Type: EventKill, Target: s.monster.Name, Coins: coins, XP: s.monster.XPReward})

	s.monster = s.cats.Monsters.CurrentForLevel(s.p.Skills["combat"].Level)
	s.monsterHP = s.monster.BaseHealth
	s.save()
}

func (s *Session) hitNode(damage float64) {
	s.oreHP -= damage
	if s.oreHP > 0 {
		return
	}
	qty := s.oreDrop()
	oreKey := s.oreNode.Name + "Ore"
	s.p.Inventory[oreKey] += qty
	s.awardXP("mining", s.oreNode.XPReward, s.cats.Ores)
	s.emit(Event{Type: EventNodeBroken, Ore: oreKey, OreQty: qty, XP: s.oreNode.XPReward})

	s.oreNode = s.cats.Ores.CurrentForLevel(s.p.Skills["mining"].Level)
	s.oreHP = s.oreNode.NodeHealth
	s.save()
}

// coinDrop rolls the kill payout: 3..7 coins, each worth the monster's coin
// multiplier times the base coin value times the player's coin upgrade.
func (s *Session) coinDrop() int {
	n := s.between(s.t.CoinDropMin, s.t.CoinDropMax)
	per := int(math.Floor(s.t.CoinBaseValue * s.monster.CoinMultiplier * s.p.Multiplier(s.t, "coinMultiplier")))
	return n * per
}

// oreDrop rolls the node yield: 1..3 units scaled by the node's ore
// multiplier and the player's ore upgrade.
func (s *Session) oreDrop() int {
	n := s.between(s.t.OreDropMin, s.t.OreDropMax)
	qty := int(math.Floor(float64(n) * s.oreNode.OreMultiplier * s.p.Multiplier(s.t, "oreMultiplier")))
	if qty < 1 {
		qty = 1
	}
	return qty
}

func (s *Session) awardXP(skill string, amount int, unlocks progression.UnlockTable) {
	res := progression.Apply(s.t, s.p.Skills[skill], amount, unlocks)
	if res.LeveledUp {
		s.emit(Event{Type: EventLevelUp, Skill: skill, Level: res.NewLevel})
	}
	if res.Unlocked != "" {
		s.emit(Event{Type: EventUnlock, Skill: skill, Level: res.NewLevel, Unlock: res.Unlocked})
	}
}

func (s *Session) between(lo, hi int) int {
	if s.rng == nil || hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

func (s *Session) emit(ev Event) {
	if s.notify != nil {
		s.notify(ev)
	}
}

func (s *Session) save() {
	if s.checkpoint != nil {
		s.checkpoint(s.p.Snapshot())
	}
}
