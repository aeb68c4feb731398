package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Catalogs bundles the static game data the rules engine reads: the item
// catalog backing the inventory schema, the monster and ore unlock tables,
// and the tool tier stats. Loaded once at startup and treated as immutable.
type Catalogs struct {
	Items    ItemCatalog
	Monsters MonsterTable
	Ores     OreTable
	Tools    ToolCatalog
}

type ItemCatalog struct {
	Defs   []ItemDef
	ByKey  map[string]ItemDef
	Digest string
}

// ItemDef pairs the human-readable catalog name ("Copper Ore") with the
// machine key the client payloads use ("copperOre").
type ItemDef struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Tier        int    `json:"tier,omitempty"`
}

type MonsterTable struct {
	// Entries ordered by declaration; ties on unlock level resolve to the
	// later entry, matching the linear-scan selection rule.
	Entries []MonsterDef
	Digest  string
}

type MonsterDef struct {
	Name           string  `json:"name"`
	UnlockLevel    int     `json:"unlock_level"`
	BaseHealth     float64 `json:"base_health"`
	XPReward       int     `json:"xp_reward"`
	CoinMultiplier float64 `json:"coin_multiplier"`
	Sprite         string  `json:"sprite,omitempty"`
}

type OreTable struct {
	Entries []OreDef
	Digest  string
}

type OreDef struct {
	Name          string  `json:"name"`
	UnlockLevel   int     `json:"unlock_level"`
	NodeHealth    float64 `json:"node_health"`
	XPReward      int     `json:"xp_reward"`
	OreMultiplier float64 `json:"ore_multiplier"`
	Sprite        string  `json:"sprite,omitempty"`
}

type ToolCatalog struct {
	// Tiers indexed by tool type ("sword", "pickaxe"), then tier 1..MaxToolTier.
	Tiers  map[string]map[int]ToolStats
	Digest string
}

type ToolStats struct {
	Name        string  `json:"name"`
	DPS         float64 `json:"dps,omitempty"`
	MiningPower float64 `json:"mining_power,omitempty"`
	Sprite      string  `json:"sprite,omitempty"`
}

// MaxToolTier is the highest tier the stat table defines. The stats schema
// stores tiers up to 5 for forward compatibility, but no tier-5 tools exist.
const MaxToolTier = 4

// CurrentForLevel returns the highest-threshold monster the level qualifies
// for. The table always contains an unlock-0 entry, so the first entry is the
// fallback.
func (t MonsterTable) CurrentForLevel(level int) MonsterDef {
	cur := t.Entries[0]
	for _, m := range t.Entries {
		if level >= m.UnlockLevel {
			cur = m
		}
	}
	return cur
}

// NameUnlockedAt returns the entry whose threshold is exactly level, if any.
// Used for unlock notifications on level-up.
func (t MonsterTable) NameUnlockedAt(level int) (string, bool) {
	for _, m := range t.Entries {
		if m.UnlockLevel == level {
			return m.Name, true
		}
	}
	return "", false
}

func (t OreTable) CurrentForLevel(level int) OreDef {
	cur := t.Entries[0]
	for _, o := range t.Entries {
		if level >= o.UnlockLevel {
			cur = o
		}
	}
	return cur
}

func (t OreTable) NameUnlockedAt(level int) (string, bool) {
	for _, o := range t.Entries {
		if o.UnlockLevel == level {
			return o.Name, true
		}
	}
	return "", false
}

// Stats returns the stat row for a tool at the given tier, falling back to
// tier 1 when the tier is outside the table (the unconditional starting tier).
func (t ToolCatalog) Stats(tool string, tier int) ToolStats {
	tiers, ok := t.Tiers[tool]
	if !ok {
		return ToolStats{}
	}
	if s, ok := tiers[tier]; ok {
		return s
	}
	return tiers[1]
}

// Load reads the catalog files from configDir. Missing files fall back to the
// compiled-in defaults so tests and dev servers run without a config tree.
func Load(configDir string) (*Catalogs, error) {
	c := Defaults()

	if err := loadIntoItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadIntoMonsters(filepath.Join(configDir, "monsters.json"), &c.Monsters); err != nil {
		return nil, err
	}
	if err := loadIntoOres(filepath.Join(configDir, "ores.json"), &c.Ores); err != nil {
		return nil, err
	}
	if err := loadIntoTools(filepath.Join(configDir, "tools.json"), &c.Tools); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the tables are internally consistent: every item has a
// working name<->key round trip, the unlock tables are non-empty with an
// unlock-0 entry first, and both tool types define tiers 1..MaxToolTier.
func (c *Catalogs) Validate() error {
	if len(c.Items.Defs) == 0 {
		return fmt.Errorf("items: empty catalog")
	}
	for _, d := range c.Items.Defs {
		if d.Key == "" || d.Name == "" {
			return fmt.Errorf("items: def %+v missing key or name", d)
		}
		if got := KeyForName(d.Name); got != d.Key {
			return fmt.Errorf("items: name %q maps to key %q, catalog says %q", d.Name, got, d.Key)
		}
	}
	if len(c.Monsters.Entries) == 0 || c.Monsters.Entries[0].UnlockLevel != 0 {
		return fmt.Errorf("monsters: table must start with an unlock-0 entry")
	}
	if len(c.Ores.Entries) == 0 || c.Ores.Entries[0].UnlockLevel != 0 {
		return fmt.Errorf("ores: table must start with an unlock-0 entry")
	}
	for _, tool := range []string{"sword", "pickaxe"} {
		tiers, ok := c.Tools.Tiers[tool]
		if !ok {
			return fmt.Errorf("tools: missing %s", tool)
		}
		for tier := 1; tier <= MaxToolTier; tier++ {
			if _, ok := tiers[tier]; !ok {
				return fmt.Errorf("tools: %s missing tier %d", tool, tier)
			}
		}
	}
	return nil
}

// RequiredItemNames lists the catalog names the persistence fix-up must
// guarantee exist, in catalog order.
func (c *Catalogs) RequiredItemNames() []string {
	out := make([]string, 0, len(c.Items.Defs))
	for _, d := range c.Items.Defs {
		out = append(out, d.Name)
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadIntoItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = defs
	out.ByKey = make(map[string]ItemDef, len(defs))
	for _, d := range defs {
		out.ByKey[d.Key] = d
	}
	out.Digest = sha256Hex(raw)
	return nil
}

func loadIntoMonsters(path string, out *MonsterTable) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var defs []MonsterDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("monsters.json: %w", err)
	}
	out.Entries = defs
	out.Digest = sha256Hex(raw)
	return nil
}

func loadIntoOres(path string, out *OreTable) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var defs []OreDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("ores.json: %w", err)
	}
	out.Entries = defs
	out.Digest = sha256Hex(raw)
	return nil
}

func loadIntoTools(path string, out *ToolCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var tiers map[string]map[int]ToolStats
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return fmt.Errorf("tools.json: %w", err)
	}
	out.Tiers = tiers
	out.Digest = sha256Hex(raw)
	return nil
}
