package catalogs

// Defaults returns the compiled-in catalog set. The config files under
// configs/ carry the same data; these keep tests and dev servers independent
// of the working directory.
func Defaults() *Catalogs {
	items := []ItemDef{
		{Key: "coins", Name: "Coins", Type: "currency"},
		{Key: "copperBar", Name: "Copper Bar", Type: "material", Tier: 2},
		{Key: "ironBar", Name: "Iron Bar", Type: "material", Tier: 3},
		{Key: "goldBar", Name: "Gold Bar", Type: "material", Tier: 4},
		{Key: "copperOre", Name: "Copper Ore", Type: "material", Tier: 2},
		{Key: "ironOre", Name: "Iron Ore", Type: "material", Tier: 3},
		{Key: "goldOre", Name: "Gold Ore", Type: "material", Tier: 4},
		{Key: "logs", Name: "Logs", Type: "material"},
		{Key: "pickaxe", Name: "Pickaxe", Type: "tool"},
		{Key: "sword", Name: "Sword", Type: "tool"},
	}
	byKey := make(map[string]ItemDef, len(items))
	for _, d := range items {
		byKey[d.Key] = d
	}

	return &Catalogs{
		Items: ItemCatalog{Defs: items, ByKey: byKey},
		Monsters: MonsterTable{Entries: []MonsterDef{
			{Name: "wasp", UnlockLevel: 0, BaseHealth: 200, XPReward: 25, CoinMultiplier: 1.0, Sprite: "wasp"},
			{Name: "goblin", UnlockLevel: 5, BaseHealth: 400, XPReward: 40, CoinMultiplier: 2.0, Sprite: "goblin"},
			{Name: "skeleton", UnlockLevel: 10, BaseHealth: 960, XPReward: 64, CoinMultiplier: 3.0, Sprite: "skeleton"},
		}},
		Ores: OreTable{Entries: []OreDef{
			{Name: "copper", UnlockLevel: 0, NodeHealth: 120, XPReward: 25, OreMultiplier: 1.0, Sprite: "copperOre"},
			{Name: "iron", UnlockLevel: 5, NodeHealth: 250, XPReward: 60, OreMultiplier: 1.85, Sprite: "ironOre"},
			{Name: "gold", UnlockLevel: 10, NodeHealth: 450, XPReward: 120, OreMultiplier: 2.85, Sprite: "goldOre"},
		}},
		Tools: ToolCatalog{Tiers: map[string]map[int]ToolStats{
			"sword": {
				1: {Name: "Wooden Sword", DPS: 10, Sprite: "wooden_sword_inventory"},
				2: {Name: "Copper Sword", DPS: 15, Sprite: "copper_sword_inventory"},
				3: {Name: "Iron Sword", DPS: 22.5, Sprite: "iron_sword_inventory"},
				4: {Name: "Gold Sword", DPS: 35, Sprite: "gold_sword_inventory"},
			},
			"pickaxe": {
				1: {Name: "Wooden Pickaxe", MiningPower: 10, Sprite: "wooden_pickaxe_inventory"},
				2: {Name: "Copper Pickaxe", MiningPower: 15, Sprite: "copper_pickaxe_inventory"},
				3: {Name: "Iron Pickaxe", MiningPower: 22.5, Sprite: "iron_pickaxe_inventory"},
				4: {Name: "Gold Pickaxe", MiningPower: 35, Sprite: "gold_pickaxe_inventory"},
			},
		}},
	}
}
