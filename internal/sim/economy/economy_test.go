package economy

import (
	"math"
	"testing"

	"ironvale.gg/internal/sim/tuning"
)

func TestCostCurve(t *testing.T) {
	tn := tuning.Defaults()
	if got := CostCurve(tn, 150, 0); got != 150 {
		t.Fatalf("CostCurve(150,0) = %d, want 150", got)
	}
	if got := CostCurve(tn, 150, 1); got != 187 {
		t.Fatalf("CostCurve(150,1) = %d, want 187", got)
	}
	prev := 0
	for level := 0; level <= 50; level++ {
		c := CostCurve(tn, 150, level)
		if c < prev {
			t.Fatalf("cost curve decreased at level %d: %d < %d", level, c, prev)
		}
		prev = c
	}
}

func TestOreRequirement_Brackets(t *testing.T) {
	tn := tuning.Defaults()
	cases := []struct {
		level  int
		ore    string
		amount int
	}{
		{0, "copperOre", 5},
		{9, "copperOre", 18},
		{10, "ironOre", 20},
		{12, "ironOre", 23},
		{19, "ironOre", 33},
		{20, "goldOre", 35},
	}
	for _, c := range cases {
		ore, amount := OreRequirement(tn, c.level)
		if ore != c.ore || amount != c.amount {
			t.Fatalf("OreRequirement(%d) = %s %d, want %s %d", c.level, ore, amount, c.ore, c.amount)
		}
	}
}

func TestBuy_CoinUpgrade(t *testing.T) {
	tn := tuning.Defaults()
	u := &Upgrade{Level: 0, Cost: 150}
	inv := map[string]int{"coins": 200}

	out := Buy(tn, "coinMultiplier", u, inv)
	if !out.Bought {
		t.Fatalf("expected purchase, got %+v", out)
	}
	if inv["coins"] != 50 {
		t.Fatalf("coins = %d, want 50", inv["coins"])
	}
	if u.Level != 1 {
		t.Fatalf("level = %d, want 1", u.Level)
	}
	if want := CostCurve(tn, 150, 2); u.Cost != want {
		t.Fatalf("cached cost = %d, want %d", u.Cost, want)
	}
}

func TestBuy_InsufficientCoins(t *testing.T) {
	tn := tuning.Defaults()
	u := &Upgrade{Level: 0, Cost: 150}
	inv := map[string]int{"coins": 100}

	out := Buy(tn, "coinMultiplier", u, inv)
	if out.Bought || out.CoinsShort != 50 {
		t.Fatalf("expected 50 coin shortfall, got %+v", out)
	}
	if inv["coins"] != 100 || u.Level != 0 {
		t.Fatalf("failed purchase must not mutate: coins %d level %d", inv["coins"], u.Level)
	}
}

func TestBuy_OreGateBlocksDespiteCoins(t *testing.T) {
	tn := tuning.Defaults()
	u := &Upgrade{Level: 12, Cost: CachedCost(tn, "oreMultiplier", 12)}
	inv := map[string]int{"coins": 1_000_000, "ironOre": 22}

	out := Buy(tn, "oreMultiplier", u, inv)
	if out.Bought {
		t.Fatalf("expected ore gate to block, got %+v", out)
	}
	if out.OreKey != "ironOre" || out.OreNeeded != 23 || out.OreShort != 1 {
		t.Fatalf("expected 23 iron ore required, 1 short, got %+v", out)
	}
	if inv["ironOre"] != 22 || u.Level != 12 {
		t.Fatalf("blocked purchase must not mutate")
	}

	inv["ironOre"] = 23
	out = Buy(tn, "oreMultiplier", u, inv)
	if !out.Bought || u.Level != 13 || inv["ironOre"] != 0 {
		t.Fatalf("expected purchase to consume the 23 iron ore, got %+v inv %v", out, inv)
	}
}

func TestMultiplier(t *testing.T) {
	tn := tuning.Defaults()
	if got := Multiplier(tn, "coinMultiplier", 0); got != 1.0 {
		t.Fatalf("level 0 multiplier = %v", got)
	}
	if got := Multiplier(tn, "oreMultiplier", 5); math.Abs(got-2.0) > 1e-9 {
		t.Fatalf("ore multiplier at 5 = %v, want 2.0", got)
	}
}

func TestSellBars(t *testing.T) {
	tn := tuning.Defaults()
	inv := map[string]int{"ironBar": 3, "coins": 10}

	sold, coins := SellBars(tn, "ironBar", 2, inv)
	if sold != 2 || coins != 30 {
		t.Fatalf("sold %d for %d, want 2 for 30", sold, coins)
	}
	if inv["ironBar"] != 1 || inv["coins"] != 40 {
		t.Fatalf("inventory after sale: %v", inv)
	}

	// Selling more than held sells everything remaining.
	sold, coins = SellBars(tn, "ironBar", 100, inv)
	if sold != 1 || coins != 15 || inv["ironBar"] != 0 {
		t.Fatalf("sell-all: sold %d for %d, inv %v", sold, coins, inv)
	}

	if sold, _ := SellBars(tn, "copperOre", 5, inv); sold != 0 {
		t.Fatalf("non-bar keys must not sell")
	}
}
