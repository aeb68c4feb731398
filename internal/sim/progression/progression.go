// Package progression implements the leveled-skill XP engine: the XP curve,
// XP application with multi-level rollover, and unlock detection against the
// monster/ore tables.
package progression

import (
	"math"

	"ironvale.gg/internal/sim/tuning"
)

// Skill is one leveled progression track (combat, mining, smithing).
// After Apply returns, XP < XPToNext(Level) always holds.
type Skill struct {
	Level int `json:"level"`
	XP    int `json:"xp"`
}

// UnlockTable reports the entity name whose unlock threshold is exactly the
// given level. Both the monster and ore tables satisfy it.
type UnlockTable interface {
	NameUnlockedAt(level int) (string, bool)
}

// Result describes the outcome of one XP application.
type Result struct {
	LeveledUp bool
	NewLevel  int
	// Unlocked is the entity newly available at the final level, if the
	// final level exactly matches an unlock threshold. Thresholds passed
	// over mid-jump are not reported; the next unlock-table scan picks the
	// entity up regardless, only the notification is skipped.
	Unlocked string
}

// XPToNext returns the XP needed to advance past the given level.
// Strictly increasing in level.
func XPToNext(t tuning.Tuning, level int) int {
	return int(math.Floor(t.XPCurveFactor * math.Pow(float64(level), t.XPCurveExponent)))
}

// Progress returns the fill ratio for the skill's progress bar, in [0,1).
func Progress(t tuning.Tuning, s Skill) float64 {
	next := XPToNext(t, s.Level)
	if next <= 0 {
		return 0
	}
	return float64(s.XP) / float64(next)
}

// Apply adds amount XP to the skill and rolls over as many level thresholds
// as the total covers. Negative amounts are ignored. unlocks may be nil.
func Apply(t tuning.Tuning, s *Skill, amount int, unlocks UnlockTable) Result {
	if amount > 0 {
		s.XP += amount
	}

	startLevel := s.Level
	for s.XP >= XPToNext(t, s.Level) {
		s.XP -= XPToNext(t, s.Level)
		s.Level++
	}

	res := Result{LeveledUp: s.Level > startLevel, NewLevel: s.Level}
	if res.LeveledUp && unlocks != nil {
		if name, ok := unlocks.NameUnlockedAt(s.Level); ok {
			res.Unlocked = name
		}
	}
	return res
}
