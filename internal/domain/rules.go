package domain

// Rules holds the game balance table. Every tunable the engine consults
// lives here so that nothing is hidden inside the rule functions; the
// config package maps its game section onto this struct.
type Rules struct {
	MaxDailyForestFights int

	// Starting stats for a freshly created character.
	StartingMaxHP    int
	StartingAttack   int
	StartingDefense  int
	StartingGold     int

	// Per-level stat growth applied on each level-up.
	LevelUpHPGain      int
	LevelUpAttackGain  int
	LevelUpDefenseGain int

	// Combat resolution.
	MaxCombatRounds int

	// PvP rewards: the winner takes half the loser's gold and
	// PvPExpPerLevel experience per level of the defeated player.
	PvPExpPerLevel int

	// Tavern.
	DrinkCost           int
	DrinkHealDivisor    int
	MarriedHealDivisor  int
	MarriageThreshold   int
	SpouseName          string
}

// DefaultRules returns the classic balance table.
func DefaultRules() Rules {
	return Rules{
		MaxDailyForestFights: 10,
		StartingMaxHP:        20,
		StartingAttack:       5,
		StartingDefense:      2,
		StartingGold:         100,
		LevelUpHPGain:        10,
		LevelUpAttackGain:    2,
		LevelUpDefenseGain:   1,
		MaxCombatRounds:      50,
		PvPExpPerLevel:       50,
		DrinkCost:            5,
		DrinkHealDivisor:     4,
		MarriedHealDivisor:   8,
		MarriageThreshold:    5,
		SpouseName:           "Violet",
	}
}
