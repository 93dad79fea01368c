package domain

// LevelThreshold returns the experience required to advance past the given
// level. Experience is spent on level-up, so the threshold is always
// relative to the current level.
func LevelThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	return level * 100
}

// ApplyExperience grants experience to the player and performs any level-ups
// it pays for. A single large reward can cascade through several levels; the
// loop runs until the next threshold is no longer cleared. Each level-up
// raises max health, attack and defense by the rules' per-level increments
// and restores the player to full health. Returns the levels reached, in
// order, for event logging.
func ApplyExperience(p *Player, amount int, rules Rules) []int {
	if amount <= 0 {
		return nil
	}
	p.Exp += amount

	var reached []int
	for p.Exp >= LevelThreshold(p.Level) {
		p.Exp -= LevelThreshold(p.Level)
		p.Level++
		p.MaxHP += rules.LevelUpHPGain
		p.Attack += rules.LevelUpAttackGain
		p.Defense += rules.LevelUpDefenseGain
		p.CurrentHP = p.MaxHP
		reached = append(reached, p.Level)
	}
	return reached
}

// PvPExperience returns the experience reward for defeating another player.
func PvPExperience(defenderLevel int, rules Rules) int {
	if defenderLevel < 1 {
		return 0
	}
	return defenderLevel * rules.PvPExpPerLevel
}

// PvPGoldTransfer returns how much gold changes hands when a duel is won:
// half the loser's current gold, rounded down, never negative.
func PvPGoldTransfer(defenderGold int) int {
	if defenderGold <= 0 {
		return 0
	}
	return defenderGold / 2
}
