package domain

import "time"

// NeedsReset reports whether the player's last-reset date is before the
// given day.
func NeedsReset(p *Player, today time.Time) bool {
	return p.LastReset.Before(Day(today))
}

// ApplyDailyReset transitions the player into today's state: the forest
// quota is restored, the defeated-today flag cleared, and fallen players are
// revived at full health. Applying it more than once on the same day is a
// no-op; it returns whether anything changed so callers can skip a save.
func ApplyDailyReset(p *Player, today time.Time, rules Rules) bool {
	if !NeedsReset(p, today) {
		return false
	}
	p.ForestFights = rules.MaxDailyForestFights
	p.DefeatedToday = false
	p.Alive = true
	p.CurrentHP = p.MaxHP
	p.LastReset = Day(today)
	return true
}
