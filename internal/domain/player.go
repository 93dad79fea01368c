package domain

import (
	"strings"
	"time"
)

// Player represents a character's full persisted state. One record exists
// per authenticated identity; names are unique case-insensitively.
type Player struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Level        int       `json:"level"`
	Exp          int       `json:"exp"`
	Gold         int       `json:"gold"`
	CurrentHP    int       `json:"current_hp"`
	MaxHP        int       `json:"max_hp"`
	Attack       int       `json:"attack"`
	Defense      int       `json:"defense"`
	ForestFights int       `json:"forest_fights"`
	Alive        bool      `json:"alive"`
	DefeatedToday bool     `json:"defeated_today"`
	Romance      int       `json:"romance"`
	Spouse       string    `json:"spouse,omitempty"`
	LastReset    time.Time `json:"last_reset"`
	LastSeen     time.Time `json:"last_seen"`
	CreatedAt    time.Time `json:"created_at"`

	// Version is bumped by every successful save; saves are rejected when
	// the stored version no longer matches (compare-and-swap).
	Version int64 `json:"-"`
}

// PlayerInfo is a lightweight player listing struct used for duel target
// lists and the Hall of Fame.
type PlayerInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Exp   int    `json:"exp"`
	Alive bool   `json:"alive"`
}

// NewPlayer constructs a level-1 character with the starting stat block,
// a full daily quota, and the last-reset date set to today.
func NewPlayer(name, passwordHash string, today time.Time, rules Rules) Player {
	return Player{
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		Level:        1,
		Exp:          0,
		Gold:         rules.StartingGold,
		CurrentHP:    rules.StartingMaxHP,
		MaxHP:        rules.StartingMaxHP,
		Attack:       rules.StartingAttack,
		Defense:      rules.StartingDefense,
		ForestFights: rules.MaxDailyForestFights,
		Alive:        true,
		Romance:      0,
		LastReset:    Day(today),
	}
}

// IsAlive reports whether the player can act. The alive flag and a
// positive current HP move together; both are checked so a corrupt record
// fails closed.
func (p *Player) IsAlive() bool {
	return p.Alive && p.CurrentHP > 0
}

// IsMarried reports whether the spouse reference has been set. Marriage is
// one-way; the reference is immutable once set.
func (p *Player) IsMarried() bool {
	return p.Spouse != ""
}

// ExperienceToNextLevel returns the experience still needed to reach the
// next level.
func (p *Player) ExperienceToNextLevel() int {
	need := LevelThreshold(p.Level) - p.Exp
	if need < 0 {
		return 0
	}
	return need
}

// CanFightForest reports whether a forest fight may be attempted.
func (p *Player) CanFightForest() bool {
	return p.IsAlive() && p.ForestFights > 0
}

// Info returns the listing view of the player.
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{
		ID:    p.ID,
		Name:  p.Name,
		Level: p.Level,
		Exp:   p.Exp,
		Alive: p.Alive,
	}
}

// Day truncates a timestamp to its calendar date in UTC. All daily-reset
// comparisons go through this so the boundary is unambiguous.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
