package domain

import "math/rand"

// Combatant is the minimal stat triple the resolver needs. Both forest
// monsters and stored player records reduce to this; the resolver never
// learns which context invoked it.
type Combatant struct {
	Name    string
	Attack  int
	Defense int
	HP      int
	MaxHP   int
}

// Blow records a single strike inside a fight, in order.
type Blow struct {
	Striker string `json:"striker"`
	Target  string `json:"target"`
	Damage  int    `json:"damage"`
	TargetHP int   `json:"target_hp"`
}

// FightResult is the resolver's complete output.
type FightResult struct {
	AttackerWon bool   `json:"attacker_won"`
	Rounds      int    `json:"rounds"`
	DamageDealt int    `json:"damage_dealt"`
	DamageTaken int    `json:"damage_taken"`
	AttackerHP  int    `json:"attacker_hp"`
	DefenderHP  int    `json:"defender_hp"`
	CapReached  bool   `json:"-"`
	Blows       []Blow `json:"blows,omitempty"`
}

// ResolveFight simulates a fight round by round until one side's health
// reaches zero or maxRounds is exceeded. The attacker strikes first each
// round. Damage per strike is uniform in [1, max(1, attack - defense/2)],
// so a fight can never stall on a zero-damage exchange.
//
// If the round cap is hit, the side with the higher remaining health
// fraction wins; an exact tie goes to the attacker. The function is pure
// over its inputs and the injected randomness source, which makes replays
// deterministic under a fixed seed.
func ResolveFight(attacker, defender Combatant, maxRounds int, rng *rand.Rand) FightResult {
	result := FightResult{
		AttackerHP: attacker.HP,
		DefenderHP: defender.HP,
	}

	for result.Rounds < maxRounds && result.AttackerHP > 0 && result.DefenderHP > 0 {
		result.Rounds++

		dmg := rollDamage(attacker.Attack, defender.Defense, rng)
		result.DefenderHP = clampHP(result.DefenderHP - dmg)
		result.DamageDealt += dmg
		result.Blows = append(result.Blows, Blow{
			Striker:  attacker.Name,
			Target:   defender.Name,
			Damage:   dmg,
			TargetHP: result.DefenderHP,
		})
		if result.DefenderHP == 0 {
			break
		}

		dmg = rollDamage(defender.Attack, attacker.Defense, rng)
		result.AttackerHP = clampHP(result.AttackerHP - dmg)
		result.DamageTaken += dmg
		result.Blows = append(result.Blows, Blow{
			Striker:  defender.Name,
			Target:   attacker.Name,
			Damage:   dmg,
			TargetHP: result.AttackerHP,
		})
	}

	switch {
	case result.DefenderHP == 0:
		result.AttackerWon = true
	case result.AttackerHP == 0:
		result.AttackerWon = false
	default:
		// Round cap: compare remaining health fractions, attacker wins ties.
		result.CapReached = true
		result.AttackerWon = result.AttackerHP*defender.MaxHP >= result.DefenderHP*attacker.MaxHP
	}
	return result
}

// rollDamage rolls a strike's damage. The bound accounts for half the
// target's defense but never drops below 1.
func rollDamage(attack, defense int, rng *rand.Rand) int {
	bound := attack - defense/2
	if bound < 1 {
		bound = 1
	}
	return rng.Intn(bound) + 1
}

func clampHP(hp int) int {
	if hp < 0 {
		return 0
	}
	return hp
}
