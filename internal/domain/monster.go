package domain

import "math/rand"

// Monster is a generated forest opponent together with its rewards.
type Monster struct {
	Name       string `json:"name"`
	HP         int    `json:"hp"`
	Attack     int    `json:"attack"`
	Defense    int    `json:"defense"`
	ExpReward  int    `json:"exp_reward"`
	GoldReward int    `json:"gold_reward"`
}

// monsterTemplate holds the base stats a template is scaled from.
type monsterTemplate struct {
	name    string
	hp      int
	attack  int
	defense int
}

var monsterTemplates = []monsterTemplate{
	{"Wild Boar", 15, 4, 1},
	{"Goblin", 20, 5, 2},
	{"Giant Spider", 25, 5, 2},
	{"Ogre", 30, 6, 3},
	{"Black Knight", 35, 8, 5},
	{"Forest Dragon", 50, 12, 6},
}

// GenerateMonster picks a random template and scales it to the player's
// level with some variance. Rewards grow with the monster's strength:
// hp/2 + attack experience, and 1..3*attack gold.
func GenerateMonster(playerLevel int, rng *rand.Rand) Monster {
	if playerLevel < 1 {
		playerLevel = 1
	}
	tpl := monsterTemplates[rng.Intn(len(monsterTemplates))]

	levelFactor := 1 + (playerLevel-1)/2
	hp := tpl.hp*levelFactor + rng.Intn(5*playerLevel+1)
	attack := tpl.attack*levelFactor + rng.Intn(playerLevel+1)
	defense := tpl.defense * levelFactor

	expReward := hp/2 + attack
	if expReward < 1 {
		expReward = 1
	}
	goldReward := rng.Intn(attack*3) + 1

	return Monster{
		Name:       tpl.name,
		HP:         hp,
		Attack:     attack,
		Defense:    defense,
		ExpReward:  expReward,
		GoldReward: goldReward,
	}
}

// Combatant returns the monster's view for the fight resolver.
func (m Monster) Combatant() Combatant {
	return Combatant{
		Name:    m.Name,
		Attack:  m.Attack,
		Defense: m.Defense,
		HP:      m.HP,
		MaxHP:   m.HP,
	}
}

// Fearsome reports whether defeating this monster is worth announcing in
// the daily news.
func (m Monster) Fearsome() bool {
	return m.Attack > 10
}
