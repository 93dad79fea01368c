package service

import (
	"context"
	"fmt"

	"github.com/reddragon-server/internal/domain"
)

// ForestOutcome summarizes one forest fight for the presentation layer.
type ForestOutcome struct {
	Monster         domain.Monster     `json:"monster"`
	Fight           domain.FightResult `json:"fight"`
	Victory         bool               `json:"victory"`
	ExpGained       int                `json:"exp_gained"`
	GoldGained      int                `json:"gold_gained"`
	LevelsReached   []int              `json:"levels_reached,omitempty"`
	FightsRemaining int                `json:"fights_remaining"`
	Player          *domain.Player     `json:"player"`
}

// ForestFight sends the player against a monster scaled to their level.
// Preconditions: alive with quota remaining. The quota is spent whether the
// fight is won or lost; a loss kills the player until the next daily reset.
// Rejections mutate nothing.
func (s *GameService) ForestFight(ctx context.Context, name string) (*ForestOutcome, error) {
	var outcome *ForestOutcome
	err := retryOnConflict(func() error {
		p, err := s.loadForAction(ctx, name)
		if err != nil {
			return err
		}
		if !p.IsAlive() {
			return domain.ErrPlayerDead
		}
		if p.ForestFights <= 0 {
			return domain.ErrNoFightsRemaining
		}

		rng := s.newRNG()
		monster := domain.GenerateMonster(p.Level, rng)
		fight := domain.ResolveFight(domain.Combatant{
			Name:    p.Name,
			Attack:  p.Attack,
			Defense: p.Defense,
			HP:      p.CurrentHP,
			MaxHP:   p.MaxHP,
		}, monster.Combatant(), s.rules.MaxCombatRounds, rng)

		p.ForestFights--
		p.CurrentHP = fight.AttackerHP

		var reached []int
		if fight.AttackerWon {
			p.Gold += monster.GoldReward
			reached = domain.ApplyExperience(p, monster.ExpReward, s.rules)
		} else {
			p.CurrentHP = 0
			p.Alive = false
		}

		if err := s.players.SavePlayer(ctx, p); err != nil {
			return err
		}

		if fight.AttackerWon {
			if monster.Fearsome() {
				s.record(ctx, domain.NewEvent(domain.EventForestKill,
					fmt.Sprintf("%s defeated a %s in the forest.", p.Name, monster.Name),
					p.Name, monster.Name))
			}
			for _, level := range reached {
				s.record(ctx, domain.NewEvent(domain.EventLevelUp,
					fmt.Sprintf("%s has reached Level %d!", p.Name, level),
					p.Name, ""))
			}
		} else {
			s.record(ctx, domain.NewEvent(domain.EventCombatDeath,
				fmt.Sprintf("%s was slain by a %s in the forest.", p.Name, monster.Name),
				p.Name, monster.Name))
		}
		s.updateRanking(ctx, p)

		outcome = &ForestOutcome{
			Monster:         monster,
			Fight:           fight,
			Victory:         fight.AttackerWon,
			FightsRemaining: p.ForestFights,
			Player:          p,
			LevelsReached:   reached,
		}
		if fight.AttackerWon {
			outcome.ExpGained = monster.ExpReward
			outcome.GoldGained = monster.GoldReward
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
