package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/reddragon-server/internal/domain"
)

// DuelOutcome summarizes a player-vs-player duel.
type DuelOutcome struct {
	Attacker      string             `json:"attacker"`
	Defender      string             `json:"defender"`
	Fight         domain.FightResult `json:"fight"`
	Victory       bool               `json:"victory"`
	GoldWon       int                `json:"gold_won"`
	ExpGained     int                `json:"exp_gained"`
	LevelsReached []int              `json:"levels_reached,omitempty"`
	AttackerDied  bool               `json:"attacker_died"`
	DefenderDied  bool               `json:"defender_died"`
	Player        *domain.Player     `json:"player"`
}

// Duel resolves a challenge against another player's stored record.
// Preconditions: both alive, distinct, and the target not already defeated
// today. On victory the attacker loots half the defender's gold and gains
// level-scaled experience; the loser is flagged defeated for the rest of
// the day. Both records commit in one transaction or not at all.
func (s *GameService) Duel(ctx context.Context, attackerName, defenderName string) (*DuelOutcome, error) {
	if strings.EqualFold(strings.TrimSpace(attackerName), strings.TrimSpace(defenderName)) {
		return nil, domain.ErrSelfTarget
	}

	var outcome *DuelOutcome
	err := retryOnConflict(func() error {
		attacker, err := s.loadForAction(ctx, attackerName)
		if err != nil {
			return err
		}
		defender, err := s.loadForAction(ctx, defenderName)
		if err != nil {
			if domain.IsNotFoundError(err) {
				return fmt.Errorf("%w: %s", domain.ErrTargetIneligible, defenderName)
			}
			return err
		}

		if !attacker.IsAlive() {
			return domain.ErrPlayerDead
		}
		if !defender.IsAlive() || defender.DefeatedToday {
			return fmt.Errorf("%w: %s", domain.ErrTargetIneligible, defender.Name)
		}

		rng := s.newRNG()
		fight := domain.ResolveFight(domain.Combatant{
			Name:    attacker.Name,
			Attack:  attacker.Attack,
			Defense: attacker.Defense,
			HP:      attacker.CurrentHP,
			MaxHP:   attacker.MaxHP,
		}, domain.Combatant{
			Name:    defender.Name,
			Attack:  defender.Attack,
			Defense: defender.Defense,
			HP:      defender.CurrentHP,
			MaxHP:   defender.MaxHP,
		}, s.rules.MaxCombatRounds, rng)

		attacker.CurrentHP = fight.AttackerHP
		defender.CurrentHP = fight.DefenderHP

		var reached []int
		goldWon := 0
		expGained := 0
		if fight.AttackerWon {
			goldWon = domain.PvPGoldTransfer(defender.Gold)
			defender.Gold -= goldWon
			attacker.Gold += goldWon
			expGained = domain.PvPExperience(defender.Level, s.rules)
			reached = domain.ApplyExperience(attacker, expGained, s.rules)

			defender.DefeatedToday = true
			if defender.CurrentHP == 0 {
				defender.Alive = false
			}
		} else {
			// The defender never chose to fight: no loot or experience
			// moves on this path, the attacker just takes the beating.
			attacker.DefeatedToday = true
			if attacker.CurrentHP == 0 {
				attacker.Alive = false
			}
		}

		if err := s.players.SavePlayers(ctx, attacker, defender); err != nil {
			return err
		}

		winner, loser := attacker, defender
		if !fight.AttackerWon {
			winner, loser = defender, attacker
		}
		s.record(ctx, domain.NewEvent(domain.EventDuel,
			fmt.Sprintf("%s defeated %s in a duel!", winner.Name, loser.Name),
			attacker.Name, defender.Name))
		if !loser.Alive {
			s.record(ctx, domain.NewEvent(domain.EventCombatDeath,
				fmt.Sprintf("%s was killed by %s in a duel!", loser.Name, winner.Name),
				loser.Name, winner.Name))
		}
		for _, level := range reached {
			s.record(ctx, domain.NewEvent(domain.EventLevelUp,
				fmt.Sprintf("%s has reached Level %d!", attacker.Name, level),
				attacker.Name, ""))
		}
		s.updateRanking(ctx, attacker)
		s.updateRanking(ctx, defender)

		outcome = &DuelOutcome{
			Attacker:      attacker.Name,
			Defender:      defender.Name,
			Fight:         fight,
			Victory:       fight.AttackerWon,
			GoldWon:       goldWon,
			ExpGained:     expGained,
			LevelsReached: reached,
			AttackerDied:  !attacker.Alive,
			DefenderDied:  !defender.Alive,
			Player:        attacker,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
