package service

import (
	"context"
	"fmt"

	"github.com/reddragon-server/internal/domain"
)

// flirtResponses is Violet's script, one line per romance stage. The last
// line plays when the marriage threshold is reached.
var flirtResponses = []string{
	"You wink at Violet. She smiles shyly.",
	"You compliment Violet. She giggles and blushes.",
	"You share a rose with Violet. She seems flattered.",
	"You sing a love ballad. Violet gazes at you dreamily.",
	"Overjoyed, Violet exclaims 'Yes! I will marry you!'",
}

// FlirtOutcome summarizes a flirt interaction.
type FlirtOutcome struct {
	Response string         `json:"response"`
	Stage    int            `json:"stage"`
	Married  bool           `json:"married"`
	Player   *domain.Player `json:"player"`
}

// DrinkOutcome summarizes a tavern drink.
type DrinkOutcome struct {
	GoldSpent   int            `json:"gold_spent"`
	Healed      int            `json:"healed"`
	BonusHealed int            `json:"bonus_healed"`
	Player      *domain.Player `json:"player"`
}

// Flirt advances the player's romance with Violet by one stage. Flirting
// always succeeds; reaching the marriage threshold triggers the one-way
// marriage transition and a public announcement. Married players are
// rejected without mutation.
func (s *GameService) Flirt(ctx context.Context, name string) (*FlirtOutcome, error) {
	var outcome *FlirtOutcome
	err := retryOnConflict(func() error {
		p, err := s.loadForAction(ctx, name)
		if err != nil {
			return err
		}
		if !p.IsAlive() {
			return domain.ErrPlayerDead
		}
		if p.IsMarried() {
			return domain.ErrAlreadyMarried
		}

		p.Romance++
		idx := p.Romance - 1
		if idx >= len(flirtResponses) {
			idx = len(flirtResponses) - 1
		}

		married := false
		if p.Romance >= s.rules.MarriageThreshold {
			p.Spouse = s.rules.SpouseName
			married = true
		}

		if err := s.players.SavePlayer(ctx, p); err != nil {
			return err
		}

		if married {
			s.record(ctx, domain.NewEvent(domain.EventMarriage,
				fmt.Sprintf("%s has married %s, the tavern barmaid!", p.Name, p.Spouse),
				p.Name, p.Spouse))
		}

		outcome = &FlirtOutcome{
			Response: flirtResponses[idx],
			Stage:    p.Romance,
			Married:  married,
			Player:   p,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Drink buys a tavern drink that restores a quarter of max health for a
// fixed gold cost. Spouses of the barmaid get a free refill worth another
// eighth. Insufficient gold is rejected with no partial effect.
func (s *GameService) Drink(ctx context.Context, name string) (*DrinkOutcome, error) {
	var outcome *DrinkOutcome
	err := retryOnConflict(func() error {
		p, err := s.loadForAction(ctx, name)
		if err != nil {
			return err
		}
		if !p.IsAlive() {
			return domain.ErrPlayerDead
		}
		if p.Gold < s.rules.DrinkCost {
			return domain.ErrInsufficientGold
		}

		p.Gold -= s.rules.DrinkCost
		healed := heal(p, p.MaxHP/s.rules.DrinkHealDivisor)

		bonus := 0
		if p.IsMarried() {
			bonus = heal(p, p.MaxHP/s.rules.MarriedHealDivisor)
		}

		if err := s.players.SavePlayer(ctx, p); err != nil {
			return err
		}

		outcome = &DrinkOutcome{
			GoldSpent:   s.rules.DrinkCost,
			Healed:      healed,
			BonusHealed: bonus,
			Player:      p,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// heal restores at least one point of health, clamped at max, and returns
// how much was actually restored.
func heal(p *domain.Player, amount int) int {
	if amount < 1 {
		amount = 1
	}
	before := p.CurrentHP
	p.CurrentHP += amount
	if p.CurrentHP > p.MaxHP {
		p.CurrentHP = p.MaxHP
	}
	return p.CurrentHP - before
}
