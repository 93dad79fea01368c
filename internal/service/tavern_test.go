package service

import (
	"context"
	"testing"

	"github.com/reddragon-server/internal/domain"
)

func TestFlirtAdvancesRomanceToMarriage(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Sable")

	for stage := 1; stage <= 4; stage++ {
		outcome, err := s.Flirt(context.Background(), "Sable")
		if err != nil {
			t.Fatalf("flirt %d: %v", stage, err)
		}
		if outcome.Stage != stage {
			t.Fatalf("stage = %d, want %d", outcome.Stage, stage)
		}
		if outcome.Married {
			t.Fatalf("married after only %d flirts", stage)
		}
	}

	outcome, err := s.Flirt(context.Background(), "Sable")
	if err != nil {
		t.Fatalf("final flirt: %v", err)
	}
	if !outcome.Married {
		t.Fatal("fifth flirt should reach the marriage threshold")
	}
	if store.players["sable"].Spouse != "Violet" {
		t.Fatalf("spouse = %q, want Violet", store.players["sable"].Spouse)
	}
	if !store.hasEvent(domain.EventMarriage) {
		t.Fatal("marriage should be announced in the news")
	}
}

func TestFlirtMarriedRejected(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Tomas")
	store.players["tomas"].Spouse = "Violet"
	store.players["tomas"].Romance = 5

	_, err := s.Flirt(context.Background(), "Tomas")
	if err != domain.ErrAlreadyMarried {
		t.Fatalf("expected ErrAlreadyMarried, got %v", err)
	}
	if store.players["tomas"].Romance != 5 {
		t.Fatal("rejection must not advance romance")
	}
}

func TestMarriageIsOneWay(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Aldric")

	for i := 0; i < 5; i++ {
		if _, err := s.Flirt(context.Background(), "Aldric"); err != nil {
			t.Fatalf("flirt %d: %v", i+1, err)
		}
	}

	// Once married, every further flirt is rejected and the spouse
	// reference never changes.
	if _, err := s.Flirt(context.Background(), "Aldric"); err != domain.ErrAlreadyMarried {
		t.Fatalf("expected ErrAlreadyMarried, got %v", err)
	}
	if store.players["aldric"].Spouse != "Violet" {
		t.Fatalf("spouse changed: %q", store.players["aldric"].Spouse)
	}
}

func TestDrinkHealsQuarterOfMax(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Brina")
	p := store.players["brina"]
	p.MaxHP = 40
	p.CurrentHP = 10
	p.Gold = 20

	outcome, err := s.Drink(context.Background(), "Brina")
	if err != nil {
		t.Fatalf("drink: %v", err)
	}
	if outcome.GoldSpent != 5 {
		t.Fatalf("gold spent = %d, want 5", outcome.GoldSpent)
	}
	if outcome.Healed != 10 {
		t.Fatalf("healed = %d, want 10 (max 40 / 4)", outcome.Healed)
	}
	if outcome.BonusHealed != 0 {
		t.Fatalf("single player got a married bonus: %d", outcome.BonusHealed)
	}

	p = store.players["brina"]
	if p.Gold != 15 || p.CurrentHP != 20 {
		t.Fatalf("persisted state wrong: gold %d hp %d", p.Gold, p.CurrentHP)
	}
}

func TestDrinkMarriedBonus(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Cedric")
	p := store.players["cedric"]
	p.MaxHP = 40
	p.CurrentHP = 10
	p.Spouse = "Violet"

	outcome, err := s.Drink(context.Background(), "Cedric")
	if err != nil {
		t.Fatalf("drink: %v", err)
	}
	if outcome.Healed != 10 || outcome.BonusHealed != 5 {
		t.Fatalf("healed %d bonus %d, want 10 and 5", outcome.Healed, outcome.BonusHealed)
	}
}

func TestDrinkClampsAtMaxHealth(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Dara")
	p := store.players["dara"]
	p.CurrentHP = p.MaxHP - 1

	outcome, err := s.Drink(context.Background(), "Dara")
	if err != nil {
		t.Fatalf("drink: %v", err)
	}
	if outcome.Healed != 1 {
		t.Fatalf("healed = %d, want 1 (clamped)", outcome.Healed)
	}
	if store.players["dara"].CurrentHP != store.players["dara"].MaxHP {
		t.Fatal("health exceeded max")
	}
}

func TestDrinkInsufficientGold(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Edmund")
	p := store.players["edmund"]
	p.Gold = 4
	p.CurrentHP = 10

	_, err := s.Drink(context.Background(), "Edmund")
	if err != domain.ErrInsufficientGold {
		t.Fatalf("expected ErrInsufficientGold, got %v", err)
	}
	p = store.players["edmund"]
	if p.Gold != 4 || p.CurrentHP != 10 {
		t.Fatalf("rejection mutated state: gold %d hp %d", p.Gold, p.CurrentHP)
	}
}

func TestTavernRequiresLivingPlayer(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Fiora")
	store.players["fiora"].Alive = false
	store.players["fiora"].CurrentHP = 0

	if _, err := s.Flirt(context.Background(), "Fiora"); err != domain.ErrPlayerDead {
		t.Fatalf("flirt: expected ErrPlayerDead, got %v", err)
	}
	if _, err := s.Drink(context.Background(), "Fiora"); err != domain.ErrPlayerDead {
		t.Fatalf("drink: expected ErrPlayerDead, got %v", err)
	}
}
