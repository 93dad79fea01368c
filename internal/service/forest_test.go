package service

import (
	"context"
	"testing"

	"github.com/reddragon-server/internal/domain"
)

func TestForestFightSpendsQuota(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Gareth")

	// Stack the odds so the outcome itself is not what we assert on.
	store.players["gareth"].Attack = 100
	store.players["gareth"].MaxHP = 500
	store.players["gareth"].CurrentHP = 500

	outcome, err := s.ForestFight(context.Background(), "Gareth")
	if err != nil {
		t.Fatalf("forest fight: %v", err)
	}
	if outcome.FightsRemaining != 9 {
		t.Fatalf("fights remaining = %d, want 9", outcome.FightsRemaining)
	}
	if store.players["gareth"].ForestFights != 9 {
		t.Fatalf("quota not persisted: %d", store.players["gareth"].ForestFights)
	}
	if !outcome.Victory {
		t.Fatalf("overwhelming stats should win, got %+v", outcome.Fight)
	}
	if outcome.ExpGained != outcome.Monster.ExpReward || outcome.GoldGained != outcome.Monster.GoldReward {
		t.Fatalf("rewards mismatch monster: %+v", outcome)
	}
}

func TestForestFightQuotaExhaustedRejectsWithoutMutation(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Helga")
	store.players["helga"].ForestFights = 0
	store.players["helga"].Gold = 77

	_, err := s.ForestFight(context.Background(), "Helga")
	if err != domain.ErrNoFightsRemaining {
		t.Fatalf("expected ErrNoFightsRemaining, got %v", err)
	}

	p := store.players["helga"]
	if p.Gold != 77 || p.ForestFights != 0 {
		t.Fatalf("rejection mutated state: %+v", p)
	}
	if store.saveCalls != 0 {
		t.Fatalf("rejection should not touch the store, saves = %d", store.saveCalls)
	}
}

func TestForestFightDeadPlayerRejected(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Ivan")
	store.players["ivan"].Alive = false
	store.players["ivan"].CurrentHP = 0

	_, err := s.ForestFight(context.Background(), "Ivan")
	if err != domain.ErrPlayerDead {
		t.Fatalf("expected ErrPlayerDead, got %v", err)
	}
}

func TestForestFightDefeatKillsUntilReset(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Jorah")

	// A hopeless fighter against scaled monsters.
	stored := store.players["jorah"]
	stored.Attack = 1
	stored.CurrentHP = 1
	stored.MaxHP = 1
	stored.Defense = 0
	goldBefore := stored.Gold

	outcome, err := s.ForestFight(context.Background(), "Jorah")
	if err != nil {
		t.Fatalf("forest fight: %v", err)
	}
	if outcome.Victory {
		t.Fatalf("a 1 HP fighter cannot outlast a monster: %+v", outcome.Fight)
	}

	p := store.players["jorah"]
	if p.Alive || p.CurrentHP != 0 {
		t.Fatalf("losing player should be dead: %+v", p)
	}
	if p.ForestFights != 9 {
		t.Fatalf("quota is spent on a loss too, got %d", p.ForestFights)
	}
	if p.Gold != goldBefore {
		t.Fatalf("loss must not touch gold: %d -> %d", goldBefore, p.Gold)
	}
	if !store.hasEvent(domain.EventCombatDeath) {
		t.Fatal("death should be announced in the news")
	}
}

func TestForestFightConflictRetries(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Kael")
	store.players["kael"].Attack = 100
	store.players["kael"].MaxHP = 500
	store.players["kael"].CurrentHP = 500
	store.conflictsLeft = 1

	outcome, err := s.ForestFight(context.Background(), "Kael")
	if err != nil {
		t.Fatalf("expected retry to recover from one conflict, got %v", err)
	}
	if outcome.FightsRemaining != 9 {
		t.Fatalf("quota spent more than once across retries: %d", outcome.FightsRemaining)
	}
	if store.players["kael"].ForestFights != 9 {
		t.Fatalf("persisted quota = %d, want 9", store.players["kael"].ForestFights)
	}
}

func TestForestFightTenPerDay(t *testing.T) {
	store := newFakeStore()
	s := testService(store)
	mustRegister(t, s, "Lyra")
	store.players["lyra"].Attack = 1000
	store.players["lyra"].MaxHP = 5000
	store.players["lyra"].CurrentHP = 5000

	for i := 0; i < 10; i++ {
		// Keep the hero topped up so deaths never interfere with the count.
		store.players["lyra"].CurrentHP = 5000
		if _, err := s.ForestFight(context.Background(), "Lyra"); err != nil {
			t.Fatalf("fight %d: %v", i+1, err)
		}
	}

	if _, err := s.ForestFight(context.Background(), "Lyra"); err != domain.ErrNoFightsRemaining {
		t.Fatalf("11th fight: expected ErrNoFightsRemaining, got %v", err)
	}
}
