package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
)

// fakeStore is an in-memory PlayerStore and EventStore. It can be told to
// fail the next N saves with ErrConflict to exercise the retry path.
type fakeStore struct {
	players       map[string]*domain.Player
	events        []domain.Event
	nextID        int64
	saveCalls     int
	conflictsLeft int
}

func newFakeStore() *fakeStore {
	return &fakeStore{players: make(map[string]*domain.Player)}
}

func (f *fakeStore) key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (f *fakeStore) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	if _, ok := f.players[f.key(p.Name)]; ok {
		return nil, domain.ErrNameTaken
	}
	f.nextID++
	p.ID = f.nextID
	p.Version = 1
	stored := p
	f.players[f.key(p.Name)] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStore) GetPlayerByName(ctx context.Context, name string) (*domain.Player, error) {
	p, ok := f.players[f.key(name)]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) SavePlayer(ctx context.Context, p *domain.Player) error {
	f.saveCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return domain.ErrConflict
	}
	stored, ok := f.players[f.key(p.Name)]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if stored.Version != p.Version {
		return domain.ErrConflict
	}
	p.Version++
	copied := *p
	f.players[f.key(p.Name)] = &copied
	return nil
}

func (f *fakeStore) SavePlayers(ctx context.Context, players ...*domain.Player) error {
	for _, p := range players {
		if err := f.SavePlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) ListPlayers(ctx context.Context) ([]domain.PlayerInfo, error) {
	var infos []domain.PlayerInfo
	for _, p := range f.players {
		infos = append(infos, p.Info())
	}
	return infos, nil
}

func (f *fakeStore) ListOpponents(ctx context.Context, excludeID int64) ([]domain.PlayerInfo, error) {
	var infos []domain.PlayerInfo
	for _, p := range f.players {
		if p.ID == excludeID || !p.Alive || p.DefeatedToday {
			continue
		}
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (f *fakeStore) TopPlayers(ctx context.Context, limit int) ([]domain.PlayerInfo, error) {
	infos, _ := f.ListPlayers(ctx)
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Level != infos[j].Level {
			return infos[i].Level > infos[j].Level
		}
		return infos[i].Exp > infos[j].Exp
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}

func (f *fakeStore) AppendEvent(ctx context.Context, event domain.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	events := make([]domain.Event, 0, limit)
	for i := len(f.events) - 1; i >= 0 && len(events) < limit; i-- {
		events = append(events, f.events[i])
	}
	return events, nil
}

func (f *fakeStore) hasEvent(category domain.EventCategory) bool {
	for _, e := range f.events {
		if e.Category == category {
			return true
		}
	}
	return false
}

func testService(store *fakeStore) *GameService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	newsCfg := &config.NewsConfig{DefaultLimit: 10, MaxLimit: 100}
	s := NewGameService(store, store, nil, domain.DefaultRules(), newsCfg, logger)
	s.now = func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	s.newRNG = func() *rand.Rand {
		return rand.New(rand.NewSource(1))
	}
	return s
}

func mustRegister(t *testing.T, s *GameService, name string) *domain.Player {
	t.Helper()
	p, err := s.Register(context.Background(), name, "")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return p
}

func TestRegisterStartingState(t *testing.T) {
	store := newFakeStore()
	s := testService(store)

	p := mustRegister(t, s, "Aldric")

	if p.Level != 1 || p.Gold != 100 || p.MaxHP != 20 {
		t.Fatalf("starting block wrong: %+v", p)
	}
	if p.ID == 0 {
		t.Fatal("expected an assigned ID")
	}
}

func TestRegisterRejectsBlankName(t *testing.T) {
	s := testService(newFakeStore())

	_, err := s.Register(context.Background(), "   ", "pw")
	if !domain.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	store := newFakeStore()
	s := testService(store)

	mustRegister(t, s, "Brina")
	_, err := s.Register(context.Background(), "brina", "")
	if err != domain.ErrNameTaken {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	store := newFakeStore()
	s := testService(store)

	if _, err := s.Register(context.Background(), "Cedric", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := s.Authenticate(context.Background(), "Cedric", "hunter2"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if _, err := s.Authenticate(context.Background(), "Cedric", "wrong"); !domain.IsValidationError(err) {
		t.Fatalf("wrong password: expected validation error, got %v", err)
	}
	if _, err := s.Authenticate(context.Background(), "Nobody", "x"); !domain.IsNotFoundError(err) {
		t.Fatalf("unknown player: expected not-found, got %v", err)
	}
}

func TestCharacterAppliesDailyTransition(t *testing.T) {
	store := newFakeStore()
	s := testService(store)

	mustRegister(t, s, "Dara")
	stored := store.players["dara"]
	stored.ForestFights = 0
	stored.Alive = false
	stored.CurrentHP = 0
	stored.LastReset = stored.LastReset.AddDate(0, 0, -1)

	p, err := s.Character(context.Background(), "Dara")
	if err != nil {
		t.Fatalf("character: %v", err)
	}
	if !p.IsAlive() || p.ForestFights != 10 {
		t.Fatalf("daily transition not applied in view: %+v", p)
	}
}

func TestNewsLimitClamping(t *testing.T) {
	store := newFakeStore()
	s := testService(store)

	for i := 0; i < 30; i++ {
		store.AppendEvent(context.Background(),
			domain.NewEvent(domain.EventForestKill, fmt.Sprintf("entry %d", i), "", ""))
	}

	events, err := s.News(context.Background(), 0)
	if err != nil {
		t.Fatalf("news: %v", err)
	}
	if len(events) != 10 {
		t.Fatalf("default limit: got %d entries, want 10", len(events))
	}
	if events[0].Message != "entry 29" {
		t.Fatalf("expected newest first, got %q", events[0].Message)
	}

	events, _ = s.News(context.Background(), 1000)
	if len(events) != 30 {
		t.Fatalf("clamped limit should still return all 30, got %d", len(events))
	}
}

func TestLeaderboardFallsBackToDatabase(t *testing.T) {
	store := newFakeStore()
	s := testService(store) // no rankings attached

	mustRegister(t, s, "Edmund")
	mustRegister(t, s, "Fiora")
	store.players["fiora"].Level = 5

	infos, err := s.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "Fiora" {
		t.Fatalf("expected Fiora first, got %+v", infos)
	}
}

func TestRetryOnConflictRunsOnceMore(t *testing.T) {
	calls := 0
	err := retryOnConflict(func() error {
		calls++
		if calls == 1 {
			return domain.ErrConflict
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}

	calls = 0
	err = retryOnConflict(func() error {
		calls++
		return domain.ErrConflict
	})
	if !domain.IsConflictError(err) {
		t.Fatalf("expected conflict after retries, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", calls)
	}
}
