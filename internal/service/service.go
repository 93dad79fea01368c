package service

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/reddragon-server/internal/auth"
	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
)

// PlayerStore is the repository contract the engine loads and persists
// players through. Saves are compare-and-swap: a concurrent modification
// surfaces as domain.ErrConflict and the whole action is retried once
// against freshly loaded state.
type PlayerStore interface {
	CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error)
	GetPlayerByName(ctx context.Context, name string) (*domain.Player, error)
	SavePlayer(ctx context.Context, p *domain.Player) error
	SavePlayers(ctx context.Context, players ...*domain.Player) error
	ListPlayers(ctx context.Context) ([]domain.PlayerInfo, error)
	ListOpponents(ctx context.Context, excludeID int64) ([]domain.PlayerInfo, error)
	TopPlayers(ctx context.Context, limit int) ([]domain.PlayerInfo, error)
}

// EventStore is the append-only daily-news contract.
type EventStore interface {
	AppendEvent(ctx context.Context, event domain.Event) error
	ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error)
}

// RankingStore mirrors persisted progression into the Hall of Fame.
type RankingStore interface {
	UpdatePlayer(ctx context.Context, info domain.PlayerInfo) error
	Top(ctx context.Context, n int) ([]domain.PlayerInfo, error)
	Rank(ctx context.Context, name string) (int64, error)
}

// Broadcaster pushes freshly appended news entries to live listeners.
type Broadcaster interface {
	BroadcastNews(event domain.Event)
}

// GameService sequences validation, combat resolution, reward application,
// and logging for every player action. All game rules run as pure
// computations over loaded state; persistence happens once, at the end,
// through a single atomic save.
type GameService struct {
	players  PlayerStore
	events   EventStore
	rankings RankingStore
	hub      Broadcaster
	rules    domain.Rules
	newsCfg  *config.NewsConfig
	logger   *slog.Logger

	// now and newRNG are injected so tests can pin the calendar day and
	// replay combat deterministically.
	now    func() time.Time
	newRNG func() *rand.Rand
}

// NewGameService creates a new game service
func NewGameService(
	players PlayerStore,
	events EventStore,
	rankings RankingStore,
	rules domain.Rules,
	newsCfg *config.NewsConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		players:  players,
		events:   events,
		rankings: rankings,
		rules:    rules,
		newsCfg:  newsCfg,
		logger:   logger,
		now:      time.Now,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(newSeed()))
		},
	}
}

// SetHub attaches the live news feed hub for broadcasting.
func (s *GameService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// newSeed draws a combat seed from crypto/rand, falling back to the clock
// if the system source is unavailable.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// retryOnConflict runs an action and, if the save lost a compare-and-swap
// race, runs it once more from scratch. A second conflict is surfaced to
// the caller as a transient failure.
func retryOnConflict(fn func() error) error {
	err := fn()
	if err != nil && domain.IsConflictError(err) {
		err = fn()
	}
	return err
}

// loadForAction fetches a player and applies the daily transition if a new
// calendar day has begun. The transition is persisted together with the
// action's own mutation, in the same atomic save.
func (s *GameService) loadForAction(ctx context.Context, name string) (*domain.Player, error) {
	p, err := s.players.GetPlayerByName(ctx, name)
	if err != nil {
		return nil, err
	}
	domain.ApplyDailyReset(p, s.now(), s.rules)
	return p, nil
}

// record appends a news entry and forwards it to live listeners. News
// failures are logged, never propagated: the action already persisted.
func (s *GameService) record(ctx context.Context, event domain.Event) {
	if err := s.events.AppendEvent(ctx, event); err != nil {
		s.logger.Warn("failed to append news entry", "category", event.Category, "error", err)
		return
	}
	if s.hub != nil {
		s.hub.BroadcastNews(event)
	}
}

// updateRanking refreshes a player's Hall of Fame entry after a persisted
// action. Ranking staleness is tolerable; the reset worker rebuilds.
func (s *GameService) updateRanking(ctx context.Context, p *domain.Player) {
	if s.rankings == nil {
		return
	}
	if err := s.rankings.UpdatePlayer(ctx, p.Info()); err != nil {
		s.logger.Warn("failed to update ranking", "player", p.Name, "error", err)
	}
}

// Register creates a new character with the starting stat block. The
// password is optional; when set it is stored as an argon2id hash.
func (s *GameService) Register(ctx context.Context, name, password string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	created, err := s.players.CreatePlayer(ctx, domain.NewPlayer(name, hash, s.now(), s.rules))
	if err != nil {
		return nil, err
	}
	s.updateRanking(ctx, created)
	s.logger.Info("new hero enters the realm", "player", created.Name)
	return created, nil
}

// Authenticate verifies a player's password and returns the record with
// today's daily transition applied. Accounts without a password accept an
// empty attempt only.
func (s *GameService) Authenticate(ctx context.Context, name, password string) (*domain.Player, error) {
	p, err := s.loadForAction(ctx, name)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(password, p.PasswordHash) {
		return nil, fmt.Errorf("%w: wrong password", domain.ErrInvalidRequest)
	}
	return p, nil
}

// Character returns the player's sheet as of today. The daily transition is
// applied for display; it persists with the next mutating action.
func (s *GameService) Character(ctx context.Context, name string) (*domain.Player, error) {
	return s.loadForAction(ctx, name)
}

// Opponents lists eligible duel targets for the requesting player.
func (s *GameService) Opponents(ctx context.Context, name string) ([]domain.PlayerInfo, error) {
	p, err := s.players.GetPlayerByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.players.ListOpponents(ctx, p.ID)
}

// News returns the latest daily-news entries, newest first.
func (s *GameService) News(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = s.newsCfg.DefaultLimit
	}
	if limit > s.newsCfg.MaxLimit {
		limit = s.newsCfg.MaxLimit
	}
	return s.events.ListRecentEvents(ctx, limit)
}

// Leaderboard returns the Hall of Fame, best first. Redis serves the read;
// the durable store answers when the rankings are unavailable.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.PlayerInfo, error) {
	if limit <= 0 {
		limit = s.newsCfg.DefaultLimit
	}
	if limit > s.newsCfg.MaxLimit {
		limit = s.newsCfg.MaxLimit
	}

	if s.rankings != nil {
		infos, err := s.rankings.Top(ctx, limit)
		if err == nil {
			return infos, nil
		}
		s.logger.Warn("rankings unavailable, falling back to database", "error", err)
	}
	return s.players.TopPlayers(ctx, limit)
}
