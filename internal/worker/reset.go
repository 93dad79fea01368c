package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
	"github.com/reddragon-server/internal/postgres"
	"github.com/reddragon-server/internal/redis"
)

// Broadcaster pushes realm news to live listeners
type Broadcaster interface {
	BroadcastNews(event domain.Event)
}

// DawnMessage is appended to the news when a new game day begins
const DawnMessage = "A new day dawns in the realm. All heroes feel refreshed."

// ResetWorker watches for the day boundary and applies the daily reset:
// forest fights restored, the fallen revived, duel flags cleared. The
// reset is a single conditional update keyed on each player's last_reset
// date, so any number of server instances can run the worker; only the
// one that wins the game_state marker announces the dawn.
type ResetWorker struct {
	postgres *postgres.Repository
	rankings *redis.Rankings
	hub      Broadcaster
	config   *config.ResetConfig
	rules    domain.Rules
	logger   *slog.Logger
	now      func() time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewResetWorker creates a new reset worker
func NewResetWorker(
	pg *postgres.Repository,
	rankings *redis.Rankings,
	hub Broadcaster,
	cfg *config.ResetConfig,
	rules domain.Rules,
	logger *slog.Logger,
) *ResetWorker {
	return &ResetWorker{
		postgres: pg,
		rankings: rankings,
		hub:      hub,
		config:   cfg,
		rules:    rules,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background reset process
func (w *ResetWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("reset worker started", "check_interval", w.config.CheckInterval)

	go w.run(ctx)
	return nil
}

// Stop stops the background reset process
func (w *ResetWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("reset worker stopped")
	return nil
}

// run is the main worker loop
func (w *ResetWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkNewDay(ctx)
		}
	}
}

// checkNewDay applies the daily reset if the calendar has rolled over
func (w *ResetWorker) checkNewDay(ctx context.Context) {
	today := domain.Day(w.now())

	last, err := w.postgres.LastGlobalReset(ctx)
	if err != nil {
		w.logger.Error("failed to read last reset marker", "error", err)
		return
	}
	if !last.Before(today) {
		return
	}

	w.resetDay(ctx, today)
}

// resetDay performs one reset cycle for the given day
func (w *ResetWorker) resetDay(ctx context.Context, today time.Time) {
	startTime := time.Now()

	affected, err := w.postgres.ResetAllDue(ctx, today, w.rules.MaxDailyForestFights)
	if err != nil {
		w.logger.Error("failed to reset players", "error", err)
		return
	}

	// Only the instance that advances the marker announces the dawn,
	// otherwise every replica would post the same news line.
	won, err := w.postgres.MarkGlobalReset(ctx, today)
	if err != nil {
		w.logger.Error("failed to advance reset marker", "error", err)
		return
	}

	if won {
		event := domain.NewEvent(domain.EventDailyReset, DawnMessage, "", "")
		if err := w.postgres.AppendEvent(ctx, event); err != nil {
			w.logger.Error("failed to append dawn news", "error", err)
		}
		if w.hub != nil {
			w.hub.BroadcastNews(event)
		}
	}

	// The reset revived everyone, rebuild the Hall of Fame so ranks
	// reflect the fresh state.
	if err := w.rebuildRankings(ctx); err != nil {
		w.logger.Error("failed to rebuild rankings after reset", "error", err)
	}

	w.logger.Info("daily reset completed",
		"day", today.Format("2006-01-02"),
		"players_reset", affected,
		"announced", won,
		"duration", time.Since(startTime),
	)
}

// rebuildRankings reloads the Redis Hall of Fame from PostgreSQL.
// Useful at startup for recovery as well as after a reset.
func (w *ResetWorker) rebuildRankings(ctx context.Context) error {
	infos, err := w.postgres.ListPlayers(ctx)
	if err != nil {
		return err
	}
	return w.rankings.Rebuild(ctx, infos)
}

// RunOnce runs a single reset check (useful at startup to catch up
// after downtime)
func (w *ResetWorker) RunOnce(ctx context.Context) {
	w.checkNewDay(ctx)
}

// RebuildRankings exposes a manual Hall of Fame rebuild
func (w *ResetWorker) RebuildRankings(ctx context.Context) error {
	return w.rebuildRankings(ctx)
}

// IsRunning returns whether the worker is currently running
func (w *ResetWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
