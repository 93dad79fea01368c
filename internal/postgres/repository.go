package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			password TEXT NOT NULL DEFAULT '',
			level INT NOT NULL DEFAULT 1,
			exp INT NOT NULL DEFAULT 0,
			gold INT NOT NULL DEFAULT 0,
			current_hp INT NOT NULL,
			max_hp INT NOT NULL,
			attack INT NOT NULL,
			defense INT NOT NULL,
			forest_fights INT NOT NULL,
			alive BOOLEAN NOT NULL DEFAULT TRUE,
			defeated_today BOOLEAN NOT NULL DEFAULT FALSE,
			romance INT NOT NULL DEFAULT 0,
			spouse TEXT NOT NULL DEFAULT '',
			last_reset DATE NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			version BIGINT NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS news (
			id BIGSERIAL PRIMARY KEY,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			actor TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS game_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_players_name_lower ON players (LOWER(name))`,
		`CREATE INDEX IF NOT EXISTS idx_players_level_exp ON players (level DESC, exp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_news_created_at ON news (created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

const playerColumns = `id, name, password, level, exp, gold, current_hp, max_hp,
	attack, defense, forest_fights, alive, defeated_today, romance, spouse,
	last_reset, last_seen, created_at, version`

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	err := row.Scan(
		&p.ID, &p.Name, &p.PasswordHash, &p.Level, &p.Exp, &p.Gold,
		&p.CurrentHP, &p.MaxHP, &p.Attack, &p.Defense, &p.ForestFights,
		&p.Alive, &p.DefeatedToday, &p.Romance, &p.Spouse,
		&p.LastReset, &p.LastSeen, &p.CreatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlayer inserts a new character record and returns it with its
// assigned id. Name collisions (case-insensitive) map to ErrNameTaken.
func (r *Repository) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	query := `
		INSERT INTO players
			(name, password, level, exp, gold, current_hp, max_hp, attack, defense,
			 forest_fights, alive, defeated_today, romance, spouse, last_reset)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + playerColumns
	created, err := scanPlayer(r.pool.QueryRow(ctx, query,
		p.Name, p.PasswordHash, p.Level, p.Exp, p.Gold,
		p.CurrentHP, p.MaxHP, p.Attack, p.Defense,
		p.ForestFights, p.Alive, p.DefeatedToday, p.Romance, p.Spouse,
		p.LastReset,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrNameTaken
		}
		return nil, fmt.Errorf("creating player: %w", err)
	}
	return created, nil
}

// GetPlayerByName retrieves a player by name, case-insensitively.
func (r *Repository) GetPlayerByName(ctx context.Context, name string) (*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE LOWER(name) = LOWER($1)`
	p, err := scanPlayer(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return p, nil
}

// GetPlayerByID retrieves a player by id.
func (r *Repository) GetPlayerByID(ctx context.Context, id int64) (*domain.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	p, err := scanPlayer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return p, nil
}

const savePlayerQuery = `
	UPDATE players SET
		level = $1, exp = $2, gold = $3, current_hp = $4, max_hp = $5,
		attack = $6, defense = $7, forest_fights = $8, alive = $9,
		defeated_today = $10, romance = $11, spouse = $12, last_reset = $13,
		last_seen = NOW(), version = version + 1
	WHERE id = $14 AND version = $15`

// SavePlayer persists a mutated player record with a compare-and-swap on
// the version column. A zero-row update means another session changed the
// record since it was loaded; the caller must reload and retry.
func (r *Repository) SavePlayer(ctx context.Context, p *domain.Player) error {
	tag, err := r.pool.Exec(ctx, savePlayerQuery,
		p.Level, p.Exp, p.Gold, p.CurrentHP, p.MaxHP,
		p.Attack, p.Defense, p.ForestFights, p.Alive,
		p.DefeatedToday, p.Romance, p.Spouse, p.LastReset,
		p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	p.Version++
	return nil
}

// SavePlayers persists several mutated records in one transaction, each
// guarded by its own version check. Used by the duel path so both duelists
// commit or neither does.
func (r *Repository) SavePlayers(ctx context.Context, players ...*domain.Player) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range players {
		tag, err := tx.Exec(ctx, savePlayerQuery,
			p.Level, p.Exp, p.Gold, p.CurrentHP, p.MaxHP,
			p.Attack, p.Defense, p.ForestFights, p.Alive,
			p.DefeatedToday, p.Romance, p.Spouse, p.LastReset,
			p.ID, p.Version,
		)
		if err != nil {
			return fmt.Errorf("saving player %q: %w", p.Name, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConflict
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	for _, p := range players {
		p.Version++
	}
	return nil
}

// ListPlayers returns the listing view of every player, ordered by name.
func (r *Repository) ListPlayers(ctx context.Context) ([]domain.PlayerInfo, error) {
	query := `SELECT id, name, level, exp, alive FROM players ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var infos []domain.PlayerInfo
	for rows.Next() {
		var info domain.PlayerInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Level, &info.Exp, &info.Alive); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ListOpponents returns duel targets: alive players that have not been
// defeated today, excluding the requester.
func (r *Repository) ListOpponents(ctx context.Context, excludeID int64) ([]domain.PlayerInfo, error) {
	query := `
		SELECT id, name, level, exp, alive FROM players
		WHERE alive = TRUE AND defeated_today = FALSE AND id != $1
		ORDER BY name`
	rows, err := r.pool.Query(ctx, query, excludeID)
	if err != nil {
		return nil, fmt.Errorf("listing opponents: %w", err)
	}
	defer rows.Close()

	var infos []domain.PlayerInfo
	for rows.Next() {
		var info domain.PlayerInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Level, &info.Exp, &info.Alive); err != nil {
			return nil, fmt.Errorf("scanning opponent: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// TopPlayers returns the Hall of Fame ordering straight from the database.
// The redis rankings serve reads; this feeds their rebuild.
func (r *Repository) TopPlayers(ctx context.Context, limit int) ([]domain.PlayerInfo, error) {
	query := `SELECT id, name, level, exp, alive FROM players ORDER BY level DESC, exp DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting top players: %w", err)
	}
	defer rows.Close()

	var infos []domain.PlayerInfo
	for rows.Next() {
		var info domain.PlayerInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Level, &info.Exp, &info.Alive); err != nil {
			return nil, fmt.Errorf("scanning top player: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// AppendEvent writes an immutable daily-news entry.
func (r *Repository) AppendEvent(ctx context.Context, event domain.Event) error {
	query := `
		INSERT INTO news (category, message, actor, target, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		string(event.Category), event.Message, event.Actor, event.Target, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

// ListRecentEvents returns the latest news entries, newest first.
func (r *Repository) ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	query := `
		SELECT id, category, message, actor, target, created_at
		FROM news ORDER BY id DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Category, &e.Message, &e.Actor, &e.Target, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ResetAllDue performs the global daily reset as a single conditional
// update keyed on each record's stored last-reset date. Two instances
// racing the same boundary cannot double-restore a player: whichever
// update runs second matches zero rows for that player.
func (r *Repository) ResetAllDue(ctx context.Context, today time.Time, quota int) (int64, error) {
	day := domain.Day(today)
	query := `
		UPDATE players SET
			forest_fights = $1, alive = TRUE, defeated_today = FALSE,
			current_hp = max_hp, last_reset = $2, version = version + 1
		WHERE last_reset < $2`
	tag, err := r.pool.Exec(ctx, query, quota, day)
	if err != nil {
		return 0, fmt.Errorf("resetting players: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkGlobalReset advances the stored global last-reset date. It reports
// whether this call won the day boundary, so only one instance announces
// the new day.
func (r *Repository) MarkGlobalReset(ctx context.Context, today time.Time) (bool, error) {
	day := domain.Day(today).Format("2006-01-02")
	query := `
		INSERT INTO game_state (key, value) VALUES ('last_reset', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		WHERE game_state.value < EXCLUDED.value`
	tag, err := r.pool.Exec(ctx, query, day)
	if err != nil {
		return false, fmt.Errorf("marking global reset: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LastGlobalReset returns the stored global last-reset date, or the zero
// time when no reset has ever run.
func (r *Repository) LastGlobalReset(ctx context.Context) (time.Time, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM game_state WHERE key = 'last_reset'`).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("getting last reset: %w", err)
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last reset date: %w", err)
	}
	return day, nil
}
