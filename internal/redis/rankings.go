package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/reddragon-server/internal/config"
	"github.com/reddragon-server/internal/domain"
)

const (
	hallOfFameKey = "halloffame:rankings"

	// scoreBase packs (level, exp) into one sortable ZSET score:
	// level*scoreBase + exp. Exp is always below its level threshold
	// (level*100), so the two components never collide.
	scoreBase = 1_000_000
)

// Rankings provides the Redis-backed Hall of Fame: players ordered by
// level, then experience.
type Rankings struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRankings creates a new Redis rankings service
func NewRankings(cfg *config.RedisConfig, logger *slog.Logger) (*Rankings, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Rankings{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *Rankings) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *Rankings) Client() *redis.Client {
	return s.client
}

func rankScore(level, exp int) float64 {
	return float64(int64(level)*scoreBase + int64(exp))
}

func unpackScore(score float64) (level, exp int) {
	v := int64(score)
	return int(v / scoreBase), int(v % scoreBase)
}

// UpdatePlayer refreshes a player's Hall of Fame entry and cached card.
func (s *Rankings) UpdatePlayer(ctx context.Context, info domain.PlayerInfo) error {
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, hallOfFameKey, redis.Z{
		Score:  rankScore(info.Level, info.Exp),
		Member: info.Name,
	})
	pipe.HSet(ctx, playerCardKey(info.Name),
		"name", info.Name,
		"level", info.Level,
		"alive", info.Alive,
	)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("updating ranking: %w", err)
	}
	return nil
}

// Top returns the highest-ranked players, best first.
func (s *Rankings) Top(ctx context.Context, n int) ([]domain.PlayerInfo, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, hallOfFameKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top players: %w", err)
	}

	infos := make([]domain.PlayerInfo, len(results))
	for i, result := range results {
		level, exp := unpackScore(result.Score)
		infos[i] = domain.PlayerInfo{
			Name:  result.Member.(string),
			Level: level,
			Exp:   exp,
		}
	}
	return infos, nil
}

// Rank returns a player's 1-indexed Hall of Fame position.
func (s *Rankings) Rank(ctx context.Context, name string) (int64, error) {
	rank, err := s.client.ZRevRank(ctx, hallOfFameKey, name).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrPlayerNotFound
		}
		return 0, fmt.Errorf("getting rank: %w", err)
	}
	return rank + 1, nil
}

// Count returns the number of ranked players.
func (s *Rankings) Count(ctx context.Context) (int64, error) {
	count, err := s.client.ZCard(ctx, hallOfFameKey).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// Rebuild replaces the rankings wholesale from authoritative records. Used
// on startup and after each daily reset so revivals show up immediately.
func (s *Rankings) Rebuild(ctx context.Context, infos []domain.PlayerInfo) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, hallOfFameKey)
	for _, info := range infos {
		pipe.ZAdd(ctx, hallOfFameKey, redis.Z{
			Score:  rankScore(info.Level, info.Exp),
			Member: info.Name,
		})
		pipe.HSet(ctx, playerCardKey(info.Name),
			"name", info.Name,
			"level", info.Level,
			"alive", info.Alive,
		)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding rankings: %w", err)
	}
	return nil
}

// playerCardKey returns the Redis key for a player's cached card.
func playerCardKey(name string) string {
	return fmt.Sprintf("player:%s:card", name)
}

// PlayerCard retrieves a cached player card.
func (s *Rankings) PlayerCard(ctx context.Context, name string) (*domain.PlayerInfo, error) {
	result, err := s.client.HGetAll(ctx, playerCardKey(name)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player card: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	var info domain.PlayerInfo
	info.Name = result["name"]
	fmt.Sscanf(result["level"], "%d", &info.Level)
	info.Alive = result["alive"] == "1" || result["alive"] == "true"
	return &info, nil
}
