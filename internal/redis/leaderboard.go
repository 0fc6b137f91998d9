package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
)

const (
	scoresKey    = "leaderboard:session:scores"
	nicknamesKey = "leaderboard:session:nicknames"
)

// Mirror keeps the session-score leaderboard in a Redis sorted set for cheap
// realtime top-N reads and websocket broadcasts. The SQLite store stays
// authoritative; the mirror is rebuilt from it on startup and on a timer.
type Mirror struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMirror creates a leaderboard mirror and verifies the connection
func NewMirror(cfg *config.RedisConfig, logger *slog.Logger) (*Mirror, error) {
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

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Mirror{client: client, logger: logger}, nil
}

// Close closes the Redis connection
func (m *Mirror) Close() error {
	return m.client.Close()
}

// AddScore mirrors one leaderboard entry
func (m *Mirror) AddScore(ctx context.Context, entry domain.SessionScore) error {
	member := strconv.FormatInt(entry.ID, 10)

	pipe := m.client.Pipeline()
	pipe.ZAdd(ctx, scoresKey, redis.Z{
		Score:  float64(entry.Score),
		Member: member,
	})
	pipe.HSet(ctx, nicknamesKey, member, entry.Nickname)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirroring session score: %w", err)
	}
	return nil
}

// TopN returns the mirror's top n entries by score descending
func (m *Mirror) TopN(ctx context.Context, n int) ([]domain.SessionScore, error) {
	results, err := m.client.ZRevRangeWithScores(ctx, scoresKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top n: %w", err)
	}

	entries := make([]domain.SessionScore, 0, len(results))
	for _, result := range results {
		member, _ := result.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}

		nickname, err := m.client.HGet(ctx, nicknamesKey, member).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("getting nickname: %w", err)
		}
		if nickname == "" {
			nickname = domain.DefaultNickname
		}

		entries = append(entries, domain.SessionScore{
			ID:       id,
			Score:    int(result.Score),
			Nickname: nickname,
		})
	}
	return entries, nil
}

// Count returns the number of mirrored entries
func (m *Mirror) Count(ctx context.Context) (int64, error) {
	count, err := m.client.ZCard(ctx, scoresKey).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// Rebuild replaces the mirror's contents with the given entries, pipelined
func (m *Mirror) Rebuild(ctx context.Context, entries []domain.SessionScore) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, scoresKey)
	pipe.Del(ctx, nicknamesKey)

	for _, entry := range entries {
		member := strconv.FormatInt(entry.ID, 10)
		pipe.ZAdd(ctx, scoresKey, redis.Z{
			Score:  float64(entry.Score),
			Member: member,
		})
		pipe.HSet(ctx, nicknamesKey, member, entry.Nickname)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding leaderboard mirror: %w", err)
	}

	m.logger.Debug("leaderboard mirror rebuilt", "entries", len(entries))
	return nil
}
