package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
	"github.com/creature-forge/internal/kafka"
	"github.com/creature-forge/internal/redis"
	"github.com/creature-forge/internal/store"
	"github.com/creature-forge/internal/websocket"
)

// CreatureGenerator produces candidate creatures without persisting them
type CreatureGenerator interface {
	Generate(ctx context.Context) (domain.Creature, error)
}

// GameService provides the game's business logic: the token economy, the
// collection, the score aggregate and the session leaderboard. The store is
// the single source of truth; every mutation round-trips through it before
// any derived view is produced.
type GameService struct {
	store    *store.Store
	gen      CreatureGenerator
	config   *config.GameConfig
	logger   *slog.Logger
	mirror   *redis.Mirror
	hub      *websocket.Hub
	producer *kafka.Producer
}

// NewGameService creates a game service over the given store and generator
func NewGameService(s *store.Store, gen CreatureGenerator, cfg *config.GameConfig, logger *slog.Logger) *GameService {
	return &GameService{
		store:  s,
		gen:    gen,
		config: cfg,
		logger: logger,
	}
}

// SetMirror attaches the Redis leaderboard mirror
func (s *GameService) SetMirror(m *redis.Mirror) {
	s.mirror = m
}

// SetHub attaches the websocket hub for broadcasting
func (s *GameService) SetHub(h *websocket.Hub) {
	s.hub = h
}

// SetProducer attaches the game-event producer
func (s *GameService) SetProducer(p *kafka.Producer) {
	s.producer = p
}

// EnsureDefaults seeds the economy settings on first run. The store reports
// absent keys rather than defaulting, so initial values are decided here at
// the composition root's request.
func (s *GameService) EnsureDefaults(ctx context.Context) error {
	if _, err := s.store.IntSetting(ctx, domain.SettingTokens); err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return fmt.Errorf("checking token balance: %w", err)
		}
		if err := s.store.PutSetting(ctx, domain.SettingTokens, s.config.InitialTokens); err != nil {
			return fmt.Errorf("seeding token balance: %w", err)
		}
		s.logger.Info("initialized token balance", "tokens", s.config.InitialTokens)
	}

	if _, err := s.store.IntSetting(ctx, domain.SettingSaleProfit); err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return fmt.Errorf("checking sale profit: %w", err)
		}
		if err := s.store.PutSetting(ctx, domain.SettingSaleProfit, 0); err != nil {
			return fmt.Errorf("seeding sale profit: %w", err)
		}
	}

	return nil
}

// Generate runs the generation action: reserve the cost, ask the generator
// for a creature, persist it, and commit the debit. Any failure after the
// reservation releases it, so a failed generation nets zero token change.
func (s *GameService) Generate(ctx context.Context) (domain.Creature, error) {
	reservation, err := s.store.ReserveTokens(ctx, s.config.GenerationCost)
	if err != nil {
		return domain.Creature{}, err
	}

	creature, err := s.gen.Generate(ctx)
	if err != nil {
		if relErr := reservation.Release(ctx); relErr != nil {
			// The refund itself failed; the debit stands and must be visible
			s.logger.Error("failed to refund generation cost",
				"cost", reservation.Amount(),
				"error", relErr,
			)
		}
		return domain.Creature{}, err
	}

	persisted, err := s.store.AddCreature(ctx, creature)
	if err != nil {
		if relErr := reservation.Release(ctx); relErr != nil {
			s.logger.Error("failed to refund generation cost",
				"cost", reservation.Amount(),
				"error", relErr,
			)
		}
		return domain.Creature{}, err
	}

	reservation.Commit()

	s.notifyCollectionChange(ctx, "generated", &persisted)
	s.publishEvent(kafka.GameEvent{
		Type:       kafka.EventCreatureGenerated,
		CreatureID: persisted.ID,
		Rarity:     persisted.Rarity,
		Score:      persisted.Score,
	})

	return persisted, nil
}

// Sell runs the sale action: delete the creature and credit its sale value
// to both tokens and accumulated profit, atomically. Returns the sale value.
func (s *GameService) Sell(ctx context.Context, id int64) (int, error) {
	creature, err := s.store.GetCreature(ctx, id)
	if err != nil {
		return 0, err
	}

	saleValue, err := s.store.SellCreature(ctx, id)
	if err != nil {
		return 0, err
	}

	s.notifyCollectionChange(ctx, "sold", &creature)
	s.publishEvent(kafka.GameEvent{
		Type:       kafka.EventCreatureSold,
		CreatureID: creature.ID,
		Rarity:     creature.Rarity,
		SaleValue:  saleValue,
	})

	return saleValue, nil
}

// TotalScore returns the displayed aggregate: the sum of owned creature
// scores plus the accumulated sale profit. The profit setting is
// authoritative and append-only; it is never recomputed from history.
func (s *GameService) TotalScore(ctx context.Context) (int, error) {
	owned, err := s.store.SumCreatureScores(ctx)
	if err != nil {
		return 0, err
	}

	profit, err := s.store.IntSetting(ctx, domain.SettingSaleProfit)
	if err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return 0, err
		}
		profit = 0
	}

	return owned + profit, nil
}

// Wallet returns the player's economy snapshot
func (s *GameService) Wallet(ctx context.Context) (domain.Wallet, error) {
	tokens, err := s.store.IntSetting(ctx, domain.SettingTokens)
	if err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return domain.Wallet{}, err
		}
		tokens = 0
	}

	profit, err := s.store.IntSetting(ctx, domain.SettingSaleProfit)
	if err != nil {
		if !errors.Is(err, domain.ErrSettingNotFound) {
			return domain.Wallet{}, err
		}
		profit = 0
	}

	owned, err := s.store.SumCreatureScores(ctx)
	if err != nil {
		return domain.Wallet{}, err
	}

	return domain.Wallet{
		Tokens:     tokens,
		SaleProfit: profit,
		TotalScore: owned + profit,
	}, nil
}

// SaveScore snapshots the current total score to the leaderboard under the
// given nickname
func (s *GameService) SaveScore(ctx context.Context, nickname string) (domain.SessionScore, error) {
	total, err := s.TotalScore(ctx)
	if err != nil {
		return domain.SessionScore{}, err
	}

	entry, err := s.store.AddSessionScore(ctx, total, nickname, time.Time{})
	if err != nil {
		return domain.SessionScore{}, err
	}

	if s.mirror != nil {
		if err := s.mirror.AddScore(ctx, entry); err != nil {
			s.logger.Warn("failed to mirror session score", "error", err)
		}
	}

	if s.hub != nil {
		top, err := s.store.TopSessionScores(ctx, s.config.LeaderboardLimit)
		if err != nil {
			s.logger.Warn("failed to read leaderboard for broadcast", "error", err)
		} else {
			s.hub.BroadcastLeaderboard(top)
		}
	}

	s.publishEvent(kafka.GameEvent{
		Type:     kafka.EventScoreSaved,
		Score:    entry.Score,
		Nickname: entry.Nickname,
	})

	return entry, nil
}

// Leaderboard returns the top entries by score descending, ties broken by
// insertion order. Reads come from the store, which is authoritative; the
// Redis mirror only serves realtime broadcasts.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.SessionScore, error) {
	if limit <= 0 {
		limit = s.config.LeaderboardLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	return s.store.TopSessionScores(ctx, limit)
}

// Creature returns a single owned creature by id
func (s *GameService) Creature(ctx context.Context, id int64) (domain.Creature, error) {
	return s.store.GetCreature(ctx, id)
}

// notifyCollectionChange broadcasts the changed collection and wallet
func (s *GameService) notifyCollectionChange(ctx context.Context, action string, creature *domain.Creature) {
	if s.hub == nil {
		return
	}

	creatures, err := s.store.AllCreatures(ctx)
	if err != nil {
		s.logger.Warn("failed to read collection for broadcast", "error", err)
		return
	}

	s.hub.BroadcastCollection(websocket.CollectionUpdate{
		Action:   action,
		Creature: creature,
		OwnedNow: len(creatures),
	})

	wallet, err := s.Wallet(ctx)
	if err != nil {
		s.logger.Warn("failed to read wallet for broadcast", "error", err)
		return
	}
	s.hub.BroadcastWallet(wallet)
}

func (s *GameService) publishEvent(event kafka.GameEvent) {
	if s.producer == nil {
		return
	}
	s.producer.Publish(event)
}
