package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/creature-forge/internal/config"
	"github.com/creature-forge/internal/domain"
	"github.com/creature-forge/internal/store"
)

type fakeGenerator struct {
	creature domain.Creature
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context) (domain.Creature, error) {
	f.calls++
	return f.creature, f.err
}

func newTestService(t *testing.T, gen *fakeGenerator) *GameService {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "creature-forge.db")
	st, err := store.Open(dbPath, slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.DefaultConfig()
	svc := NewGameService(st, gen, &cfg.Game, slog.Default())
	if err := svc.EnsureDefaults(context.Background()); err != nil {
		t.Fatalf("ensure defaults: %v", err)
	}
	return svc
}

func TestEnsureDefaults_SeedsOnce(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{})
	ctx := context.Background()

	wallet, err := svc.Wallet(ctx)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if wallet.Tokens != 100 || wallet.SaleProfit != 0 {
		t.Fatalf("fresh wallet = %+v, want 100 tokens and zero profit", wallet)
	}

	// A second pass must not reset an existing balance
	if _, err := svc.store.ReserveTokens(ctx, 40); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.EnsureDefaults(ctx); err != nil {
		t.Fatalf("second ensure defaults: %v", err)
	}
	wallet, err = svc.Wallet(ctx)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if wallet.Tokens != 60 {
		t.Fatalf("tokens=%d after reseed, want 60", wallet.Tokens)
	}
}

func TestGenerate_DebitsAndPersists(t *testing.T) {
	gen := &fakeGenerator{creature: domain.Creature{
		Name: "Charmander", Rarity: domain.RarityUncommon, Score: 75,
	}}
	svc := newTestService(t, gen)
	ctx := context.Background()

	creature, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if creature.ID <= 0 {
		t.Fatalf("creature not persisted, id=%d", creature.ID)
	}

	wallet, err := svc.Wallet(ctx)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if wallet.Tokens != 90 {
		t.Fatalf("tokens=%d, want 90", wallet.Tokens)
	}
	if wallet.TotalScore != 75 {
		t.Fatalf("total score=%d, want 75", wallet.TotalScore)
	}
}

func TestGenerate_FailureRefunds(t *testing.T) {
	gen := &fakeGenerator{err: domain.NewGenerationError(domain.GenerationNetworkUnavailable, "down")}
	svc := newTestService(t, gen)
	ctx := context.Background()

	_, err := svc.Generate(ctx)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("got %v, want a generation error", err)
	}

	wallet, err := svc.Wallet(ctx)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if wallet.Tokens != 100 {
		t.Fatalf("tokens=%d after failed generation, want 100", wallet.Tokens)
	}
}

func TestGenerate_InsufficientBalanceSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{creature: domain.Creature{
		Name: "Mew", Rarity: domain.RarityLegendary, Score: 500,
	}}
	svc := newTestService(t, gen)
	ctx := context.Background()

	// 100 tokens cover exactly ten generations
	for i := 0; i < 10; i++ {
		if _, err := svc.Generate(ctx); err != nil {
			t.Fatalf("generation %d: %v", i, err)
		}
	}

	_, err := svc.Generate(ctx)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if gen.calls != 10 {
		t.Fatalf("generator called %d times, want 10", gen.calls)
	}
}

func TestSell_MovesScoreToProfit(t *testing.T) {
	gen := &fakeGenerator{creature: domain.Creature{
		Name: "Gengar", Rarity: domain.RarityRare, Score: 150,
	}}
	svc := newTestService(t, gen)
	ctx := context.Background()

	creature, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	saleValue, err := svc.Sell(ctx, creature.ID)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if saleValue != 30 {
		t.Fatalf("sale value=%d, want 30", saleValue)
	}

	wallet, err := svc.Wallet(ctx)
	if err != nil {
		t.Fatalf("wallet: %v", err)
	}
	if wallet.Tokens != 120 {
		t.Fatalf("tokens=%d, want 90 + 30 = 120", wallet.Tokens)
	}
	if wallet.SaleProfit != 30 {
		t.Fatalf("profit=%d, want 30", wallet.SaleProfit)
	}
	// Owned score drops to zero; the profit keeps the total at the sale value
	if wallet.TotalScore != 30 {
		t.Fatalf("total score=%d, want 30", wallet.TotalScore)
	}

	if _, err := svc.Sell(ctx, creature.ID); !errors.Is(err, domain.ErrCreatureNotFound) {
		t.Fatalf("double sell: got %v, want ErrCreatureNotFound", err)
	}
}

func TestSaveScore_SnapshotsTotal(t *testing.T) {
	gen := &fakeGenerator{creature: domain.Creature{
		Name: "Snorlax", Rarity: domain.RarityEpic, Score: 300,
	}}
	svc := newTestService(t, gen)
	ctx := context.Background()

	if _, err := svc.Generate(ctx); err != nil {
		t.Fatalf("generate: %v", err)
	}

	entry, err := svc.SaveScore(ctx, "ash")
	if err != nil {
		t.Fatalf("save score: %v", err)
	}
	if entry.Score != 300 {
		t.Fatalf("entry score=%d, want 300", entry.Score)
	}
	if entry.Nickname != "ash" {
		t.Fatalf("nickname=%q, want ash", entry.Nickname)
	}

	top, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 1 || top[0].Score != 300 {
		t.Fatalf("leaderboard = %+v, want the single snapshot", top)
	}
}

func TestLeaderboard_LimitClamping(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{})
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.SaveScore(ctx, "p"); err != nil {
			t.Fatalf("save score %d: %v", i, err)
		}
	}

	top, err := svc.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard default: %v", err)
	}
	if len(top) != 10 {
		t.Fatalf("default limit returned %d entries, want 10", len(top))
	}

	top, err = svc.Leaderboard(ctx, 1000)
	if err != nil {
		t.Fatalf("leaderboard oversized: %v", err)
	}
	if len(top) != 15 {
		t.Fatalf("clamped limit returned %d entries, want all 15", len(top))
	}
}
