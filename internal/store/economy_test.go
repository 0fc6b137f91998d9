package store

import (
	"context"
	"errors"
	"testing"

	"github.com/creature-forge/internal/domain"
)

func seedTokens(t *testing.T, s *Store, balance int) {
	t.Helper()
	ctx := context.Background()
	if err := s.PutSetting(ctx, domain.SettingTokens, balance); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	if err := s.PutSetting(ctx, domain.SettingSaleProfit, 0); err != nil {
		t.Fatalf("seed profit: %v", err)
	}
}

func tokenBalance(t *testing.T, s *Store) int {
	t.Helper()
	balance, err := s.IntSetting(context.Background(), domain.SettingTokens)
	if err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return balance
}

func TestReserveTokens_CommitKeepsDebit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTokens(t, s, 100)

	res, err := s.ReserveTokens(ctx, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := tokenBalance(t, s); got != 90 {
		t.Fatalf("balance after reserve=%d, want 90", got)
	}

	res.Commit()
	if err := res.Release(ctx); err != nil {
		t.Fatalf("release after commit: %v", err)
	}
	if got := tokenBalance(t, s); got != 90 {
		t.Fatalf("balance after committed release=%d, want 90", got)
	}
}

func TestReserveTokens_ReleaseRefunds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTokens(t, s, 100)

	res, err := s.ReserveTokens(ctx, 10)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := res.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := tokenBalance(t, s); got != 100 {
		t.Fatalf("balance after release=%d, want 100", got)
	}

	// A second release must not refund again
	if err := res.Release(ctx); err != nil {
		t.Fatalf("double release: %v", err)
	}
	if got := tokenBalance(t, s); got != 100 {
		t.Fatalf("balance after double release=%d, want 100", got)
	}
}

func TestReserveTokens_InsufficientBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTokens(t, s, 5)

	_, err := s.ReserveTokens(ctx, 10)
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if got := tokenBalance(t, s); got != 5 {
		t.Fatalf("balance mutated on rejection: %d, want 5", got)
	}
}

func TestSellCreature_AtomicEffects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedTokens(t, s, 100)

	added, err := s.AddCreature(ctx, domain.Creature{
		Name: "Gengar", Rarity: domain.RarityRare, Score: 150,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	saleValue, err := s.SellCreature(ctx, added.ID)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if saleValue != 30 {
		t.Fatalf("sale value=%d, want 30", saleValue)
	}

	if got := tokenBalance(t, s); got != 130 {
		t.Fatalf("balance=%d, want 130", got)
	}
	profit, err := s.IntSetting(ctx, domain.SettingSaleProfit)
	if err != nil {
		t.Fatalf("read profit: %v", err)
	}
	if profit != 30 {
		t.Fatalf("profit=%d, want 30", profit)
	}
	if _, err := s.GetCreature(ctx, added.ID); !errors.Is(err, domain.ErrCreatureNotFound) {
		t.Fatalf("creature still present after sale: %v", err)
	}
}

func TestSellCreature_UnknownID(t *testing.T) {
	s := newTestStore(t)
	seedTokens(t, s, 100)

	_, err := s.SellCreature(context.Background(), 9999)
	if !errors.Is(err, domain.ErrCreatureNotFound) {
		t.Fatalf("got %v, want ErrCreatureNotFound", err)
	}
	if got := tokenBalance(t, s); got != 100 {
		t.Fatalf("balance mutated on failed sale: %d, want 100", got)
	}
}
