package generator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/creature-forge/internal/domain"
)

type staticNames struct {
	entries []NameEntry
	err     error
}

func (s *staticNames) Names(ctx context.Context) ([]NameEntry, error) {
	return s.entries, s.err
}

func TestGenerate_ScoreWithinRarityBand(t *testing.T) {
	gen := New(&staticNames{entries: []NameEntry{{Name: "Pikachu"}}},
		rand.New(rand.NewSource(1)))

	for i := 0; i < 10000; i++ {
		c, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		info, ok := domain.RarityDetails(c.Rarity)
		if !ok {
			t.Fatalf("generated unknown rarity %q", c.Rarity)
		}
		if c.Score < info.MinScore || c.Score > info.MaxScore {
			t.Fatalf("rarity %s score %d outside [%d, %d]",
				c.Rarity, c.Score, info.MinScore, info.MaxScore)
		}
	}
}

func TestDrawRarity_ConvergesToWeights(t *testing.T) {
	gen := New(&staticNames{}, rand.New(rand.NewSource(42)))

	const trials = 100000
	counts := make(map[domain.Rarity]int)
	for i := 0; i < trials; i++ {
		counts[gen.DrawRarity()]++
	}

	for _, r := range domain.Rarities() {
		info, _ := domain.RarityDetails(r)
		got := float64(counts[r]) / trials
		if math.Abs(got-info.Weight) > 0.02 {
			t.Fatalf("rarity %s frequency %.4f, want %.2f within 0.02", r, got, info.Weight)
		}
	}
}

func TestCalculateScore_UnknownRarity(t *testing.T) {
	gen := New(&staticNames{}, rand.New(rand.NewSource(1)))

	if _, err := gen.CalculateScore(domain.Rarity("mythic")); err != domain.ErrUnknownRarity {
		t.Fatalf("got %v, want ErrUnknownRarity", err)
	}
}

func TestGenerate_EmptyNameList(t *testing.T) {
	gen := New(&staticNames{entries: nil}, rand.New(rand.NewSource(1)))

	_, err := gen.Generate(context.Background())
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) || genErr.Kind != domain.GenerationMalformedResponse {
		t.Fatalf("got %v, want malformed-response GenerationError", err)
	}
}

func TestGenerate_PropagatesSourceError(t *testing.T) {
	srcErr := domain.NewGenerationError(domain.GenerationNetworkUnavailable, "down")
	gen := New(&staticNames{err: srcErr}, rand.New(rand.NewSource(1)))

	_, err := gen.Generate(context.Background())
	if err != srcErr {
		t.Fatalf("got %v, want the source error unchanged", err)
	}
}
