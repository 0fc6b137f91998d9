package generator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/creature-forge/internal/domain"
)

// Generator produces candidate creature records: a name from the name
// source, a rarity from a weighted draw, and a score uniform within the
// rarity's band. It never touches persistent state; the caller decides
// whether to persist the result.
type Generator struct {
	names NameSource

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator. The random source is injected so draws are
// reproducible under property testing; pass nil for a time-seeded source.
func New(names NameSource, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{names: names, rng: rng}
}

// Generate returns a new creature without an id. Fails with a GenerationError
// when the name source is unreachable or returns a bad payload.
func (g *Generator) Generate(ctx context.Context) (domain.Creature, error) {
	entries, err := g.names.Names(ctx)
	if err != nil {
		return domain.Creature{}, err
	}
	if len(entries) == 0 {
		return domain.Creature{}, domain.NewGenerationError(domain.GenerationMalformedResponse, "name source returned no entries")
	}

	g.mu.Lock()
	entry := entries[g.rng.Intn(len(entries))]
	rarity := g.drawRarity()
	score := g.drawScore(rarity)
	g.mu.Unlock()

	return domain.Creature{
		Name:      entry.Name,
		Rarity:    rarity,
		Score:     score,
		ImageURL:  entry.ImageURL,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DrawRarity picks a tier by walking the cumulative weight distribution
func (g *Generator) DrawRarity() domain.Rarity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drawRarity()
}

func (g *Generator) drawRarity() domain.Rarity {
	roll := g.rng.Float64()
	cumulative := 0.0
	for _, r := range domain.Rarities() {
		info, _ := domain.RarityDetails(r)
		cumulative += info.Weight
		if roll < cumulative {
			return r
		}
	}
	// Floating-point slack can leave roll just above the final cumulative sum
	return domain.RarityCommon
}

// CalculateScore returns a uniformly random score within the rarity's
// inclusive band
func (g *Generator) CalculateScore(r domain.Rarity) (int, error) {
	if !domain.ValidRarity(r) {
		return 0, domain.ErrUnknownRarity
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drawScore(r), nil
}

func (g *Generator) drawScore(r domain.Rarity) int {
	info, _ := domain.RarityDetails(r)
	return info.MinScore + g.rng.Intn(info.MaxScore-info.MinScore+1)
}
