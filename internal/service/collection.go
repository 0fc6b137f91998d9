package service

import (
	"context"
	"sort"

	"github.com/creature-forge/internal/domain"
)

// Collection returns one page of the owned creatures, filtered by rarity and
// sorted. Filtering, sorting and pagination are layered on top of the store's
// unordered read; the store itself guarantees no ordering.
func (s *GameService) Collection(ctx context.Context, query domain.CollectionQuery) (domain.CollectionPage, error) {
	creatures, err := s.store.AllCreatures(ctx)
	if err != nil {
		return domain.CollectionPage{}, err
	}

	if query.Rarity != "" {
		if !domain.ValidRarity(query.Rarity) {
			return domain.CollectionPage{}, domain.ErrUnknownRarity
		}
		filtered := creatures[:0]
		for _, c := range creatures {
			if c.Rarity == query.Rarity {
				filtered = append(filtered, c)
			}
		}
		creatures = filtered
	}

	sortCreatures(creatures, query.Sort)

	perPage := query.PerPage
	if perPage <= 0 {
		perPage = s.config.DefaultPageSize
	}
	if perPage > s.config.MaxLimit {
		perPage = s.config.MaxLimit
	}

	totalCount := len(creatures)
	totalPages := (totalCount + perPage - 1) / perPage

	page := query.Page
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > totalCount {
		start = totalCount
	}
	if end > totalCount {
		end = totalCount
	}

	return domain.CollectionPage{
		Creatures:  creatures[start:end],
		Page:       page,
		TotalPages: totalPages,
		TotalCount: totalCount,
	}, nil
}

// sortCreatures orders in place by the requested mode; date-desc when the
// mode is empty or unrecognized
func sortCreatures(creatures []domain.Creature, order domain.SortOrder) {
	less := func(i, j int) bool {
		return creatures[i].CreatedAt.After(creatures[j].CreatedAt)
	}

	switch order {
	case domain.SortDateAsc:
		less = func(i, j int) bool {
			return creatures[i].CreatedAt.Before(creatures[j].CreatedAt)
		}
	case domain.SortRarityAsc:
		less = func(i, j int) bool {
			return rarityOrdinal(creatures[i].Rarity) < rarityOrdinal(creatures[j].Rarity)
		}
	case domain.SortRarityDesc:
		less = func(i, j int) bool {
			return rarityOrdinal(creatures[i].Rarity) > rarityOrdinal(creatures[j].Rarity)
		}
	}

	sort.SliceStable(creatures, less)
}

func rarityOrdinal(r domain.Rarity) int {
	info, ok := domain.RarityDetails(r)
	if !ok {
		return -1
	}
	return info.Ordinal
}
