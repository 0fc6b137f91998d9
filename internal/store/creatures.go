package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/creature-forge/internal/domain"
)

// AddCreature persists a new creature and returns the full record including
// the freshly assigned id. Ids are monotonic and never reused.
func (s *Store) AddCreature(ctx context.Context, c domain.Creature) (domain.Creature, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO creatures (name, rarity, score, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.Name, string(c.Rarity), c.Score, c.ImageURL, c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return domain.Creature{}, fmt.Errorf("%w: adding creature: %v", domain.ErrStoreWrite, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Creature{}, fmt.Errorf("%w: reading new creature id: %v", domain.ErrStoreWrite, err)
	}

	c.ID = id
	return c, nil
}

// AllCreatures returns every persisted creature. The store makes no ordering
// guarantee; sorting is layered on top by the caller.
func (s *Store) AllCreatures(ctx context.Context) ([]domain.Creature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, rarity, score, image_url, created_at FROM creatures`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing creatures: %v", domain.ErrStoreRead, err)
	}
	defer rows.Close()

	var creatures []domain.Creature
	for rows.Next() {
		c, err := scanCreature(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning creature: %v", domain.ErrStoreRead, err)
		}
		creatures = append(creatures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating creatures: %v", domain.ErrStoreRead, err)
	}
	return creatures, nil
}

// GetCreature returns a single creature by id
func (s *Store) GetCreature(ctx context.Context, id int64) (domain.Creature, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, rarity, score, image_url, created_at FROM creatures WHERE id = ?`, id)

	c, err := scanCreature(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Creature{}, domain.ErrCreatureNotFound
		}
		return domain.Creature{}, fmt.Errorf("%w: getting creature: %v", domain.ErrStoreRead, err)
	}
	return c, nil
}

// DeleteCreature removes a creature by id. Deleting an unknown id is an
// error, not a no-op.
func (s *Store) DeleteCreature(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM creatures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting creature: %v", domain.ErrStoreWrite, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking delete result: %v", domain.ErrStoreWrite, err)
	}
	if affected == 0 {
		return domain.ErrCreatureNotFound
	}
	return nil
}

// SumCreatureScores returns the total score over all currently owned creatures
func (s *Store) SumCreatureScores(ctx context.Context) (int, error) {
	var sum int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(score), 0) FROM creatures`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("%w: summing creature scores: %v", domain.ErrStoreRead, err)
	}
	return sum, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCreature(row rowScanner) (domain.Creature, error) {
	var (
		c         domain.Creature
		rarity    string
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &rarity, &c.Score, &c.ImageURL, &createdAt); err != nil {
		return domain.Creature{}, err
	}
	c.Rarity = domain.Rarity(rarity)

	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return domain.Creature{}, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = ts
	return c, nil
}
