package store

import (
	"context"
	"fmt"
	"time"

	"github.com/creature-forge/internal/domain"
)

// AddSessionScore persists a leaderboard entry and returns it with the
// assigned id. Entries are immutable once written: only inserted and read
// back sorted. An empty nickname falls back to the default, an overlong one
// is truncated.
func (s *Store) AddSessionScore(ctx context.Context, score int, nickname string, date time.Time) (domain.SessionScore, error) {
	if nickname == "" {
		nickname = domain.DefaultNickname
	}
	if len(nickname) > domain.MaxNicknameLen {
		nickname = nickname[:domain.MaxNicknameLen]
	}
	if date.IsZero() {
		date = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO session_scores (score, nickname, date) VALUES (?, ?, ?)`,
		score, nickname, date.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return domain.SessionScore{}, fmt.Errorf("%w: adding session score: %v", domain.ErrStoreWrite, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.SessionScore{}, fmt.Errorf("%w: reading new score id: %v", domain.ErrStoreWrite, err)
	}

	return domain.SessionScore{ID: id, Score: score, Nickname: nickname, Date: date.UTC()}, nil
}

// TopSessionScores returns at most limit entries ordered by score descending,
// ties broken by insertion order (earlier entries first)
func (s *Store) TopSessionScores(ctx context.Context, limit int) ([]domain.SessionScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, nickname, date FROM session_scores
		 ORDER BY score DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: listing top scores: %v", domain.ErrStoreRead, err)
	}
	defer rows.Close()

	return scanSessionScores(rows)
}

// AllSessionScores returns every leaderboard entry; used to rebuild the
// realtime mirror
func (s *Store) AllSessionScores(ctx context.Context) ([]domain.SessionScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, nickname, date FROM session_scores ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing session scores: %v", domain.ErrStoreRead, err)
	}
	defer rows.Close()

	return scanSessionScores(rows)
}

func scanSessionScores(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.SessionScore, error) {
	var scores []domain.SessionScore
	for rows.Next() {
		var (
			sc   domain.SessionScore
			date string
		)
		if err := rows.Scan(&sc.ID, &sc.Score, &sc.Nickname, &date); err != nil {
			return nil, fmt.Errorf("%w: scanning session score: %v", domain.ErrStoreRead, err)
		}
		ts, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing score date: %v", domain.ErrStoreRead, err)
		}
		sc.Date = ts
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating session scores: %v", domain.ErrStoreRead, err)
	}
	return scores, nil
}
