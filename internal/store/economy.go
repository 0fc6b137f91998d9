package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/creature-forge/internal/domain"
)

// TokenReservation is a held debit: the tokens are already gone from the
// balance, and the holder either commits (keeps the debit) or releases
// (refunds it). This makes the generate compensation path an explicit
// reserve / attempt / commit-or-release sequence instead of ad hoc inverse
// arithmetic.
type TokenReservation struct {
	store   *Store
	amount  int
	settled bool
}

// Amount returns the number of tokens held by the reservation
func (r *TokenReservation) Amount() int {
	return r.amount
}

// Commit keeps the debit in place. Idempotent.
func (r *TokenReservation) Commit() {
	r.settled = true
}

// Release refunds the reserved tokens. A no-op after Commit or a previous
// Release.
func (r *TokenReservation) Release(ctx context.Context) error {
	if r.settled {
		return nil
	}
	if err := r.store.CreditTokens(ctx, r.amount); err != nil {
		return err
	}
	r.settled = true
	return nil
}

// ReserveTokens atomically debits cost tokens from the balance. The balance
// never goes below zero: an insufficient balance is rejected before any
// mutation with ErrInsufficientBalance. The read-check-write runs in a single
// transaction, so two reservations cannot race into a lost update.
func (s *Store) ReserveTokens(ctx context.Context, cost int) (*TokenReservation, error) {
	if cost < 0 {
		return nil, fmt.Errorf("%w: negative reservation", domain.ErrInvalidRequest)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: beginning reservation: %v", domain.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	balance, err := getIntSettingTx(ctx, tx, domain.SettingTokens)
	if err != nil {
		if errors.Is(err, domain.ErrSettingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading balance: %v", domain.ErrStoreRead, err)
	}

	if balance < cost {
		return nil, domain.ErrInsufficientBalance
	}

	if err := putIntSettingTx(ctx, tx, domain.SettingTokens, balance-cost); err != nil {
		return nil, fmt.Errorf("%w: debiting balance: %v", domain.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing reservation: %v", domain.ErrStoreWrite, err)
	}

	return &TokenReservation{store: s, amount: cost}, nil
}

// CreditTokens atomically adds amount to the token balance
func (s *Store) CreditTokens(ctx context.Context, amount int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning credit: %v", domain.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	balance, err := getIntSettingTx(ctx, tx, domain.SettingTokens)
	if err != nil && !errors.Is(err, domain.ErrSettingNotFound) {
		return fmt.Errorf("%w: reading balance: %v", domain.ErrStoreRead, err)
	}

	if err := putIntSettingTx(ctx, tx, domain.SettingTokens, balance+amount); err != nil {
		return fmt.Errorf("%w: crediting balance: %v", domain.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing credit: %v", domain.ErrStoreWrite, err)
	}
	return nil
}

// SellCreature deletes the creature and credits its sale value to both the
// token balance and the accumulated sale profit, as one transaction. Either
// all three effects land or none do; there is no partial-failure window.
// Returns the creature's sale value.
func (s *Store) SellCreature(ctx context.Context, id int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: beginning sale: %v", domain.ErrStoreWrite, err)
	}
	defer tx.Rollback()

	var rarity string
	err = tx.QueryRowContext(ctx,
		`SELECT rarity FROM creatures WHERE id = ?`, id).Scan(&rarity)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, domain.ErrCreatureNotFound
		}
		return 0, fmt.Errorf("%w: reading creature for sale: %v", domain.ErrStoreRead, err)
	}

	info, ok := domain.RarityDetails(domain.Rarity(rarity))
	if !ok {
		return 0, domain.ErrUnknownRarity
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM creatures WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("%w: deleting sold creature: %v", domain.ErrStoreWrite, err)
	}

	balance, err := getIntSettingTx(ctx, tx, domain.SettingTokens)
	if err != nil && !errors.Is(err, domain.ErrSettingNotFound) {
		return 0, fmt.Errorf("%w: reading balance: %v", domain.ErrStoreRead, err)
	}
	if err := putIntSettingTx(ctx, tx, domain.SettingTokens, balance+info.SaleValue); err != nil {
		return 0, fmt.Errorf("%w: crediting sale: %v", domain.ErrStoreWrite, err)
	}

	profit, err := getIntSettingTx(ctx, tx, domain.SettingSaleProfit)
	if err != nil && !errors.Is(err, domain.ErrSettingNotFound) {
		return 0, fmt.Errorf("%w: reading sale profit: %v", domain.ErrStoreRead, err)
	}
	if err := putIntSettingTx(ctx, tx, domain.SettingSaleProfit, profit+info.SaleValue); err != nil {
		return 0, fmt.Errorf("%w: crediting sale profit: %v", domain.ErrStoreWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing sale: %v", domain.ErrStoreWrite, err)
	}
	return info.SaleValue, nil
}
