package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const walletColumns = `id, user_id, name, currency, initial_balance, version, created_at, updated_at`

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (`+walletColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.UserID, w.Name, w.Currency, w.InitialBalance, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("Create: user %s: %w", w.UserID, domain.ErrNotFound)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY created_at, id::text`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return wallets, nil
}

// Update stores w if the stored version is w.Version-1.
func (r *WalletRepository) Update(ctx context.Context, w *domain.Wallet) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE wallets SET name = $1, currency = $2, initial_balance = $3, version = $4, updated_at = $5
		WHERE id = $6 AND version = $7`,
		w.Name, w.Currency, w.InitialBalance, w.Version, w.UpdatedAt, w.ID, w.Version-1,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		missing, err := rowMissing(ctx, r.db, "wallets", w.ID)
		if err != nil {
			return fmt.Errorf("Update: %w", err)
		}
		if missing {
			return fmt.Errorf("Update: %w", domain.ErrWalletNotFound)
		}
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	return nil
}

// Delete removes the wallet. The transactions foreign key refuses the delete
// while the wallet still owns transactions.
func (r *WalletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = $1`, id)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("Delete: %w", domain.ErrConflict)
		}
		return fmt.Errorf("Delete: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrWalletNotFound)
	}
	return nil
}

func scanWallet(s scanner) (*domain.Wallet, error) {
	var w domain.Wallet
	err := s.Scan(
		&w.ID, &w.UserID, &w.Name, &w.Currency, &w.InitialBalance,
		&w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
