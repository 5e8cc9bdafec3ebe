package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/wallet-ledger/internal/domain"
)

const transactionColumns = `id, wallet_id, type, amount, currency, exchange_rate,
	exchange_rate_source, amount_in_wallet_currency, category, description,
	date, version, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.WalletID, t.Type, t.Amount, t.Currency, t.ExchangeRate,
		t.ExchangeRateSource, t.AmountInWalletCurrency, t.Category, t.Description,
		t.Date, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("Create: %w", domain.ErrWalletNotFound)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrTransactionNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// ListByWallet returns the wallet's transactions in ledger order (date, id).
// Postgres compares uuids bytewise, which matches domain.Transaction.Before.
func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, order domain.SortOrder) ([]domain.Transaction, error) {
	orderBy := `ORDER BY date ASC, id ASC`
	if order == domain.SortDesc {
		orderBy = `ORDER BY date DESC, id DESC`
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE wallet_id = $1 `+orderBy, walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByWallet: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByWallet: scan: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByWallet: rows: %w", err)
	}
	return txs, nil
}

// Update stores t if the stored version is t.Version-1.
func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET
			type = $1, amount = $2, currency = $3, exchange_rate = $4,
			exchange_rate_source = $5, amount_in_wallet_currency = $6,
			category = $7, description = $8, date = $9, version = $10, updated_at = $11
		WHERE id = $12 AND version = $13`,
		t.Type, t.Amount, t.Currency, t.ExchangeRate,
		t.ExchangeRateSource, t.AmountInWalletCurrency,
		t.Category, t.Description, t.Date, t.Version, t.UpdatedAt,
		t.ID, t.Version-1,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Update: rows affected: %w", err)
	}
	if rows == 0 {
		missing, err := rowMissing(ctx, r.db, "transactions", t.ID)
		if err != nil {
			return fmt.Errorf("Update: %w", err)
		}
		if missing {
			return fmt.Errorf("Update: %w", domain.ErrTransactionNotFound)
		}
		return fmt.Errorf("Update: %w", domain.ErrVersionConflict)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Delete: %w", domain.ErrTransactionNotFound)
	}
	return nil
}

func (r *TransactionRepository) CountByWallet(ctx context.Context, walletID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, walletID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountByWallet: %w", err)
	}
	return n, nil
}

// SumByCategory totals raw amounts per non-null category within dates,
// largest total first, ties by category name.
func (r *TransactionRepository) SumByCategory(ctx context.Context, walletID uuid.UUID, dates domain.DateRange) ([]domain.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount), COUNT(*) FROM transactions
		WHERE wallet_id = $1
			AND category IS NOT NULL
			AND ($2::timestamptz IS NULL OR date >= $2)
			AND ($3::timestamptz IS NULL OR date <= $3)
		GROUP BY category
		ORDER BY SUM(amount) DESC, category COLLATE "C" ASC`,
		walletID, dates.From, dates.To,
	)
	if err != nil {
		return nil, fmt.Errorf("SumByCategory: %w", err)
	}
	defer rows.Close()

	var totals []domain.CategoryTotal
	for rows.Next() {
		var ct domain.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.TotalAmount, &ct.Count); err != nil {
			return nil, fmt.Errorf("SumByCategory: scan: %w", err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SumByCategory: rows: %w", err)
	}
	return totals, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	err := s.Scan(
		&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.Currency, &t.ExchangeRate,
		&t.ExchangeRateSource, &t.AmountInWalletCurrency, &t.Category, &t.Description,
		&t.Date, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Date = t.Date.UTC()
	return &t, nil
}
