package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type scanner interface {
	Scan(dest ...any) error
}

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// rowMissing is used after a versioned UPDATE touched no rows to tell a
// missing row apart from a stale version. table is always a package constant.
func rowMissing(ctx context.Context, db *sql.DB, table string, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rowMissing: %w", err)
	}
	return !exists, nil
}
