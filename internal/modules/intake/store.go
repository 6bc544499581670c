package intake

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles intake_usage persistence.
type Store struct {
	db      *pgxpool.Pool
	monthly int
}

// NewStore returns a Store granting monthly requests per user. A non-positive
// allowance falls back to DefaultMonthlyTokens.
func NewStore(db *pgxpool.Pool, monthly int) *Store {
	if monthly <= 0 {
		monthly = DefaultMonthlyTokens
	}
	return &Store{db: db, monthly: monthly}
}

// UseToken atomically checks the monthly quota and deducts one token.
// A row whose last_reset_month is behind the current month is refilled first.
// Returns ErrInsufficientTokens when no row is updated (quota exhausted or user absent).
func (s *Store) UseToken(ctx context.Context, uid string) error {
	month := time.Now().Format("2006-01")

	tag, err := s.db.Exec(ctx, `
		UPDATE intake_usage SET
			tokens_remaining = CASE WHEN last_reset_month <> $1 THEN $2 - 1 ELSE tokens_remaining - 1 END,
			last_reset_month = $1
		WHERE uid = $3 AND (last_reset_month < $1 OR tokens_remaining > 0)
	`, month, s.monthly, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientTokens
	}
	return nil
}

// EnsureUser inserts the intake_usage row for uid if it does not exist.
func (s *Store) EnsureUser(ctx context.Context, uid string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO intake_usage (uid, tokens_remaining, last_reset_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, s.monthly, time.Now().Format("2006-01"))
	return err
}

// Remaining reports the tokens left this month; users without a row have the full allowance.
func (s *Store) Remaining(ctx context.Context, uid string) (int, error) {
	var remaining int
	err := s.db.QueryRow(ctx, `
		SELECT CASE WHEN last_reset_month < $2 THEN $3 ELSE tokens_remaining END
		FROM intake_usage WHERE uid = $1
	`, uid, time.Now().Format("2006-01"), s.monthly).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.monthly, nil
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}
