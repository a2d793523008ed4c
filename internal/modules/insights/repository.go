package insights

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/domain"
)

// Repository handles balance snapshot database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new insights repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "insights").Logger(),
	}
}

// RecordBalance upserts the net-worth total for one day
func (r *Repository) RecordBalance(date string, total decimal.Decimal) error {
	query := `
		INSERT INTO balance_snapshots (date, total) VALUES (?, ?)
		ON CONFLICT(date) DO UPDATE SET total = excluded.total
	`
	if _, err := r.db.Exec(query, date, total.String()); err != nil {
		return fmt.Errorf("failed to record balance snapshot: %w", err)
	}
	return nil
}

// History returns up to limit snapshots, oldest first
func (r *Repository) History(limit int) ([]domain.BalanceSnapshot, error) {
	query := `
		SELECT date, total FROM (
			SELECT date, total FROM balance_snapshots ORDER BY date DESC LIMIT ?
		) ORDER BY date ASC
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	var result []domain.BalanceSnapshot
	for rows.Next() {
		var snap domain.BalanceSnapshot
		var total string
		if err := rows.Scan(&snap.Date, &total); err != nil {
			return nil, fmt.Errorf("failed to scan balance snapshot: %w", err)
		}
		if snap.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid stored total %q: %w", total, err)
		}
		result = append(result, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balance snapshots: %w", err)
	}

	return result, nil
}
