package transactions

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/pkg/dates"
)

// ErrNotFound is returned when a transaction id does not exist locally
var ErrNotFound = errors.New("transaction not found")

// Repository handles transaction database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

const transactionColumns = "id, remote_id, title, details, amount, date, type, created_at, updated_at"

// List returns all transactions ordered by date, newest first
func (r *Repository) List() ([]domain.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions ORDER BY date DESC, created_at DESC", transactionColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return result, nil
}

// GetByID returns a single transaction
func (r *Repository) GetByID(id string) (*domain.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = ?", transactionColumns)

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	tx, err := scanTransaction(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &tx, nil
}

// Insert stores a new transaction
func (r *Repository) Insert(tx *domain.Transaction) error {
	query := fmt.Sprintf("INSERT INTO transactions (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", transactionColumns)

	_, err := r.db.Exec(query,
		tx.ID,
		nullableString(tx.RemoteID),
		tx.Title,
		tx.Details,
		tx.Amount.String(),
		dates.Format(tx.Date),
		string(tx.Type),
		tx.CreatedAt.Format(time.RFC3339),
		tx.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing transaction
func (r *Repository) Update(tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET remote_id = ?, title = ?, details = ?, amount = ?, date = ?, type = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		nullableString(tx.RemoteID),
		tx.Title,
		tx.Details,
		tx.Amount.String(),
		dates.Format(tx.Date),
		string(tx.Type),
		time.Now().Format(time.RFC3339),
		tx.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a transaction
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceRemoteSourced atomically swaps every remote-sourced transaction for
// the freshly mapped set. Locally created records (no remote id) are left
// untouched, so an unsynced entry survives the sync.
func (r *Repository) ReplaceRemoteSourced(txs []domain.Transaction) error {
	dbTx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer dbTx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := dbTx.Exec("DELETE FROM transactions WHERE remote_id IS NOT NULL"); err != nil {
		return fmt.Errorf("failed to clear remote-sourced transactions: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO transactions (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", transactionColumns)
	stmt, err := dbTx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range txs {
		tx := &txs[i]
		_, err := stmt.Exec(
			tx.ID,
			nullableString(tx.RemoteID),
			tx.Title,
			tx.Details,
			tx.Amount.String(),
			dates.Format(tx.Date),
			string(tx.Type),
			tx.CreatedAt.Format(time.RFC3339),
			tx.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// SetRemoteID marks a local transaction as synced with the backend
func (r *Repository) SetRemoteID(id, remoteID string) error {
	result, err := r.db.Exec(
		"UPDATE transactions SET remote_id = ?, updated_at = ? WHERE id = ?",
		remoteID, time.Now().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set remote id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MonthlyTotals returns summed amounts per YYYY-MM month for one type
func (r *Repository) MonthlyTotals(txType domain.TransactionType) (map[string]decimal.Decimal, error) {
	query := `
		SELECT substr(date, 1, 7) AS month, amount
		FROM transactions
		WHERE type = ?
	`

	rows, err := r.db.Query(query, string(txType))
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var month, amount string
		if err := rows.Scan(&month, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
		}
		totals[month] = totals[month].Add(value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}

	return totals, nil
}

// scanTransaction reads one row into a domain record
func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		tx                  domain.Transaction
		remoteID            sql.NullString
		amount              string
		date                string
		txType              string
		createdAt, updated  string
	)

	if err := rows.Scan(&tx.ID, &remoteID, &tx.Title, &tx.Details, &amount, &date, &txType, &createdAt, &updated); err != nil {
		return tx, err
	}

	if remoteID.Valid {
		tx.RemoteID = &remoteID.String
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	tx.Amount = value

	if parsed, ok := dates.Parse(date); ok {
		tx.Date = parsed
	}
	tx.Type = domain.TransactionType(txType)

	if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
		tx.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339, updated); err == nil {
		tx.UpdatedAt = parsed
	}

	return tx, nil
}

func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
