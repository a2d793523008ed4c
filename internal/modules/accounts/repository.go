package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/domain"
)

// ErrNotFound is returned when an account id does not exist locally
var ErrNotFound = errors.New("account not found")

// Repository handles bank account database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

const accountColumns = "id, remote_id, bank_name, name, available_balance, current_balance, include_in_total, favorite, is_credit, institution_id, created_at, updated_at"

// List returns all accounts, favorites first, then by bank name
func (r *Repository) List() ([]domain.BankAccount, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM bank_accounts ORDER BY favorite DESC, bank_name, name", accountColumns)

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.BankAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		result = append(result, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return result, nil
}

// GetByID returns a single account
func (r *Repository) GetByID(id string) (*domain.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE id = ?", accountColumns)

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	acct, err := scanAccount(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acct, nil
}

// GetByRemoteID returns the account correlated with a backend record
func (r *Repository) GetByRemoteID(remoteID string) (*domain.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE remote_id = ?", accountColumns)

	rows, err := r.db.Query(query, remoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account by remote id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrNotFound
	}

	acct, err := scanAccount(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &acct, nil
}

// Insert stores a new account
func (r *Repository) Insert(acct *domain.BankAccount) error {
	query := fmt.Sprintf("INSERT INTO bank_accounts (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", accountColumns)

	_, err := r.db.Exec(query,
		acct.ID,
		nullableString(acct.RemoteID),
		acct.BankName,
		acct.Name,
		acct.AvailableBalance.String(),
		acct.CurrentBalance.String(),
		acct.IncludeInTotal,
		acct.Favorite,
		acct.IsCredit,
		nullableString(acct.InstitutionID),
		acct.CreatedAt.Format(time.RFC3339),
		acct.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateReconciled overwrites the reconciliation-owned fields of an account,
// leaving the user-owned flags (favorite, include_in_total) untouched.
func (r *Repository) UpdateReconciled(acct *domain.BankAccount) error {
	query := `
		UPDATE bank_accounts
		SET bank_name = ?, name = ?, available_balance = ?, current_balance = ?,
		    is_credit = ?, institution_id = ?, updated_at = ?
		WHERE remote_id = ?
	`

	if acct.RemoteID == nil {
		return fmt.Errorf("cannot reconcile account without remote id")
	}

	result, err := r.db.Exec(query,
		acct.BankName,
		acct.Name,
		acct.AvailableBalance.String(),
		acct.CurrentBalance.String(),
		acct.IsCredit,
		nullableString(acct.InstitutionID),
		time.Now().Format(time.RFC3339),
		*acct.RemoteID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
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

// UpdateFlags sets the user-mutable flags on an account
func (r *Repository) UpdateFlags(id string, favorite, includeInTotal bool) error {
	result, err := r.db.Exec(
		"UPDATE bank_accounts SET favorite = ?, include_in_total = ?, updated_at = ? WHERE id = ?",
		favorite, includeInTotal, time.Now().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update account flags: %w", err)
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

// DeleteMissingRemote removes every account whose remote id is not in the
// provided set. Accounts with no remote id at all are always removed.
func (r *Repository) DeleteMissingRemote(remoteIDs []string) (int64, error) {
	if len(remoteIDs) == 0 {
		result, err := r.db.Exec("DELETE FROM bank_accounts")
		if err != nil {
			return 0, fmt.Errorf("failed to clear accounts: %w", err)
		}
		return result.RowsAffected()
	}

	placeholders := strings.Repeat("?, ", len(remoteIDs)-1) + "?"
	query := fmt.Sprintf(
		"DELETE FROM bank_accounts WHERE remote_id IS NULL OR remote_id NOT IN (%s)", placeholders)

	args := make([]interface{}, len(remoteIDs))
	for i, id := range remoteIDs {
		args[i] = id
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale accounts: %w", err)
	}
	return result.RowsAffected()
}

// TotalBalance sums current balances of include-in-total accounts, with
// credit balances counted negative.
func (r *Repository) TotalBalance() (decimal.Decimal, error) {
	rows, err := r.db.Query(
		"SELECT current_balance, is_credit FROM bank_accounts WHERE include_in_total = 1")
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var balance string
		var isCredit bool
		if err := rows.Scan(&balance, &isCredit); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan balance: %w", err)
		}
		value, err := decimal.NewFromString(balance)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored balance %q: %w", balance, err)
		}
		if isCredit {
			total = total.Sub(value)
		} else {
			total = total.Add(value)
		}
	}

	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating balances: %w", err)
	}

	return total, nil
}

func scanAccount(rows *sql.Rows) (domain.BankAccount, error) {
	var (
		acct                 domain.BankAccount
		remoteID             sql.NullString
		available, current   string
		institutionID        sql.NullString
		createdAt, updatedAt string
	)

	err := rows.Scan(
		&acct.ID,
		&remoteID,
		&acct.BankName,
		&acct.Name,
		&available,
		&current,
		&acct.IncludeInTotal,
		&acct.Favorite,
		&acct.IsCredit,
		&institutionID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return acct, err
	}

	if remoteID.Valid {
		acct.RemoteID = &remoteID.String
	}
	if institutionID.Valid {
		acct.InstitutionID = &institutionID.String
	}

	if acct.AvailableBalance, err = decimal.NewFromString(available); err != nil {
		return acct, fmt.Errorf("invalid stored available balance %q: %w", available, err)
	}
	if acct.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		return acct, fmt.Errorf("invalid stored current balance %q: %w", current, err)
	}

	if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
		acct.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		acct.UpdatedAt = parsed
	}

	return acct, nil
}

func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
