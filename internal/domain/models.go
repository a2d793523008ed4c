// Package domain holds the local record types shared across modules.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money in from money out
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether the type is one of the two known values
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Transaction is a locally persisted income or expense record.
// Amount is always non-negative; the sign is implied by Type.
// RemoteID is set only on records sourced from the backend.
type Transaction struct {
	ID        string          `json:"id"`
	RemoteID  *string         `json:"remote_id,omitempty"`
	Title     string          `json:"title"`
	Details   string          `json:"details"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Synced reports whether the record is correlated with a backend record
func (t *Transaction) Synced() bool {
	return t.RemoteID != nil && *t.RemoteID != ""
}

// Validate enforces record invariants
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q", t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must not be negative, got %s", t.Amount)
	}
	return nil
}

// BankAccount is a locally persisted view of a remote bank account.
// Favorite and IncludeInTotal are the only user-mutable fields; everything
// else is owned by reconciliation.
type BankAccount struct {
	ID               string          `json:"id"`
	RemoteID         *string         `json:"remote_id,omitempty"`
	BankName         string          `json:"bank_name"`
	Name             string          `json:"name"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	IncludeInTotal   bool            `json:"include_in_total"`
	Favorite         bool            `json:"favorite"`
	IsCredit         bool            `json:"is_credit"`
	InstitutionID    *string         `json:"institution_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Synced reports whether the account is correlated with a backend record
func (a *BankAccount) Synced() bool {
	return a.RemoteID != nil && *a.RemoteID != ""
}

// BalanceSnapshot is a daily total of include-in-total account balances
type BalanceSnapshot struct {
	Date  string          `json:"date"` // YYYY-MM-DD
	Total decimal.Decimal `json:"total"`
}
