package backend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/pkg/dates"
)

// RemoteExpense is an expense record as the backend returns it. Optional
// descriptive fields are pointers; dates arrive in any of the supported
// layouts.
type RemoteExpense struct {
	ID               string          `json:"id"`
	Name             *string         `json:"name,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Vendor           *string         `json:"vendor,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	GroupName        *string         `json:"group_name,omitempty"`
	InternalCategory *string         `json:"internal_category,omitempty"`
	PaymentDate      dates.FlexDate  `json:"payment_date,omitempty"`
	DueDate          dates.FlexDate  `json:"due_date,omitempty"`
}

// RemoteIncome is an income (invoice) record as the backend returns it.
type RemoteIncome struct {
	ID               string          `json:"id"`
	InvoiceNumber    *string         `json:"invoice_number,omitempty"`
	Client           *string         `json:"client,omitempty"`
	Total            decimal.Decimal `json:"total"`
	Notes            *string         `json:"notes,omitempty"`
	PaymentProcessor *string         `json:"payment_processor,omitempty"`
	ReceivedDate     dates.FlexDate  `json:"received_date,omitempty"`
	ExpectedByDate   dates.FlexDate  `json:"expected_by_date,omitempty"`
}

// RemoteAccount is a bank account record from the aggregation endpoint.
type RemoteAccount struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             string           `json:"type"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
	CurrentBalance   *decimal.Decimal `json:"current_balance,omitempty"`
	InstitutionID    *string          `json:"institution_id,omitempty"`
}

// RemoteTransaction is the backend's shape for the /transactions resource.
type RemoteTransaction struct {
	ID      string          `json:"id,omitempty"`
	Title   string          `json:"title"`
	Details string          `json:"details,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
	Date    dates.FlexDate  `json:"date"`
	Type    string          `json:"type"`
}

// Expenses fetches the full expense list
func (c *Client) Expenses(ctx context.Context) ([]RemoteExpense, error) {
	var out []RemoteExpense
	if err := c.Get(ctx, "/expenses", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Income fetches the full income list
func (c *Client) Income(ctx context.Context) ([]RemoteIncome, error) {
	var out []RemoteIncome
	if err := c.Get(ctx, "/income", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Accounts fetches the aggregated bank account list
func (c *Client) Accounts(ctx context.Context) ([]RemoteAccount, error) {
	var out []RemoteAccount
	if err := c.Get(ctx, "/plaid/accounts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions fetches the backend transaction list
func (c *Client) Transactions(ctx context.Context) ([]RemoteTransaction, error) {
	var out []RemoteTransaction
	if err := c.Get(ctx, "/transactions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTransaction pushes a new transaction to the backend
func (c *Client) CreateTransaction(ctx context.Context, tx RemoteTransaction) (*RemoteTransaction, error) {
	var out RemoteTransaction
	if err := c.Post(ctx, "/transactions", tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTransaction updates an existing backend transaction
func (c *Client) UpdateTransaction(ctx context.Context, tx RemoteTransaction) (*RemoteTransaction, error) {
	if tx.ID == "" {
		return nil, fmt.Errorf("%w: transaction id required for update", ErrInvalidURL)
	}
	var out RemoteTransaction
	if err := c.Put(ctx, "/transactions/"+tx.ID, tx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTransaction removes a backend transaction
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: transaction id required for delete", ErrInvalidURL)
	}
	return c.Delete(ctx, "/transactions/"+id)
}
