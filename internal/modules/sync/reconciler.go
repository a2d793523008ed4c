// Package sync reconciles freshly fetched backend records into the local
// store. Transactions use replace semantics on the remote-sourced subset;
// accounts are matched by remote id and updated in place so user-set flags
// survive.
package sync

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/banks"
	"github.com/lunaria-app/lunaria/internal/clients/backend"
	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/internal/modules/accounts"
	"github.com/lunaria-app/lunaria/internal/modules/transactions"
	"github.com/lunaria-app/lunaria/pkg/dates"
)

// Reconciler merges remote snapshots into the local repositories
type Reconciler struct {
	transactions *transactions.Repository
	accounts     *accounts.Repository
	log          zerolog.Logger
	now          func() time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(txRepo *transactions.Repository, acctRepo *accounts.Repository, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		transactions: txRepo,
		accounts:     acctRepo,
		log:          log.With().Str("component", "reconciler").Logger(),
		now:          time.Now,
	}
}

// TransactionStats summarizes a transaction reconciliation
type TransactionStats struct {
	Expenses int `json:"expenses"`
	Income   int `json:"income"`
}

// ReconcileTransactions replaces the remote-sourced transaction subset with
// the mapped remote expense and income records. Locally created records
// survive. Any persistence failure is returned to the caller.
func (r *Reconciler) ReconcileTransactions(expenses []backend.RemoteExpense, income []backend.RemoteIncome) (TransactionStats, error) {
	mapped := make([]domain.Transaction, 0, len(expenses)+len(income))
	for i := range expenses {
		mapped = append(mapped, r.mapExpense(&expenses[i]))
	}
	for i := range income {
		mapped = append(mapped, r.mapIncome(&income[i]))
	}

	if err := r.transactions.ReplaceRemoteSourced(mapped); err != nil {
		return TransactionStats{}, err
	}

	return TransactionStats{Expenses: len(expenses), Income: len(income)}, nil
}

// AccountStats summarizes an account reconciliation
type AccountStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// ReconcileAccounts deletes local accounts absent from the remote snapshot
// (including any account without a remote id), then upserts each remote
// account, preserving the user-owned flags on update.
func (r *Reconciler) ReconcileAccounts(remote []backend.RemoteAccount) (AccountStats, error) {
	var stats AccountStats

	remoteIDs := make([]string, 0, len(remote))
	for i := range remote {
		remoteIDs = append(remoteIDs, remote[i].ID)
	}

	deleted, err := r.accounts.DeleteMissingRemote(remoteIDs)
	if err != nil {
		return stats, err
	}
	stats.Deleted = int(deleted)

	for i := range remote {
		mapped := r.mapAccount(&remote[i])

		_, err := r.accounts.GetByRemoteID(remote[i].ID)
		switch {
		case err == nil:
			if err := r.accounts.UpdateReconciled(&mapped); err != nil {
				return stats, err
			}
			stats.Updated++
		case errors.Is(err, accounts.ErrNotFound):
			mapped.ID = uuid.NewString()
			mapped.IncludeInTotal = !mapped.IsCredit
			mapped.CreatedAt = r.now()
			mapped.UpdatedAt = mapped.CreatedAt
			if err := r.accounts.Insert(&mapped); err != nil {
				return stats, err
			}
			stats.Inserted++
		default:
			return stats, err
		}
	}

	return stats, nil
}

// mapExpense converts a remote expense into a local transaction
func (r *Reconciler) mapExpense(e *backend.RemoteExpense) domain.Transaction {
	now := r.now()
	return domain.Transaction{
		ID:        uuid.NewString(),
		RemoteID:  &e.ID,
		Title:     firstString("Expense", e.Name),
		Details:   firstString("", e.Vendor, e.Notes, e.GroupName, e.InternalCategory),
		Amount:    e.Amount.Abs(),
		Date:      r.firstDate(e.ID, now, e.PaymentDate, e.DueDate),
		Type:      domain.TypeExpense,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// mapIncome converts a remote income record into a local transaction
func (r *Reconciler) mapIncome(in *backend.RemoteIncome) domain.Transaction {
	now := r.now()
	return domain.Transaction{
		ID:        uuid.NewString(),
		RemoteID:  &in.ID,
		Title:     firstString("Income", in.Client, in.InvoiceNumber),
		Details:   firstString("", in.InvoiceNumber, in.Notes, in.PaymentProcessor),
		Amount:    in.Total.Abs(),
		Date:      r.firstDate(in.ID, now, in.ReceivedDate, in.ExpectedByDate),
		Type:      domain.TypeIncome,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// mapAccount converts a remote account into its local shape. The returned
// record carries no local id; the caller fills it for inserts.
func (r *Reconciler) mapAccount(a *backend.RemoteAccount) domain.BankAccount {
	available := decimal.Zero
	if a.AvailableBalance != nil {
		available = *a.AvailableBalance
	}
	current := available
	if a.CurrentBalance != nil {
		current = *a.CurrentBalance
	}

	fallback := a.Name
	if fallback == "" {
		fallback = "Account"
	}

	return domain.BankAccount{
		RemoteID:         &a.ID,
		BankName:         banks.Infer(a.Name, fallback),
		Name:             a.Name,
		AvailableBalance: available,
		CurrentBalance:   current,
		IsCredit:         strings.Contains(strings.ToLower(a.Type), "credit"),
		InstitutionID:    a.InstitutionID,
	}
}

// firstDate returns the first valid date, falling back to now. The fallback
// is logged because it usually means the backend sent a malformed date.
func (r *Reconciler) firstDate(recordID string, now time.Time, candidates ...dates.FlexDate) time.Time {
	for _, c := range candidates {
		if c.Valid() {
			return c.Time
		}
	}
	r.log.Warn().
		Str("record_id", recordID).
		Msg("No parseable date on remote record, substituting current time")
	return now
}

// firstString returns the first non-empty candidate or the fallback
func firstString(fallback string, candidates ...*string) string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return *c
		}
	}
	return fallback
}
