package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-app/lunaria/internal/clients/backend"
	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/pkg/logger"
)

// fakeFetcher serves canned snapshots and can fail per endpoint.
type fakeFetcher struct {
	expenses []backend.RemoteExpense
	income   []backend.RemoteIncome
	accounts []backend.RemoteAccount

	expensesErr error
	accountsErr error
}

func (f *fakeFetcher) Expenses(context.Context) ([]backend.RemoteExpense, error) {
	return f.expenses, f.expensesErr
}

func (f *fakeFetcher) Income(context.Context) ([]backend.RemoteIncome, error) {
	return f.income, nil
}

func (f *fakeFetcher) Accounts(context.Context) ([]backend.RemoteAccount, error) {
	return f.accounts, f.accountsErr
}

func newSyncService(t *testing.T, fetcher Fetcher) (*Service, *fixture, *events.Bus) {
	t.Helper()
	f := newFixture(t)
	log := logger.New(logger.Config{Level: "error"})
	bus := events.NewBus(log)
	store := NewSnapshotStore(t.TempDir())
	return NewService(fetcher, f.reconciler, store, bus, log), f, bus
}

func TestSyncHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{
		expenses: []backend.RemoteExpense{
			{ID: "e-1", Amount: decimal.RequireFromString("10"), PaymentDate: flexDate(2024, 3, 1)},
		},
		income: []backend.RemoteIncome{
			{ID: "i-1", Total: decimal.RequireFromString("99"), ReceivedDate: flexDate(2024, 3, 2)},
		},
		accounts: []backend.RemoteAccount{
			remoteAccount("r-1", "Chase Checking", "depository"),
		},
	}
	svc, f, bus := newSyncService(t, fetcher)

	var completed, failed int
	bus.Subscribe(events.SyncCompleted, func(*events.Event) { completed++ })
	bus.Subscribe(events.SyncFailed, func(*events.Event) { failed++ })

	snap, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Succeeded())
	assert.Equal(t, 1, snap.Transactions.Expenses)
	assert.Equal(t, 1, snap.Transactions.Income)
	assert.Equal(t, 1, snap.Accounts.Inserted)
	assert.Equal(t, 1, completed)
	assert.Zero(t, failed)

	txs, err := f.txRepo.List()
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	// The snapshot survives for the status endpoint.
	last, err := svc.LastSnapshot()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Succeeded())
	assert.Equal(t, 1, last.Transactions.Expenses)
}

func TestSyncFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		expensesErr: &backend.NetworkError{Err: errors.New("dns failure")},
	}
	svc, f, bus := newSyncService(t, fetcher)

	var failed int
	bus.Subscribe(events.SyncFailed, func(*events.Event) { failed++ })

	snap, err := svc.Sync(context.Background())
	require.Error(t, err)
	require.NotNil(t, snap)
	assert.False(t, snap.Succeeded())
	assert.Equal(t, 1, failed)

	// Nothing was written locally.
	txs, err := f.txRepo.List()
	require.NoError(t, err)
	assert.Empty(t, txs)

	// The failure is still recorded for the status endpoint.
	last, err := svc.LastSnapshot()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Contains(t, last.Error, "dns failure")
}

func TestSyncAccountFetchFailureWritesNothing(t *testing.T) {
	fetcher := &fakeFetcher{
		expenses: []backend.RemoteExpense{
			{ID: "e-1", Amount: decimal.RequireFromString("10"), PaymentDate: flexDate(2024, 3, 1)},
		},
		accountsErr: &backend.ServerError{Status: 500},
	}
	svc, f, _ := newSyncService(t, fetcher)

	_, err := svc.Sync(context.Background())
	require.Error(t, err)

	txs, err := f.txRepo.List()
	require.NoError(t, err)
	assert.Empty(t, txs, "reconcile runs only after all fetches succeed")
}

func TestLastSnapshotEmpty(t *testing.T) {
	svc, _, _ := newSyncService(t, &fakeFetcher{})

	last, err := svc.LastSnapshot()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestSnapshotRoundtrip(t *testing.T) {
	store := NewSnapshotStore(t.TempDir())

	in := &Snapshot{
		StartedAt:    time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		FinishedAt:   time.Date(2024, 3, 15, 10, 0, 3, 0, time.UTC),
		Transactions: TransactionStats{Expenses: 4, Income: 2},
		Accounts:     AccountStats{Inserted: 1, Updated: 2, Deleted: 3},
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Transactions, out.Transactions)
	assert.Equal(t, in.Accounts, out.Accounts)
	assert.True(t, out.Succeeded())
}
