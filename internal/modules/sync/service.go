package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunaria-app/lunaria/internal/clients/backend"
	"github.com/lunaria-app/lunaria/internal/events"
)

// Fetcher is the slice of the backend client the sync service consumes
type Fetcher interface {
	Expenses(ctx context.Context) ([]backend.RemoteExpense, error)
	Income(ctx context.Context) ([]backend.RemoteIncome, error)
	Accounts(ctx context.Context) ([]backend.RemoteAccount, error)
}

// Service orchestrates a full sync: fetch remote snapshots, reconcile them
// into the local store, record the outcome. Syncs are serialized; a trigger
// while one is running returns ErrSyncInProgress.
type Service struct {
	fetcher    Fetcher
	reconciler *Reconciler
	snapshots  *SnapshotStore
	bus        *events.Bus
	log        zerolog.Logger

	mu      sync.Mutex
	running bool
}

// ErrSyncInProgress is returned when a sync is already running
var ErrSyncInProgress = fmt.Errorf("sync already in progress")

// NewService creates a new sync service
func NewService(fetcher Fetcher, reconciler *Reconciler, snapshots *SnapshotStore, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		fetcher:    fetcher,
		reconciler: reconciler,
		snapshots:  snapshots,
		bus:        bus,
		log:        log.With().Str("service", "sync").Logger(),
	}
}

// Sync performs one full synchronization cycle
func (s *Service) Sync(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := time.Now()
	s.bus.Emit(events.SyncStarted, "sync", map[string]interface{}{
		"started_at": started.Format(time.RFC3339),
	})

	snapshot, err := s.run(ctx, started)
	if err != nil {
		snapshot = &Snapshot{
			StartedAt:  started,
			FinishedAt: time.Now(),
			Error:      err.Error(),
		}
		s.bus.EmitError("sync", err, map[string]interface{}{"step": "sync"})
		s.bus.Emit(events.SyncFailed, "sync", map[string]interface{}{"error": err.Error()})
	} else {
		s.bus.Emit(events.SyncCompleted, "sync", map[string]interface{}{
			"expenses": snapshot.Transactions.Expenses,
			"income":   snapshot.Transactions.Income,
			"accounts": snapshot.Accounts.Inserted + snapshot.Accounts.Updated,
			"duration": time.Since(started).String(),
		})
	}

	if saveErr := s.snapshots.Save(snapshot); saveErr != nil {
		// The sync itself already landed; a snapshot write failure is only
		// a status-reporting problem.
		s.log.Error().Err(saveErr).Msg("Failed to persist sync snapshot")
	}

	if err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

// run executes the fetch and reconcile steps
func (s *Service) run(ctx context.Context, started time.Time) (*Snapshot, error) {
	// Expenses and income are independent lists; fetch them concurrently.
	// This is the only concurrency in the cycle.
	var (
		wg          sync.WaitGroup
		expenses    []backend.RemoteExpense
		income      []backend.RemoteIncome
		expensesErr error
		incomeErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		expenses, expensesErr = s.fetcher.Expenses(ctx)
	}()
	go func() {
		defer wg.Done()
		income, incomeErr = s.fetcher.Income(ctx)
	}()
	wg.Wait()

	if expensesErr != nil {
		return nil, fmt.Errorf("failed to fetch expenses: %w", expensesErr)
	}
	if incomeErr != nil {
		return nil, fmt.Errorf("failed to fetch income: %w", incomeErr)
	}

	remoteAccounts, err := s.fetcher.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	txStats, err := s.reconciler.ReconcileTransactions(expenses, income)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile transactions: %w", err)
	}

	acctStats, err := s.reconciler.ReconcileAccounts(remoteAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile accounts: %w", err)
	}

	s.bus.Emit(events.AccountsReconciled, "sync", map[string]interface{}{
		"inserted": acctStats.Inserted,
		"updated":  acctStats.Updated,
		"deleted":  acctStats.Deleted,
	})

	s.log.Info().
		Int("expenses", txStats.Expenses).
		Int("income", txStats.Income).
		Int("accounts_inserted", acctStats.Inserted).
		Int("accounts_updated", acctStats.Updated).
		Int("accounts_deleted", acctStats.Deleted).
		Dur("duration", time.Since(started)).
		Msg("Sync completed")

	return &Snapshot{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Transactions: txStats,
		Accounts:     acctStats,
	}, nil
}

// Running reports whether a sync cycle is currently executing
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastSnapshot returns the most recently recorded sync outcome
func (s *Service) LastSnapshot() (*Snapshot, error) {
	return s.snapshots.Load()
}
