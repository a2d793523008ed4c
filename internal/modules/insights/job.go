package insights

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/pkg/dates"
)

// BalanceSource provides the current net worth across all accounts.
type BalanceSource interface {
	TotalBalance() (decimal.Decimal, error)
}

// SnapshotJob records one net-worth data point per day
type SnapshotJob struct {
	balances BalanceSource
	repo     *Repository
	bus      *events.Bus
	log      zerolog.Logger

	now func() time.Time
}

// NewSnapshotJob creates the daily balance snapshot job
func NewSnapshotJob(balances BalanceSource, repo *Repository, bus *events.Bus, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		balances: balances,
		repo:     repo,
		bus:      bus,
		log:      log.With().Str("job", "balance_snapshot").Logger(),
		now:      time.Now,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "balance_snapshot"
}

// Run records today's total balance
func (j *SnapshotJob) Run() error {
	total, err := j.balances.TotalBalance()
	if err != nil {
		return fmt.Errorf("failed to compute total balance: %w", err)
	}

	date := dates.Format(j.now())
	if err := j.repo.RecordBalance(date, total); err != nil {
		return err
	}

	j.log.Info().Str("date", date).Str("total", total.String()).Msg("Recorded balance snapshot")
	j.bus.Emit(events.SnapshotRecorded, "insights", map[string]interface{}{
		"date":  date,
		"total": total.String(),
	})
	return nil
}
