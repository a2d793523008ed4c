package insights

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-app/lunaria/internal/database"
	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/pkg/logger"
)

type fakeTotals struct {
	expenses map[string]decimal.Decimal
	income   map[string]decimal.Decimal
}

func (f *fakeTotals) MonthlyTotals(txType domain.TransactionType) (map[string]decimal.Decimal, error) {
	if txType == domain.TypeExpense {
		return f.expenses, nil
	}
	return f.income, nil
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return NewRepository(db.Conn(), logger.New(logger.Config{Level: "error"}))
}

func TestSpendingStats(t *testing.T) {
	totals := &fakeTotals{
		expenses: map[string]decimal.Decimal{
			"2024-01": decimal.RequireFromString("100"),
			"2024-02": decimal.RequireFromString("300"),
			"2024-03": decimal.RequireFromString("200"),
		},
		income: map[string]decimal.Decimal{
			"2024-01": decimal.RequireFromString("1000"),
			"2024-02": decimal.RequireFromString("1000"),
		},
	}
	svc := NewService(totals, newTestRepo(t), logger.New(logger.Config{Level: "error"}))

	stats, err := svc.Spending()
	require.NoError(t, err)

	// Months come back sorted.
	require.Len(t, stats.Months, 3)
	assert.Equal(t, "2024-01", stats.Months[0].Month)
	assert.Equal(t, "2024-03", stats.Months[2].Month)

	assert.InDelta(t, 200.0, stats.MeanExpense, 1e-9)
	assert.InDelta(t, 100.0, stats.StdDev, 1e-9)
	assert.InDelta(t, 1000.0, stats.MeanIncome, 1e-9)
}

func TestSpendingStatsEmpty(t *testing.T) {
	totals := &fakeTotals{
		expenses: map[string]decimal.Decimal{},
		income:   map[string]decimal.Decimal{},
	}
	svc := NewService(totals, newTestRepo(t), logger.New(logger.Config{Level: "error"}))

	stats, err := svc.Spending()
	require.NoError(t, err)
	assert.Empty(t, stats.Months)
	assert.Zero(t, stats.MeanExpense)
	assert.Zero(t, stats.StdDev)
}

func TestTrendMovingAverage(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(&fakeTotals{}, repo, logger.New(logger.Config{Level: "error"}))

	// Ten days of a flat balance; the SMA should converge on the same value.
	for day := 1; day <= 10; day++ {
		date := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		require.NoError(t, repo.RecordBalance(date, decimal.RequireFromString("500")))
	}

	points, err := svc.Trend(30)
	require.NoError(t, err)
	require.Len(t, points, 10)

	assert.Equal(t, "2024-03-01", points[0].Date)
	assert.Zero(t, points[0].Average, "no average before the window fills")
	assert.InDelta(t, 500.0, points[len(points)-1].Average, 1e-9)
	assert.InDelta(t, 500.0, points[len(points)-1].Total, 1e-9)
}

func TestTrendShortHistory(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewService(&fakeTotals{}, repo, logger.New(logger.Config{Level: "error"}))

	require.NoError(t, repo.RecordBalance("2024-03-01", decimal.RequireFromString("10")))

	points, err := svc.Trend(30)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Zero(t, points[0].Average)
}

func TestTrendEmpty(t *testing.T) {
	svc := NewService(&fakeTotals{}, newTestRepo(t), logger.New(logger.Config{Level: "error"}))

	points, err := svc.Trend(0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestRecordBalanceUpsert(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.RecordBalance("2024-03-01", decimal.RequireFromString("100")))
	require.NoError(t, repo.RecordBalance("2024-03-01", decimal.RequireFromString("150")))

	history, err := repo.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Total.Equal(decimal.RequireFromString("150")))
}

func TestHistoryLimitKeepsNewest(t *testing.T) {
	repo := newTestRepo(t)

	for day := 1; day <= 5; day++ {
		date := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		require.NoError(t, repo.RecordBalance(date, decimal.NewFromInt(int64(day))))
	}

	history, err := repo.History(3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-03-03", history[0].Date)
	assert.Equal(t, "2024-03-05", history[2].Date)
}

type fakeBalances struct {
	total decimal.Decimal
}

func (f *fakeBalances) TotalBalance() (decimal.Decimal, error) {
	return f.total, nil
}

func TestSnapshotJobRecordsToday(t *testing.T) {
	repo := newTestRepo(t)
	log := logger.New(logger.Config{Level: "error"})
	bus := events.NewBus(log)

	var recorded int
	bus.Subscribe(events.SnapshotRecorded, func(*events.Event) { recorded++ })

	job := NewSnapshotJob(&fakeBalances{total: decimal.RequireFromString("750")}, repo, bus, log)
	job.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	assert.Equal(t, 1, recorded)

	history, err := repo.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-03-15", history[0].Date)
	assert.True(t, history[0].Total.Equal(decimal.RequireFromString("750")))
}
