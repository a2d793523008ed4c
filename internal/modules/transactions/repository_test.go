package transactions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-app/lunaria/internal/database"
	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/pkg/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	return NewRepository(db.Conn(), log)
}

func strPtr(s string) *string { return &s }

func sampleTx(id string, remoteID *string, amount string) domain.Transaction {
	d, _ := decimal.NewFromString(amount)
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return domain.Transaction{
		ID:        id,
		RemoteID:  remoteID,
		Title:     "Sample",
		Details:   "details",
		Amount:    d,
		Date:      now,
		Type:      domain.TypeExpense,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := newTestRepo(t)

	tx := sampleTx("tx-1", strPtr("r-1"), "42.50")
	require.NoError(t, repo.Insert(&tx))

	got, err := repo.GetByID("tx-1")
	require.NoError(t, err)
	assert.Equal(t, "Sample", got.Title)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("42.50")))
	assert.Equal(t, "2024-03-15", got.Date.Format("2006-01-02"))
	require.NotNil(t, got.RemoteID)
	assert.Equal(t, "r-1", *got.RemoteID)
	assert.True(t, got.Synced())
}

func TestGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newTestRepo(t)

	tx := sampleTx("tx-1", nil, "10")
	require.NoError(t, repo.Insert(&tx))

	tx.Title = "Renamed"
	tx.Amount = decimal.RequireFromString("11.25")
	require.NoError(t, repo.Update(&tx))

	got, err := repo.GetByID("tx-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("11.25")))
	assert.False(t, got.Synced())

	require.NoError(t, repo.Delete("tx-1"))
	assert.ErrorIs(t, repo.Delete("tx-1"), ErrNotFound)
}

func TestReplaceRemoteSourcedKeepsLocalRecords(t *testing.T) {
	repo := newTestRepo(t)

	local := sampleTx("local-1", nil, "5")
	stale := sampleTx("stale-1", strPtr("r-old"), "20")
	require.NoError(t, repo.Insert(&local))
	require.NoError(t, repo.Insert(&stale))

	fresh := []domain.Transaction{
		sampleTx("fresh-1", strPtr("r-1"), "30"),
		sampleTx("fresh-2", strPtr("r-2"), "40"),
	}
	require.NoError(t, repo.ReplaceRemoteSourced(fresh))

	all, err := repo.List()
	require.NoError(t, err)
	require.Len(t, all, 3)

	ids := make(map[string]bool)
	for _, tx := range all {
		ids[tx.ID] = true
	}
	assert.True(t, ids["local-1"], "locally created record must survive")
	assert.False(t, ids["stale-1"], "stale remote-sourced record must be replaced")
	assert.True(t, ids["fresh-1"])
	assert.True(t, ids["fresh-2"])
}

func TestReplaceRemoteSourcedIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	fresh := []domain.Transaction{
		sampleTx("a", strPtr("r-1"), "30"),
		sampleTx("b", strPtr("r-2"), "40"),
	}
	require.NoError(t, repo.ReplaceRemoteSourced(fresh))
	require.NoError(t, repo.ReplaceRemoteSourced(fresh))

	all, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSetRemoteID(t *testing.T) {
	repo := newTestRepo(t)

	tx := sampleTx("tx-1", nil, "10")
	require.NoError(t, repo.Insert(&tx))
	require.NoError(t, repo.SetRemoteID("tx-1", "r-99"))

	got, err := repo.GetByID("tx-1")
	require.NoError(t, err)
	assert.True(t, got.Synced())
	assert.Equal(t, "r-99", *got.RemoteID)

	assert.ErrorIs(t, repo.SetRemoteID("missing", "r-1"), ErrNotFound)
}

func TestMonthlyTotals(t *testing.T) {
	repo := newTestRepo(t)

	txs := []struct {
		id     string
		date   time.Time
		amount string
	}{
		{"1", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), "10.50"},
		{"2", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), "4.50"},
		{"3", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "100"},
	}
	for _, tc := range txs {
		tx := sampleTx(tc.id, nil, tc.amount)
		tx.Date = tc.date
		require.NoError(t, repo.Insert(&tx))
	}

	totals, err := repo.MonthlyTotals(domain.TypeExpense)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.True(t, totals["2024-01"].Equal(decimal.RequireFromString("15")))
	assert.True(t, totals["2024-02"].Equal(decimal.RequireFromString("100")))
}
