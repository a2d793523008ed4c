package accounts

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

func sampleAccount(id string, remoteID *string) domain.BankAccount {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return domain.BankAccount{
		ID:               id,
		RemoteID:         remoteID,
		BankName:         "Chase Personal",
		Name:             "Chase Checking",
		AvailableBalance: decimal.RequireFromString("100"),
		CurrentBalance:   decimal.RequireFromString("120"),
		IncludeInTotal:   true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestInsertAndList(t *testing.T) {
	repo := newTestRepo(t)

	acct := sampleAccount("a-1", strPtr("r-1"))
	require.NoError(t, repo.Insert(&acct))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Chase Personal", list[0].BankName)
	assert.True(t, list[0].AvailableBalance.Equal(decimal.RequireFromString("100")))
}

func TestUpdateReconciledPreservesFlags(t *testing.T) {
	repo := newTestRepo(t)

	acct := sampleAccount("a-1", strPtr("r-1"))
	require.NoError(t, repo.Insert(&acct))
	require.NoError(t, repo.UpdateFlags("a-1", true, false))

	acct.BankName = "Chase Business"
	acct.CurrentBalance = decimal.RequireFromString("999")
	require.NoError(t, repo.UpdateReconciled(&acct))

	got, err := repo.GetByID("a-1")
	require.NoError(t, err)
	assert.Equal(t, "Chase Business", got.BankName)
	assert.True(t, got.CurrentBalance.Equal(decimal.RequireFromString("999")))
	assert.True(t, got.Favorite, "user flag must survive reconciliation")
	assert.False(t, got.IncludeInTotal, "user flag must survive reconciliation")
}

func TestDeleteMissingRemote(t *testing.T) {
	repo := newTestRepo(t)

	kept := sampleAccount("a-1", strPtr("r-1"))
	stale := sampleAccount("a-2", strPtr("r-2"))
	orphan := sampleAccount("a-3", nil) // no remote id, never survives
	require.NoError(t, repo.Insert(&kept))
	require.NoError(t, repo.Insert(&stale))
	require.NoError(t, repo.Insert(&orphan))

	deleted, err := repo.DeleteMissingRemote([]string{"r-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a-1", list[0].ID)
}

func TestDeleteMissingRemoteEmptySnapshot(t *testing.T) {
	repo := newTestRepo(t)

	acct := sampleAccount("a-1", strPtr("r-1"))
	require.NoError(t, repo.Insert(&acct))

	deleted, err := repo.DeleteMissingRemote(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTotalBalance(t *testing.T) {
	repo := newTestRepo(t)

	checking := sampleAccount("a-1", strPtr("r-1"))
	checking.CurrentBalance = decimal.RequireFromString("1000")

	credit := sampleAccount("a-2", strPtr("r-2"))
	credit.IsCredit = true
	credit.CurrentBalance = decimal.RequireFromString("250")

	excluded := sampleAccount("a-3", strPtr("r-3"))
	excluded.IncludeInTotal = false
	excluded.CurrentBalance = decimal.RequireFromString("9999")

	for _, a := range []*domain.BankAccount{&checking, &credit, &excluded} {
		require.NoError(t, repo.Insert(a))
	}

	total, err := repo.TotalBalance()
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("750")), "got %s", total)
}
