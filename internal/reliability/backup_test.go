package reliability

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaria-app/lunaria/internal/database"
	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/pkg/logger"
)

type fakeStore struct {
	uploads map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads[key] = data
	return nil
}

func (f *fakeStore) List(context.Context, string) ([]StoredObject, error) {
	var objects []StoredObject
	for key, data := range f.uploads {
		objects = append(objects, StoredObject{Key: key, SizeBytes: int64(len(data))})
	}
	return objects, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func newBackupFixture(t *testing.T) (*BackupService, *fakeStore) {
	t.Helper()

	dataDir := t.TempDir()
	db, err := database.New(filepath.Join(dataDir, "lunaria.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	store := newFakeStore()
	return NewBackupService(db, store, dataDir, events.NewBus(log), log), store
}

func TestCreateAndUpload(t *testing.T) {
	svc, store := newBackupFixture(t)

	require.NoError(t, svc.CreateAndUpload(context.Background()))

	require.Len(t, store.uploads, 1)
	for key, data := range store.uploads {
		assert.Contains(t, key, "lunaria-backup-")
		assert.Contains(t, key, ".tar.gz")
		assert.NotEmpty(t, data)
		// gzip magic bytes
		assert.True(t, bytes.HasPrefix(data, []byte{0x1f, 0x8b}))
	}
}

func TestListBackupsSortedNewestFirst(t *testing.T) {
	svc, store := newBackupFixture(t)

	store.uploads["lunaria-backup-2024-01-01-120000.tar.gz"] = []byte("old")
	store.uploads["lunaria-backup-2024-03-01-120000.tar.gz"] = []byte("new")
	store.uploads["unrelated-object.txt"] = []byte("skip")
	store.uploads["lunaria-backup-garbage.tar.gz"] = []byte("skip")

	backups, err := svc.ListBackups(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, "lunaria-backup-2024-03-01-120000.tar.gz", backups[0].Filename)
	assert.Equal(t, "lunaria-backup-2024-01-01-120000.tar.gz", backups[1].Filename)
}

func TestRotateOldBackups(t *testing.T) {
	svc, store := newBackupFixture(t)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	// Five backups: three recent, two ancient.
	for _, stamp := range []string{
		"2024-05-30-120000",
		"2024-05-29-120000",
		"2024-05-28-120000",
		"2024-01-01-120000",
		"2023-12-01-120000",
	} {
		store.uploads["lunaria-backup-"+stamp+".tar.gz"] = []byte("x")
	}

	require.NoError(t, svc.RotateOldBackups(context.Background(), 30))

	assert.Len(t, store.deleted, 2)
	assert.Len(t, store.uploads, 3)
}

func TestRotateKeepsMinimum(t *testing.T) {
	svc, store := newBackupFixture(t)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	// All ancient, but only three exist.
	for _, stamp := range []string{
		"2023-01-01-120000",
		"2023-02-01-120000",
		"2023-03-01-120000",
	} {
		store.uploads["lunaria-backup-"+stamp+".tar.gz"] = []byte("x")
	}

	require.NoError(t, svc.RotateOldBackups(context.Background(), 30))
	assert.Empty(t, store.deleted)
}

func TestMaintenanceJobRuns(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(filepath.Join(dataDir, "lunaria.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error"})
	health := NewDatabaseHealthService(db, log)
	job := NewMaintenanceJob(db, health, nil, dataDir, log)

	assert.Equal(t, "maintenance", job.Name())
	require.NoError(t, job.Run())
}

func TestHealthMetrics(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(filepath.Join(dataDir, "lunaria.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	health := NewDatabaseHealthService(db, logger.New(logger.Config{Level: "error"}))
	require.NoError(t, health.Check(context.Background()))

	metrics, err := health.GetMetrics()
	require.NoError(t, err)
	assert.Greater(t, metrics.SizeMB, 0.0)
}
