package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot records the outcome of one sync cycle. It survives restarts so
// the UI can show "last synced at" before the first cycle of a new process.
type Snapshot struct {
	StartedAt    time.Time        `json:"started_at" msgpack:"started_at"`
	FinishedAt   time.Time        `json:"finished_at" msgpack:"finished_at"`
	Transactions TransactionStats `json:"transactions" msgpack:"transactions"`
	Accounts     AccountStats     `json:"accounts" msgpack:"accounts"`
	Error        string           `json:"error,omitempty" msgpack:"error"`
}

// Succeeded reports whether the cycle completed without error
func (s *Snapshot) Succeeded() bool {
	return s.Error == ""
}

// SnapshotStore persists the last snapshot as a msgpack file in the data
// directory.
type SnapshotStore struct {
	path string
}

// NewSnapshotStore creates a snapshot store rooted in dataDir
func NewSnapshotStore(dataDir string) *SnapshotStore {
	return &SnapshotStore{path: filepath.Join(dataDir, "last_sync.msgpack")}
}

// Save writes the snapshot atomically (write temp file, then rename)
func (st *SnapshotStore) Save(s *Snapshot) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the last snapshot; returns nil without error when none exists
func (st *SnapshotStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(st.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var s Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}
