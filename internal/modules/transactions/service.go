package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lunaria-app/lunaria/internal/clients/backend"
	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/internal/events"
	"github.com/lunaria-app/lunaria/pkg/dates"
)

// BackendClient is the slice of the backend API the service pushes to
type BackendClient interface {
	CreateTransaction(ctx context.Context, tx backend.RemoteTransaction) (*backend.RemoteTransaction, error)
	UpdateTransaction(ctx context.Context, tx backend.RemoteTransaction) (*backend.RemoteTransaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Service owns transaction business logic. Writes land locally first; the
// backend push is best effort and a failure leaves the record unsynced
// (no remote id) for the next manual retry.
type Service struct {
	repo    *Repository
	client  BackendClient
	bus     *events.Bus
	log     zerolog.Logger
}

// NewService creates a new transaction service
func NewService(repo *Repository, client BackendClient, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		client: client,
		bus:    bus,
		log:    log.With().Str("service", "transactions").Logger(),
	}
}

// List returns all local transactions
func (s *Service) List() ([]domain.Transaction, error) {
	return s.repo.List()
}

// Get returns one transaction by id
func (s *Service) Get(id string) (*domain.Transaction, error) {
	return s.repo.GetByID(id)
}

// Create stores a new user-entered transaction and pushes it to the backend.
// The local record is the source of truth; a failed push only means the
// record stays unsynced.
func (s *Service) Create(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if err := (&tx).Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	tx.ID = uuid.NewString()
	tx.RemoteID = nil
	tx.CreatedAt = now
	tx.UpdatedAt = now
	if tx.Date.IsZero() {
		tx.Date = now
	}

	if err := s.repo.Insert(&tx); err != nil {
		return nil, err
	}

	s.pushCreate(ctx, &tx)

	s.bus.Emit(events.TransactionCreated, "transactions", map[string]interface{}{
		"id":     tx.ID,
		"synced": tx.Synced(),
	})
	return &tx, nil
}

// Update modifies an existing transaction locally and on the backend
func (s *Service) Update(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if err := (&tx).Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(tx.ID)
	if err != nil {
		return nil, err
	}
	tx.RemoteID = existing.RemoteID
	tx.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(&tx); err != nil {
		return nil, err
	}

	if tx.Synced() {
		if _, err := s.client.UpdateTransaction(ctx, toRemote(&tx, *tx.RemoteID)); err != nil {
			s.log.Warn().Err(err).Str("id", tx.ID).Msg("Backend update failed, local copy kept")
		}
	}

	s.bus.Emit(events.TransactionUpdated, "transactions", map[string]interface{}{"id": tx.ID})
	return &tx, nil
}

// Delete removes a transaction locally and on the backend
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	if existing.Synced() {
		if err := s.client.DeleteTransaction(ctx, *existing.RemoteID); err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("Backend delete failed, record removed locally")
		}
	}

	s.bus.Emit(events.TransactionDeleted, "transactions", map[string]interface{}{"id": id})
	return nil
}

// pushCreate sends a new record to the backend and records the remote id
func (s *Service) pushCreate(ctx context.Context, tx *domain.Transaction) {
	created, err := s.client.CreateTransaction(ctx, toRemote(tx, ""))
	if err != nil {
		s.log.Warn().Err(err).Str("id", tx.ID).Msg("Backend create failed, record stays unsynced")
		return
	}
	if created.ID == "" {
		return
	}

	if err := s.repo.SetRemoteID(tx.ID, created.ID); err != nil {
		s.log.Error().Err(err).Str("id", tx.ID).Msg("Failed to record remote id")
		return
	}
	tx.RemoteID = &created.ID
}

func toRemote(tx *domain.Transaction, remoteID string) backend.RemoteTransaction {
	return backend.RemoteTransaction{
		ID:      remoteID,
		Title:   tx.Title,
		Details: tx.Details,
		Amount:  tx.Amount,
		Date:    dates.NewFlexDate(tx.Date),
		Type:    string(tx.Type),
	}
}
