package accounts

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lunaria-app/lunaria/internal/domain"
	"github.com/lunaria-app/lunaria/internal/events"
)

// Service owns account business logic. Reconciliation writes go through the
// sync module; the only direct mutations users get are the two flags.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new account service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "accounts").Logger(),
	}
}

// List returns all local accounts
func (s *Service) List() ([]domain.BankAccount, error) {
	return s.repo.List()
}

// Get returns one account by id
func (s *Service) Get(id string) (*domain.BankAccount, error) {
	return s.repo.GetByID(id)
}

// FlagUpdate carries the user-mutable account fields. Pointers distinguish
// "not sent" from "set to false".
type FlagUpdate struct {
	Favorite       *bool `json:"favorite,omitempty"`
	IncludeInTotal *bool `json:"include_in_total,omitempty"`
}

// UpdateFlags applies a partial flag update and returns the fresh record
func (s *Service) UpdateFlags(id string, update FlagUpdate) (*domain.BankAccount, error) {
	acct, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	favorite := acct.Favorite
	includeInTotal := acct.IncludeInTotal
	if update.Favorite != nil {
		favorite = *update.Favorite
	}
	if update.IncludeInTotal != nil {
		includeInTotal = *update.IncludeInTotal
	}

	if err := s.repo.UpdateFlags(id, favorite, includeInTotal); err != nil {
		return nil, err
	}

	s.bus.Emit(events.AccountFlagsUpdated, "accounts", map[string]interface{}{
		"id":               id,
		"favorite":         favorite,
		"include_in_total": includeInTotal,
	})

	return s.repo.GetByID(id)
}

// TotalBalance returns the net balance across include-in-total accounts
func (s *Service) TotalBalance() (decimal.Decimal, error) {
	return s.repo.TotalBalance()
}
