package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lunaria-app/lunaria/internal/database"
)

// DatabaseHealthService monitors database integrity and size
type DatabaseHealthService struct {
	db  *database.DB
	log zerolog.Logger
}

// NewDatabaseHealthService creates a new health service
func NewDatabaseHealthService(db *database.DB, log zerolog.Logger) *DatabaseHealthService {
	return &DatabaseHealthService{
		db:  db,
		log: log.With().Str("service", "db_health").Logger(),
	}
}

// HealthMetrics holds database size measurements
type HealthMetrics struct {
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
}

// Check runs a full integrity check
func (s *DatabaseHealthService) Check(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetMetrics reports the current database and WAL file sizes
func (s *DatabaseHealthService) GetMetrics() (*HealthMetrics, error) {
	stats, err := s.db.GetStats()
	if err != nil {
		return nil, err
	}
	return &HealthMetrics{
		SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
	}, nil
}
