package sync

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// jobTimeout bounds one scheduled cycle; individual requests already time
// out at the transport after 30s.
const jobTimeout = 5 * time.Minute

// Job adapts the sync service to the scheduler interface
type Job struct {
	service *Service
	log     zerolog.Logger
}

// NewJob creates a scheduled sync job
func NewJob(service *Service, log zerolog.Logger) *Job {
	return &Job{
		service: service,
		log:     log.With().Str("job", "sync").Logger(),
	}
}

// Name returns the job name
func (j *Job) Name() string {
	return "sync"
}

// Run executes one sync cycle
func (j *Job) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	_, err := j.service.Sync(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		j.log.Debug().Msg("Skipping scheduled sync, one is already running")
		return nil
	}
	return err
}
