package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/lunaria-app/lunaria/internal/database"
)

// backupRetentionDays is how long cloud archives are kept before rotation.
const backupRetentionDays = 30

// MaintenanceJob performs nightly database upkeep: integrity check, WAL
// checkpoint, disk space check, and an optional cloud backup.
type MaintenanceJob struct {
	db      *database.DB
	health  *DatabaseHealthService
	backups *BackupService // nil when cloud backup is not configured
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates the nightly maintenance job
func NewMaintenanceJob(db *database.DB, health *DatabaseHealthService, backups *BackupService, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		health:  health,
		backups: backups,
		dataDir: dataDir,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes one maintenance cycle
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.health.Check(ctx); err != nil {
		return err
	}

	if err := j.db.WALCheckpoint(); err != nil {
		// Not fatal; the next checkpoint will catch up.
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	if j.backups != nil {
		if err := j.backups.CreateAndUpload(ctx); err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		if err := j.backups.RotateOldBackups(ctx, backupRetentionDays); err != nil {
			j.log.Warn().Err(err).Msg("Backup rotation failed")
		}
	}

	if metrics, err := j.health.GetMetrics(); err == nil {
		j.log.Info().
			Float64("size_mb", metrics.SizeMB).
			Float64("wal_size_mb", metrics.WALSizeMB).
			Dur("duration_ms", time.Since(startTime)).
			Msg("Maintenance completed")
	}

	return nil
}

// checkDiskSpace fails the job when the data directory is nearly full
func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(usage.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < 0.5 {
		return fmt.Errorf("only %.2f GB free on %s", availableGB, j.dataDir)
	}
	if availableGB < 5.0 {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}

	return nil
}
