package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"spooltrack/config"
	"spooltrack/internal/services"
	"spooltrack/internal/utils"
	"strings"

	logger "github.com/Bparsons0904/goLogger"
)

// BackupJob writes the full export document to the backup directory on a
// schedule, keeping the most recent retention-count files.
type BackupJob struct {
	transfer *services.TransferService
	clock    utils.Clock
	config   config.Config
	log      logger.Logger
	schedule services.Schedule
}

func NewBackupJob(
	transfer *services.TransferService,
	clock utils.Clock,
	config config.Config,
	schedule services.Schedule,
) *BackupJob {
	log := logger.New("backupJob")
	log.Info("Creating new backup job", "schedule", schedule, "path", config.BackupPath)

	return &BackupJob{
		transfer: transfer,
		clock:    clock,
		config:   config,
		log:      log,
		schedule: schedule,
	}
}

func (j *BackupJob) Name() string {
	return "DailyInventoryBackup"
}

func (j *BackupJob) Schedule() services.Schedule {
	return j.schedule
}

func (j *BackupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if err := os.MkdirAll(j.config.BackupPath, 0o755); err != nil {
		return log.Err("failed to create backup directory", err, "path", j.config.BackupPath)
	}

	document := j.transfer.Export()
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return log.Err("failed to marshal backup", err)
	}

	filename := fmt.Sprintf("spooltrack-%s.json", j.clock.Now().Format("20060102"))
	path := filepath.Join(j.config.BackupPath, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return log.Err("failed to write backup file", err, "path", path)
	}

	log.Info("Backup written", "path", path,
		"filaments", document.Metadata.TotalFilaments,
		"models", document.Metadata.TotalModels,
		"prints", document.Metadata.TotalPrints,
	)

	return j.prune(log)
}

// prune removes the oldest backups beyond the retention count. Filenames
// embed the date, so lexical order is chronological.
func (j *BackupJob) prune(log logger.Logger) error {
	retention := j.config.BackupRetention
	if retention <= 0 {
		return nil
	}

	entries, err := os.ReadDir(j.config.BackupPath)
	if err != nil {
		return log.Err("failed to list backup directory", err, "path", j.config.BackupPath)
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "spooltrack-") && strings.HasSuffix(name, ".json") {
			backups = append(backups, name)
		}
	}

	if len(backups) <= retention {
		return nil
	}

	sort.Strings(backups)
	for _, name := range backups[:len(backups)-retention] {
		path := filepath.Join(j.config.BackupPath, name)
		if err := os.Remove(path); err != nil {
			log.Warn("Failed to remove old backup", "path", path, "error", err)
			continue
		}
		log.Info("Removed old backup", "path", path)
	}

	return nil
}
