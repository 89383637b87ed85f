package config

import (
	"fmt"
	"strings"

	"github.com/dev-tams/snapvault/internal/schedule"
)

// Validation failures are configuration errors: fatal, surfaced before
// any disk or network activity, never retried.

func (c *Config) ValidateBackup() error {
	if c.BackupDatabaseURL == "" {
		return fmt.Errorf("BACKUP_DATABASE_URL is required for backup")
	}
	if c.Prefix == "" {
		return fmt.Errorf("BACKUP_FILE_PREFIX must not be empty")
	}
	if strings.ContainsAny(c.Prefix, "/\\") {
		return fmt.Errorf("BACKUP_FILE_PREFIX must not contain path separators")
	}
	return c.validateStorage()
}

func (c *Config) ValidateRestore() error {
	if c.RestoreDatabaseURL == "" {
		return fmt.Errorf("RESTORE_DATABASE_URL is required for restore")
	}
	if c.Prefix == "" && c.RestoreKey == "" {
		return fmt.Errorf("either RESTORE_FILE_KEY or BACKUP_FILE_PREFIX is required for restore")
	}
	return c.validateStorage()
}

func (c *Config) ValidateDaemon() error {
	if strings.TrimSpace(c.Schedule) == "" {
		if c.RunOnStartup && c.SingleShot {
			// startup + single-shot is a one-off run; no schedule needed
			return c.ValidateBackup()
		}
		return fmt.Errorf("BACKUP_CRON_SCHEDULE is required for daemon mode")
	}
	if _, err := schedule.ParseCronSpec(c.Schedule); err != nil {
		return fmt.Errorf("BACKUP_CRON_SCHEDULE %q: %w", c.Schedule, err)
	}
	return c.ValidateBackup()
}

func (c *Config) validateStorage() error {
	switch c.Storage.Type {
	case "s3":
		if c.Storage.Bucket == "" || c.Storage.Region == "" {
			return fmt.Errorf("AWS_S3_BUCKET and AWS_S3_REGION are required for s3 storage")
		}
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("LOCAL_STORAGE_PATH is required for local storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	return nil
}
