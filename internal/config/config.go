package config

import (
	"github.com/spf13/viper"
)

// Config is the ambient environment resolved into an explicit value.
// Pipelines only ever see this struct, never the process environment.
type Config struct {
	BackupDatabaseURL  string
	RestoreDatabaseURL string

	Prefix         string
	RestoreKey     string
	BackupOptions  string
	RestoreOptions string
	AttachChecksum bool

	Schedule     string
	RunOnStartup bool
	SingleShot   bool

	Storage StorageConfig
	Notify  NotifyConfig
}

type StorageConfig struct {
	Type           string
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	AccessKey      string
	SecretKey      string
	Subfolder      string
	LocalPath      string
}

type NotifyConfig struct {
	On         string
	WebhookURL string
	SMTPHost   string
	SMTPPort   int
	From       string
	To         string
	Username   string
	Password   string
}

// Load reads configuration from the environment on a dedicated viper
// instance (the global one would leak state between tests).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("BACKUP_FILE_PREFIX", "backup")
	v.SetDefault("STORAGE_TYPE", "s3")
	v.SetDefault("NOTIFY_ON", "failure")
	v.SetDefault("SMTP_PORT", 587)

	cfg := &Config{
		BackupDatabaseURL:  v.GetString("BACKUP_DATABASE_URL"),
		RestoreDatabaseURL: v.GetString("RESTORE_DATABASE_URL"),

		Prefix:         v.GetString("BACKUP_FILE_PREFIX"),
		RestoreKey:     v.GetString("RESTORE_FILE_KEY"),
		BackupOptions:  v.GetString("BACKUP_OPTIONS"),
		RestoreOptions: v.GetString("RESTORE_OPTIONS"),
		AttachChecksum: v.GetBool("SUPPORT_OBJECT_LOCK"),

		Schedule:     v.GetString("BACKUP_CRON_SCHEDULE"),
		RunOnStartup: v.GetBool("RUN_ON_STARTUP"),
		SingleShot:   v.GetBool("SINGLE_SHOT_MODE"),

		Storage: StorageConfig{
			Type:           v.GetString("STORAGE_TYPE"),
			Bucket:         v.GetString("AWS_S3_BUCKET"),
			Region:         v.GetString("AWS_S3_REGION"),
			Endpoint:       v.GetString("AWS_S3_ENDPOINT"),
			ForcePathStyle: v.GetBool("AWS_S3_FORCE_PATH_STYLE"),
			AccessKey:      v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey:      v.GetString("AWS_SECRET_ACCESS_KEY"),
			Subfolder:      v.GetString("BUCKET_SUBFOLDER"),
			LocalPath:      v.GetString("LOCAL_STORAGE_PATH"),
		},

		Notify: NotifyConfig{
			On:         v.GetString("NOTIFY_ON"),
			WebhookURL: v.GetString("WEBHOOK_URL"),
			SMTPHost:   v.GetString("SMTP_HOST"),
			SMTPPort:   v.GetInt("SMTP_PORT"),
			From:       v.GetString("SMTP_FROM"),
			To:         v.GetString("SMTP_TO"),
			Username:   v.GetString("SMTP_USERNAME"),
			Password:   v.GetString("SMTP_PASSWORD"),
		},
	}

	return cfg, nil
}
