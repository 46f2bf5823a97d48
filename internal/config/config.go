package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm/logger"
)

type (
	Config struct {
		HTTP
		Database
		GoogleBooks
		Covers
		Tasks
		CloudSync
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		// ContainerDir is the shared app container; the store lives at
		// <ContainerDir>/Onmir/CoreData/ONMIR.sqlite.
		ContainerDir string
		// Path overrides the derived store location when set.
		Path     string
		LogLevel string // silent, error, warn, info
	}
	GoogleBooks struct {
		BaseURL  string
		APIKey   string
		Timeout  time.Duration
		PageSize int
	}
	Covers struct {
		Dir     string
		Timeout time.Duration
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	CloudSync struct {
		Enabled     bool
		Dir         string
		ContainerID string
		Schedule    string // Cron format: "0 * * * *" = hourly
		BatchSize   int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

// GormLogLevel maps the configured level name to the gorm logger level.
func (d Database) GormLogLevel() logger.LogLevel {
	switch d.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// NewConfig reads the configuration from the environment. Variables found
// in a .env file of the working directory are loaded first and never
// override the real environment.
func NewConfig() *Config {
	_ = godotenv.Load()
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("container_dir", DefaultContainerDir)
	v.SetDefault("database_path", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("google_books_base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("google_books_timeout", "15s")
	v.SetDefault("google_books_page_size", 20)

	v.SetDefault("covers_dir", DefaultCoversDir)
	v.SetDefault("covers_timeout", "30s")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("cloud_sync_enabled", false)
	v.SetDefault("cloud_sync_dir", "")
	v.SetDefault("cloud_sync_container_id", DefaultCloudContainerID)
	v.SetDefault("cloud_sync_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("cloud_sync_batch_size", 200)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			ContainerDir: v.GetString("CONTAINER_DIR"),
			Path:         v.GetString("DATABASE_PATH"),
			LogLevel:     v.GetString("DATABASE_LOG_LEVEL"),
		},
		GoogleBooks: GoogleBooks{
			BaseURL:  v.GetString("GOOGLE_BOOKS_BASE_URL"),
			APIKey:   v.GetString("GOOGLE_BOOKS_API_KEY"),
			Timeout:  v.GetDuration("GOOGLE_BOOKS_TIMEOUT"),
			PageSize: v.GetInt("GOOGLE_BOOKS_PAGE_SIZE"),
		},
		Covers: Covers{
			Dir:     v.GetString("COVERS_DIR"),
			Timeout: v.GetDuration("COVERS_TIMEOUT"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		CloudSync: CloudSync{
			Enabled:     v.GetBool("CLOUD_SYNC_ENABLED"),
			Dir:         v.GetString("CLOUD_SYNC_DIR"),
			ContainerID: v.GetString("CLOUD_SYNC_CONTAINER_ID"),
			Schedule:    v.GetString("CLOUD_SYNC_SCHEDULE"),
			BatchSize:   v.GetInt("CLOUD_SYNC_BATCH_SIZE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
