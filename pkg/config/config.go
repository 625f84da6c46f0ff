package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Uploads       UploadsConfig
	Notifications NotificationsConfig
	Reports       ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// DirectoryTTL bounds the read-through cache for user/subject/classroom
	// lookups. Zero disables caching.
	DirectoryTTL time.Duration
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig locates the directories holding uploaded files.
type UploadsConfig struct {
	AssignmentDir string
	SubmissionDir string
}

// NotificationsConfig selects the emission and feed routing policies.
type NotificationsConfig struct {
	// AnnounceCreation controls the teacher self-notification emitted when an
	// assignment is created.
	AnnounceCreation bool
	// ClassroomFeed switches the student feed to the classroom-scoped variant
	// that also surfaces teacher upload broadcasts for the student's subjects.
	ClassroomFeed bool
}

// ReportsConfig configures asynchronous grading-report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// Load reads environment configuration, honoring an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "eone")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIRECTORY_TTL", "5m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "eone-api")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_ASSIGNMENT_DIR", "./uploads")
	v.SetDefault("UPLOADS_SUBMISSION_DIR", "./submissionFile")

	v.SetDefault("NOTIFICATIONS_ANNOUNCE_CREATION", true)
	v.SetDefault("NOTIFICATIONS_CLASSROOM_FEED", false)

	v.SetDefault("REPORTS_ENABLED", true)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)

	cfg := &Config{
		Env:       v.GetString("ENV"),
		Port:      v.GetInt("PORT"),
		APIPrefix: v.GetString("API_PREFIX"),
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetInt("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			DirectoryTTL: v.GetDuration("REDIS_DIRECTORY_TTL"),
		},
		JWT: JWTConfig{
			Secret:            v.GetString("JWT_SECRET"),
			Expiration:        v.GetDuration("JWT_EXPIRATION"),
			RefreshExpiration: v.GetDuration("JWT_REFRESH_EXPIRATION"),
			Issuer:            v.GetString("JWT_ISSUER"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitNonEmpty(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Uploads: UploadsConfig{
			AssignmentDir: v.GetString("UPLOADS_ASSIGNMENT_DIR"),
			SubmissionDir: v.GetString("UPLOADS_SUBMISSION_DIR"),
		},
		Notifications: NotificationsConfig{
			AnnounceCreation: v.GetBool("NOTIFICATIONS_ANNOUNCE_CREATION"),
			ClassroomFeed:    v.GetBool("NOTIFICATIONS_CLASSROOM_FEED"),
		},
		Reports: ReportsConfig{
			Enabled:           v.GetBool("REPORTS_ENABLED"),
			StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
			SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
			SignedURLTTL:      v.GetDuration("REPORTS_SIGNED_URL_TTL"),
			CleanupInterval:   v.GetDuration("REPORTS_CLEANUP_INTERVAL"),
			WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
			WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env == EnvProduction {
		if c.JWT.Secret == "" {
			return errors.New("JWT_SECRET is required in production")
		}
		if c.Reports.Enabled && c.Reports.SignedURLSecret == "" {
			return errors.New("REPORTS_SIGNED_URL_SECRET is required in production")
		}
	}
	return nil
}

func splitNonEmpty(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
