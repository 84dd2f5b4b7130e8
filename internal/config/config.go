package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort  string
	AppEnv   string
	LogLevel string

	// mysql | sqlite
	DBDriver   string
	SQLitePath string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	AdminPasswordHash string
	AdminPassword     string
	JWTSecret         string
	SessionTTL        time.Duration

	ApprovalTokenTTL time.Duration
	UploadTokenTTL   time.Duration
	StatsCacheTTL    time.Duration

	PublicBaseURL string

	// db | s3
	BlobStore      string
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool

	MailEnabled bool
	SESRegion   string
	MailFrom    string
}

func defaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("SQLITE_PATH", "loanease.db")
	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "loanease")
	v.SetDefault("MYSQL_USER", "loanease")
	v.SetDefault("MYSQL_PASS", "loanease")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 300)
	v.SetDefault("SESSION_TTL", "8h")
	v.SetDefault("APPROVAL_TOKEN_TTL", "720h")
	v.SetDefault("UPLOAD_TOKEN_TTL", "336h")
	v.SetDefault("STATS_CACHE_TTL", "30s")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("BLOB_STORE", "db")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_USE_PATH_STYLE", true)
	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("SES_REGION", "us-east-1")
	v.SetDefault("MAIL_FROM", "no-reply@loanease.local")
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	defaults(v)
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:  v.GetString("APP_PORT"),
		AppEnv:   strings.ToLower(v.GetString("APP_ENV")),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		SQLitePath: v.GetString("SQLITE_PATH"),

		MySQLHost: v.GetString("MYSQL_HOST"),
		MySQLPort: v.GetString("MYSQL_PORT"),
		MySQLDB:   v.GetString("MYSQL_DB"),
		MySQLUser: v.GetString("MYSQL_USER"),
		MySQLPass: v.GetString("MYSQL_PASS"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),

		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		SessionTTL:        v.GetDuration("SESSION_TTL"),

		ApprovalTokenTTL: v.GetDuration("APPROVAL_TOKEN_TTL"),
		UploadTokenTTL:   v.GetDuration("UPLOAD_TOKEN_TTL"),
		StatsCacheTTL:    v.GetDuration("STATS_CACHE_TTL"),

		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),

		BlobStore:      strings.ToLower(v.GetString("BLOB_STORE")),
		S3Endpoint:     v.GetString("S3_ENDPOINT"),
		S3Region:       v.GetString("S3_REGION"),
		S3Bucket:       v.GetString("S3_BUCKET"),
		S3AccessKey:    v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:    v.GetString("S3_SECRET_KEY"),
		S3UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),

		MailEnabled: v.GetBool("MAIL_ENABLED"),
		SESRegion:   v.GetString("SES_REGION"),
		MailFrom:    v.GetString("MAIL_FROM"),
	}
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.AdminPasswordHash == "" && c.AdminPassword == "" {
		return errors.New("missing ADMIN_PASSWORD_HASH (or ADMIN_PASSWORD)")
	}
	if c.SessionTTL <= 0 || c.ApprovalTokenTTL <= 0 || c.UploadTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	switch c.BlobStore {
	case "db":
	case "s3":
		if c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("missing S3 config (S3_BUCKET/S3_ACCESS_KEY/S3_SECRET_KEY)")
		}
	default:
		return fmt.Errorf("unsupported BLOB_STORE %q", c.BlobStore)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
