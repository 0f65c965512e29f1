package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverBolt     = "bolt"
)

// Mail drivers. The log driver only writes messages to the application log
// and is accepted in development only.
const (
	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName      string
	Environment  string
	HTTP         HTTPConfig
	Store        StoreConfig
	Database     DatabaseConfig
	Bolt         BoltConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Signing      SigningConfig
	Mail         MailConfig
	Verification VerificationConfig
	Context      ContextConfig
	Logger       LoggerConfig
	Migrations   MigrationsConfig
	BcryptCost   int
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type BoltConfig struct {
	Path string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type SigningConfig struct {
	Secret string
}

type MailConfig struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseTLS   bool
	Timeout  time.Duration
}

type VerificationConfig struct {
	BaseURL string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env) and
// applies defaults suitable for local development.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "accounts"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getString("STORE_DRIVER", StoreDriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "accounts"),
			User:            getString("DB_USER", "accounts"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Bolt: BoltConfig{
			Path: getString("BOLTDB_PATH", "./data/accounts.db"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "accounts"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 5*time.Minute),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 24*time.Hour),
		},
		Signing: SigningConfig{
			Secret: os.Getenv("SIGNING_SECRET"),
		},
		Mail: MailConfig{
			Driver:   strings.ToLower(os.Getenv("MAIL_DRIVER")),
			Host:     os.Getenv("MAIL_HOST"),
			Port:     getInt("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     getString("MAIL_FROM", "webmaster@localhost"),
			UseTLS:   getBool("MAIL_USE_TLS", true),
			Timeout:  getDuration("MAIL_TIMEOUT", 10*time.Second),
		},
		Verification: VerificationConfig{
			BaseURL: getString("VERIFY_BASE_URL", "http://localhost:8000"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 15*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		BcryptCost: getInt("BCRYPT_COST", 12),
	}

	if cfg.Mail.Driver == "" {
		cfg.Mail.Driver = MailDriverSMTP
		if cfg.IsDevelopment() {
			cfg.Mail.Driver = MailDriverLog
		}
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg.Database)
	}

	// A single secret signs both verification links and tokens unless
	// SIGNING_SECRET is set on its own.
	if cfg.Signing.Secret == "" {
		cfg.Signing.Secret = cfg.JWT.Secret
	}
	if cfg.IsDevelopment() {
		if cfg.JWT.Secret == "" {
			cfg.JWT.Secret = "dev-insecure-secret"
		}
		if cfg.Signing.Secret == "" {
			cfg.Signing.Secret = cfg.JWT.Secret
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Signing.Secret == "" {
		errs = append(errs, errors.New("SIGNING_SECRET is required"))
	}
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverBolt:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	switch c.Mail.Driver {
	case MailDriverSMTP:
		if c.Mail.Host == "" {
			errs = append(errs, errors.New("MAIL_HOST is required for the smtp mail driver"))
		}
	case MailDriverLog:
		if !c.IsDevelopment() {
			errs = append(errs, errors.New("MAIL_DRIVER=log is only allowed in development"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.Mail.Driver))
	}
	if c.Verification.BaseURL == "" {
		errs = append(errs, errors.New("VERIFY_BASE_URL is required"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether APP_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

func buildPostgresURL(db DatabaseConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
