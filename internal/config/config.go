package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	devJWTSecret = "dev-only-jwt-secret"
)

type Config struct {
	HTTP     HTTP
	Logger   Logger
	Storage  Storage
	Postgres Postgres
	Auth     Auth
	Kafka    Kafka
	Seed     Seed
}

type HTTP struct {
	Port        int      `env:"HTTP_PORT" envDefault:"8080"`
	GinMode     string   `env:"GIN_MODE" envDefault:"debug"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:4200,http://127.0.0.1:4200"`
}

type Logger struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

type Storage struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"memory"`
}

type Postgres struct {
	DSN          string `env:"POSTGRES_DSN"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         int    `env:"DB_PORT" envDefault:"5432"`
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name         string `env:"DB_NAME" envDefault:"postgres"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	LogSQL       bool   `env:"DB_LOG_SQL" envDefault:"false"`
}

type Auth struct {
	Enabled   bool          `env:"AUTH_ENABLED" envDefault:"true"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type Kafka struct {
	Brokers []string `env:"KAFKA_BROKERS"`
	Topic   string   `env:"KAFKA_CHANGES_TOPIC" envDefault:"admin.changes"`
}

type Seed struct {
	Defaults      bool   `env:"SEED_DEFAULTS" envDefault:"true"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// DSNString returns POSTGRES_DSN when set, otherwise builds one from the DB_* parts.
func (p Postgres) DSNString() string {
	if p.DSN != "" {
		return p.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

// New loads envPath (a missing file is fine) and parses the environment.
func New(envPath string) (Config, error) {
	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	c, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage.Driver)
	}

	if c.Postgres.MaxOpenConns > 0 && c.Postgres.MaxIdleConns > c.Postgres.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) must not exceed DB_MAX_OPEN_CONNS (%d)", c.Postgres.MaxIdleConns, c.Postgres.MaxOpenConns)
	}

	if c.Auth.JWTSecret == "" {
		if c.HTTP.GinMode == "release" {
			return errors.New("JWT_SECRET is required in release mode")
		}
		c.Auth.JWTSecret = devJWTSecret
	}
	if c.Auth.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	if (c.Seed.AdminEmail == "") != (c.Seed.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}
