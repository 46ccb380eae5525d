package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage drivers understood by storage.Open.
const (
	DriverMemory = "memory"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
	DriverScylla = "scylla"
	DriverMinIO  = "minio"
)

type Config struct {
	Port   string   `envconfig:"PORT" default:"8080"`
	Driver string   `envconfig:"STORAGE_DRIVER" default:"memory"`
	NodeID int64    `envconfig:"NODE_ID" default:"1"`
	CORS   []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`

	Bolt    BoltConfig    `envconfig:"BOLT"`
	Redis   RedisConfig   `envconfig:"REDIS"`
	Cache   CacheConfig   `envconfig:"CACHE"`
	Scylla  ScyllaConfig  `envconfig:"SCYLLA"`
	MinIO   MinIOConfig   `envconfig:"MINIO"`
	Session SessionConfig `envconfig:"SESSION"`
	JWT     JWTConfig     `envconfig:"JWT"`
	Admin   AdminConfig   `envconfig:"ADMIN"`
	Catalog CatalogConfig `envconfig:"CATALOG"`
	SMTP    SMTPConfig    `envconfig:"SMTP"`
	Log     LogConfig     `envconfig:"LOG"`
}

type BoltConfig struct {
	Path   string `envconfig:"PATH" default:"coffeeshop.db"`
	Bucket string `envconfig:"BUCKET" default:"storefront"`
}

type RedisConfig struct {
	Host     string        `envconfig:"HOST" default:"localhost:6379"`
	Password string        `envconfig:"PASSWORD"`
	DB       int           `envconfig:"DB" default:"0"`
	TTL      time.Duration `envconfig:"TTL" default:"0s"`
}

// CacheConfig fronts a durable backend with redis, using the REDIS_* settings.
type CacheConfig struct {
	Enable bool          `envconfig:"ENABLE" default:"false"`
	TTL    time.Duration `envconfig:"TTL" default:"5m"`
}

type ScyllaConfig struct {
	Hosts    []string      `envconfig:"HOSTS"`
	Keyspace string        `envconfig:"KEYSPACE" default:"coffeeshop"`
	Table    string        `envconfig:"TABLE" default:"kv"`
	Username string        `envconfig:"USERNAME"`
	Password string        `envconfig:"PASSWORD"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

type MinIOConfig struct {
	Endpoint  string `envconfig:"ENDPOINT"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Bucket    string `envconfig:"BUCKET" default:"coffeeshop"`
	UseSSL    bool   `envconfig:"USE_SSL" default:"false"`
}

type SessionConfig struct {
	Secret string `envconfig:"SECRET" default:"dev-session-secret-change-me"`
	Name   string `envconfig:"NAME" default:"coffeeshop_profile"`
}

type JWTConfig struct {
	Secret string        `envconfig:"SECRET" default:"dev-jwt-secret-change-me"`
	TTL    time.Duration `envconfig:"TTL" default:"720h"`
}

type AdminConfig struct {
	Email    string `envconfig:"EMAIL" default:"admin@example.com"`
	Password string `envconfig:"PASSWORD" default:"admin123"`
	Name     string `envconfig:"NAME" default:"Admin"`
}

type CatalogConfig struct {
	SeedFile string `envconfig:"SEED_FILE"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	User     string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"orders@coffeeshop.local"`
}

// Enabled reports whether receipts can be mailed.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

type LogConfig struct {
	Mode       string `envconfig:"MODE" default:"development"`
	Level      string `envconfig:"LEVEL" default:"info"`
	FileEnable bool   `envconfig:"FILE_ENABLE" default:"false"`
	Filename   string `envconfig:"FILENAME" default:"logs/coffeeshop.log"`
}

// Load reads the optional dotenv files (".env" when none are given) and then
// decodes the process environment. A missing dotenv file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected driver has the settings it needs.
func (c *Config) Validate() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case DriverMemory:
	case DriverBolt:
		if c.Bolt.Path == "" {
			return errors.New("BOLT_PATH is required for the bolt driver")
		}
	case DriverRedis:
		if c.Redis.Host == "" {
			return errors.New("REDIS_HOST is required for the redis driver")
		}
	case DriverScylla:
		if len(c.Scylla.Hosts) == 0 || c.Scylla.Keyspace == "" {
			return errors.New("SCYLLA_HOSTS and SCYLLA_KEYSPACE are required for the scylla driver")
		}
	case DriverMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Driver)
	}
	if c.Cache.Enable && c.Redis.Host == "" {
		return errors.New("REDIS_HOST is required when CACHE_ENABLE is set")
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("NODE_ID must be between 0 and 1023, got %d", c.NodeID)
	}
	if c.Admin.Email == "" || c.Admin.Password == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must not be empty")
	}
	return nil
}
