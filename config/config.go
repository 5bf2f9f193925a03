package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"

	BackendMinio = "minio"
	BackendGCS   = "gcs"
)

// ErrMissingJWTSecret is returned by Validate when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"`
	JWTSecret      string `env:"JWT_SECRET"`
	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	Database DatabaseConfig
	MQ       MQConfig
	Storage  StorageConfig
}

type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"agenda"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	DBName   string `env:"DB_NAME" envDefault:"agenda_db"`
	UseSSL   bool   `env:"DB_USE_SSL" envDefault:"false"`
}

// MQConfig selects the broker used for routine events. An empty Backend disables publishing.
type MQConfig struct {
	Backend        string `env:"MQ_BACKEND"`
	RoutineChannel string `env:"MQ_ROUTINE_CHANNEL" envDefault:"routine-events"`
	RabbitMQ       RabbitMQConfig
	PubSub         PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" envDefault:"false"`
}

type PubSubConfig struct {
	ProjectID       string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile string `env:"PUBSUB_CREDENTIALS_FILE"`
}

// StorageConfig selects the object store used for account archives.
// An empty Backend disables archiving.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND"`
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"agenda-archives"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// LoadConfig reads the configuration from the environment. In ENV=dev a local
// .env file is loaded first; variables already set in the environment win.
func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.GoogleClientID = strings.TrimSpace(cfg.GoogleClientID)
	return cfg, nil
}

// Validate reports configuration that must prevent the server from starting.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.MQ.Backend {
	case "", BackendRabbitMQ, BackendPubSub:
	default:
		return fmt.Errorf("unsupported MQ_BACKEND %q", c.MQ.Backend)
	}
	if c.MQ.Backend != "" && strings.TrimSpace(c.MQ.RoutineChannel) == "" {
		return errors.New("MQ_ROUTINE_CHANNEL is required when MQ_BACKEND is set")
	}

	switch c.Storage.Backend {
	case "", BackendMinio, BackendGCS:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}
