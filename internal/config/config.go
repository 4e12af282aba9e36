// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":3001"`
	GRPCAddr string `env:"GRPC_ADDR" envDefault:":50051"`

	ItemStore     string `env:"ITEM_STORE" envDefault:"sqlite"`
	SequenceStore string `env:"SEQUENCE_STORE" envDefault:"sqlite"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"data/items.db"`
	MySQLDSN   string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/crud_app?parseTime=true"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	DynamoDBTable    string `env:"DYNAMODB_TABLE" envDefault:"counters"`
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`
	AWSRegion        string `env:"AWS_REGION"`

	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.ItemStore {
	case BackendSQLite, BackendMySQL:
	default:
		return fmt.Errorf("ITEM_STORE %q: must be sqlite or mysql", c.ItemStore)
	}

	switch c.SequenceStore {
	case BackendSQLite, BackendMySQL, BackendRedis, BackendDynamoDB, BackendMemory:
	default:
		return fmt.Errorf("SEQUENCE_STORE %q: must be sqlite, mysql, redis or dynamodb", c.SequenceStore)
	}

	// Item stores are durable; a process-local counter would restart at 1
	// and collide with ids already stored.
	if c.SequenceStore == BackendMemory {
		return errors.New("SEQUENCE_STORE memory is not durable and cannot back a persistent item store")
	}

	if c.Uses(BackendSQLite) && strings.TrimSpace(c.SQLitePath) == "" {
		return errors.New("SQLITE_PATH is required")
	}
	if c.Uses(BackendMySQL) {
		if strings.TrimSpace(c.MySQLDSN) == "" {
			return errors.New("MYSQL_DSN is required")
		}
		if _, err := mysql.ParseDSN(c.MySQLDSN); err != nil {
			return fmt.Errorf("MYSQL_DSN: %w", err)
		}
	}
	if c.Uses(BackendRedis) && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required")
	}
	if c.Uses(BackendDynamoDB) && strings.TrimSpace(c.DynamoDBTable) == "" {
		return errors.New("DYNAMODB_TABLE is required")
	}

	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	return nil
}

// Uses reports whether backend serves either items or the sequence.
func (c Config) Uses(backend string) bool {
	return c.ItemStore == backend || c.SequenceStore == backend
}
