// Package config reads service settings from flags and the environment.
// A .env file in the working directory, if present, is loaded into the
// environment first.
package config

import (
	"os"
	"strings"

	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sheikh-saqib/token-ledger/internal/models"
	"github.com/urfave/cli/v2"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverLevelDB  = "leveldb"
)

type Config struct {
	HTTPAddr    string
	CORSOrigins []string
	Store       StoreConfig
	Kafka       KafkaConfig
	Token       TokenConfig
	Log         LogConfig
}

type StoreConfig struct {
	Driver      string
	PostgresDSN string
	BoltPath    string
	LevelDBPath string
	CacheSize   int // 0 disables the read cache
}

// KafkaConfig enables the Kafka publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// TokenConfig is only used when the store does not hold a ledger yet.
type TokenConfig struct {
	Name     string
	Symbol   string
	Decimals uint8
	Supply   uint256.Int
	Creator  models.AccountID
}

type LogConfig struct {
	Level string
	File  string // empty means stderr
}

// LoadEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set are not overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Flags returns the CLI flags that make up a Config, each bound to an
// environment variable.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "http-addr", Value: ":8080", Usage: "HTTP listen address", EnvVars: []string{"HTTP_ADDR"}},
		&cli.StringSliceFlag{Name: "cors-origins", Usage: "allowed CORS origins", EnvVars: []string{"CORS_ORIGINS"}},

		&cli.StringFlag{Name: "store-driver", Value: DriverMemory, Usage: "memory, postgres, bolt or leveldb", EnvVars: []string{"STORE_DRIVER"}},
		&cli.StringFlag{Name: "postgres-dsn", Usage: "postgres connection string", EnvVars: []string{"POSTGRES_DSN"}},
		&cli.StringFlag{Name: "bolt-path", Value: "ledger.db", Usage: "bolt database file", EnvVars: []string{"BOLT_PATH"}},
		&cli.StringFlag{Name: "leveldb-path", Value: "ledger.ldb", Usage: "leveldb directory", EnvVars: []string{"LEVELDB_PATH"}},
		&cli.IntFlag{Name: "cache-size", Usage: "number of balances and allowances kept in the read cache", EnvVars: []string{"CACHE_SIZE"}},

		&cli.StringSliceFlag{Name: "kafka-brokers", Usage: "kafka brokers; events are not published when empty", EnvVars: []string{"KAFKA_BROKERS"}},
		&cli.StringFlag{Name: "kafka-topic-prefix", Usage: "prefix prepended to event topics", EnvVars: []string{"KAFKA_TOPIC_PREFIX"}},

		&cli.StringFlag{Name: "token-name", Usage: "token name used at construction", EnvVars: []string{"TOKEN_NAME"}},
		&cli.StringFlag{Name: "token-symbol", Usage: "token symbol used at construction", EnvVars: []string{"TOKEN_SYMBOL"}},
		&cli.UintFlag{Name: "token-decimals", Usage: "display decimals used at construction", EnvVars: []string{"TOKEN_DECIMALS"}},
		&cli.StringFlag{Name: "token-supply", Value: "0", Usage: "total supply used at construction", EnvVars: []string{"TOKEN_SUPPLY"}},
		&cli.StringFlag{Name: "token-creator", Usage: "base58 account credited the supply at construction", EnvVars: []string{"TOKEN_CREATOR"}},

		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", EnvVars: []string{"LOG_LEVEL"}},
		&cli.StringFlag{Name: "log-file", Usage: "rotate logs into this file instead of stderr", EnvVars: []string{"LOG_FILE"}},
	}
}

// FromContext builds and validates a Config from parsed flags.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		HTTPAddr:    c.String("http-addr"),
		CORSOrigins: c.StringSlice("cors-origins"),
		Store: StoreConfig{
			Driver:      strings.ToLower(c.String("store-driver")),
			PostgresDSN: c.String("postgres-dsn"),
			BoltPath:    c.String("bolt-path"),
			LevelDBPath: c.String("leveldb-path"),
			CacheSize:   c.Int("cache-size"),
		},
		Kafka: KafkaConfig{
			Brokers:     c.StringSlice("kafka-brokers"),
			TopicPrefix: c.String("kafka-topic-prefix"),
		},
		Token: TokenConfig{
			Name:   c.String("token-name"),
			Symbol: c.String("token-symbol"),
		},
		Log: LogConfig{
			Level: c.String("log-level"),
			File:  c.String("log-file"),
		},
	}

	decimals := c.Uint("token-decimals")
	if decimals > 77 {
		return Config{}, errors.Errorf("token decimals %d out of range", decimals)
	}
	cfg.Token.Decimals = uint8(decimals)

	supply, err := uint256.FromDecimal(c.String("token-supply"))
	if err != nil {
		return Config{}, errors.Wrapf(err, "parse token supply %q", c.String("token-supply"))
	}
	cfg.Token.Supply = *supply

	if creator := c.String("token-creator"); creator != "" {
		if cfg.Token.Creator, err = models.ParseAccountID(creator); err != nil {
			return Config{}, errors.Wrap(err, "parse token creator")
		}
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http address is required")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("postgres driver requires a DSN")
		}
	case DriverBolt:
		if c.Store.BoltPath == "" {
			return errors.New("bolt driver requires a path")
		}
	case DriverLevelDB:
		if c.Store.LevelDBPath == "" {
			return errors.New("leveldb driver requires a path")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.CacheSize < 0 {
		return errors.New("cache size must not be negative")
	}
	return nil
}

// ValidateToken checks the settings needed to construct a new ledger.
func (t TokenConfig) ValidateToken() error {
	if t.Name == "" {
		return errors.New("token name is required to construct a ledger")
	}
	if t.Creator == (models.AccountID{}) {
		return errors.New("token creator is required to construct a ledger")
	}
	return nil
}
