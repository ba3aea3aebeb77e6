package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// File is the process configuration of the engine binary.
type File struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Solana   SolanaConfig   `yaml:"solana"`
	Market   MarketConfig   `yaml:"market"`
	Storage  StorageConfig  `yaml:"storage"`
	KeyStore KeyStoreConfig `yaml:"keystore"`

	// Engine overrides every engine starts from, below persisted and request overrides.
	Engine Overrides `yaml:"engine"`
}

// HTTPConfig configures the control surface.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SolanaConfig configures the RPC client.
type SolanaConfig struct {
	RPCEndpoint string        `yaml:"rpcEndpoint"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"maxRetries"`
}

// MarketConfig configures market-data sources.
type MarketConfig struct {
	DexScreenerURL string        `yaml:"dexScreenerUrl"`
	HolderCountTTL time.Duration `yaml:"holderCountTtl"`
	DisableHolders bool          `yaml:"disableHolders"`
	HistorySize    int           `yaml:"historySize"`
}

// StorageConfig selects the persistence backends.
type StorageConfig struct {
	UseMemory        bool   `yaml:"useMemory"`
	PostgresDSN      string `yaml:"postgresDsn"`
	PostgresMaxConns int32  `yaml:"postgresMaxConns"` // 0 keeps the driver default
	ClickHouseDSN    string `yaml:"clickhouseDsn"`
}

// KeyStoreConfig names the env var holding the base64 secretbox key.
type KeyStoreConfig struct {
	KeyEnv string `yaml:"keyEnv"`
}

// DefaultFile returns the process defaults.
func DefaultFile() File {
	return File{
		HTTP:    HTTPConfig{Addr: ":8080", ShutdownTimeout: 30 * time.Second},
		Logging: LoggingConfig{Level: "info"},
		Solana: SolanaConfig{
			RPCEndpoint: "https://api.mainnet-beta.solana.com",
			Timeout:     10 * time.Second,
			MaxRetries:  2,
		},
		Market: MarketConfig{
			DexScreenerURL: "https://api.dexscreener.com",
			HolderCountTTL: 5 * time.Minute,
			HistorySize:    200,
		},
		Storage:  StorageConfig{UseMemory: true},
		KeyStore: KeyStoreConfig{KeyEnv: "KEYSTORE_KEY"},
	}
}

// Load reads dotenv files, then the YAML file at path (optional when empty
// or missing), then applies environment overrides.
func Load(path string, envFiles ...string) (File, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := DefaultFile()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return File{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return File{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if _, err := Resolve(&cfg.Engine); err != nil {
		return File{}, fmt.Errorf("engine defaults: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *File) {
	envString("HTTP_ADDR", &cfg.HTTP.Addr)
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("SOLANA_RPC_URL", &cfg.Solana.RPCEndpoint)
	envString("DEXSCREENER_URL", &cfg.Market.DexScreenerURL)
	envString("POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	envString("CLICKHOUSE_DSN", &cfg.Storage.ClickHouseDSN)
	if v := os.Getenv("USE_MEMORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.UseMemory = b
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
