package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	JWTSecret   string `env:"JWT_SECRET,required,notEmpty"`
	// DataKeyHex is the 32-byte field encryption key, hex encoded.
	DataKeyHex string `env:"DATA_KEY_HEX"`
	SenderBIC  string `env:"SENDER_BIC" envDefault:"BANKBEBBXXXX"`
	Port       int    `env:"PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv     string `env:"APP_ENV" envDefault:"production"`

	StoreTimeout             time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	AutoMigrate              bool          `env:"AUTO_MIGRATE" envDefault:"false"`
	IdempotencyCleanInterval time.Duration `env:"IDEMPOTENCY_CLEAN_INTERVAL" envDefault:"1h"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
	DBConnectAttempts  int `env:"DB_CONNECT_ATTEMPTS" envDefault:"10"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load reads an optional .env file and then parses the environment. Values
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.StoreTimeout < 0 {
		return nil, fmt.Errorf("config.Load: STORE_TIMEOUT must not be negative")
	}
	return &cfg, nil
}
