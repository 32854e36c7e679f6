package config

import (
	"log/slog"
	"time"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN,required"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// LogConfig controls the process logger. File is optional; when set, output
// is duplicated into a size rotated file.
type LogConfig struct {
	Level      slog.Level `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	File       string     `env:"APP_LOG_FILE"`
	MaxSizeMB  int        `env:"APP_LOG_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int        `env:"APP_LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int        `env:"APP_LOG_MAX_AGE_DAYS" envDefault:"14"`
}

// RedisConfig is optional. An empty Addr keeps the result cache in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// ChainConfig points the verification binder at a full node exposing the
// solidity (finalized) block API.
type ChainConfig struct {
	APIURL          string        `env:"CHAIN_API_URL" envDefault:"https://api.trongrid.io"`
	APIKey          string        `env:"CHAIN_API_KEY"`
	LinkTemplate    string        `env:"CHAIN_LINK_TEMPLATE" envDefault:"https://tronscan.org/#/block/{number}"`
	Timeout         time.Duration `env:"CHAIN_TIMEOUT" envDefault:"5s"`
	RatePerSecond   float64       `env:"CHAIN_RATE" envDefault:"5"`
	Burst           int           `env:"CHAIN_BURST" envDefault:"5"`
	RetryMaxElapsed time.Duration `env:"CHAIN_RETRY_MAX_ELAPSED" envDefault:"2m"`
}

type SchedulerConfig struct {
	// Lead is how long before a window ends the following period is created.
	Lead          time.Duration `env:"SCHED_LEAD" envDefault:"10s"`
	SettleTimeout time.Duration `env:"SCHED_SETTLE_TIMEOUT" envDefault:"3m"`
	RecoveryCron  string        `env:"SCHED_RECOVERY_CRON" envDefault:"*/15 * * * * *"`
	CreditCron    string        `env:"SCHED_CREDIT_RETRY_CRON" envDefault:"*/30 * * * * *"`
	RepairCron    string        `env:"SCHED_PROOF_REPAIR_CRON" envDefault:"0 */10 * * * *"`
}

type GameConfig struct {
	// CatalogPath overrides the embedded game catalog.
	CatalogPath string `env:"GAME_CATALOG_PATH"`
}

type HTTPConfig struct {
	Port              uint16        `env:"APP_PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
}
