package main

import (
	"time"

	"github.com/fastprodman/drawengine/internal/config"
)

type apiConfig struct {
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	HTTP      config.HTTPConfig
	Log       config.LogConfig
	Postgres  config.PostgresConfig
	Redis     config.RedisConfig
	Chain     config.ChainConfig
	Scheduler config.SchedulerConfig
	Game      config.GameConfig
	Sweep     sweepConfig
}

// sweepConfig bounds the periodic background sweeps.
type sweepConfig struct {
	CreditMinAge time.Duration `env:"SWEEP_CREDIT_MIN_AGE" envDefault:"30s"`
	CreditLimit  int           `env:"SWEEP_CREDIT_LIMIT" envDefault:"500"`
	RepairLimit  int           `env:"SWEEP_REPAIR_LIMIT" envDefault:"200"`
}
