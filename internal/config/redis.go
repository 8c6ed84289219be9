package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RedisConfig configures the rate limiter. An empty Addr disables limiting.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" envDefault:"0"`
	ActionLimit int           `env:"RATE_LIMIT_ACTIONS" envDefault:"30"`
	JoinLimit   int           `env:"RATE_LIMIT_JOINS" envDefault:"10"`
	Window      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"10s"`
}

func LoadRedis() (RedisConfig, error) {
	var cfg RedisConfig
	err := env.Parse(&cfg)
	return cfg, err
}
