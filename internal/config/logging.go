package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
)

type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`

	File LogFileConfig `envPrefix:"LOG_FILE_"`
}

// LogFileConfig is the optional size-rotated file sink that runs alongside
// stdout. Path empty disables it.
type LogFileConfig struct {
	Path    string `env:"PATH"`
	MaxMB   int    `env:"MAX_MB" envDefault:"10"`
	Backups int    `env:"BACKUPS" envDefault:"1"`
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

func (c LogConfig) Validate() error {
	level := strings.ToLower(strings.TrimSpace(c.Level))
	if level != "" && !lo.Contains(logLevels, level) {
		return fmt.Errorf("LOG_LEVEL %q is not one of %s", c.Level, strings.Join(logLevels, ", "))
	}
	if c.File.Path != "" && (c.File.MaxMB <= 0 || c.File.Backups < 1) {
		return fmt.Errorf("LOG_FILE_MAX_MB and LOG_FILE_BACKUPS must be positive")
	}
	return nil
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
