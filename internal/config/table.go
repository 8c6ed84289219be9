package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// TableConfig holds the house rules of the chip tables.
type TableConfig struct {
	EntryFee        int64         `env:"TABLE_ENTRY_FEE" envDefault:"1000"`
	MaxSeats        int           `env:"TABLE_MAX_SEATS" envDefault:"8"`
	PresenceTimeout time.Duration `env:"TABLE_PRESENCE_TIMEOUT" envDefault:"30s"`
	StartingBalance int64         `env:"ACCOUNT_STARTING_BALANCE" envDefault:"1000"`
	ActivityLimit   int           `env:"TABLE_ACTIVITY_LIMIT" envDefault:"50"`
	HistoryLimit    int           `env:"PROFILE_HISTORY_LIMIT" envDefault:"100"`
	MaxAttempts     int           `env:"LEDGER_MAX_ATTEMPTS" envDefault:"5"`
	RoomCodeLength  int           `env:"ROOM_CODE_LENGTH" envDefault:"5"`
	RoomCodeTries   int           `env:"ROOM_CODE_ATTEMPTS" envDefault:"10"`
}

func LoadTable() (TableConfig, error) {
	var cfg TableConfig
	err := env.Parse(&cfg)
	return cfg, err
}
