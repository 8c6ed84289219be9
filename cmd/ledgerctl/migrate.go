package main

import (
	"errors"

	"chiptable/internal/config"
	"chiptable/internal/store"
	"chiptable/migrations"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to POSTGRES_DSN.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openPostgres()
			if err != nil {
				return err
			}
			defer st.Close()

			load, name := migrations.InitUp, "000001_init.up.sql"
			if down {
				load, name = migrations.InitDown, "000001_init.down.sql"
			}
			sql, err := load()
			if err != nil {
				return err
			}
			if err := st.Exec(cmd.Context(), sql); err != nil {
				return err
			}
			log.Info().Str("migration", name).Msg("migration applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "drop the schema instead of creating it")
	return cmd
}

func openPostgres() (*store.Store, error) {
	cfg, err := config.LoadServer()
	if err != nil {
		return nil, err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, errors.New("ledgerctl works against postgres only; set STORE_DRIVER=postgres")
	}
	return store.New(cfg.PostgresDSN)
}
