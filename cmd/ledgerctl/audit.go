package main

import (
	"encoding/json"
	"fmt"

	apptable "chiptable/internal/app/table"
	"chiptable/internal/config"
	"chiptable/internal/ledger"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <table_id>",
		Short: "Check that a table's pot and stacks match what was bought in and cashed out.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableCfg, err := config.LoadTable()
			if err != nil {
				return err
			}
			st, err := openPostgres()
			if err != nil {
				return err
			}
			defer st.Close()

			svc := apptable.NewService(ledger.New(st, tableCfg.MaxAttempts), tableCfg)
			report, err := svc.Audit(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Balanced {
				return fmt.Errorf("table %s is out of balance by %d chips", report.TableID, report.InPlay-(report.BoughtIn-report.CashedOut))
			}
			return nil
		},
	}
}
