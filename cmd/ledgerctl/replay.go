package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	apppayment "chiptable/internal/app/payment"
	"chiptable/internal/config"
	"chiptable/internal/ledger"
	"chiptable/internal/payments"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func settleReplayCmd() *cobra.Command {
	var signature string
	cmd := &cobra.Command{
		Use:   "settle-replay <file>",
		Short: "Re-apply a stored payment notification. Already settled payments are left unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payCfg, err := config.LoadPayment()
			if err != nil {
				return err
			}
			tableCfg, err := config.LoadTable()
			if err != nil {
				return err
			}
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			st, err := openPostgres()
			if err != nil {
				return err
			}
			defer st.Close()

			// Replays never open checkouts, so no provider is needed.
			svc := apppayment.NewService(ledger.New(st, tableCfg.MaxAttempts), nil, payCfg, tableCfg.StartingBalance)
			var verifier *payments.Verifier
			if signature != "" {
				verifier = payments.NewVerifier(payCfg.WebhookSecret, time.Duration(payCfg.SignatureTolSecs)*time.Second)
			}
			return replay(cmd.Context(), cmd.OutOrStdout(), svc, payload, verifier, signature)
		},
	}
	cmd.Flags().StringVar(&signature, "signature", "", "verify the payload against this signature header first")
	return cmd
}

type replayer interface {
	HandleEvent(ctx context.Context, ev *payments.Event) (*apppayment.SettleResult, error)
}

// replay runs payload through the settlement path. When verifier is set the
// stored signature header is checked without a timestamp tolerance.
func replay(ctx context.Context, out io.Writer, svc replayer, payload []byte, verifier *payments.Verifier, signature string) error {
	if verifier != nil {
		signedAt, err := payments.SignedAt(signature)
		if err != nil {
			return err
		}
		if err := verifier.Verify(payload, signature, signedAt); err != nil {
			return err
		}
	}
	ev, err := payments.ParseEvent(payload)
	if err != nil {
		return err
	}
	res, err := svc.HandleEvent(ctx, ev)
	if err != nil {
		return err
	}
	log.Info().Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("notification replayed")
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if res == nil {
		return enc.Encode(map[string]any{"event_id": ev.ID, "type": ev.Type, "applied": false})
	}
	return enc.Encode(res)
}
