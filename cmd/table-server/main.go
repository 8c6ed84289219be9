package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apppayment "chiptable/internal/app/payment"
	appprofile "chiptable/internal/app/profile"
	apptable "chiptable/internal/app/table"
	"chiptable/internal/auth"
	"chiptable/internal/config"
	"chiptable/internal/ledger"
	"chiptable/internal/logging"
	"chiptable/internal/payments"
	"chiptable/internal/ratelimit"
	"chiptable/internal/store"
	httptransport "chiptable/internal/transport/http"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := godotenv.Load()
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	if err := logging.Init(cfg.Log); err != nil {
		panic(err)
	}
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal().Msg("AUTH_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, pinger, closeStore, err := openStore(ctx, cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer closeStore()

	limiter, closeLimiter, err := ratelimit.Open(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("rate limiter init failed")
	}
	defer closeLimiter()
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("REDIS_ADDR not set; rate limiting disabled")
	}

	led := ledger.New(runner, cfg.Table.MaxAttempts)
	r := httptransport.NewRouter(httptransport.Deps{
		Store:       pinger,
		Tables:      apptable.NewService(led, cfg.Table),
		Payments:    apppayment.NewService(led, checkoutProvider(cfg.Payment), cfg.Payment, cfg.Table.StartingBalance),
		Profiles:    appprofile.NewService(led, cfg.Table.StartingBalance, cfg.Table.HistoryLimit),
		Identity:    auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		Webhooks:    payments.NewVerifier(cfg.Payment.WebhookSecret, time.Duration(cfg.Payment.SignatureTolSecs)*time.Second),
		Limiter:     limiter,
		AdminAPIKey: cfg.Server.AdminAPIKey,
	})
	httptransport.LogRoutes(r)
	if cfg.Payment.WebhookSecret == "" {
		log.Warn().Msg("PAYMENT_WEBHOOK_SECRET not set; every payment notification will be rejected")
	}

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Server.HTTPAddr).Str("store", cfg.Server.StoreDriver).Msg("http listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.ServerConfig) (store.TxRunner, httptransport.Pinger, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("using in-memory store; chips are lost on restart")
		ms := store.NewMemStore()
		return ms, ms, func() {}, nil
	}
	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return st, st, st.Close, nil
}

func checkoutProvider(cfg config.PaymentConfig) payments.CheckoutProvider {
	if cfg.APIKey == "" {
		log.Warn().Msg("PAYMENT_API_KEY not set; issuing local checkout references")
		return payments.LocalCheckout{PublicURL: cfg.PublicURL}
	}
	return payments.NewStripeCheckout(cfg.APIKey, cfg.APIURL, 10*time.Second)
}
