package config

import "github.com/caarlos0/env/v11"

type PaymentConfig struct {
	WebhookSecret    string `env:"PAYMENT_WEBHOOK_SECRET"`
	APIURL           string `env:"PAYMENT_API_URL"`
	APIKey           string `env:"PAYMENT_API_KEY"`
	PublicURL        string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	SignatureTolSecs int    `env:"PAYMENT_SIGNATURE_TOLERANCE_SECONDS" envDefault:"300"`
}

func LoadPayment() (PaymentConfig, error) {
	var cfg PaymentConfig
	err := env.Parse(&cfg)
	return cfg, err
}
