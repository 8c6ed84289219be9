package payment

import (
	"chiptable/internal/apperr"
	"chiptable/internal/payments"
)

var (
	ErrMissingFields       = apperr.New(apperr.KindValidation, "missing_fields", "Missing required fields")
	ErrInvalidPackage      = apperr.New(apperr.KindValidation, "invalid_package", "Invalid package")
	ErrPaymentNotFound     = apperr.New(apperr.KindNotFound, "payment_not_found", "Payment not found")
	ErrPaymentMismatch     = apperr.New(apperr.KindIntegrity, "payment_mismatch", "Payment does not match notification")
	ErrProviderUnavailable = apperr.New(apperr.KindUpstream, "provider_unavailable", "Payment provider unavailable")
	ErrBadSignature        = payments.ErrBadSignature
)
