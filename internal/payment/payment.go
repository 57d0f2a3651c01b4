// Package payment provides the gateway to the external payment processor.
// The real Midtrans Snap client and a simulated fallback implement the same
// Gateway interface; which one runs is a startup configuration decision,
// never an inline branch in handler code.
package payment

import (
	"context"
	"fmt"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Gateway opens a payment session for a persisted order and returns the
// provider's opaque session token.
type Gateway interface {
	OpenTransaction(ctx context.Context, order *domain.Order) (string, error)

	// Simulated reports whether this gateway produces fake transactions.
	// Audit logs and order rows must make the distinction visible.
	Simulated() bool
}

// ConfigError means the gateway is not configured for real payments. It is a
// distinct, recoverable case: startup falls back to the simulated gateway.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("payment gateway config: %s", e.Message)
}

// GatewayError is a failure reported by the payment provider.
type GatewayError struct {
	Message string
	cause   error
}

func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("payment gateway: %s: %v", e.Message, e.cause)
	}
	return fmt.Sprintf("payment gateway: %s", e.Message)
}

func (e *GatewayError) Unwrap() error { return e.cause }
