package payment

import (
	"context"
	"log/slog"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/google/uuid"
)

// SimulatedTokenPrefix marks every token issued by the simulated gateway so
// no downstream consumer can mistake one for a real payment session.
const SimulatedTokenPrefix = "SIM-"

// SimulatedGateway is the fallback strategy for environments without payment
// provider credentials. Every opened session is loudly audit-logged.
type SimulatedGateway struct{}

// NewSimulated creates the simulated gateway.
func NewSimulated() *SimulatedGateway {
	return &SimulatedGateway{}
}

// Simulated reports that this gateway never touches real money.
func (g *SimulatedGateway) Simulated() bool { return true }

// OpenTransaction issues a fake session token without contacting any provider.
func (g *SimulatedGateway) OpenTransaction(_ context.Context, order *domain.Order) (string, error) {
	token := SimulatedTokenPrefix + uuid.NewString()
	slog.Warn("SIMULATED payment session opened, no real transaction occurred",
		"order_id", order.ID,
		"user_id", order.UserID,
		"purpose", string(order.Purpose),
		"amount", order.Amount)
	return token, nil
}
