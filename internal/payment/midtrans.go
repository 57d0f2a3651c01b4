package payment

import (
	"context"
	"strings"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransGateway implements Gateway against the Midtrans Snap API.
type MidtransGateway struct {
	client snap.Client
}

// NewMidtrans creates the real payment gateway. A missing server key is a
// ConfigError so callers can fall back to the simulated gateway.
func NewMidtrans(serverKey string, production bool) (*MidtransGateway, error) {
	if strings.TrimSpace(serverKey) == "" {
		return nil, &ConfigError{Message: "Midtrans server key is not configured"}
	}

	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	g := &MidtransGateway{}
	g.client.New(serverKey, env)
	return g, nil
}

// Simulated reports that this gateway performs real transactions.
func (g *MidtransGateway) Simulated() bool { return false }

// OpenTransaction creates a Snap transaction for the order and returns the
// session token. The Midtrans SDK manages its own HTTP transport and does not
// accept a per-request context.
func (g *MidtransGateway) OpenTransaction(_ context.Context, order *domain.Order) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.ID,
			GrossAmt: order.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			Email: order.Email,
			FName: firstNameFromEmail(order.Email),
		},
		Items: &[]midtrans.ItemDetails{itemForOrder(order)},
	}

	resp, snapErr := g.client.CreateTransaction(req)
	if snapErr != nil {
		return "", &GatewayError{Message: "failed to open payment session", cause: snapErr}
	}
	if resp == nil || resp.Token == "" {
		return "", &GatewayError{Message: "payment provider returned no session token"}
	}

	return resp.Token, nil
}

func itemForOrder(order *domain.Order) midtrans.ItemDetails {
	switch order.Purpose {
	case domain.OrderRevisionTopUp:
		return midtrans.ItemDetails{
			ID:    "skripsi-cepat-revision-topup",
			Name:  "SkripsiCepat - Revisi Tambahan (+5)",
			Price: order.Amount,
			Qty:   1,
		}
	default:
		return midtrans.ItemDetails{
			ID:    "skripsi-cepat-subscription",
			Name:  "SkripsiCepat - Akses 30 Hari",
			Price: order.Amount,
			Qty:   1,
		}
	}
}

func firstNameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
