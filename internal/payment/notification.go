package payment

import (
	"crypto/sha512"
	"encoding/hex"
)

// Notification is the asynchronous payment confirmation event sent by the
// provider. The sender delivers at least once; receivers must acknowledge
// with a success response regardless of internal processing outcome.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	GrossAmount       string `json:"gross_amount"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
}

// Successful reports whether the notification confirms a completed payment:
// a fraud-accepted capture or a settlement.
func (n *Notification) Successful() bool {
	switch n.TransactionStatus {
	case "capture":
		return n.FraudStatus == "accept"
	case "settlement":
		return true
	default:
		return false
	}
}

// Failed reports whether the notification marks the payment as dead.
func (n *Notification) Failed() bool {
	switch n.TransactionStatus {
	case "deny", "cancel", "expire":
		return true
	default:
		return false
	}
}

// Signature computes the provider's notification signature:
// SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the notification's signature against the shared
// server key. Verification is only meaningful when both the key and the
// signature are present; the caller decides what a mismatch means.
func (n *Notification) VerifySignature(serverKey string) bool {
	if serverKey == "" || n.SignatureKey == "" {
		return true
	}
	return Signature(n.OrderID, n.StatusCode, n.GrossAmount, serverKey) == n.SignatureKey
}
