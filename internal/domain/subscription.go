package domain

import "time"

// SubscriptionStatus is the lifecycle state of a paid access window.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionWindow is the fixed paid-access period following a successful
// payment. Renewal creates a new subscription row rather than extending an
// existing one.
const SubscriptionWindow = 30 * 24 * time.Hour

// Subscription represents one 30-day paid access window for a user.
type Subscription struct {
	ID            string             `json:"id"`
	UserID        string             `json:"user_id"`
	PaymentDate   time.Time          `json:"payment_date"`
	ExpiryDate    time.Time          `json:"expiry_date"`
	Amount        int64              `json:"amount"`
	Status        SubscriptionStatus `json:"status"`
	TransactionID string             `json:"transaction_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// IsActive reports whether the subscription grants access at the given time.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiryDate.After(now)
}

// Overdue reports whether an active subscription has passed its expiry date
// and must be lazily transitioned to expired on the next read.
func (s *Subscription) Overdue(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.ExpiryDate.After(now)
}
