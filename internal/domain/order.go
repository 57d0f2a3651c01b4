package domain

import "time"

// OrderPurpose distinguishes what a payment order buys.
type OrderPurpose string

const (
	// OrderSubscription buys a 30-day access window.
	OrderSubscription OrderPurpose = "subscription"
	// OrderRevisionTopUp buys five extra revisions for one section.
	OrderRevisionTopUp OrderPurpose = "revision-topup"
)

// OrderStatus tracks an order through the payment provider's lifecycle.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderSettled OrderStatus = "settled"
	OrderFailed  OrderStatus = "failed"
)

// Order is a persisted payment order. The asynchronous confirmation path
// recovers the owning user by looking the order up by id, never by parsing
// structure out of the id string itself.
type Order struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Purpose   OrderPurpose `json:"purpose"`
	Section   Section      `json:"section,omitempty"` // set for revision top-ups
	Amount    int64        `json:"amount"`
	Email     string       `json:"email"`
	Status    OrderStatus  `json:"status"`
	Simulated bool         `json:"simulated"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
