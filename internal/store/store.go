// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Repository defines the interface for persisting funnel, subscription and
// thesis data. Methods returning a pointer return (nil, nil) when no row
// exists unless noted otherwise.
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetFunnelSnapshot returns the serialized funnel state for a session,
	// or nil when none has been written yet.
	GetFunnelSnapshot(ctx context.Context, userID string) ([]byte, error)

	// UpsertFunnelSnapshot writes the serialized funnel state for a session.
	UpsertFunnelSnapshot(ctx context.Context, userID string, blob []byte) error

	// GetLatestSubscription returns the most recent subscription row for a user.
	GetLatestSubscription(ctx context.Context, userID string) (*domain.Subscription, error)

	// InsertSubscription appends a new subscription row. Renewals insert a
	// fresh row; history is never overwritten.
	InsertSubscription(ctx context.Context, sub *domain.Subscription) error

	// UpdateSubscriptionStatus transitions a subscription's status.
	UpdateSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error

	// ExpireOverdueSubscriptions marks every active subscription whose expiry
	// has passed as expired and returns how many rows changed.
	ExpireOverdueSubscriptions(ctx context.Context, now time.Time) (int64, error)

	// InsertOrder records a new payment order.
	InsertOrder(ctx context.Context, order *domain.Order) error

	// GetOrder retrieves an order by id. Returns domain.ErrNotFound when missing.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrderStatus transitions an order's status.
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error

	// InsertThesis creates a thesis draft row.
	InsertThesis(ctx context.Context, draft *domain.ThesisDraft) error

	// GetThesisByUser returns the user's most recent thesis draft.
	GetThesisByUser(ctx context.Context, userID string) (*domain.ThesisDraft, error)

	// SaveSectionsSnapshot stores the denormalized sections map on the draft.
	SaveSectionsSnapshot(ctx context.Context, thesisID string, sectionsJSON string) error

	// InsertChapter creates a per-section chapter row.
	InsertChapter(ctx context.Context, ch *domain.Chapter) error

	// GetChapter returns the chapter row for one section of a draft.
	// Returns domain.ErrNotFound when missing.
	GetChapter(ctx context.Context, thesisID string, section domain.Section) (*domain.Chapter, error)

	// UpdateChapterContent replaces a chapter's content.
	UpdateChapterContent(ctx context.Context, chapterID string, content string) error

	// CompleteChapter sets a chapter's completion flag.
	CompleteChapter(ctx context.Context, chapterID string) error

	// GetRevisionCount returns a chapter's remaining revision quota.
	GetRevisionCount(ctx context.Context, chapterID string) (int, error)

	// DecrementRevisionCount decrements a chapter's quota by one and returns
	// the new count. It fails with domain.ErrQuotaExhausted when the count is
	// already zero; it never clamps.
	DecrementRevisionCount(ctx context.Context, chapterID string) (int, error)

	// AddRevisions credits n revisions to a chapter and returns the new count.
	AddRevisions(ctx context.Context, chapterID string, n int) (int, error)

	// InsertRevisionPurchase appends a top-up purchase record.
	InsertRevisionPurchase(ctx context.Context, p *domain.RevisionPurchase) error

	// InsertRevisionRecord appends a revision history entry.
	InsertRevisionRecord(ctx context.Context, rec *domain.RevisionRecord) error

	// ListRevisionRecords returns a chapter's revision history, newest first.
	ListRevisionRecords(ctx context.Context, chapterID string) ([]*domain.RevisionRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
