// Package ledger tracks paid access windows and per-chapter revision quotas.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/store"
	"github.com/google/uuid"
)

// Ledger enforces subscription windows and revision quota accounting on top
// of the repository.
type Ledger struct {
	repo store.Repository
}

// New creates a ledger backed by the given repository.
func New(repo store.Repository) *Ledger {
	return &Ledger{repo: repo}
}

// CheckStatus returns the user's most recent subscription, or nil when the
// user never paid. An active subscription whose expiry has passed is lazily
// transitioned to expired before being returned; the periodic sweep covers
// the common case, this read-path check is the safety net.
func (l *Ledger) CheckStatus(ctx context.Context, userID string) (*domain.Subscription, error) {
	sub, err := l.repo.GetLatestSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub == nil {
		return nil, nil
	}

	if sub.Overdue(time.Now()) {
		if err := l.repo.UpdateSubscriptionStatus(ctx, sub.ID, domain.SubscriptionExpired); err != nil {
			return nil, fmt.Errorf("expire overdue subscription %s: %w", sub.ID, err)
		}
		slog.Info("Subscription lazily expired on read", "subscription_id", sub.ID, "user_id", userID)
		sub.Status = domain.SubscriptionExpired
	}

	return sub, nil
}

// CreateSubscription opens a fresh 30-day access window. Renewals call this
// too: history is a new row, never an update to the old one.
func (l *Ledger) CreateSubscription(ctx context.Context, userID, transactionID string, amount int64) (*domain.Subscription, error) {
	now := time.Now()
	sub := &domain.Subscription{
		ID:            uuid.NewString(),
		UserID:        userID,
		PaymentDate:   now,
		ExpiryDate:    now.Add(domain.SubscriptionWindow),
		Amount:        amount,
		Status:        domain.SubscriptionActive,
		TransactionID: transactionID,
		CreatedAt:     now,
	}
	if err := l.repo.InsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	slog.Info("Subscription created",
		"subscription_id", sub.ID,
		"user_id", userID,
		"transaction_id", transactionID,
		"expiry_date", sub.ExpiryDate)
	return sub, nil
}

// IsActive reports whether the user currently holds paid access.
func (l *Ledger) IsActive(ctx context.Context, userID string) (bool, error) {
	sub, err := l.CheckStatus(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return sub.IsActive(time.Now()), nil
}

// PurchaseRevisions credits a revision top-up to a chapter: an append-only
// purchase record plus a quota increase. Idempotency is not guaranteed by the
// chapter id alone; callers must supply a fresh transaction id per purchase.
func (l *Ledger) PurchaseRevisions(ctx context.Context, userID, chapterID, transactionID string, amount int64) (int, error) {
	purchase := &domain.RevisionPurchase{
		ID:             uuid.NewString(),
		UserID:         userID,
		ChapterID:      chapterID,
		Amount:         amount,
		RevisionsAdded: domain.TopUpRevisionCount,
		TransactionID:  transactionID,
		CreatedAt:      time.Now(),
	}
	if err := l.repo.InsertRevisionPurchase(ctx, purchase); err != nil {
		return 0, fmt.Errorf("record revision purchase: %w", err)
	}

	count, err := l.repo.AddRevisions(ctx, chapterID, domain.TopUpRevisionCount)
	if err != nil {
		return 0, fmt.Errorf("credit revisions: %w", err)
	}
	slog.Info("Revision top-up credited",
		"chapter_id", chapterID,
		"user_id", userID,
		"transaction_id", transactionID,
		"new_count", count)
	return count, nil
}

// RecordRevision charges one revision and appends a history entry. The
// decrement fails with domain.ErrQuotaExhausted when the quota is already
// zero; callers are expected to have checked first, this is the second line
// of defense.
func (l *Ledger) RecordRevision(ctx context.Context, chapterID, feedback, previousContent, newContent string) (int, error) {
	remaining, err := l.repo.DecrementRevisionCount(ctx, chapterID)
	if err != nil {
		return 0, err
	}

	rec := &domain.RevisionRecord{
		ID:              uuid.NewString(),
		ChapterID:       chapterID,
		Feedback:        feedback,
		PreviousContent: previousContent,
		NewContent:      newContent,
		CreatedAt:       time.Now(),
	}
	if err := l.repo.InsertRevisionRecord(ctx, rec); err != nil {
		// The quota charge already happened and the content is already shown
		// to the user; losing a history row is logged, not rolled back.
		slog.Error("Failed to record revision history", "chapter_id", chapterID, "error", err)
	}

	return remaining, nil
}

// RevisionCount returns a chapter's remaining quota.
func (l *Ledger) RevisionCount(ctx context.Context, chapterID string) (int, error) {
	return l.repo.GetRevisionCount(ctx, chapterID)
}

// RevisionHistory returns a chapter's revision history, newest first.
func (l *Ledger) RevisionHistory(ctx context.Context, chapterID string) ([]*domain.RevisionRecord, error) {
	return l.repo.ListRevisionRecords(ctx, chapterID)
}
