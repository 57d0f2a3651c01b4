package thesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
	"github.com/google/uuid"
)

// CheckoutResult is returned when a payment session has been opened.
type CheckoutResult struct {
	OrderID   string       `json:"order_id"`
	Token     string       `json:"token"`
	Simulated bool         `json:"simulated"`
	State     funnel.State `json:"state"`
}

// Checkout locks in the title, records a subscription order and opens a
// payment session for it. With the simulated gateway the order settles
// immediately; with the real gateway settlement arrives via the webhook.
func (s *Service) Checkout(ctx context.Context, userID, title string) (*CheckoutResult, error) {
	state := s.sessions.Load(ctx, userID)
	next, err := state.ConfirmAndPay(title)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:        newOrderID(),
		UserID:    userID,
		Purpose:   domain.OrderSubscription,
		Amount:    s.prices.Subscription,
		Email:     next.Lead.Email,
		Status:    domain.OrderPending,
		Simulated: s.gateway.Simulated(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	// The order row is what the confirmation path resolves the payer from;
	// without it a settlement could never be attributed.
	if err := s.repo.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}
	s.save(ctx, userID, next)

	return s.openSession(ctx, order, next)
}

// TopUpCheckout records a revision top-up order for one section and opens a
// payment session for it.
func (s *Service) TopUpCheckout(ctx context.Context, userID string, sec domain.Section) (*CheckoutResult, error) {
	state := s.sessions.Load(ctx, userID)
	if state.PaymentStatus != funnel.PaymentPaid {
		return nil, domain.ErrAccessDenied
	}
	if !sec.IsValid() {
		return nil, &domain.ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", sec)}
	}

	email := ""
	if state.Lead != nil {
		email = state.Lead.Email
	}
	order := &domain.Order{
		ID:        newOrderID(),
		UserID:    userID,
		Purpose:   domain.OrderRevisionTopUp,
		Section:   sec,
		Amount:    s.prices.RevisionTopUp,
		Email:     email,
		Status:    domain.OrderPending,
		Simulated: s.gateway.Simulated(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.repo.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	return s.openSession(ctx, order, state)
}

// openSession asks the gateway for a session token and, for the simulated
// gateway, settles the order on the spot.
func (s *Service) openSession(ctx context.Context, order *domain.Order, state funnel.State) (*CheckoutResult, error) {
	token, err := s.gateway.OpenTransaction(ctx, order)
	if err != nil {
		if statusErr := s.repo.UpdateOrderStatus(ctx, order.ID, domain.OrderFailed); statusErr != nil {
			slog.Error("Failed to mark order failed", "order_id", order.ID, "error", statusErr)
		}
		return nil, err
	}

	result := &CheckoutResult{
		OrderID:   order.ID,
		Token:     token,
		Simulated: order.Simulated,
		State:     state,
	}

	if order.Simulated {
		settled, err := s.settleOrder(ctx, order, "SIM-TXN-"+order.ID)
		if err != nil {
			return nil, err
		}
		result.State = settled
	}

	return result, nil
}

// HandleNotification processes an asynchronous payment confirmation. The
// owning user is recovered by looking the order up by id. Unknown orders and
// repeated deliveries are logged and swallowed; the sender retries on
// anything but an acknowledgement.
func (s *Service) HandleNotification(ctx context.Context, orderID, transactionID, transactionStatus, fraudStatus string) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Warn("Payment notification for unknown order", "order_id", orderID)
			return nil
		}
		return fmt.Errorf("resolve order: %w", err)
	}
	if order.Status == domain.OrderSettled {
		slog.Info("Payment notification replay for settled order", "order_id", orderID)
		return nil
	}

	successful := transactionStatus == "settlement" ||
		(transactionStatus == "capture" && fraudStatus == "accept")
	failed := transactionStatus == "deny" || transactionStatus == "cancel" || transactionStatus == "expire"

	switch {
	case successful:
		if transactionID == "" {
			transactionID = orderID
		}
		if _, err := s.settleOrder(ctx, order, transactionID); err != nil {
			return err
		}
	case failed:
		if err := s.repo.UpdateOrderStatus(ctx, order.ID, domain.OrderFailed); err != nil {
			slog.Error("Failed to mark order failed", "order_id", order.ID, "error", err)
		}
		if order.Purpose == domain.OrderSubscription {
			state := s.sessions.Load(ctx, order.UserID)
			if next, err := state.PaymentFailure(); err == nil {
				s.save(ctx, order.UserID, next)
			}
		}
		slog.Info("Payment failed",
			"order_id", order.ID, "transaction_status", transactionStatus)
	default:
		slog.Info("Payment notification with non-final status",
			"order_id", order.ID, "transaction_status", transactionStatus)
	}

	return nil
}

// settleOrder applies a confirmed payment: a subscription order activates a
// 30-day window and creates the thesis draft; a top-up order credits five
// revisions to its section.
func (s *Service) settleOrder(ctx context.Context, order *domain.Order, transactionID string) (funnel.State, error) {
	state := s.sessions.Load(ctx, order.UserID)

	var next funnel.State
	switch order.Purpose {
	case domain.OrderSubscription:
		sub, err := s.ledger.CreateSubscription(ctx, order.UserID, transactionID, order.Amount)
		if err != nil {
			return state, err
		}

		draftID, chapterIDs := s.createDraft(ctx, order.UserID, sub.ID, state)
		next, err = state.PaymentSucceeded(sub.ID, draftID)
		if err != nil {
			// The subscription exists either way; a replayed settlement on a
			// paid funnel is not an error worth failing the sender over.
			slog.Warn("Settlement on already-paid funnel", "order_id", order.ID, "error", err)
			next = state
		} else if len(chapterIDs) > 0 {
			next = next.WithChapterIDs(chapterIDs)
		}

	case domain.OrderRevisionTopUp:
		chapterID := state.Sections[order.Section].ChapterID
		if chapterID == "" && state.ThesisID != "" {
			if ch, err := s.repo.GetChapter(ctx, state.ThesisID, order.Section); err == nil {
				chapterID = ch.ID
			}
		}
		if chapterID == "" {
			return state, fmt.Errorf("settle top-up %s: no chapter row for section %q", order.ID, order.Section)
		}
		if _, err := s.ledger.PurchaseRevisions(ctx, order.UserID, chapterID, transactionID, order.Amount); err != nil {
			return state, err
		}
		next = state.WithRevisionsAdded(order.Section, domain.TopUpRevisionCount)

	default:
		return state, fmt.Errorf("settle order %s: unknown purpose %q", order.ID, order.Purpose)
	}

	s.save(ctx, order.UserID, next)
	s.saveSectionsSnapshot(ctx, next)

	if err := s.repo.UpdateOrderStatus(ctx, order.ID, domain.OrderSettled); err != nil {
		slog.Error("Failed to mark order settled", "order_id", order.ID, "error", err)
	}
	slog.Info("Order settled",
		"order_id", order.ID,
		"purpose", string(order.Purpose),
		"transaction_id", transactionID,
		"simulated", order.Simulated)
	return next, nil
}

// createDraft persists the thesis aggregate and its six chapter rows. A
// storage failure here must not strand a paying user: the funnel proceeds
// without durable ids and the incident is logged for manual reconciliation.
func (s *Service) createDraft(ctx context.Context, userID, subscriptionID string, state funnel.State) (string, map[domain.Section]string) {
	lead := derefLead(state.Lead)
	now := time.Now()
	draft := &domain.ThesisDraft{
		ID:             uuid.NewString(),
		UserID:         userID,
		SubscriptionID: subscriptionID,
		Title:          state.SelectedTitle,
		Fakultas:       lead.Fakultas,
		Jurusan:        lead.Jurusan,
		Peminatan:      lead.Peminatan,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertThesis(ctx, draft); err != nil {
		slog.Error("Failed to create thesis draft, manual reconciliation required",
			"user_id", userID, "subscription_id", subscriptionID, "error", err)
		return "", nil
	}

	chapterIDs := make(map[domain.Section]string, len(domain.SectionOrder()))
	for _, sec := range domain.SectionOrder() {
		ch := &domain.Chapter{
			ID:            uuid.NewString(),
			ThesisID:      draft.ID,
			Section:       sec,
			RevisionCount: domain.InitialRevisionCount,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.InsertChapter(ctx, ch); err != nil {
			slog.Error("Failed to create chapter row, manual reconciliation required",
				"thesis_id", draft.ID, "section", string(sec), "error", err)
			continue
		}
		chapterIDs[sec] = ch.ID
	}

	return draft.ID, chapterIDs
}
