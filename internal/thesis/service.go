// Package thesis implements the orchestration layer coordinating the funnel
// state machine, the content and payment gateways, the ledger and the store.
package thesis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
	"github.com/ashureev/skripsi-cepat/internal/ledger"
	"github.com/ashureev/skripsi-cepat/internal/payment"
	"github.com/ashureev/skripsi-cepat/internal/shared"
	"github.com/ashureev/skripsi-cepat/internal/store"
	"github.com/google/uuid"
)

// ProgressPublisher receives generation lifecycle events for a session.
// Implementations must not block.
type ProgressPublisher interface {
	SectionStarted(userID string, sec domain.Section)
	SectionFinished(userID string, sec domain.Section)
	SectionFailed(userID string, sec domain.Section, message string)
}

// NopProgress discards all events.
type NopProgress struct{}

func (NopProgress) SectionStarted(string, domain.Section)        {}
func (NopProgress) SectionFinished(string, domain.Section)       {}
func (NopProgress) SectionFailed(string, domain.Section, string) {}

// Prices holds the purchase amounts in rupiah.
type Prices struct {
	Subscription  int64
	RevisionTopUp int64
}

// Service is the section generation orchestrator plus the funnel-level
// operations that surround it.
type Service struct {
	repo     store.Repository
	sessions *funnel.Manager
	gen      content.Generator
	ledger   *ledger.Ledger
	gateway  payment.Gateway
	progress ProgressPublisher
	prices   Prices

	// flights holds one mutex per in-flight generation, keyed by
	// userID/section. Single-flight per section, not global.
	flights sync.Map
}

// NewService wires the orchestrator. A nil progress publisher disables events.
func NewService(repo store.Repository, sessions *funnel.Manager, gen content.Generator,
	led *ledger.Ledger, gateway payment.Gateway, progress ProgressPublisher, prices Prices) *Service {
	if progress == nil {
		progress = NopProgress{}
	}
	return &Service{
		repo:     repo,
		sessions: sessions,
		gen:      gen,
		ledger:   led,
		gateway:  gateway,
		progress: progress,
		prices:   prices,
	}
}

// State returns the session's current funnel state.
func (s *Service) State(ctx context.Context, userID string) funnel.State {
	return s.sessions.Load(ctx, userID)
}

// StartFunnel moves a landing-page visitor to the lead form.
func (s *Service) StartFunnel(ctx context.Context, userID string) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	next, err := state.Start()
	if err != nil {
		return state, err
	}
	s.save(ctx, userID, next)
	return next, nil
}

// SubmitLead validates the lead profile, generates title candidates and
// advances the funnel to title selection. A generation failure surfaces the
// typed gateway error and leaves the state untouched.
func (s *Service) SubmitLead(ctx context.Context, userID string, lead domain.LeadProfile) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	if state.Step != funnel.StepLeadForm {
		return state, fmt.Errorf("%w: submit lead from %q", funnel.ErrInvalidTransition, state.Step)
	}
	if err := lead.Validate(); err != nil {
		return state, err
	}

	unlock, err := s.acquireFlight(userID, "titles")
	if err != nil {
		return state, err
	}
	defer unlock()

	raw, err := s.gen.Generate(ctx, content.Request{
		Kind: content.KindTitleIdeation,
		Lead: lead,
	})
	if err != nil {
		return state, err
	}
	titles := content.ParseTitles(raw)
	if len(titles) == 0 {
		return state, &domain.ValidationError{Message: "no usable titles were generated, please try again"}
	}

	next, err := state.SubmitLead(lead, titles)
	if err != nil {
		return state, err
	}

	s.persistLead(ctx, userID, lead)
	s.save(ctx, userID, next)
	slog.Info("Lead captured", "user_id", userID, "titles", len(titles))
	return next, nil
}

// SelectTitle records the visitor's title choice.
func (s *Service) SelectTitle(ctx context.Context, userID, title string) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	next, err := state.SelectTitle(title)
	if err != nil {
		return state, err
	}
	s.save(ctx, userID, next)
	return next, nil
}

// persistLead mirrors lead fields onto the durable user row so the
// confirmation path can reach the payer without the session.
func (s *Service) persistLead(ctx context.Context, userID string, lead domain.LeadProfile) {
	now := time.Now()
	user := &domain.User{
		UserID:     userID,
		Email:      lead.Email,
		Fakultas:   lead.Fakultas,
		Jurusan:    lead.Jurusan,
		Peminatan:  lead.Peminatan,
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		slog.Error("Failed to persist lead profile", "user_id", userID, "error", err)
	}
}

// save writes the snapshot after a successful transition. A storage hiccup
// must not strand the visitor behind an error they cannot act on, so the
// failure is logged for manual reconciliation and the new state stands.
// SQLITE_BUSY gets a short backoff first since the webhook and section
// handlers can write the same row concurrently.
func (s *Service) save(ctx context.Context, userID string, state funnel.State) {
	const maxRetries = 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = s.sessions.Save(ctx, userID, state)
		if err == nil {
			return
		}
		if !shared.IsSQLiteConflictError(err) || ctx.Err() != nil {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("Snapshot write contended, retrying",
			"user_id", userID, "attempt", i+1, "delay", delay)
		time.Sleep(delay)
	}
	slog.Error("Failed to persist funnel snapshot, state may drift",
		"user_id", userID, "step", string(state.Step), "error", err)
}

// acquireFlight takes the single-flight lock for one generation slot.
func (s *Service) acquireFlight(userID, slot string) (func(), error) {
	key := userID + "/" + slot
	lock, _ := s.flights.LoadOrStore(key, &sync.Mutex{})
	mutex := lock.(*sync.Mutex)
	if !mutex.TryLock() {
		return nil, domain.ErrGenerationInFlight
	}
	return func() {
		mutex.Unlock()
		s.flights.Delete(key)
	}, nil
}

func newOrderID() string {
	return "SC-" + uuid.NewString()
}
