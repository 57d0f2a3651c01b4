// Package funnel implements the application state machine that drives a
// visitor from the landing page through lead capture, title selection and
// payment into sequential chapter writing.
//
// State values are immutable: every transition is a pure function on a value
// receiver returning a fresh State. Persistence happens strictly after a
// successful transition, never inside one.
package funnel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Step is the funnel step currently presented to the visitor.
type Step string

const (
	StepLanding        Step = "landing"
	StepLeadForm       Step = "lead-form"
	StepTitleSelection Step = "title-selection"
	StepPayment        Step = "payment"
	StepChapterWriting Step = "chapter-writing"
)

// PaymentStatus tracks the funnel's single payment flag. It moves
// pending→paid or pending→failed; paid is terminal (renewal creates a new
// subscription row instead of touching this field).
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ErrInvalidTransition is returned when an event is not legal in the current step.
var ErrInvalidTransition = errors.New("invalid funnel transition")

// SectionState is the in-session view of one section.
type SectionState struct {
	Content            string `json:"content"`
	RevisionsRemaining int    `json:"revisions_remaining"`
	IsComplete         bool   `json:"is_complete"`
	// ChapterID is the durable row id once the draft exists in the store.
	ChapterID string `json:"chapter_id,omitempty"`
}

// State is the root funnel aggregate. All six section keys are always present.
type State struct {
	Step            Step                            `json:"step"`
	Lead            *domain.LeadProfile             `json:"lead,omitempty"`
	TitleCandidates []domain.TitleIdea              `json:"title_candidates,omitempty"`
	SelectedTitle   string                          `json:"selected_title,omitempty"`
	PaymentStatus   PaymentStatus                   `json:"payment_status"`
	Sections        map[domain.Section]SectionState `json:"sections"`
	ActiveSection   domain.Section                  `json:"active_section"`
	IsGenerating    bool                            `json:"is_generating"`
	ThesisID        string                          `json:"thesis_id,omitempty"`
	SubscriptionID  string                          `json:"subscription_id,omitempty"`
}

// New returns the default initial state: landing step, empty sections with
// the full starting revision quota, first chapter active.
func New() State {
	sections := make(map[domain.Section]SectionState, len(domain.SectionOrder()))
	for _, sec := range domain.SectionOrder() {
		sections[sec] = SectionState{RevisionsRemaining: domain.InitialRevisionCount}
	}
	return State{
		Step:          StepLanding,
		PaymentStatus: PaymentPending,
		Sections:      sections,
		ActiveSection: domain.SectionBab1,
	}
}

// clone deep-copies the state so transitions never alias the receiver's maps
// or slices.
func (s State) clone() State {
	out := s
	out.Sections = make(map[domain.Section]SectionState, len(s.Sections))
	for k, v := range s.Sections {
		out.Sections[k] = v
	}
	if s.Lead != nil {
		lead := *s.Lead
		out.Lead = &lead
	}
	if s.TitleCandidates != nil {
		out.TitleCandidates = make([]domain.TitleIdea, len(s.TitleCandidates))
		copy(out.TitleCandidates, s.TitleCandidates)
	}
	return out
}

// Start moves the funnel from the landing page to the lead form.
func (s State) Start() (State, error) {
	if s.Step != StepLanding {
		return s, fmt.Errorf("%w: start from %q", ErrInvalidTransition, s.Step)
	}
	next := s.clone()
	next.Step = StepLeadForm
	return next, nil
}

// SubmitLead records the validated lead profile together with the title
// candidates produced for it and advances to title selection. Title
// generation happens before this transition; a generation failure leaves the
// caller's state untouched.
func (s State) SubmitLead(lead domain.LeadProfile, titles []domain.TitleIdea) (State, error) {
	if s.Step != StepLeadForm {
		return s, fmt.Errorf("%w: submit lead from %q", ErrInvalidTransition, s.Step)
	}
	if err := lead.Validate(); err != nil {
		return s, err
	}
	next := s.clone()
	next.Lead = &lead
	next.TitleCandidates = make([]domain.TitleIdea, len(titles))
	copy(next.TitleCandidates, titles)
	next.Step = StepTitleSelection
	return next, nil
}

// SelectTitle records the visitor's choice without advancing the step.
func (s State) SelectTitle(title string) (State, error) {
	if s.Step != StepTitleSelection {
		return s, fmt.Errorf("%w: select title from %q", ErrInvalidTransition, s.Step)
	}
	if strings.TrimSpace(title) == "" {
		return s, &domain.ValidationError{Field: "title", Message: "title must not be empty"}
	}
	next := s.clone()
	next.SelectedTitle = strings.TrimSpace(title)
	return next, nil
}

// ConfirmAndPay locks in the title and moves the funnel to the payment step.
// A fresh attempt after a failed payment is allowed; a paid funnel is not.
func (s State) ConfirmAndPay(title string) (State, error) {
	if s.Step != StepTitleSelection && s.Step != StepPayment {
		return s, fmt.Errorf("%w: confirm and pay from %q", ErrInvalidTransition, s.Step)
	}
	if s.Lead == nil {
		return s, &domain.ValidationError{Message: "lead profile is required before payment"}
	}
	if s.PaymentStatus == PaymentPaid {
		return s, fmt.Errorf("%w: funnel already paid", ErrInvalidTransition)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return s, &domain.ValidationError{Field: "title", Message: "title must not be empty"}
	}
	next := s.clone()
	next.SelectedTitle = title
	next.Step = StepPayment
	next.PaymentStatus = PaymentPending
	return next, nil
}

// PaymentSucceeded marks the funnel paid and enters chapter writing at the
// first section. The selected title is immutable from here on.
func (s State) PaymentSucceeded(subscriptionID, thesisID string) (State, error) {
	if s.PaymentStatus == PaymentPaid {
		return s, fmt.Errorf("%w: payment already settled", ErrInvalidTransition)
	}
	next := s.clone()
	next.PaymentStatus = PaymentPaid
	next.SubscriptionID = subscriptionID
	next.ThesisID = thesisID
	next.Step = StepChapterWriting
	next.ActiveSection = domain.SectionBab1
	return next, nil
}

// PaymentFailure records a failed payment attempt, keeping the funnel on the
// payment step.
func (s State) PaymentFailure() (State, error) {
	if s.PaymentStatus == PaymentPaid {
		return s, fmt.Errorf("%w: payment already settled", ErrInvalidTransition)
	}
	next := s.clone()
	next.PaymentStatus = PaymentFailed
	next.Step = StepPayment
	return next, nil
}

// DenyAccess redirects an unpaid funnel back to the payment step. It is the
// chapter-writing "requestAccess" transition for paymentStatus != paid.
func (s State) DenyAccess() State {
	next := s.clone()
	next.Step = StepPayment
	return next
}

// Unlocked reports whether the section may be navigated to: the first section
// is always unlocked, every later one requires its predecessor completed.
func (s State) Unlocked(sec domain.Section) bool {
	i := sec.Index()
	if i < 0 {
		return false
	}
	if i == 0 {
		return true
	}
	prev := domain.SectionOrder()[i-1]
	return s.Sections[prev].IsComplete
}

// WithActiveSection switches navigation to the given section.
func (s State) WithActiveSection(sec domain.Section) State {
	next := s.clone()
	next.ActiveSection = sec
	return next
}

// WithGenerating sets the single-flight generation flag for the active section.
func (s State) WithGenerating(generating bool) State {
	next := s.clone()
	next.IsGenerating = generating
	return next
}

// WithSectionContent stores freshly generated content for a section and
// clears the generation flag.
func (s State) WithSectionContent(sec domain.Section, content, chapterID string) State {
	next := s.clone()
	rec := next.Sections[sec]
	rec.Content = content
	if chapterID != "" {
		rec.ChapterID = chapterID
	}
	next.Sections[sec] = rec
	next.IsGenerating = false
	return next
}

// WithSectionComplete marks a section complete and advances the active
// section to the next one in order, if any.
func (s State) WithSectionComplete(sec domain.Section) State {
	next := s.clone()
	rec := next.Sections[sec]
	rec.IsComplete = true
	next.Sections[sec] = rec
	if nextSec, ok := sec.Next(); ok {
		next.ActiveSection = nextSec
	}
	return next
}

// WithRevisionApplied replaces a section's content after a successful
// revision and decrements its quota by exactly one. Completion is untouched.
func (s State) WithRevisionApplied(sec domain.Section, content string) State {
	next := s.clone()
	rec := next.Sections[sec]
	rec.Content = content
	if rec.RevisionsRemaining > 0 {
		rec.RevisionsRemaining--
	}
	next.Sections[sec] = rec
	next.IsGenerating = false
	return next
}

// WithRevisionsAdded credits a top-up purchase to a section's quota. There is
// no ceiling; the quota may exceed its starting value.
func (s State) WithRevisionsAdded(sec domain.Section, n int) State {
	next := s.clone()
	rec := next.Sections[sec]
	rec.RevisionsRemaining += n
	next.Sections[sec] = rec
	return next
}

// WithChapterIDs attaches durable chapter row ids to the session's sections
// once the draft has been created in the store.
func (s State) WithChapterIDs(ids map[domain.Section]string) State {
	next := s.clone()
	for sec, id := range ids {
		rec := next.Sections[sec]
		rec.ChapterID = id
		next.Sections[sec] = rec
	}
	return next
}

// AllComplete reports whether every section has been confirmed complete.
func (s State) AllComplete() bool {
	for _, sec := range domain.SectionOrder() {
		if !s.Sections[sec].IsComplete {
			return false
		}
	}
	return true
}
