package funnel

import (
	"errors"
	"testing"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

func validLead() domain.LeadProfile {
	return domain.LeadProfile{
		Fakultas:  "Ekonomi",
		Jurusan:   "Manajemen",
		Peminatan: "Pemasaran Digital",
		Email:     "budi@example.com",
	}
}

func titleIdeas(n int) []domain.TitleIdea {
	ideas := make([]domain.TitleIdea, n)
	for i := range ideas {
		ideas[i] = domain.TitleIdea{ID: "title-1", Title: "Judul"}
	}
	return ideas
}

// advanceToPaid walks a fresh state through the happy path up to payment.
func advanceToPaid(t *testing.T) State {
	t.Helper()
	s := New()
	s, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	s, err = s.SubmitLead(validLead(), titleIdeas(3))
	if err != nil {
		t.Fatalf("SubmitLead: %v", err)
	}
	s, err = s.ConfirmAndPay("Pengaruh Media Sosial terhadap UMKM")
	if err != nil {
		t.Fatalf("ConfirmAndPay: %v", err)
	}
	s, err = s.PaymentSucceeded("sub-1", "thesis-1")
	if err != nil {
		t.Fatalf("PaymentSucceeded: %v", err)
	}
	return s
}

func TestNewState(t *testing.T) {
	s := New()

	if s.Step != StepLanding {
		t.Errorf("Expected landing step, got %q", s.Step)
	}
	if s.PaymentStatus != PaymentPending {
		t.Errorf("Expected pending payment, got %q", s.PaymentStatus)
	}
	if s.ActiveSection != domain.SectionBab1 {
		t.Errorf("Expected bab-1 active, got %q", s.ActiveSection)
	}
	if len(s.Sections) != len(domain.SectionOrder()) {
		t.Fatalf("Expected %d sections, got %d", len(domain.SectionOrder()), len(s.Sections))
	}
	for sec, rec := range s.Sections {
		if rec.RevisionsRemaining != domain.InitialRevisionCount {
			t.Errorf("Section %q: expected %d revisions, got %d", sec, domain.InitialRevisionCount, rec.RevisionsRemaining)
		}
	}
}

func TestHappyPath(t *testing.T) {
	s := advanceToPaid(t)

	if s.Step != StepChapterWriting {
		t.Errorf("Expected chapter-writing step, got %q", s.Step)
	}
	if s.PaymentStatus != PaymentPaid {
		t.Errorf("Expected paid, got %q", s.PaymentStatus)
	}
	if s.SubscriptionID != "sub-1" || s.ThesisID != "thesis-1" {
		t.Errorf("Expected ids recorded, got sub=%q thesis=%q", s.SubscriptionID, s.ThesisID)
	}
	if s.ActiveSection != domain.SectionBab1 {
		t.Errorf("Expected bab-1 active after payment, got %q", s.ActiveSection)
	}
}

func TestStartOnlyFromLanding(t *testing.T) {
	s := New()
	s, _ = s.Start()

	if _, err := s.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestSubmitLeadValidation(t *testing.T) {
	s := New()
	s, _ = s.Start()

	lead := validLead()
	lead.Email = "not-an-email"
	if _, err := s.SubmitLead(lead, nil); err == nil {
		t.Error("Expected validation error for bad email")
	}

	lead = validLead()
	lead.Fakultas = ""
	if _, err := s.SubmitLead(lead, nil); err == nil {
		t.Error("Expected validation error for empty fakultas")
	}
}

func TestSubmitLeadWrongStep(t *testing.T) {
	s := New()
	if _, err := s.SubmitLead(validLead(), nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition from landing, got %v", err)
	}
}

func TestSelectTitle(t *testing.T) {
	s := New()
	s, _ = s.Start()
	s, _ = s.SubmitLead(validLead(), titleIdeas(3))

	s, err := s.SelectTitle("  Judul Pilihan  ")
	if err != nil {
		t.Fatalf("SelectTitle: %v", err)
	}
	if s.SelectedTitle != "Judul Pilihan" {
		t.Errorf("Expected trimmed title, got %q", s.SelectedTitle)
	}
	if s.Step != StepTitleSelection {
		t.Errorf("SelectTitle must not advance the step, got %q", s.Step)
	}

	if _, err := s.SelectTitle("   "); err == nil {
		t.Error("Expected validation error for blank title")
	}
}

func TestConfirmAndPayRequiresLead(t *testing.T) {
	s := State{Step: StepTitleSelection, PaymentStatus: PaymentPending, Sections: New().Sections}
	if _, err := s.ConfirmAndPay("Judul"); err == nil {
		t.Error("Expected error without a lead profile")
	}
}

func TestPaymentFailureAllowsRetry(t *testing.T) {
	s := New()
	s, _ = s.Start()
	s, _ = s.SubmitLead(validLead(), titleIdeas(3))
	s, _ = s.ConfirmAndPay("Judul A")

	s, err := s.PaymentFailure()
	if err != nil {
		t.Fatalf("PaymentFailure: %v", err)
	}
	if s.PaymentStatus != PaymentFailed || s.Step != StepPayment {
		t.Errorf("Expected failed on payment step, got %q/%q", s.PaymentStatus, s.Step)
	}

	// A fresh attempt resets to pending.
	s, err = s.ConfirmAndPay("Judul B")
	if err != nil {
		t.Fatalf("Retry ConfirmAndPay: %v", err)
	}
	if s.PaymentStatus != PaymentPending {
		t.Errorf("Expected pending after retry, got %q", s.PaymentStatus)
	}
	if s.SelectedTitle != "Judul B" {
		t.Errorf("Expected retry to re-lock the title, got %q", s.SelectedTitle)
	}
}

func TestPaidIsTerminal(t *testing.T) {
	s := advanceToPaid(t)

	if _, err := s.ConfirmAndPay("Another"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on paid funnel, got %v", err)
	}
	if _, err := s.PaymentSucceeded("sub-2", "thesis-2"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on double settle, got %v", err)
	}
	if _, err := s.PaymentFailure(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on failure after paid, got %v", err)
	}
}

func TestUnlockedSequential(t *testing.T) {
	s := advanceToPaid(t)

	if !s.Unlocked(domain.SectionBab1) {
		t.Error("bab-1 must always be unlocked")
	}
	if s.Unlocked(domain.SectionBab2) {
		t.Error("bab-2 must be locked before bab-1 completes")
	}
	if s.Unlocked("bab-9") {
		t.Error("Unknown section must never be unlocked")
	}

	s = s.WithSectionContent(domain.SectionBab1, "isi", "ch-1")
	s = s.WithSectionComplete(domain.SectionBab1)

	if !s.Unlocked(domain.SectionBab2) {
		t.Error("bab-2 must unlock after bab-1 completes")
	}
	if s.Unlocked(domain.SectionBab3) {
		t.Error("bab-3 must stay locked")
	}
	if s.ActiveSection != domain.SectionBab2 {
		t.Errorf("Expected active section to advance, got %q", s.ActiveSection)
	}
}

func TestWithRevisionApplied(t *testing.T) {
	s := advanceToPaid(t)
	s = s.WithSectionContent(domain.SectionBab1, "v1", "ch-1")

	s = s.WithRevisionApplied(domain.SectionBab1, "v2")
	rec := s.Sections[domain.SectionBab1]
	if rec.Content != "v2" {
		t.Errorf("Expected revised content, got %q", rec.Content)
	}
	if rec.RevisionsRemaining != domain.InitialRevisionCount-1 {
		t.Errorf("Expected %d revisions, got %d", domain.InitialRevisionCount-1, rec.RevisionsRemaining)
	}
	if rec.IsComplete {
		t.Error("Revision must not touch completion")
	}
	if s.IsGenerating {
		t.Error("Revision must clear the generating flag")
	}
}

func TestWithRevisionsAddedNoCeiling(t *testing.T) {
	s := advanceToPaid(t)
	s = s.WithRevisionsAdded(domain.SectionBab2, domain.TopUpRevisionCount)

	if got := s.Sections[domain.SectionBab2].RevisionsRemaining; got != domain.InitialRevisionCount+domain.TopUpRevisionCount {
		t.Errorf("Expected quota above starting value, got %d", got)
	}
}

func TestAllComplete(t *testing.T) {
	s := advanceToPaid(t)
	if s.AllComplete() {
		t.Error("Fresh paid funnel must not be complete")
	}
	for _, sec := range domain.SectionOrder() {
		s = s.WithSectionContent(sec, "isi", "")
		s = s.WithSectionComplete(sec)
	}
	if !s.AllComplete() {
		t.Error("Expected all sections complete")
	}
}

func TestTransitionsDoNotAliasReceiver(t *testing.T) {
	s := advanceToPaid(t)
	next := s.WithSectionContent(domain.SectionBab1, "isi", "ch-1")

	if s.Sections[domain.SectionBab1].Content != "" {
		t.Error("Transition mutated the receiver's sections map")
	}
	if next.Sections[domain.SectionBab1].Content != "isi" {
		t.Error("Transition result missing the write")
	}
}
