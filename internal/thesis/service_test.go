package thesis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
	"github.com/ashureev/skripsi-cepat/internal/ledger"
)

const testUser = "anon_0123456789abcdef0123456789abcdef"

type fixture struct {
	repo     *fakeRepo
	gen      *fakeGenerator
	gateway  *fakeGateway
	progress *fakeProgress
	svc      *Service
}

func newFixture(simulated bool) *fixture {
	repo := newFakeRepo()
	gen := newFakeGenerator()
	gateway := &fakeGateway{simulated: simulated}
	progress := &fakeProgress{}
	svc := NewService(repo, funnel.NewManager(repo), gen, ledger.New(repo), gateway, progress, Prices{
		Subscription:  399000,
		RevisionTopUp: 99000,
	})
	return &fixture{repo: repo, gen: gen, gateway: gateway, progress: progress, svc: svc}
}

func testLead() domain.LeadProfile {
	return domain.LeadProfile{
		Fakultas:  "Ekonomi",
		Jurusan:   "Manajemen",
		Peminatan: "Pemasaran Digital",
		Email:     "budi@example.com",
	}
}

// advanceToLeadForm walks the visitor off the landing page.
func (fx *fixture) advanceToLeadForm(t *testing.T) {
	t.Helper()
	if _, err := fx.svc.StartFunnel(context.Background(), testUser); err != nil {
		t.Fatalf("StartFunnel: %v", err)
	}
}

// advanceToCheckout runs lead capture and title selection.
func (fx *fixture) advanceToCheckout(t *testing.T) {
	t.Helper()
	fx.advanceToLeadForm(t)
	if _, err := fx.svc.SubmitLead(context.Background(), testUser, testLead()); err != nil {
		t.Fatalf("SubmitLead: %v", err)
	}
	if _, err := fx.svc.SelectTitle(context.Background(), testUser, "Judul Satu"); err != nil {
		t.Fatalf("SelectTitle: %v", err)
	}
}

// advanceToPaid checks out against the simulated gateway.
func (fx *fixture) advanceToPaid(t *testing.T) *CheckoutResult {
	t.Helper()
	fx.advanceToCheckout(t)
	result, err := fx.svc.Checkout(context.Background(), testUser, "Judul Satu")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	return result
}

func TestSubmitLeadGeneratesTitles(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToLeadForm(t)

	state, err := fx.svc.SubmitLead(context.Background(), testUser, testLead())
	if err != nil {
		t.Fatalf("SubmitLead: %v", err)
	}
	if state.Step != funnel.StepTitleSelection {
		t.Errorf("Expected title-selection step, got %q", state.Step)
	}
	if len(state.TitleCandidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(state.TitleCandidates))
	}
	if state.TitleCandidates[0].Title != "Judul Satu" {
		t.Errorf("Expected first candidate, got %q", state.TitleCandidates[0].Title)
	}

	// Lead is mirrored to the durable user row.
	user, _ := fx.repo.GetUser(context.Background(), testUser)
	if user == nil || user.Email != "budi@example.com" || user.Fakultas != "Ekonomi" {
		t.Errorf("Expected persisted lead profile, got %+v", user)
	}
}

func TestSubmitLeadGenerationFailureLeavesStateUntouched(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToLeadForm(t)
	fx.gen.fail = &content.Error{Code: content.CodeRateLimited, Message: "throttled"}

	_, err := fx.svc.SubmitLead(context.Background(), testUser, testLead())
	var ce *content.Error
	if !errors.As(err, &ce) || ce.Code != content.CodeRateLimited {
		t.Fatalf("Expected rate-limited content error, got %v", err)
	}

	state := fx.svc.State(context.Background(), testUser)
	if state.Step != funnel.StepLeadForm {
		t.Errorf("Failed generation must not advance the funnel, got %q", state.Step)
	}
}

func TestSimulatedCheckoutSettlesImmediately(t *testing.T) {
	fx := newFixture(true)
	result := fx.advanceToPaid(t)

	if !result.Simulated {
		t.Error("Expected simulated checkout")
	}
	if result.State.PaymentStatus != funnel.PaymentPaid {
		t.Errorf("Expected paid, got %q", result.State.PaymentStatus)
	}
	if result.State.Step != funnel.StepChapterWriting {
		t.Errorf("Expected chapter-writing step, got %q", result.State.Step)
	}

	// Order settled, subscription active, draft plus six chapters created.
	order, err := fx.repo.GetOrder(context.Background(), result.OrderID)
	if err != nil || order.Status != domain.OrderSettled {
		t.Errorf("Expected settled order, got %+v (%v)", order, err)
	}
	sub, _ := fx.repo.GetLatestSubscription(context.Background(), testUser)
	if sub == nil || sub.Status != domain.SubscriptionActive {
		t.Errorf("Expected active subscription, got %+v", sub)
	}
	draft, _ := fx.repo.GetThesisByUser(context.Background(), testUser)
	if draft == nil || draft.Title != "Judul Satu" {
		t.Fatalf("Expected thesis draft, got %+v", draft)
	}
	for _, sec := range domain.SectionOrder() {
		ch, err := fx.repo.GetChapter(context.Background(), draft.ID, sec)
		if err != nil {
			t.Fatalf("Missing chapter row for %q: %v", sec, err)
		}
		if ch.RevisionCount != domain.InitialRevisionCount {
			t.Errorf("Chapter %q: expected %d revisions, got %d", sec, domain.InitialRevisionCount, ch.RevisionCount)
		}
		if result.State.Sections[sec].ChapterID != ch.ID {
			t.Errorf("Chapter %q: session must carry the durable row id", sec)
		}
	}
}

func TestCheckoutFailsWhenOrderCannotBeRecorded(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToCheckout(t)
	fx.repo.failInsertOrder = true

	if _, err := fx.svc.Checkout(context.Background(), testUser, "Judul Satu"); err == nil {
		t.Fatal("Expected checkout to fail without an order row")
	}
	state := fx.svc.State(context.Background(), testUser)
	if state.PaymentStatus == funnel.PaymentPaid {
		t.Error("Funnel must not be paid without an order")
	}
}

func TestStartSectionGeneratesOnce(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)

	state, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1)
	if err != nil {
		t.Fatalf("StartSection: %v", err)
	}
	if got := state.Sections[domain.SectionBab1].Content; got != "isi bab-1" {
		t.Errorf("Expected generated content, got %q", got)
	}
	if state.IsGenerating {
		t.Error("Generating flag must be cleared")
	}
	if n := fx.gen.callCount(content.KindSectionGeneration); n != 1 {
		t.Fatalf("Expected 1 generation call, got %d", n)
	}

	// Re-entering the section is navigation, not regeneration.
	state, err = fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1)
	if err != nil {
		t.Fatalf("StartSection again: %v", err)
	}
	if n := fx.gen.callCount(content.KindSectionGeneration); n != 1 {
		t.Errorf("Re-entry must not call the gateway, got %d calls", n)
	}
	if state.ActiveSection != domain.SectionBab1 {
		t.Errorf("Expected bab-1 active, got %q", state.ActiveSection)
	}

	// Content is persisted to the durable chapter row.
	if ch := fx.repo.chapterFor(testUser, domain.SectionBab1); ch == nil || ch.Content != "isi bab-1" {
		t.Errorf("Expected durable chapter content, got %+v", ch)
	}

	events := fx.progress.all()
	if len(events) != 2 || events[0] != "started:bab-1" || events[1] != "finished:bab-1" {
		t.Errorf("Unexpected progress events: %v", events)
	}
}

func TestStartSectionUnpaidDeniesAccess(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToCheckout(t)

	state, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1)
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("Expected ErrAccessDenied, got %v", err)
	}
	if state.Step != funnel.StepPayment {
		t.Errorf("Expected redirect to payment step, got %q", state.Step)
	}
	if fx.gen.callCount(content.KindSectionGeneration) != 0 {
		t.Error("Denied access must not call the gateway")
	}
}

func TestStartSectionLockedOrder(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)

	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab2); !errors.Is(err, domain.ErrSectionLocked) {
		t.Fatalf("Expected ErrSectionLocked, got %v", err)
	}

	// Completing bab-1 unlocks bab-2 and feeds its text as prior context.
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection bab-1: %v", err)
	}
	if _, err := fx.svc.CompleteSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("CompleteSection: %v", err)
	}
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab2); err != nil {
		t.Fatalf("StartSection bab-2: %v", err)
	}

	last := fx.gen.lastCall()
	if last.Section != domain.SectionBab2 {
		t.Fatalf("Expected bab-2 generation, got %q", last.Section)
	}
	if !strings.Contains(last.PriorContext, "isi bab-1") {
		t.Errorf("Expected prior context to carry bab-1 text, got %q", last.PriorContext)
	}
}

func TestStartSectionFailureClearsGeneratingFlag(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)
	fx.gen.fail = &content.Error{Code: content.CodeProvider, Message: "boom"}

	state, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1)
	if err == nil {
		t.Fatal("Expected generation failure")
	}
	if state.IsGenerating {
		t.Error("Failure must clear the generating flag")
	}
	if state.Sections[domain.SectionBab1].Content != "" {
		t.Error("Failure must not leave partial content")
	}

	events := fx.progress.all()
	if len(events) != 2 || events[1] != "failed:bab-1" {
		t.Errorf("Expected failure event, got %v", events)
	}

	// Recovery: the next attempt succeeds.
	fx.gen.fail = nil
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("Retry after failure: %v", err)
	}
}

func TestCompleteSectionRequiresContent(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)

	var ve *domain.ValidationError
	if _, err := fx.svc.CompleteSection(context.Background(), testUser, domain.SectionBab1); !errors.As(err, &ve) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestReviseSectionChargesQuota(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection: %v", err)
	}

	state, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "tambahkan teori")
	if err != nil {
		t.Fatalf("ReviseSection: %v", err)
	}
	rec := state.Sections[domain.SectionBab1]
	if rec.Content != "revisi bab-1" {
		t.Errorf("Expected revised content, got %q", rec.Content)
	}
	if rec.RevisionsRemaining != domain.InitialRevisionCount-1 {
		t.Errorf("Expected %d revisions, got %d", domain.InitialRevisionCount-1, rec.RevisionsRemaining)
	}

	// Durable side: chapter content updated, quota charged, history written.
	ch := fx.repo.chapterFor(testUser, domain.SectionBab1)
	if ch.Content != "revisi bab-1" {
		t.Errorf("Expected durable revised content, got %q", ch.Content)
	}
	if ch.RevisionCount != domain.InitialRevisionCount-1 {
		t.Errorf("Expected durable quota %d, got %d", domain.InitialRevisionCount-1, ch.RevisionCount)
	}
	records, _ := fx.repo.ListRevisionRecords(context.Background(), ch.ID)
	if len(records) != 1 || records[0].Feedback != "tambahkan teori" {
		t.Errorf("Expected one history entry, got %+v", records)
	}
}

func TestReviseSectionValidation(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)

	var ve *domain.ValidationError
	if _, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "feedback"); !errors.As(err, &ve) {
		t.Errorf("Expected validation error without content, got %v", err)
	}

	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection: %v", err)
	}
	if _, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "   "); !errors.As(err, &ve) {
		t.Errorf("Expected validation error for blank feedback, got %v", err)
	}
}

func TestReviseSectionQuotaExhausted(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection: %v", err)
	}

	for i := 0; i < domain.InitialRevisionCount; i++ {
		if _, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "lagi"); err != nil {
			t.Fatalf("Revision %d: %v", i+1, err)
		}
	}

	genCalls := fx.gen.callCount(content.KindSectionRevision)
	_, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "lagi")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("Expected ErrQuotaExhausted, got %v", err)
	}
	if fx.gen.callCount(content.KindSectionRevision) != genCalls {
		t.Error("Exhausted quota must fail before calling the gateway")
	}

	// A top-up restores the ability to revise.
	result, err := fx.svc.TopUpCheckout(context.Background(), testUser, domain.SectionBab1)
	if err != nil {
		t.Fatalf("TopUpCheckout: %v", err)
	}
	if result.State.Sections[domain.SectionBab1].RevisionsRemaining != domain.TopUpRevisionCount {
		t.Errorf("Expected %d revisions after top-up, got %d",
			domain.TopUpRevisionCount, result.State.Sections[domain.SectionBab1].RevisionsRemaining)
	}
	if _, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "sekali lagi"); err != nil {
		t.Fatalf("Revision after top-up: %v", err)
	}
}

func TestLedgerBacksUpSessionQuota(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection: %v", err)
	}

	// Drain the durable quota behind the session's back.
	ch := fx.repo.chapterFor(testUser, domain.SectionBab1)
	for {
		if _, err := fx.repo.DecrementRevisionCount(context.Background(), ch.ID); err != nil {
			break
		}
	}

	_, err := fx.svc.ReviseSection(context.Background(), testUser, domain.SectionBab1, "perbaiki")
	if !errors.Is(err, domain.ErrQuotaExhausted) {
		t.Fatalf("Expected ledger-backed ErrQuotaExhausted, got %v", err)
	}
}

func TestTopUpCheckoutRequiresPaidFunnel(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToCheckout(t)

	if _, err := fx.svc.TopUpCheckout(context.Background(), testUser, domain.SectionBab1); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToPaid(t)
	if _, err := fx.svc.StartSection(context.Background(), testUser, domain.SectionBab1); err != nil {
		t.Fatalf("StartSection: %v", err)
	}

	title, body, err := fx.svc.Download(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if title != "Judul Satu" {
		t.Errorf("Expected title, got %q", title)
	}
	if !strings.Contains(body, "Judul Satu") || !strings.Contains(body, "isi bab-1") {
		t.Errorf("Download body missing content: %q", body)
	}
	if strings.Contains(body, "isi bab-2") {
		t.Error("Download must only include generated sections")
	}
}

func TestDownloadUnpaid(t *testing.T) {
	fx := newFixture(true)
	fx.advanceToCheckout(t)

	if _, _, err := fx.svc.Download(context.Background(), testUser); !errors.Is(err, domain.ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}

func TestExtractCitations(t *testing.T) {
	text := `Menurut (Rahmat, 2021) pemasaran digital tumbuh pesat.
Hal ini didukung (Sari, 2019) dan kembali oleh (Rahmat, 2021).
Bukan sitasi: (lihat lampiran) dan (2021).`

	got := ExtractCitations(text)
	want := []string{"(Rahmat, 2021)", "(Sari, 2019)"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Citation %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if got := ExtractCitations("tanpa sitasi sama sekali"); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}
