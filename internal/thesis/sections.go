package thesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ashureev/skripsi-cepat/internal/content"
	"github.com/ashureev/skripsi-cepat/internal/domain"
	"github.com/ashureev/skripsi-cepat/internal/funnel"
)

// contextExcerptRunes bounds how much of each preceding section is fed back
// to the provider as cross-section context.
const contextExcerptRunes = 500

var citationPattern = regexp.MustCompile(`\(([^)]+,\s*\d{4})\)`)

// StartSection opens a section for the visitor. If the section already has
// content this is pure navigation with no gateway call; otherwise it
// generates the section with context assembled from all preceding sections.
func (s *Service) StartSection(ctx context.Context, userID string, sec domain.Section) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	if !sec.IsValid() {
		return state, &domain.ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", sec)}
	}
	if state.PaymentStatus != funnel.PaymentPaid {
		denied := state.DenyAccess()
		s.save(ctx, userID, denied)
		return denied, domain.ErrAccessDenied
	}
	if !state.Unlocked(sec) {
		return state, domain.ErrSectionLocked
	}

	// Already generated: navigation only. Idempotent, no network call.
	if state.Sections[sec].Content != "" {
		next := state.WithActiveSection(sec)
		s.save(ctx, userID, next)
		return next, nil
	}

	unlock, err := s.acquireFlight(userID, string(sec))
	if err != nil {
		return state, err
	}
	defer unlock()

	working := state.WithActiveSection(sec).WithGenerating(true)
	s.save(ctx, userID, working)
	s.progress.SectionStarted(userID, sec)

	text, err := s.gen.Generate(ctx, content.Request{
		Kind:         content.KindSectionGeneration,
		Lead:         derefLead(working.Lead),
		Title:        working.SelectedTitle,
		Section:      sec,
		PriorContext: assembleContext(working, sec),
	})
	if err != nil {
		failed := working.WithGenerating(false)
		s.save(ctx, userID, failed)
		s.progress.SectionFailed(userID, sec, err.Error())
		return failed, err
	}

	chapterID := s.persistSectionContent(ctx, working, sec, text)
	next := working.WithSectionContent(sec, text, chapterID)
	s.save(ctx, userID, next)
	s.saveSectionsSnapshot(ctx, next)
	s.progress.SectionFinished(userID, sec)
	slog.Info("Section generated", "user_id", userID, "section", string(sec), "chars", len(text))
	return next, nil
}

// CompleteSection confirms a section as done and advances the active section
// to the next one in order. Only the user confirms completion; generation
// never does.
func (s *Service) CompleteSection(ctx context.Context, userID string, sec domain.Section) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	if !sec.IsValid() {
		return state, &domain.ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", sec)}
	}
	if state.Sections[sec].Content == "" {
		return state, &domain.ValidationError{Field: "section", Message: "cannot complete a section without content"}
	}

	if chapterID := state.Sections[sec].ChapterID; chapterID != "" {
		if err := s.repo.CompleteChapter(ctx, chapterID); err != nil {
			slog.Error("Failed to persist section completion, state may drift",
				"user_id", userID, "chapter_id", chapterID, "error", err)
		}
	}

	next := state.WithSectionComplete(sec)
	s.save(ctx, userID, next)
	s.saveSectionsSnapshot(ctx, next)
	return next, nil
}

// ReviseSection regenerates a section's content from user feedback, charging
// one revision. Existing citations are extracted and passed as a
// preserve-list. Completion status is untouched.
func (s *Service) ReviseSection(ctx context.Context, userID string, sec domain.Section, feedback string) (funnel.State, error) {
	state := s.sessions.Load(ctx, userID)
	if !sec.IsValid() {
		return state, &domain.ValidationError{Field: "section", Message: fmt.Sprintf("unknown section %q", sec)}
	}
	if state.PaymentStatus != funnel.PaymentPaid {
		denied := state.DenyAccess()
		s.save(ctx, userID, denied)
		return denied, domain.ErrAccessDenied
	}
	if strings.TrimSpace(feedback) == "" {
		return state, &domain.ValidationError{Field: "feedback", Message: "feedback must not be empty"}
	}
	rec := state.Sections[sec]
	if rec.Content == "" {
		return state, &domain.ValidationError{Field: "section", Message: "cannot revise a section without content"}
	}
	if rec.RevisionsRemaining == 0 {
		return state, domain.ErrQuotaExhausted
	}

	unlock, err := s.acquireFlight(userID, string(sec))
	if err != nil {
		return state, err
	}
	defer unlock()

	working := state.WithActiveSection(sec).WithGenerating(true)
	s.save(ctx, userID, working)
	s.progress.SectionStarted(userID, sec)

	text, err := s.gen.Generate(ctx, content.Request{
		Kind:           content.KindSectionRevision,
		Lead:           derefLead(working.Lead),
		Title:          working.SelectedTitle,
		Section:        sec,
		CurrentContent: rec.Content,
		Feedback:       feedback,
		PreserveRefs:   ExtractCitations(rec.Content),
	})
	if err != nil {
		failed := working.WithGenerating(false)
		s.save(ctx, userID, failed)
		s.progress.SectionFailed(userID, sec, err.Error())
		return failed, err
	}

	// Charge the quota through the ledger. The ledger fails rather than
	// clamps at zero, backing up the state-level guard above.
	if rec.ChapterID != "" {
		if _, err := s.ledger.RecordRevision(ctx, rec.ChapterID, feedback, rec.Content, text); err != nil {
			failed := working.WithGenerating(false)
			s.save(ctx, userID, failed)
			s.progress.SectionFailed(userID, sec, err.Error())
			if errors.Is(err, domain.ErrQuotaExhausted) {
				return failed, domain.ErrQuotaExhausted
			}
			return failed, fmt.Errorf("charge revision: %w", err)
		}
		if err := s.repo.UpdateChapterContent(ctx, rec.ChapterID, text); err != nil {
			slog.Error("Failed to persist revised content, state may drift",
				"user_id", userID, "chapter_id", rec.ChapterID, "error", err)
		}
	}

	next := working.WithRevisionApplied(sec, text)
	s.save(ctx, userID, next)
	s.saveSectionsSnapshot(ctx, next)
	s.progress.SectionFinished(userID, sec)
	slog.Info("Section revised",
		"user_id", userID,
		"section", string(sec),
		"revisions_remaining", next.Sections[sec].RevisionsRemaining)
	return next, nil
}

// Download returns the draft title and the plain concatenation of every
// generated section.
func (s *Service) Download(ctx context.Context, userID string) (string, string, error) {
	state := s.sessions.Load(ctx, userID)
	if state.PaymentStatus != funnel.PaymentPaid {
		return "", "", domain.ErrAccessDenied
	}

	var b strings.Builder
	b.WriteString(state.SelectedTitle)
	b.WriteString("\n\n")
	for _, sec := range domain.SectionOrder() {
		text := state.Sections[sec].Content
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return state.SelectedTitle, b.String(), nil
}

// ExtractCitations pulls parenthesized "Name, Year" markers from section
// text, deduplicated in order of first appearance.
func ExtractCitations(text string) []string {
	matches := citationPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// assembleContext builds the bounded prior-context excerpt from every
// section preceding sec in the fixed order.
func assembleContext(state funnel.State, sec domain.Section) string {
	var parts []string
	for _, prev := range sec.Preceding() {
		text := state.Sections[prev].Content
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:\n%s", strings.ToUpper(string(prev)), excerpt(text, contextExcerptRunes)))
	}
	return strings.Join(parts, "\n\n")
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// persistSectionContent writes generated text to the durable chapter row if
// one exists, returning its id. Persistence failures never roll back content
// already shown to the visitor.
func (s *Service) persistSectionContent(ctx context.Context, state funnel.State, sec domain.Section, text string) string {
	chapterID := state.Sections[sec].ChapterID
	if chapterID == "" && state.ThesisID != "" {
		ch, err := s.repo.GetChapter(ctx, state.ThesisID, sec)
		if err != nil {
			slog.Warn("No durable chapter row for section", "thesis_id", state.ThesisID, "section", string(sec), "error", err)
			return ""
		}
		chapterID = ch.ID
	}
	if chapterID == "" {
		return ""
	}
	if err := s.repo.UpdateChapterContent(ctx, chapterID, text); err != nil {
		slog.Error("Failed to persist section content, state may drift",
			"chapter_id", chapterID, "section", string(sec), "error", err)
	}
	return chapterID
}

// saveSectionsSnapshot refreshes the denormalized sections map on the draft.
func (s *Service) saveSectionsSnapshot(ctx context.Context, state funnel.State) {
	if state.ThesisID == "" {
		return
	}
	blob, err := json.Marshal(state.Sections)
	if err != nil {
		slog.Error("Failed to marshal sections snapshot", "thesis_id", state.ThesisID, "error", err)
		return
	}
	if err := s.repo.SaveSectionsSnapshot(context.WithoutCancel(ctx), state.ThesisID, string(blob)); err != nil {
		slog.Error("Failed to save sections snapshot", "thesis_id", state.ThesisID, "error", err)
	}
}

func derefLead(lead *domain.LeadProfile) domain.LeadProfile {
	if lead == nil {
		return domain.LeadProfile{}
	}
	return *lead
}
