package funnel

import (
	"encoding/json"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Marshal serializes the full funnel state for the session snapshot store.
func Marshal(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Restore rebuilds a state from a persisted snapshot blob. Malformed or empty
// blobs fall back silently to the default initial state; the second return
// reports whether the blob was usable.
//
// A snapshot written while a generation call was in flight still carries
// isGenerating=true; the request it described died with the previous page, so
// the flag is always reset on restore. Skipping this would leave the visitor
// behind a perpetual spinner.
func Restore(blob []byte) (State, bool) {
	if len(blob) == 0 {
		return New(), false
	}
	var s State
	if err := json.Unmarshal(blob, &s); err != nil {
		return New(), false
	}
	return normalize(s), true
}

// normalize repairs a deserialized state so downstream code can rely on its
// invariants: all six section keys present, a valid step and active section,
// and the stale in-flight flag cleared.
func normalize(s State) State {
	if s.Sections == nil {
		s.Sections = make(map[domain.Section]SectionState, len(domain.SectionOrder()))
	}
	for _, sec := range domain.SectionOrder() {
		if _, ok := s.Sections[sec]; !ok {
			s.Sections[sec] = SectionState{RevisionsRemaining: domain.InitialRevisionCount}
		}
	}
	switch s.Step {
	case StepLanding, StepLeadForm, StepTitleSelection, StepPayment, StepChapterWriting:
	default:
		s.Step = StepLanding
	}
	switch s.PaymentStatus {
	case PaymentPending, PaymentPaid, PaymentFailed:
	default:
		s.PaymentStatus = PaymentPending
	}
	if !s.ActiveSection.IsValid() {
		s.ActiveSection = domain.SectionBab1
	}
	s.IsGenerating = false
	return s
}
