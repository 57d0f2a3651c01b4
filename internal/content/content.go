// Package content provides the gateway to the external text-generation
// provider. The core never talks to the provider directly; it goes through
// the Generator interface with one of three request kinds.
package content

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ashureev/skripsi-cepat/internal/domain"
)

// Kind selects the prompt shaping for a generation request.
type Kind string

const (
	// KindTitleIdeation asks for ten thesis title proposals for a lead.
	KindTitleIdeation Kind = "title-ideation"
	// KindSectionGeneration asks for the full text of one section.
	KindSectionGeneration Kind = "section-generation"
	// KindSectionRevision asks for a revision of existing section text.
	KindSectionRevision Kind = "section-revision"
)

// Request carries everything the provider needs for one generation call.
// Which fields are read depends on Kind.
type Request struct {
	Kind Kind

	// Subject metadata.
	Lead  domain.LeadProfile
	Title string

	// Section generation.
	Section      domain.Section
	PriorContext string

	// Revision.
	CurrentContent string
	Feedback       string
	PreserveRefs   []string
}

// Generator produces text for a request or returns a typed *Error.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Code classifies a provider failure.
type Code string

const (
	// CodeRateLimited means the provider throttled us; retry later.
	CodeRateLimited Code = "rate_limited"
	// CodeInvalidConfig means the gateway is misconfigured (bad or missing key).
	CodeInvalidConfig Code = "invalid_config"
	// CodeProvider covers every other provider-side failure.
	CodeProvider Code = "provider_error"
)

// Error is a typed content-provider failure with a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("content provider (%s): %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("content provider (%s): %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

var numberedLine = regexp.MustCompile(`^\d+[.)]\s*`)

// ParseTitles extracts up to ten title proposals from the provider's raw
// response: one title per line, numbering stripped, blanks dropped.
func ParseTitles(raw string) []domain.TitleIdea {
	var ideas []domain.TitleIdea
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = numberedLine.ReplaceAllString(line, "")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		ideas = append(ideas, domain.TitleIdea{
			ID:    fmt.Sprintf("title-%d", len(ideas)),
			Title: line,
		})
		if len(ideas) == 10 {
			break
		}
	}
	return ideas
}
