package content

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator implements Generator against the OpenAI chat completions API.
type OpenAIGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI creates a content generator using the given API key and model.
func NewOpenAI(apiKey, model string) (*OpenAIGenerator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, &Error{Code: CodeInvalidConfig, Message: "OpenAI API key is not configured"}
	}
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}, nil
}

// Generate sends one chat completion request shaped for the request kind.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	system, user, maxTokens, err := buildPrompt(req)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{Code: CodeProvider, Message: "provider returned an empty completion"}
	}

	slog.Debug("Content generated",
		"kind", string(req.Kind),
		"section", string(req.Section),
		"chars", len(resp.Choices[0].Message.Content))
	return resp.Choices[0].Message.Content, nil
}

// mapOpenAIError translates transport/provider failures into the typed
// gateway taxonomy so callers never hang on an untyped error.
func mapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &Error{Code: CodeRateLimited, Message: "provider rate limit reached, try again shortly", cause: err}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &Error{Code: CodeInvalidConfig, Message: "provider rejected the configured credentials", cause: err}
		default:
			return &Error{Code: CodeProvider, Message: "provider request failed", cause: err}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Code: CodeProvider, Message: "provider request timed out", cause: err}
	}
	return &Error{Code: CodeProvider, Message: "could not reach the provider", cause: err}
}
