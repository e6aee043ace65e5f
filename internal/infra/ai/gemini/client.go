package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
)

const defaultModel = "gemini-2.0-flash-001"

// generator is the subset of googleai.GoogleAI used here.
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Client talks to Google's Gemini models through langchaingo.
type Client struct {
	llm   generator
	Model string
}

// NewClient buat koneksi ke Gemini
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = defaultModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Client{llm: llm, Model: model}, nil
}

// Generate implements ai.Client. Each non-blank response choice is one
// segment. langchaingo already concatenates the parts of a candidate without
// a separator, so segments are joined with newlines only across candidates.
// A blocked candidate comes back as an empty choice and is dropped, which
// leaves no segments for an all-empty reply.
func (c *Client) Generate(ctx context.Context, prompt string) ([]string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := c.llm.GenerateContent(ctx, msgs, llms.WithModel(c.Model))
	if err != nil {
		if isQuota(err) {
			return nil, fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
		}
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	segments := make([]string, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		if ch == nil || strings.TrimSpace(ch.Content) == "" {
			continue
		}
		segments = append(segments, ch.Content)
	}
	return segments, nil
}

func isQuota(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
