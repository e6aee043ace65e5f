package ai

import "context"

// Client is the text generation service. Generate returns the raw text
// segments of one response; an empty slice means the service answered
// without content.
type Client interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}
