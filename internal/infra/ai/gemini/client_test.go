package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	appai "github.com/bryanwahyu/exploitsearch/internal/application/ai"
	domai "github.com/bryanwahyu/exploitsearch/internal/domain/ai"
)

type stubLLM struct {
	resp *llms.ContentResponse
	err  error
	got  []llms.MessageContent
}

func (s *stubLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.got = messages
	return s.resp, s.err
}

func TestGenerate(t *testing.T) {
	stub := &stubLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: "```html"},
		nil,
		{Content: "<p>x</p>"},
	}}}
	c := &Client{llm: stub, Model: defaultModel}

	segs, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"```html", "<p>x</p>"}, segs)

	require.Len(t, stub.got, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, stub.got[0].Role)
}

func TestGenerateNoChoices(t *testing.T) {
	c := &Client{llm: &stubLLM{resp: &llms.ContentResponse{}}}
	segs, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestGenerateBlockedCandidateIsNoData(t *testing.T) {
	// a safety-blocked candidate arrives as a choice with empty content
	c := &Client{llm: &stubLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: ""},
		{Content: "  \n"},
	}}}}

	segs, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Empty(t, segs)

	text, noData := appai.Normalize(segs)
	assert.True(t, noData)
	assert.Equal(t, appai.NoDataText, text)
}

func TestGenerateSkipsEmptyCandidates(t *testing.T) {
	c := &Client{llm: &stubLLM{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: ""},
		{Content: "<p>x</p>"},
	}}}}

	segs, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>x</p>"}, segs)
}

func TestGenerateErrors(t *testing.T) {
	c := &Client{llm: &stubLLM{err: errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")}}
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)

	c = &Client{llm: &stubLLM{err: errors.New("dial tcp: timeout")}}
	_, err = c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domai.ErrQuotaExceeded)
}
