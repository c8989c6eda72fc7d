package narrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/anthropic"
	"github.com/bluenorth/prospect-cli/pkg/perplexity"
)

type fakeAnthropic struct {
	lastReq anthropic.MessageRequest
	resp    *anthropic.MessageResponse
	err     error
}

func (f *fakeAnthropic) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakePerplexity struct {
	lastReq perplexity.ChatCompletionRequest
	resp    *perplexity.ChatCompletionResponse
	err     error
	calls   int
}

func (f *fakePerplexity) ChatCompletion(_ context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testRecord() *model.ContactRecord {
	return &model.ContactRecord{
		Company: "Acme Retail BV",
		Website: "https://acme-retail.nl",
		GeneralContact: model.GeneralContact{
			Email: "info@acme-retail.nl",
			Phone: "+31 30 123 4567",
		},
		DecisionMakers: []model.Person{
			{Name: "Jan de Vries", Title: "CTO", Confidence: model.ConfidenceHigh},
		},
		Notes: "Found 2 contact points and 1 decision maker.",
	}
}

func TestSummary(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "  Approach Jan de Vries directly.  "}},
		Usage:   anthropic.TokenUsage{InputTokens: 200, OutputTokens: 40},
	}}
	n := New(fake, nil)

	know := &model.KnowledgeContext{SourceCount: 5, TopSkills: []string{"bigquery", "looker"}}
	text, usage, err := n.Summary(context.Background(), testRecord(), know)
	require.NoError(t, err)
	assert.Equal(t, "Approach Jan de Vries directly.", text)
	assert.Equal(t, int64(200), usage.InputTokens)
	assert.Equal(t, int64(40), usage.OutputTokens)

	// The fact sheet carries the extracted facts and hiring signals.
	prompt := fake.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "Acme Retail BV")
	assert.Contains(t, prompt, "https://acme-retail.nl")
	assert.Contains(t, prompt, "Jan de Vries (CTO)")
	assert.Contains(t, prompt, "5 job postings")
	assert.Contains(t, prompt, "bigquery, looker")

	require.NotEmpty(t, fake.lastReq.System)
	require.NotNil(t, fake.lastReq.Temperature)
	assert.InDelta(t, 0.2, *fake.lastReq.Temperature, 0.001)
}

func TestSummary_NoClient(t *testing.T) {
	n := New(nil, nil)
	text, usage, err := n.Summary(context.Background(), testRecord(), nil)
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, usage.InputTokens)
}

func TestSummary_NilRecord(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{}}
	n := New(fake, nil)
	text, _, err := n.Summary(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestSummary_Error(t *testing.T) {
	fake := &fakeAnthropic{err: assert.AnError}
	n := New(fake, nil)

	_, _, err := n.Summary(context.Background(), testRecord(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narrate: summary")
}

func TestSummary_ModelOption(t *testing.T) {
	fake := &fakeAnthropic{resp: &anthropic.MessageResponse{}}
	n := New(fake, nil, WithModel("claude-sonnet-4-5-20250929"), WithMaxTokens(256))

	_, _, err := n.Summary(context.Background(), testRecord(), nil)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5-20250929", fake.lastReq.Model)
	assert.Equal(t, int64(256), fake.lastReq.MaxTokens)
	assert.Equal(t, "claude-sonnet-4-5-20250929", n.Model())
}

func TestBrief(t *testing.T) {
	fake := &fakePerplexity{resp: &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Content: "Acme is a mid-size Dutch retailer."}}},
	}}
	n := New(nil, fake)

	brief, err := n.Brief(context.Background(), model.CompanyIdentity{Name: "Acme Retail BV", Location: "nl"})
	require.NoError(t, err)
	assert.Equal(t, "Acme is a mid-size Dutch retailer.", brief)
	assert.Equal(t, 1, fake.calls)

	prompt := fake.lastReq.Messages[0].Content
	assert.Contains(t, prompt, `"Acme Retail BV"`)
	assert.Contains(t, prompt, "(nl)")
}

func TestBrief_NoClient(t *testing.T) {
	n := New(nil, nil)
	brief, err := n.Brief(context.Background(), model.CompanyIdentity{Name: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, brief)
}

func TestBrief_Error(t *testing.T) {
	fake := &fakePerplexity{err: assert.AnError}
	n := New(nil, fake)

	_, err := n.Brief(context.Background(), model.CompanyIdentity{Name: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "narrate: brief")
}

func TestFactSheet_OmitsEmptyFields(t *testing.T) {
	rec := &model.ContactRecord{Company: "Bare Co"}
	sheet := factSheet(rec, nil)
	assert.Contains(t, sheet, "Company: Bare Co")
	assert.NotContains(t, sheet, "Website:")
	assert.NotContains(t, sheet, "Decision makers:")
	assert.NotContains(t, sheet, "Hiring signals:")
}
