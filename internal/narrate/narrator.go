// Package narrate produces the advisory AI text attached to contact records.
// Narrative output never feeds factual fields; it is commentary on facts the
// pipeline already extracted.
package narrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluenorth/prospect-cli/internal/model"
	"github.com/bluenorth/prospect-cli/pkg/anthropic"
	"github.com/bluenorth/prospect-cli/pkg/perplexity"
)

const summarySystemPrompt = `You are a sales research assistant. You receive a fact sheet about a company: its website, contact points, and named decision makers, plus hiring signals from job postings. Write a short narrative (2-4 sentences) advising how to approach this company. Mention the most relevant contact person if one exists. Never invent names, emails, phone numbers, or addresses that are not in the fact sheet. If the fact sheet is thin, say so plainly.`

const briefPromptTemplate = `Give a concise market brief on the company "%s"%s: what they do, their market position, and any recent news relevant to a business-intelligence vendor approaching them. Maximum 4 sentences. If you cannot find reliable information about this specific company, say so.`

// Narrator generates summaries and research briefs for discovered companies.
type Narrator struct {
	anthropic  anthropic.Client
	perplexity perplexity.Client
	model      string
	maxTokens  int64
}

// Option configures the Narrator.
type Option func(*Narrator)

// WithModel overrides the default Anthropic model.
func WithModel(model string) Option {
	return func(n *Narrator) {
		n.model = model
	}
}

// WithMaxTokens caps summary length.
func WithMaxTokens(max int64) Option {
	return func(n *Narrator) {
		n.maxTokens = max
	}
}

// New creates a Narrator. Either client may be nil; the corresponding
// operation then returns empty output without error.
func New(aiClient anthropic.Client, pplxClient perplexity.Client, opts ...Option) *Narrator {
	n := &Narrator{
		anthropic:  aiClient,
		perplexity: pplxClient,
		model:      "claude-haiku-4-5-20251001",
		maxTokens:  512,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Model returns the Anthropic model the Narrator summarizes with.
func (n *Narrator) Model() string {
	return n.model
}

// Summary writes an advisory approach narrative from the contact record and
// knowledge context. Returns empty output when no Anthropic client is
// configured.
func (n *Narrator) Summary(ctx context.Context, rec *model.ContactRecord, know *model.KnowledgeContext) (string, anthropic.TokenUsage, error) {
	var usage anthropic.TokenUsage
	if n.anthropic == nil || rec == nil {
		return "", usage, nil
	}

	temp := 0.2
	resp, err := n.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       n.model,
		MaxTokens:   n.maxTokens,
		System:      anthropic.BuildCachedSystemBlocks(summarySystemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: factSheet(rec, know)}},
		Temperature: &temp,
	})
	if err != nil {
		return "", usage, eris.Wrap(err, "narrate: summary")
	}

	usage = resp.Usage
	usage.LogCost(n.model, "narrate")

	return strings.TrimSpace(resp.Text()), usage, nil
}

// Brief fetches a short web-grounded market brief for the company. Returns
// empty output when no Perplexity client is configured.
func (n *Narrator) Brief(ctx context.Context, id model.CompanyIdentity) (string, error) {
	if n.perplexity == nil {
		return "", nil
	}

	var location string
	if id.Location != "" {
		location = fmt.Sprintf(" (%s)", id.Location)
	}

	temp := 0.2
	maxTokens := 500
	resp, err := n.perplexity.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "user", Content: fmt.Sprintf(briefPromptTemplate, id.Name, location)},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return "", eris.Wrap(err, "narrate: brief")
	}

	answer := strings.TrimSpace(resp.Answer())
	if answer == "" {
		zap.L().Debug("narrate: empty brief", zap.String("company", id.Name))
	}
	return answer, nil
}

// factSheet renders the extracted facts into the prompt body. Only facts
// present in the record appear; the model is never shown placeholders it
// could echo back.
func factSheet(rec *model.ContactRecord, know *model.KnowledgeContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", rec.Company)
	if rec.Website != "" {
		fmt.Fprintf(&b, "Website: %s\n", rec.Website)
	}
	if rec.GeneralContact.Email != "" {
		fmt.Fprintf(&b, "General email: %s\n", rec.GeneralContact.Email)
	}
	if rec.GeneralContact.Phone != "" {
		fmt.Fprintf(&b, "General phone: %s\n", rec.GeneralContact.Phone)
	}
	if rec.GeneralContact.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", rec.GeneralContact.Address)
	}
	if len(rec.DecisionMakers) > 0 {
		b.WriteString("Decision makers:\n")
		for _, p := range rec.DecisionMakers {
			if p.Title != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", p.Name, p.Title)
			} else {
				fmt.Fprintf(&b, "- %s\n", p.Name)
			}
		}
	}
	if rec.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", rec.Description)
	}
	if know != nil && know.SourceCount > 0 {
		fmt.Fprintf(&b, "Hiring signals: %d job postings on record\n", know.SourceCount)
		if len(know.TopSkills) > 0 {
			fmt.Fprintf(&b, "Skills sought: %s\n", strings.Join(know.TopSkills, ", "))
		}
	}
	if rec.Notes != "" {
		fmt.Fprintf(&b, "Research notes: %s\n", rec.Notes)
	}
	return b.String()
}
