// Package extract derives a short actionable description and a priority tier
// from raw inbound email content via a hosted language model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChiragAgg5k/email-ticket-automator/internal/ai"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/errs"
	"github.com/ChiragAgg5k/email-ticket-automator/internal/model"
)

const systemPrompt = `You are a support ticket triage assistant. You receive the raw content of an inbound support email (sender, subject, body, headers) and produce a JSON object with exactly two fields:

"description": a short summary of the issue. Strip greetings, pleasantries and signatures; keep actionable detail such as error messages, affected features and steps the customer already took.

"priority": exactly one of "high", "medium" or "low".
- high: outages, security incidents, data loss, payment failures.
- medium: feature requests, non-critical bugs, account issues.
- low: general questions, documentation requests.
Use the urgency and impact stated in the email as the deciding heuristic.

Respond with the JSON object only, no markdown and no extra text.`

// Result is the validated extraction output.
type Result struct {
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
}

// Extractor makes a single model call per inbound email. No retries.
type Extractor struct {
	gen ai.TextGenerator
}

func New(gen ai.TextGenerator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract runs the model over the serialized raw payload and strictly
// validates the response shape. Any non-conforming response is an
// errs.ErrSchemaValidation.
func (e *Extractor) Extract(ctx context.Context, rawPayload string) (*Result, error) {
	text, err := e.gen.GenerateText(ctx, systemPrompt, rawPayload)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	return parseResult(text)
}

func parseResult(text string) (*Result, error) {
	s := stripCodeFence(text)
	dec := json.NewDecoder(strings.NewReader(s))
	dec.DisallowUnknownFields()
	var r Result
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSchemaValidation, err)
	}
	// Exactly one JSON object, nothing after it.
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing content after object", errs.ErrSchemaValidation)
	}
	if strings.TrimSpace(r.Description) == "" {
		return nil, fmt.Errorf("%w: empty description", errs.ErrSchemaValidation)
	}
	if !model.ValidPriority(r.Priority) {
		return nil, fmt.Errorf("%w: invalid priority %q", errs.ErrSchemaValidation, r.Priority)
	}
	return &r, nil
}

// stripCodeFence tolerates models that wrap the object in a markdown fence
// despite the instruction not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
