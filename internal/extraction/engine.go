// Package extraction sends email text to the model collaborator and turns
// the raw response into a validated ExtractionResponse, defending against
// fenced, malformed, or mis-shaped output.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docwalter/shutscan/internal/llm"
	"github.com/docwalter/shutscan/internal/prompts"
	"github.com/docwalter/shutscan/internal/types"
	"github.com/docwalter/shutscan/schemas"
)

// Engine performs one stateless model call per email.
type Engine struct {
	client llm.Client
	log    *zap.Logger
}

// NewEngine builds an extraction engine around a model client.
func NewEngine(client llm.Client, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{client: client, log: log}
}

// Instructions renders the fixed instruction block, parameterized only by
// the reference date so the model can resolve relative dates.
func Instructions(today time.Time) string {
	template := prompts.MustGet("extraction.json", "extract-job-offers")
	return prompts.Format(template, map[string]string{
		"CurrentDate": today.Format(types.DateLayout),
	})
}

// Extract submits one email body and parses the response. A nil response
// means the email was dropped; the outcome says why. Unparseable model
// output is the expected common case for non-opportunity emails and is
// deliberately not logged per-email.
func (e *Engine) Extract(ctx context.Context, body string, today time.Time) (*types.ExtractionResponse, types.Outcome) {
	if strings.TrimSpace(body) == "" {
		return nil, types.Skipped(types.SkipEmptyBody, "")
	}

	raw, err := e.client.Generate(ctx, Instructions(today), body)
	if err != nil {
		return nil, types.Failed("model call", err)
	}

	cleaned := StripFence(raw)

	if err := schemas.ValidateExtractionResponse(cleaned); err != nil {
		var perr *schemas.ParseError
		if errors.As(err, &perr) {
			// Silent skip: noisy non-JSON responses are common for the
			// majority of scanned mail.
			return nil, types.Skipped(types.SkipUnparseable, "")
		}
		return nil, types.Skipped(types.SkipSchema, err.Error())
	}

	var resp types.ExtractionResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, types.Skipped(types.SkipUnparseable, "")
	}

	if !resp.IsWorkOpportunity {
		return nil, types.Skipped(types.SkipNotOpportunity, "")
	}

	return &resp, types.Outcome{}
}

// StripFence removes one leading and one trailing code-fence line if
// present, tolerating surrounding whitespace. Only whole fence lines are
// removed; fenced content is otherwise untouched.
func StripFence(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
