package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/prompts"
)

// verdictSchema constrains the JSON verdict the model is asked to return.
// The score range is deliberately not enforced here: out-of-range values are
// the loop's coercion concern, not a parse failure.
const verdictSchema = `{
	"type": "object",
	"properties": {
		"score": {"type": "number"},
		"rationale": {"type": "string"}
	},
	"required": ["score"]
}`

// scoreExcerptLimit caps how much of an artifact is shown to the scoring
// model.
const scoreExcerptLimit = 2000

// QualityScorer rates an artifact 0-10 with a chat model. The verdict is
// requested as JSON and validated before the score is extracted.
type QualityScorer struct {
	Client   ChatClient
	Registry *prompts.PromptRegistry
}

// NewQualityScorer creates a scorer using the default prompt registry.
func NewQualityScorer(client ChatClient) *QualityScorer {
	return &QualityScorer{Client: client, Registry: prompts.DefaultRegistry()}
}

// Score implements loop.Scorer.
func (s *QualityScorer) Score(ctx context.Context, subject string, a loop.Artifact) (float64, error) {
	builder, err := prompts.NewPromptBuilder(s.Registry, prompts.QualityScoreID, prompts.PromptV1)
	if err != nil {
		return 0, err
	}
	notes := a.Payload
	if len(notes) > scoreExcerptLimit {
		notes = notes[:scoreExcerptLimit]
	}
	builder.SetVariable("topic", subject)
	builder.SetVariable("notes", notes)

	prompt, err := builder.Build()
	if err != nil {
		return 0, err
	}

	// Low temperature for consistent scoring.
	resp, err := s.Client.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.2,
		MaxTokens:   256,
	})
	if err != nil {
		return 0, err
	}

	return parseVerdict(resp.Text)
}

// verdict is the decoded scorer reply.
type verdict struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// parseVerdict extracts the score from a model reply. It accepts a JSON
// verdict (possibly wrapped in prose or code fences) or, as a fallback, a
// bare number.
func parseVerdict(text string) (float64, error) {
	text = strings.TrimSpace(text)

	if raw, ok := extractJSONObject(text); ok {
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(verdictSchema),
			gojsonschema.NewStringLoader(raw),
		)
		if err != nil {
			return 0, fmt.Errorf("verdict validation failed: %w", err)
		}
		if !result.Valid() {
			var msgs []string
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return 0, fmt.Errorf("invalid verdict: %s", strings.Join(msgs, "; "))
		}

		var v verdict
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return 0, fmt.Errorf("failed to decode verdict: %w", err)
		}
		return v.Score, nil
	}

	// Some models ignore the JSON instruction and reply with just a number.
	if score, err := strconv.ParseFloat(strings.Trim(text, "` \n"), 64); err == nil {
		return score, nil
	}

	return 0, fmt.Errorf("unparseable verdict: %q", truncate(text, 120))
}

// extractJSONObject returns the first top-level {...} block in the text.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
