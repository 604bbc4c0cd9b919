package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/prompts"
)

// priorContextLimit caps how much of each earlier attempt is fed back into
// the next produce prompt.
const priorContextLimit = 800

// NotesProducer drafts research notes with a chat model. Retries see the
// earlier attempts so they can widen or deepen instead of repeating.
type NotesProducer struct {
	Client   ChatClient
	Registry *prompts.PromptRegistry
}

// NewNotesProducer creates a producer using the default prompt registry.
func NewNotesProducer(client ChatClient) *NotesProducer {
	return &NotesProducer{Client: client, Registry: prompts.DefaultRegistry()}
}

// Produce implements loop.Producer.
func (p *NotesProducer) Produce(ctx context.Context, subject string, prior []loop.Artifact) (loop.Artifact, error) {
	builder, err := prompts.NewPromptBuilder(p.Registry, prompts.ResearchNotesID, prompts.PromptV1)
	if err != nil {
		return loop.Artifact{}, err
	}
	builder.SetVariable("topic", subject)
	builder.SetVariable("prior_context", renderPriorContext(prior))

	prompt, err := builder.Build()
	if err != nil {
		return loop.Artifact{}, err
	}

	resp, err := p.Client.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return loop.Artifact{}, err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return loop.Artifact{}, fmt.Errorf("empty notes from model")
	}
	return loop.Artifact{Payload: text}, nil
}

// renderPriorContext summarizes earlier attempts for the next produce prompt.
// Degraded placeholders are skipped.
func renderPriorContext(prior []loop.Artifact) string {
	var usable []loop.Artifact
	for _, a := range prior {
		if !a.Degraded {
			usable = append(usable, a)
		}
	}
	if len(usable) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Earlier attempts covered the following; add what they miss rather than repeating them:\n")
	for _, a := range usable {
		payload := a.Payload
		if len(payload) > priorContextLimit {
			payload = payload[:priorContextLimit] + "..."
		}
		fmt.Fprintf(&b, "\n--- attempt %d ---\n%s\n", a.Attempt, payload)
	}
	b.WriteString("\n")
	return b.String()
}
