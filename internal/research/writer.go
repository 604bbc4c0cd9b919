package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/prompts"
)

// attemptExcerptLimit caps how much of each attempt goes into the final
// summarization prompt.
const attemptExcerptLimit = 1000

// Report is the parsed final output: a summary plus extracted key points.
type Report struct {
	Summary   string
	KeyPoints []string
}

// Render formats the report as the run's final output string.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString(r.Summary)
	if len(r.KeyPoints) > 0 {
		b.WriteString("\n\nKey points:\n")
		for _, p := range r.KeyPoints {
			b.WriteString("- " + p + "\n")
		}
	}
	return b.String()
}

// ReportWriter merges every attempt of a run into a final report. Earlier
// attempts may carry partial information, so all of them are fed to the
// model, not just the last.
type ReportWriter struct {
	Client   ChatClient
	Registry *prompts.PromptRegistry
}

// NewReportWriter creates a finalizer using the default prompt registry.
func NewReportWriter(client ChatClient) *ReportWriter {
	return &ReportWriter{Client: client, Registry: prompts.DefaultRegistry()}
}

// Finalize implements loop.Finalizer.
func (w *ReportWriter) Finalize(ctx context.Context, subject string, all []loop.Artifact) (string, error) {
	builder, err := prompts.NewPromptBuilder(w.Registry, prompts.FinalReportID, prompts.PromptV1)
	if err != nil {
		return "", err
	}
	builder.SetVariable("topic", subject)
	builder.SetVariable("notes", combineArtifacts(all))

	prompt, err := builder.Build()
	if err != nil {
		return "", err
	}

	// Higher temperature for the writing pass.
	resp, err := w.Client.Complete(ctx, CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty report from model")
	}

	return ParseReport(text).Render(), nil
}

// combineArtifacts renders all attempts into one block, attempt-ordered.
// Degraded placeholders are skipped; they carry no content.
func combineArtifacts(all []loop.Artifact) string {
	var b strings.Builder
	for _, a := range all {
		if a.Degraded {
			continue
		}
		payload := a.Payload
		if len(payload) > attemptExcerptLimit {
			payload = payload[:attemptExcerptLimit]
		}
		fmt.Fprintf(&b, "\n\n=== Attempt %d ===\n%s", a.Attempt, payload)
	}
	return b.String()
}

// ParseReport splits a model reply into summary and key points. Replies that
// do not follow the SUMMARY/KEY POINTS format are kept whole as the summary
// rather than rejected.
func ParseReport(text string) Report {
	if !strings.Contains(text, "SUMMARY:") || !strings.Contains(text, "KEY POINTS:") {
		return Report{Summary: text}
	}

	parts := strings.SplitN(text, "KEY POINTS:", 2)
	summary := strings.TrimSpace(strings.Replace(parts[0], "SUMMARY:", "", 1))

	var points []string
	for _, line := range strings.Split(parts[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			point := strings.TrimSpace(strings.TrimLeft(line, "-* "))
			if point != "" {
				points = append(points, point)
			}
		}
	}

	return Report{Summary: summary, KeyPoints: points}
}
