package research

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
)

// fakeClient replays canned completions and records the prompts it saw.
type fakeClient struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeClient) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return CompletionResponse{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return CompletionResponse{Text: f.responses[i]}, nil
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    float64
		wantErr bool
	}{
		{"clean json", `{"score": 7.5, "rationale": "solid notes"}`, 7.5, false},
		{"json in prose", "Here is my assessment:\n{\"score\": 4, \"rationale\": \"thin\"}\nThanks!", 4, false},
		{"fenced json", "```json\n{\"score\": 9}\n```", 9, false},
		{"bare number", "8", 8, false},
		{"bare float", "6.5", 6.5, false},
		{"missing score", `{"rationale": "no score here"}`, 0, true},
		{"score wrong type", `{"score": "high"}`, 0, true},
		{"prose only", "These notes look pretty good to me.", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %g", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %g, want %g", got, tt.want)
			}
		})
	}
}

func TestScorerBuildsPromptFromArtifact(t *testing.T) {
	client := &fakeClient{responses: []string{`{"score": 8, "rationale": "good"}`}}
	scorer := NewQualityScorer(client)

	score, err := scorer.Score(context.Background(), "solar power", loop.Artifact{Payload: "solar facts"})
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 8 {
		t.Errorf("expected 8, got %g", score)
	}

	prompt := client.prompts[0]
	if !strings.Contains(prompt, "solar power") {
		t.Error("prompt should contain the topic")
	}
	if !strings.Contains(prompt, "solar facts") {
		t.Error("prompt should contain the notes")
	}
}

func TestScorerTruncatesLongNotes(t *testing.T) {
	client := &fakeClient{responses: []string{"5"}}
	scorer := NewQualityScorer(client)

	long := strings.Repeat("x", scoreExcerptLimit*2)
	if _, err := scorer.Score(context.Background(), "t", loop.Artifact{Payload: long}); err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if strings.Contains(client.prompts[0], strings.Repeat("x", scoreExcerptLimit+1)) {
		t.Error("notes should be truncated before prompting")
	}
}

func TestScorerPropagatesClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("503 service unavailable")}
	scorer := NewQualityScorer(client)

	if _, err := scorer.Score(context.Background(), "t", loop.Artifact{Payload: "notes"}); err == nil {
		t.Fatal("expected client error to surface")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{`{"a": 1}`, `{"a": 1}`, true},
		{`before {"a": {"b": 2}} after`, `{"a": {"b": 2}}`, true},
		{`no braces here`, "", false},
		{`{unclosed`, "", false},
	}

	for _, tt := range tests {
		got, ok := extractJSONObject(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("extractJSONObject(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}
