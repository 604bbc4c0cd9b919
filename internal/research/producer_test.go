package research

import (
	"context"
	"strings"
	"testing"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
)

func TestProducerFirstAttemptHasNoPriorContext(t *testing.T) {
	client := &fakeClient{responses: []string{"some notes"}}
	producer := NewNotesProducer(client)

	a, err := producer.Produce(context.Background(), "solar power", nil)
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if a.Payload != "some notes" {
		t.Errorf("unexpected payload: %q", a.Payload)
	}
	if strings.Contains(client.prompts[0], "Earlier attempts") {
		t.Error("first attempt should not mention earlier attempts")
	}
}

func TestProducerFeedsBackPriorAttempts(t *testing.T) {
	client := &fakeClient{responses: []string{"deeper notes"}}
	producer := NewNotesProducer(client)

	prior := []loop.Artifact{
		{Attempt: 1, Payload: "shallow notes about panels"},
		{Attempt: 2, Degraded: true},
	}
	if _, err := producer.Produce(context.Background(), "solar power", prior); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	prompt := client.prompts[0]
	if !strings.Contains(prompt, "shallow notes about panels") {
		t.Error("prompt should include the earlier usable attempt")
	}
	if !strings.Contains(prompt, "attempt 1") {
		t.Error("earlier attempts should be labeled")
	}
	if strings.Contains(prompt, "attempt 2") {
		t.Error("degraded attempts should be skipped")
	}
}

func TestProducerRejectsEmptyReply(t *testing.T) {
	client := &fakeClient{responses: []string{"  \n "}}
	producer := NewNotesProducer(client)

	if _, err := producer.Produce(context.Background(), "topic", nil); err == nil {
		t.Fatal("expected error for empty model reply")
	}
}

func TestRenderPriorContextTruncates(t *testing.T) {
	long := strings.Repeat("y", priorContextLimit*3)
	out := renderPriorContext([]loop.Artifact{{Attempt: 1, Payload: long}})
	if strings.Contains(out, strings.Repeat("y", priorContextLimit+1)) {
		t.Error("prior attempt payload should be truncated")
	}
	if !strings.Contains(out, "...") {
		t.Error("truncation should be marked with an ellipsis")
	}
}
