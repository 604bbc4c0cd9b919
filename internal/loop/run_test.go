package loop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// noRetry keeps tests fast: provider-level retries are disabled and plain
// errors classify as non-retryable anyway.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Retry = &RetryPolicy{MaxRetries: 0}
	cfg.CallTimeout = 0
	return cfg
}

type scriptedProducer struct {
	calls   int
	produce func(call int, prior []Artifact) (Artifact, error)
}

func (p *scriptedProducer) Produce(_ context.Context, _ string, prior []Artifact) (Artifact, error) {
	p.calls++
	return p.produce(p.calls, prior)
}

type scriptedScorer struct {
	calls int
	score func(call int, a Artifact) (float64, error)
}

func (s *scriptedScorer) Score(_ context.Context, _ string, a Artifact) (float64, error) {
	s.calls++
	return s.score(s.calls, a)
}

type scriptedFinalizer struct {
	calls    int
	received []Artifact
	finalize func(all []Artifact) (string, error)
}

func (f *scriptedFinalizer) Finalize(_ context.Context, _ string, all []Artifact) (string, error) {
	f.calls++
	f.received = all
	if f.finalize != nil {
		return f.finalize(all)
	}
	return "final", nil
}

func okProducer() *scriptedProducer {
	return &scriptedProducer{produce: func(call int, _ []Artifact) (Artifact, error) {
		return Artifact{Payload: fmt.Sprintf("notes-%d", call)}, nil
	}}
}

func fixedScorer(scores ...float64) *scriptedScorer {
	return &scriptedScorer{score: func(call int, _ Artifact) (float64, error) {
		if call > len(scores) {
			return scores[len(scores)-1], nil
		}
		return scores[call-1], nil
	}}
}

func TestRunStopsOnFirstSufficientScore(t *testing.T) {
	producer := okProducer()
	scorer := fixedScorer(9)
	finalizer := &scriptedFinalizer{}

	task := NewTask("solar power")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Status != StatusDone {
		t.Errorf("expected done, got %s", res.Status)
	}
	if res.AttemptsUsed != 1 {
		t.Errorf("expected 1 attempt, got %d", res.AttemptsUsed)
	}
	if !res.ReachedSufficiency {
		t.Error("expected sufficiency to be reached")
	}
	if res.Output != "final" {
		t.Errorf("expected finalizer output, got %q", res.Output)
	}
	if producer.calls != 1 || scorer.calls != 1 || finalizer.calls != 1 {
		t.Errorf("expected one call each, got produce=%d score=%d finalize=%d",
			producer.calls, scorer.calls, finalizer.calls)
	}
}

func TestRunRefinesUntilSufficient(t *testing.T) {
	var priorSeen [][]Artifact
	producer := &scriptedProducer{produce: func(call int, prior []Artifact) (Artifact, error) {
		priorSeen = append(priorSeen, append([]Artifact(nil), prior...))
		return Artifact{Payload: fmt.Sprintf("notes-%d", call)}, nil
	}}
	scorer := fixedScorer(3, 5, 8)
	finalizer := &scriptedFinalizer{}

	task := NewTask("fusion energy")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.AttemptsUsed != 3 {
		t.Fatalf("expected 3 attempts, got %d", res.AttemptsUsed)
	}
	if !res.ReachedSufficiency {
		t.Error("expected sufficiency on the third attempt")
	}

	// Artifacts are append-only and numbered by attempt.
	if len(task.Artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %d", len(task.Artifacts))
	}
	for i, a := range task.Artifacts {
		if a.Attempt != i+1 {
			t.Errorf("artifact %d numbered %d", i, a.Attempt)
		}
	}

	// Each retry sees everything produced so far.
	for i, prior := range priorSeen {
		if len(prior) != i {
			t.Errorf("produce call %d saw %d prior artifacts, expected %d", i+1, len(prior), i)
		}
	}

	// The finalizer receives the full history, not just the last artifact.
	if len(finalizer.received) != 3 {
		t.Errorf("finalizer received %d artifacts, expected 3", len(finalizer.received))
	}
}

func TestRunCapWithoutSufficiencyIsDone(t *testing.T) {
	producer := okProducer()
	scorer := fixedScorer(2, 2, 2)
	finalizer := &scriptedFinalizer{}

	task := NewTask("obscure topic")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("expected best-effort completion, got error: %v", err)
	}

	if res.Status != StatusDone {
		t.Errorf("expected done, got %s", res.Status)
	}
	if res.ReachedSufficiency {
		t.Error("sufficiency should not be reached")
	}
	if res.AttemptsUsed != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", res.AttemptsUsed)
	}
	if finalizer.calls != 1 {
		t.Errorf("finalizer should still run, got %d calls", finalizer.calls)
	}
}

func TestRunEmptySubjectFailsFast(t *testing.T) {
	producer := okProducer()
	scorer := fixedScorer(9)
	finalizer := &scriptedFinalizer{}

	for _, subject := range []string{"", "   ", "\t\n"} {
		task := NewTask(subject)
		res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
		if err == nil {
			t.Fatalf("subject %q: expected error", subject)
		}

		var invalid *InvalidInputError
		if !errors.As(err, &invalid) {
			t.Errorf("subject %q: expected InvalidInputError, got %T: %v", subject, err, err)
		}
		if res.Status != StatusFailed {
			t.Errorf("subject %q: expected failed, got %s", subject, res.Status)
		}
	}

	if producer.calls != 0 || scorer.calls != 0 || finalizer.calls != 0 {
		t.Errorf("no collaborator should be called for invalid input: produce=%d score=%d finalize=%d",
			producer.calls, scorer.calls, finalizer.calls)
	}
}

func TestRunScorerFailureUsesNeutralScore(t *testing.T) {
	producer := okProducer()
	scorer := &scriptedScorer{score: func(int, Artifact) (float64, error) {
		return 0, errors.New("verdict unparseable")
	}}
	finalizer := &scriptedFinalizer{}

	task := NewTask("quantum computing")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("scorer failures must not abort the run: %v", err)
	}

	// Neutral 5.0 is below the 7.0 threshold, so the loop runs to the cap.
	if res.AttemptsUsed != 3 {
		t.Errorf("expected 3 attempts, got %d", res.AttemptsUsed)
	}
	if res.Status != StatusDone {
		t.Errorf("expected done, got %s", res.Status)
	}
	if scorer.calls != 3 {
		t.Errorf("expected the scorer to be consulted every cycle, got %d", scorer.calls)
	}
	if task.QualityScore != 5.0 {
		t.Errorf("expected neutral score 5.0, got %g", task.QualityScore)
	}
}

func TestRunProducerFailureRecordsDegradedArtifact(t *testing.T) {
	producer := &scriptedProducer{produce: func(call int, _ []Artifact) (Artifact, error) {
		if call == 1 {
			return Artifact{}, errors.New("provider unavailable")
		}
		return Artifact{Payload: "recovered"}, nil
	}}
	scorer := fixedScorer(9)
	finalizer := &scriptedFinalizer{}

	task := NewTask("climate policy")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.AttemptsUsed != 2 {
		t.Fatalf("expected 2 attempts, got %d", res.AttemptsUsed)
	}
	if !task.Artifacts[0].Degraded {
		t.Error("first artifact should be a degraded placeholder")
	}
	if task.Artifacts[1].Degraded {
		t.Error("second artifact should be usable")
	}
	// Degraded artifacts skip the scorer entirely.
	if scorer.calls != 1 {
		t.Errorf("expected 1 scorer call, got %d", scorer.calls)
	}
}

func TestRunAllProducerFailuresIsFailed(t *testing.T) {
	producer := &scriptedProducer{produce: func(int, []Artifact) (Artifact, error) {
		return Artifact{}, errors.New("provider unavailable")
	}}
	scorer := fixedScorer(9)
	finalizer := &scriptedFinalizer{}

	task := NewTask("anything")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err == nil {
		t.Fatal("expected run-level failure with zero usable artifacts")
	}

	var prodErr *ProducerError
	if !errors.As(err, &prodErr) {
		t.Errorf("expected ProducerError, got %T: %v", err, err)
	}
	if res.Status != StatusFailed {
		t.Errorf("expected failed, got %s", res.Status)
	}
	if res.AttemptsUsed != 3 {
		t.Errorf("the full budget should be spent before failing, got %d", res.AttemptsUsed)
	}
	if len(task.Artifacts) != 3 {
		t.Errorf("expected 3 degraded placeholders, got %d", len(task.Artifacts))
	}
	if scorer.calls != 0 {
		t.Errorf("degraded artifacts must not be scored, got %d calls", scorer.calls)
	}
	if finalizer.calls != 0 {
		t.Errorf("nothing to finalize, got %d calls", finalizer.calls)
	}
}

func TestRunFinalizeFailureIsFailed(t *testing.T) {
	producer := okProducer()
	scorer := fixedScorer(9)
	finalizer := &scriptedFinalizer{finalize: func([]Artifact) (string, error) {
		return "", errors.New("model refused")
	}}

	task := NewTask("any topic")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err == nil {
		t.Fatal("expected finalize failure to surface")
	}

	var finErr *FinalizationError
	if !errors.As(err, &finErr) {
		t.Errorf("expected FinalizationError, got %T: %v", err, err)
	}
	if res.Status != StatusFailed {
		t.Errorf("expected failed, got %s", res.Status)
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	producer := okProducer()
	task := NewTask("topic")
	_, err := Run(ctx, Collaborators{producer, fixedScorer(9), &scriptedFinalizer{}}, task, nil, testConfig())
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
	if producer.calls != 0 {
		t.Errorf("no produce call should start after cancellation, got %d", producer.calls)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.AttemptLimit = 0

	task := NewTask("topic")
	_, err := Run(context.Background(), Collaborators{okProducer(), fixedScorer(9), &scriptedFinalizer{}}, task, nil, cfg)
	if err == nil || !strings.Contains(err.Error(), "attempt limit") {
		t.Errorf("expected attempt limit validation error, got %v", err)
	}
}

// decisionRecorder counts the retry decisions the loop announces.
type decisionRecorder struct {
	NopHook
	retries  int
	finishes int
}

func (r *decisionRecorder) OnDecision(_ context.Context, _ *Task, retry bool) {
	if retry {
		r.retries++
	} else {
		r.finishes++
	}
}

func TestRunDecisionHooks(t *testing.T) {
	rec := &decisionRecorder{}
	task := NewTask("topic")
	_, err := Run(context.Background(),
		Collaborators{okProducer(), fixedScorer(3, 8), &scriptedFinalizer{}},
		task, Hooks{rec}, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rec.retries != 1 {
		t.Errorf("expected 1 retry decision, got %d", rec.retries)
	}
	if rec.finishes != 1 {
		t.Errorf("expected 1 finish decision, got %d", rec.finishes)
	}
}

func TestRunOutOfRangeScoreIsCoerced(t *testing.T) {
	// 42 is outside [0,10]; it becomes the neutral 5.0, which is below the
	// threshold, so the run continues instead of stopping early.
	producer := okProducer()
	scorer := fixedScorer(42, 8)
	finalizer := &scriptedFinalizer{}

	task := NewTask("topic")
	res, err := Run(context.Background(), Collaborators{producer, scorer, finalizer}, task, nil, testConfig())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.AttemptsUsed != 2 {
		t.Errorf("expected the garbage score to force a second attempt, got %d attempts", res.AttemptsUsed)
	}
}
