package loop

import (
	"context"

	"github.com/google/uuid"
)

// Stage represents the current stage of a task's refinement run.
type Stage string

const (
	StageProduce  Stage = "produce"
	StageEvaluate Stage = "evaluate"
	StageDecide   Stage = "decide"
	StageFinalize Stage = "finalize"
	StageDone     Stage = "done"
	StageFailed   Stage = "failed"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Artifact is the output of one produce attempt. Artifacts are retained for
// the whole run so the finalizer can merge partial information from earlier
// attempts.
type Artifact struct {
	Attempt  int    `json:"attempt"` // 1-based; equals the attempt that produced it
	Payload  string `json:"payload"`
	Degraded bool   `json:"degraded,omitempty"` // placeholder recorded after a producer failure
}

// Task is the single mutable record threaded through the refinement loop.
// Each run owns exactly one Task; it is never shared between runs.
type Task struct {
	ID           string     // Run identifier
	Subject      string     // The unit of work (topic, document, ...)
	Stage        Stage      // Current stage of the state machine
	Attempts     int        // Completed produce/evaluate cycles
	AttemptLimit int        // Hard ceiling on attempts
	Artifacts    []Artifact // Append-only, insertion order = attempt order
	QualityScore float64    // Most recent evaluation result, 0 before the first
	Sufficient   bool       // Latest decision output
	FinalOutput  string     // Set exactly once by finalize
	Failure      error      // Set when a run fails irrecoverably

	usable int // artifacts produced without degradation
}

// NewTask creates a fresh task for one run of the loop.
func NewTask(subject string) *Task {
	return &Task{
		ID:      uuid.NewString(),
		Subject: subject,
		Stage:   StageProduce,
	}
}

// LastArtifact returns the most recent artifact, or nil if none exist.
func (t *Task) LastArtifact() *Artifact {
	if len(t.Artifacts) == 0 {
		return nil
	}
	return &t.Artifacts[len(t.Artifacts)-1]
}

func (t *Task) appendArtifact(a Artifact) {
	a.Attempt = t.Attempts + 1
	t.Artifacts = append(t.Artifacts, a)
	t.Attempts++
	if !a.Degraded {
		t.usable++
	}
}

// Status is the terminal outcome of a run as reported to the caller.
type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Result is what the caller receives for every run. Reaching the attempt cap
// without sufficiency is StatusDone with ReachedSufficiency=false, not a
// failure.
type Result struct {
	Status             Status
	Output             string
	AttemptsUsed       int
	ReachedSufficiency bool
	Reason             error // non-nil iff Status == StatusFailed
}

// Producer generates one artifact for a subject. Prior artifacts are passed so
// retries can build on earlier attempts. Implementations must be safe to call
// again with the same subject after a failure.
type Producer interface {
	Produce(ctx context.Context, subject string, prior []Artifact) (Artifact, error)
}

// Scorer rates an artifact's quality on a 0-10 scale. Out-of-range values are
// coerced by the loop, so implementations may return raw model output.
type Scorer interface {
	Score(ctx context.Context, subject string, a Artifact) (float64, error)
}

// Finalizer merges all artifacts of a run into the final output.
type Finalizer interface {
	Finalize(ctx context.Context, subject string, all []Artifact) (string, error)
}

// Collaborators bundles the three external services a run depends on.
// The loop assumes no server-side affinity between calls; each call stands
// alone.
type Collaborators struct {
	Producer  Producer
	Scorer    Scorer
	Finalizer Finalizer
}
