package loop

import (
	"context"
	"time"
)

type Event struct {
	Kind string // "stage", "produce", "produce_degraded", "score", "score_degraded", "decision", "finalize", "done", "failed", "retry_attempt", "retry_exhausted"
	Data any
}

// EventHook bridges loop → consumer channel (CLI progress, UIs).
type EventHook struct{ Ch chan<- Event }

func (h EventHook) OnStageChange(_ context.Context, t *Task, from, to Stage) {
	h.Ch <- Event{Kind: "stage", Data: map[string]any{"from": string(from), "to": string(to), "attempts": t.Attempts}}
}
func (h EventHook) OnProduce(_ context.Context, t *Task, a Artifact) {
	h.Ch <- Event{Kind: "produce", Data: map[string]any{"attempt": a.Attempt, "limit": t.AttemptLimit, "bytes": len(a.Payload)}}
}
func (h EventHook) OnProduceDegraded(_ context.Context, t *Task, err error) {
	h.Ch <- Event{Kind: "produce_degraded", Data: err.Error()}
}
func (h EventHook) OnScore(_ context.Context, t *Task, raw, score float64) {
	h.Ch <- Event{Kind: "score", Data: map[string]any{"attempt": t.Attempts, "score": score}}
}
func (h EventHook) OnScoreDegraded(_ context.Context, t *Task, err error) {
	h.Ch <- Event{Kind: "score_degraded", Data: err.Error()}
}
func (h EventHook) OnDecision(_ context.Context, t *Task, retry bool) {
	h.Ch <- Event{Kind: "decision", Data: map[string]any{"retry": retry, "score": t.QualityScore, "attempts": t.Attempts}}
}
func (h EventHook) OnFinalize(_ context.Context, t *Task, output string) {
	h.Ch <- Event{Kind: "finalize", Data: len(t.Artifacts)}
}
func (h EventHook) OnDone(_ context.Context, t *Task, res Result) {
	h.Ch <- Event{Kind: "done", Data: res}
}
func (h EventHook) OnFailed(_ context.Context, t *Task, err error) {
	h.Ch <- Event{Kind: "failed", Data: err.Error()}
}
func (h EventHook) OnRetryAttempt(_ context.Context, _ *Task, attempt int, maxAttempts int, delay time.Duration, err error) {
	h.Ch <- Event{Kind: "retry_attempt", Data: map[string]any{
		"attempt":     attempt,
		"maxAttempts": maxAttempts,
		"delay":       delay,
		"error":       err.Error(),
	}}
}
func (h EventHook) OnRetryExhausted(_ context.Context, _ *Task, err error) {
	h.Ch <- Event{Kind: "retry_exhausted", Data: err.Error()}
}
