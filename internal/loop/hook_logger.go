package loop

import (
	"context"
	"log"
	"time"
)

type LoggerHook struct{ L *log.Logger }

func (h LoggerHook) OnStageChange(_ context.Context, t *Task, from, to Stage) {
	h.L.Printf("task=%s stage %s -> %s attempts=%d", t.ID, from, to, t.Attempts)
}
func (h LoggerHook) OnProduce(_ context.Context, t *Task, a Artifact) {
	preview := a.Payload
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	h.L.Printf("produced attempt=%d/%d len=%d preview=%q", a.Attempt, t.AttemptLimit, len(a.Payload), preview)
}
func (h LoggerHook) OnProduceDegraded(_ context.Context, t *Task, err error) {
	h.L.Printf("producer degraded on attempt %d: %v", t.Attempts, err)
}
func (h LoggerHook) OnScore(_ context.Context, t *Task, raw, score float64) {
	if raw != score {
		h.L.Printf("scored attempt=%d raw=%g coerced=%g", t.Attempts, raw, score)
	} else {
		h.L.Printf("scored attempt=%d score=%g/10", t.Attempts, score)
	}
}
func (h LoggerHook) OnScoreDegraded(_ context.Context, t *Task, err error) {
	h.L.Printf("scorer degraded on attempt %d, substituting neutral score: %v", t.Attempts, err)
}
func (h LoggerHook) OnDecision(_ context.Context, t *Task, retry bool) {
	if retry {
		h.L.Printf("decision: insufficient (score=%g), looping back (attempt %d/%d)", t.QualityScore, t.Attempts, t.AttemptLimit)
	} else {
		h.L.Printf("decision: proceeding to finalize (score=%g sufficient=%v attempts=%d/%d)", t.QualityScore, t.Sufficient, t.Attempts, t.AttemptLimit)
	}
}
func (h LoggerHook) OnFinalize(_ context.Context, t *Task, output string) {
	h.L.Printf("finalized: %d artifacts merged, output %d chars", len(t.Artifacts), len(output))
}
func (h LoggerHook) OnDone(_ context.Context, t *Task, res Result) {
	h.L.Printf("done: attempts=%d sufficiency=%v", res.AttemptsUsed, res.ReachedSufficiency)
}
func (h LoggerHook) OnFailed(_ context.Context, t *Task, err error) {
	h.L.Printf("failed: %v", err)
}
func (h LoggerHook) OnRetryAttempt(_ context.Context, _ *Task, attempt int, maxAttempts int, delay time.Duration, err error) {
	h.L.Printf("retry attempt=%d/%d delay=%v error=%v", attempt, maxAttempts, delay, err)
}
func (h LoggerHook) OnRetryExhausted(_ context.Context, _ *Task, err error) {
	h.L.Printf("retries exhausted: %v", err)
}
