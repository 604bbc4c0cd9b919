package loop

import (
	"context"
	"time"
)

type Hooks []Hook

func (hs Hooks) OnStageChange(ctx context.Context, t *Task, from, to Stage) {
	for _, h := range hs {
		h.OnStageChange(ctx, t, from, to)
	}
}
func (hs Hooks) OnProduce(ctx context.Context, t *Task, a Artifact) {
	for _, h := range hs {
		h.OnProduce(ctx, t, a)
	}
}
func (hs Hooks) OnProduceDegraded(ctx context.Context, t *Task, err error) {
	for _, h := range hs {
		h.OnProduceDegraded(ctx, t, err)
	}
}
func (hs Hooks) OnScore(ctx context.Context, t *Task, raw, score float64) {
	for _, h := range hs {
		h.OnScore(ctx, t, raw, score)
	}
}
func (hs Hooks) OnScoreDegraded(ctx context.Context, t *Task, err error) {
	for _, h := range hs {
		h.OnScoreDegraded(ctx, t, err)
	}
}
func (hs Hooks) OnDecision(ctx context.Context, t *Task, retry bool) {
	for _, h := range hs {
		h.OnDecision(ctx, t, retry)
	}
}
func (hs Hooks) OnFinalize(ctx context.Context, t *Task, output string) {
	for _, h := range hs {
		h.OnFinalize(ctx, t, output)
	}
}
func (hs Hooks) OnDone(ctx context.Context, t *Task, res Result) {
	for _, h := range hs {
		h.OnDone(ctx, t, res)
	}
}
func (hs Hooks) OnFailed(ctx context.Context, t *Task, err error) {
	for _, h := range hs {
		h.OnFailed(ctx, t, err)
	}
}
func (hs Hooks) OnRetryAttempt(ctx context.Context, t *Task, attempt int, maxAttempts int, delay time.Duration, err error) {
	for _, h := range hs {
		h.OnRetryAttempt(ctx, t, attempt, maxAttempts, delay, err)
	}
}
func (hs Hooks) OnRetryExhausted(ctx context.Context, t *Task, err error) {
	for _, h := range hs {
		h.OnRetryExhausted(ctx, t, err)
	}
}
