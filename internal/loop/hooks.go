package loop

import (
	"context"
	"time"
)

type Hook interface {
	OnStageChange(ctx context.Context, t *Task, from, to Stage)
	OnProduce(ctx context.Context, t *Task, a Artifact)
	OnProduceDegraded(ctx context.Context, t *Task, err error)
	OnScore(ctx context.Context, t *Task, raw, score float64)
	OnScoreDegraded(ctx context.Context, t *Task, err error)
	OnDecision(ctx context.Context, t *Task, retry bool)
	OnFinalize(ctx context.Context, t *Task, output string)
	OnDone(ctx context.Context, t *Task, res Result)
	OnFailed(ctx context.Context, t *Task, err error)
	// Retry hooks (provider-level retries inside a single collaborator call)
	OnRetryAttempt(ctx context.Context, t *Task, attempt int, maxAttempts int, delay time.Duration, err error)
	OnRetryExhausted(ctx context.Context, t *Task, err error)
}

// NopHook lets you implement only the hooks you need.
type NopHook struct{}

func (NopHook) OnStageChange(context.Context, *Task, Stage, Stage)                    {}
func (NopHook) OnProduce(context.Context, *Task, Artifact)                            {}
func (NopHook) OnProduceDegraded(context.Context, *Task, error)                       {}
func (NopHook) OnScore(context.Context, *Task, float64, float64)                      {}
func (NopHook) OnScoreDegraded(context.Context, *Task, error)                         {}
func (NopHook) OnDecision(context.Context, *Task, bool)                               {}
func (NopHook) OnFinalize(context.Context, *Task, string)                             {}
func (NopHook) OnDone(context.Context, *Task, Result)                                 {}
func (NopHook) OnFailed(context.Context, *Task, error)                                {}
func (NopHook) OnRetryAttempt(context.Context, *Task, int, int, time.Duration, error) {}
func (NopHook) OnRetryExhausted(context.Context, *Task, error)                        {}
