package loop

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Run drives a task from its initial stage to DONE or FAILED. The caller owns
// the task and may inspect it afterwards; on cancellation the task keeps
// whatever artifacts exist.
//
// Parameters:
//   - ctx: cancellation is checked before every produce cycle, and each
//     collaborator call runs under cfg.CallTimeout
//   - c: the produce/score/finalize collaborators
//   - t: the task state, modified in place
//   - hooks: observability hooks
//   - cfg: loop configuration (attempt limit, thresholds, timeouts)
//
// Per-cycle collaborator failures are absorbed as degraded state and never
// surface here. The returned error is non-nil only for run-level failures:
// invalid input, exhaustion with zero usable artifacts, finalize failure, or
// cancellation.
func Run(ctx context.Context, c Collaborators, t *Task, hooks Hooks, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid loop config: %w", err)
	}

	if strings.TrimSpace(t.Subject) == "" {
		// Fail fast: no collaborator calls for a malformed subject.
		fail(ctx, t, hooks, &InvalidInputError{Reason: "empty subject"})
		return failedResult(t), t.Failure
	}

	t.AttemptLimit = cfg.AttemptLimit
	policy := cfg.retryPolicy()

	// The most recent produce failure, kept so exhaustion with zero usable
	// artifacts can report its cause.
	var lastProduceErr *ProducerError

	for !t.Stage.Terminal() {
		switch t.Stage {
		case StageProduce:
			// Cancellation is only honored between cycles; in-flight calls
			// finish (or time out) on their own.
			select {
			case <-ctx.Done():
				return Result{}, fmt.Errorf("run cancelled: %w", ctx.Err())
			default:
			}

			a, err := callCollaborator(ctx, policy, cfg.CallTimeout, hooks, t, func(ctx context.Context) (Artifact, error) {
				return c.Producer.Produce(ctx, t.Subject, t.Artifacts)
			})
			if err != nil {
				// Tolerated as a poor artifact: the evaluator routes to a
				// retry while budget remains.
				lastProduceErr = &ProducerError{Attempt: t.Attempts + 1, Err: err}
				t.appendArtifact(Artifact{Degraded: true})
				hooks.OnProduceDegraded(ctx, t, lastProduceErr)
			} else {
				t.appendArtifact(a)
				hooks.OnProduce(ctx, t, *t.LastArtifact())
			}
			transition(ctx, t, hooks, StageEvaluate)

		case StageEvaluate:
			last := t.LastArtifact()
			if last.Degraded {
				// ProducerError policy: degraded artifacts score 0 without
				// consulting the scorer.
				t.QualityScore = 0
			} else {
				raw, err := callCollaborator(ctx, policy, cfg.CallTimeout, hooks, t, func(ctx context.Context) (float64, error) {
					return c.Scorer.Score(ctx, t.Subject, *last)
				})
				if err != nil {
					// Never abort on a scoring failure.
					t.QualityScore = cfg.NeutralScore
					hooks.OnScoreDegraded(ctx, t, &ScorerError{Attempt: t.Attempts, Err: err})
				} else {
					score := normalizeScore(raw, cfg.NeutralScore)
					t.QualityScore = score
					hooks.OnScore(ctx, t, raw, score)
				}
			}
			t.Sufficient = t.QualityScore >= cfg.SufficiencyThreshold
			transition(ctx, t, hooks, StageDecide)

		case StageDecide:
			if len(t.Artifacts) == 0 {
				// Should not happen: produce always appends. Force a retry if
				// budget remains.
				if t.Attempts < t.AttemptLimit {
					transition(ctx, t, hooks, StageProduce)
					continue
				}
				fail(ctx, t, hooks, &InvalidInputError{Reason: "no artifacts produced"})
				continue
			}

			retry := !t.Sufficient && t.Attempts < t.AttemptLimit
			hooks.OnDecision(ctx, t, retry)
			if retry {
				transition(ctx, t, hooks, StageProduce)
				continue
			}
			if !t.Sufficient && t.usable == 0 {
				// Every cycle degraded: nothing worth finalizing.
				var reason error = lastProduceErr
				if lastProduceErr == nil {
					reason = &ProducerError{Attempt: t.Attempts, Err: fmt.Errorf("no usable artifacts")}
				}
				fail(ctx, t, hooks, reason)
				continue
			}
			transition(ctx, t, hooks, StageFinalize)

		case StageFinalize:
			out, err := callCollaborator(ctx, policy, cfg.CallTimeout, hooks, t, func(ctx context.Context) (string, error) {
				return c.Finalizer.Finalize(ctx, t.Subject, t.Artifacts)
			})
			if err != nil {
				fail(ctx, t, hooks, &FinalizationError{Err: err})
				continue
			}
			t.FinalOutput = out
			hooks.OnFinalize(ctx, t, out)
			transition(ctx, t, hooks, StageDone)
		}
	}

	if t.Stage == StageFailed {
		return failedResult(t), t.Failure
	}

	res := Result{
		Status:             StatusDone,
		Output:             t.FinalOutput,
		AttemptsUsed:       t.Attempts,
		ReachedSufficiency: t.Sufficient,
	}
	hooks.OnDone(ctx, t, res)
	return res, nil
}

func transition(ctx context.Context, t *Task, hooks Hooks, to Stage) {
	from := t.Stage
	t.Stage = to
	hooks.OnStageChange(ctx, t, from, to)
}

func fail(ctx context.Context, t *Task, hooks Hooks, err error) {
	t.Failure = wrapTaskError(err, t)
	transition(ctx, t, hooks, StageFailed)
	hooks.OnFailed(ctx, t, t.Failure)
}

func failedResult(t *Task) Result {
	return Result{
		Status:       StatusFailed,
		AttemptsUsed: t.Attempts,
		Reason:       t.Failure,
	}
}

// callCollaborator wraps one collaborator call with the per-call timeout and
// the provider-level retry policy. A timeout is treated like any other
// collaborator error.
func callCollaborator[T any](
	ctx context.Context,
	policy RetryPolicy,
	timeout time.Duration,
	hooks Hooks,
	t *Task,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	res, err := RetryWithPolicy(
		ctx,
		policy,
		func(ctx context.Context) (T, error) {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return fn(ctx)
		},
		ClassifyProviderError,
		func(attempt int, delay time.Duration, retryErr error) {
			hooks.OnRetryAttempt(ctx, t, attempt, policy.MaxRetries, delay, retryErr)
		},
	)
	if err != nil && IsRetryExhausted(err) {
		hooks.OnRetryExhausted(ctx, t, err)
	}
	return res, err
}
