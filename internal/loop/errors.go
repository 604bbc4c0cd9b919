// Package loop drives a task through bounded produce/evaluate/decide/finalize
// cycles. This file contains the error taxonomy and provider error
// classification.

package loop

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProducerError reports a failed or timed-out produce call. Recoverable within
// the attempt budget: the cycle records a degraded artifact instead of
// aborting.
type ProducerError struct {
	Attempt int
	Err     error
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("producer failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *ProducerError) Unwrap() error { return e.Err }

// ScorerError reports a failed scoring call or an unparseable verdict. Always
// recoverable: the loop substitutes the neutral default score.
type ScorerError struct {
	Attempt int
	Err     error
}

func (e *ScorerError) Error() string {
	return fmt.Sprintf("scorer failed on attempt %d: %v", e.Attempt, e.Err)
}

func (e *ScorerError) Unwrap() error { return e.Err }

// FinalizationError reports a failed finalize call. There is no retry path
// once the loop has routed to finalize, so this is a run-level failure.
type FinalizationError struct {
	Err error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalization failed: %v", e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }

// InvalidInputError reports a malformed subject. The run fails fast with zero
// collaborator calls.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// TaskError wraps a run-level failure with the stage and attempt it occurred
// in.
type TaskError struct {
	Err     error
	Stage   Stage
	Attempt int
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("[stage=%s attempt=%d] %v", e.Stage, e.Attempt, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func wrapTaskError(err error, t *Task) error {
	if err == nil {
		return nil
	}
	return &TaskError{Err: err, Stage: t.Stage, Attempt: t.Attempts}
}

// RetryClass indicates whether a provider error should be retried.
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassMaybe        RetryClass = "maybe"
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// ProviderError wraps errors from LLM providers with classification metadata.
type ProviderError struct {
	Err         error
	Class       RetryClass
	HTTPStatus  int
	RetryAfter  string // Retry-After header value if present
	IsRateLimit bool
	IsTimeout   bool
	IsAuth      bool
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("provider error: %s", e.Class)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyProviderError decides whether an error from a provider call is worth
// retrying. Rate limits, server errors, and network failures are retryable;
// auth and malformed-request errors are not.
func ClassifyProviderError(err error) RetryClass {
	if err == nil {
		return RetryClassNonRetryable
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Class
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") {
		return RetryClassRetryable
	}

	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return RetryClassRetryable
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "temporary failure") {
		return RetryClassRetryable
	}

	if strings.Contains(errStr, "deadline exceeded") {
		return RetryClassMaybe
	}

	if strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "invalid api key") {
		return RetryClassNonRetryable
	}

	if strings.Contains(errStr, "400") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "malformed") {
		return RetryClassNonRetryable
	}

	return RetryClassNonRetryable
}

// WrapProviderError attaches HTTP metadata to a provider error so the retry
// classifier and Retry-After extraction can use it.
func WrapProviderError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Err:         err,
		Class:       ClassifyProviderError(err),
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsTimeout:   httpStatus == http.StatusGatewayTimeout || httpStatus == http.StatusRequestTimeout,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
	}
}

// ExtractRetryAfter extracts the Retry-After hint from a provider error.
// Returns 0 if not found or invalid.
func ExtractRetryAfter(err error) time.Duration {
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.RetryAfter != "" {
		var seconds int
		if _, err := fmt.Sscanf(provErr.RetryAfter, "%d", &seconds); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := time.Parse(time.RFC1123, provErr.RetryAfter); err == nil {
			now := time.Now()
			if t.After(now) {
				return t.Sub(now)
			}
		}
	}
	return 0
}

// RetryExhaustedError indicates that all retry attempts for a provider call
// have been used up.
type RetryExhaustedError struct {
	Err         error
	Attempts    int
	MaxAttempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// IsRetryExhausted checks if an error is a RetryExhaustedError.
func IsRetryExhausted(err error) bool {
	var exhausted *RetryExhaustedError
	return errors.As(err, &exhausted)
}
