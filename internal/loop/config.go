package loop

import (
	"fmt"
	"time"
)

// Config holds the knobs of the refinement loop. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	AttemptLimit         int           // Hard ceiling on produce/evaluate cycles
	SufficiencyThreshold float64       // Minimum quality score that ends the loop
	NeutralScore         float64       // Substituted when the scorer fails or returns garbage
	CallTimeout          time.Duration // Per-collaborator-call timeout (0 = no timeout)
	Retry                *RetryPolicy  // Provider-level retry policy (nil = DefaultRetryPolicy)
}

func (c Config) retryPolicy() RetryPolicy {
	if c.Retry != nil {
		return *c.Retry
	}
	return DefaultRetryPolicy()
}

// DefaultConfig returns the stock loop configuration. These values are the
// single source of truth for the defaults; file config and flags override
// them per run.
func DefaultConfig() Config {
	return Config{
		AttemptLimit:         3,
		SufficiencyThreshold: 7.0,
		NeutralScore:         5.0,
		CallTimeout:          60 * time.Second,
	}
}

// Validate checks the configuration for values the loop cannot run with.
func (c Config) Validate() error {
	if c.AttemptLimit <= 0 {
		return fmt.Errorf("attempt limit must be positive, got %d", c.AttemptLimit)
	}
	if c.SufficiencyThreshold < 0 || c.SufficiencyThreshold > 10 {
		return fmt.Errorf("sufficiency threshold must be in [0,10], got %g", c.SufficiencyThreshold)
	}
	if c.NeutralScore < 0 || c.NeutralScore > 10 {
		return fmt.Errorf("neutral score must be in [0,10], got %g", c.NeutralScore)
	}
	if c.CallTimeout < 0 {
		return fmt.Errorf("call timeout must not be negative, got %v", c.CallTimeout)
	}
	return nil
}
