// Package store persists completed refinement runs so past research can be
// listed and reread.
package store

import "time"

// RunRecord is one persisted refinement run.
type RunRecord struct {
	ID                 string
	Subject            string
	Status             string
	AttemptsUsed       int
	QualityScore       float64
	ReachedSufficiency bool
	Output             string
	Reason             string
	CreatedAt          time.Time
	Artifacts          []ArtifactRecord
}

// ArtifactRecord is one attempt's artifact within a run.
type ArtifactRecord struct {
	Attempt  int
	Payload  string
	Degraded bool
}

// RunMeta is the lightweight listing form, without artifacts or output.
type RunMeta struct {
	ID                 string
	Subject            string
	Status             string
	AttemptsUsed       int
	QualityScore       float64
	ReachedSufficiency bool
	CreatedAt          time.Time
}
