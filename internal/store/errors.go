package store

import "errors"

var (
	// ErrJobNotFound is returned when no job exists for an id.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobConflict is returned when a status transition is not allowed
	// from the job's current status.
	ErrJobConflict = errors.New("job status conflict")
	// ErrArtifactNotFound is returned when no artifact has been stored
	// for a job.
	ErrArtifactNotFound = errors.New("artifact not found")
)
