package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrAnnotationTimeout means the annotation operation did not finish
	// within the configured bound. The remote operation is not cancelled.
	ErrAnnotationTimeout = errors.New("annotation wait timed out")
	// ErrUpstream covers annotation or model service failures.
	ErrUpstream = errors.New("upstream service error")
	// ErrMalformedResponse means the model output could not be parsed as
	// a JSON object.
	ErrMalformedResponse = errors.New("malformed model response")
	// ErrSchemaViolation means the parsed JSON is missing required
	// top-level fields.
	ErrSchemaViolation = errors.New("model response missing required fields")
	// ErrStore covers persistence failures in the pipeline.
	ErrStore = errors.New("persistence failure")
	// ErrJobNotAnalyzed is returned when a summary is requested for a job
	// that has not completed analysis.
	ErrJobNotAnalyzed = errors.New("job not analyzed")
)

// MalformedResponseError preserves the raw model output for diagnostics.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %v (raw: %s)", e.Err, truncate(e.Raw, 200))
	}
	return fmt.Sprintf("malformed model response (raw: %s)", truncate(e.Raw, 200))
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// SchemaViolationError lists the missing required keys and preserves the
// raw model output for diagnostics.
type SchemaViolationError struct {
	Raw     string
	Missing []string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("model response missing required fields [%s] (raw: %s)",
		strings.Join(e.Missing, ", "), truncate(e.Raw, 200))
}

func (e *SchemaViolationError) Unwrap() error { return ErrSchemaViolation }

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
