// Package musicgen talks to the external music generation service. Jobs are
// asynchronous: Submit only hands back the service-assigned task ID, and the
// result arrives later through the callback endpoint.
package musicgen

import "context"

// SubmitRequest describes one generation job.
type SubmitRequest struct {
	Prompt          string
	DurationSeconds int
	Instrumental    bool
	CallbackURL     string
}

// Backend submits generation jobs. Implementations: the real API client and
// a demo backend that synthesizes results locally. Selection is an explicit
// configuration choice made at startup, never a runtime fallback.
type Backend interface {
	// Submit fires the job and returns the external task ID. It never
	// blocks until generation completes. On failure a *SubmissionError is
	// returned and no task exists anywhere.
	Submit(ctx context.Context, req SubmitRequest) (string, error)

	Name() string
}

// SubmissionError means the external service rejected or never received the
// job. The caller may retry from scratch; no partial state is left behind
// and tokens are never touched.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return "music submission failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "music submission failed: " + e.Reason
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// ClampDuration bounds the requested duration to the service's supported
// range. Zero or negative requests get the minimum.
func ClampDuration(seconds, min, max int) int {
	if seconds < min {
		return min
	}
	if seconds > max {
		return max
	}
	return seconds
}
