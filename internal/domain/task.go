package domain

import "time"

// TaskStatus enumerates generation task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// IsTerminal reports whether no further transitions are permitted.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// GenerationTask tracks one external music generation job. The task ID is
// assigned by the external service at submission time and never changes.
type GenerationTask struct {
	TaskID          string
	AccountID       string
	Status          TaskStatus
	Prompt          string
	AudioURL        string
	Title           string
	DurationSeconds int
	ImageURL        string
	ErrorMessage    string
	RawPayload      []byte
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// CompletionResult carries the fields extracted from a completion callback.
// An empty AudioURL means the generation cannot be delivered and the task
// resolves to failed even when the sender claimed success.
type CompletionResult struct {
	AudioURL        string
	Title           string
	DurationSeconds int
	ImageURL        string
	ErrorMessage    string
}

// Failed reports whether the result describes a failed generation.
func (r CompletionResult) Failed() bool {
	return r.AudioURL == ""
}

// TerminalStatus returns the task status this result transitions to.
func (r CompletionResult) TerminalStatus() TaskStatus {
	if r.Failed() {
		return TaskStatusFailed
	}
	return TaskStatusCompleted
}

// FailureMessage returns the error string recorded for a failed result.
func (r CompletionResult) FailureMessage() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	return "no audio url"
}

// ResolveStatus is the client-facing view of a task's progress.
type ResolveStatus string

const (
	ResolveProcessing ResolveStatus = "processing"
	ResolveCompleted  ResolveStatus = "completed"
	ResolveFailed     ResolveStatus = "failed"
)

// Resolution is the read-only answer to a result query.
type Resolution struct {
	Status          ResolveStatus
	AudioURL        string
	Title           string
	DurationSeconds int
	ImageURL        string
	ErrorMessage    string
}

// Terminal reports whether polling may stop.
func (r Resolution) Terminal() bool {
	return r.Status == ResolveCompleted || r.Status == ResolveFailed
}

// Resolve maps a stored task record onto the client contract. A nil task is
// treated as a callback that has not arrived yet, not as a failure. A task
// marked completed without an audio URL is an inconsistent record and is
// degraded to failed rather than delivered.
func Resolve(task *GenerationTask) Resolution {
	if task == nil {
		return Resolution{Status: ResolveProcessing}
	}
	switch task.Status {
	case TaskStatusFailed:
		msg := task.ErrorMessage
		if msg == "" {
			msg = "generation failed"
		}
		return Resolution{Status: ResolveFailed, ErrorMessage: msg}
	case TaskStatusCompleted:
		if task.AudioURL == "" {
			return Resolution{Status: ResolveFailed, ErrorMessage: "no audio url"}
		}
		return Resolution{
			Status:          ResolveCompleted,
			AudioURL:        task.AudioURL,
			Title:           task.Title,
			DurationSeconds: task.DurationSeconds,
			ImageURL:        task.ImageURL,
		}
	default:
		return Resolution{Status: ResolveProcessing}
	}
}
