package domain

import "testing"

func TestResolveUnknownTaskIsProcessing(t *testing.T) {
	res := Resolve(nil)
	if res.Status != ResolveProcessing {
		t.Fatalf("nil task resolved as %q, want processing", res.Status)
	}
	if res.Terminal() {
		t.Fatalf("processing must not be terminal")
	}
}

func TestResolvePending(t *testing.T) {
	res := Resolve(&GenerationTask{TaskID: "abc123", Status: TaskStatusPending})
	if res.Status != ResolveProcessing {
		t.Fatalf("pending task resolved as %q, want processing", res.Status)
	}
}

func TestResolveCompleted(t *testing.T) {
	task := &GenerationTask{
		TaskID:          "abc123",
		Status:          TaskStatusCompleted,
		AudioURL:        "https://cdn.example.com/x.mp3",
		Title:           "Calm",
		DurationSeconds: 32,
		ImageURL:        "https://cdn.example.com/x.png",
	}
	res := Resolve(task)
	if res.Status != ResolveCompleted {
		t.Fatalf("resolved as %q, want completed", res.Status)
	}
	if res.AudioURL != task.AudioURL || res.Title != "Calm" || res.DurationSeconds != 32 {
		t.Fatalf("completed payload mismatch: %+v", res)
	}
	if !res.Terminal() {
		t.Fatalf("completed must be terminal")
	}
}

func TestResolveCompletedWithoutAudioDegradesToFailed(t *testing.T) {
	res := Resolve(&GenerationTask{TaskID: "abc123", Status: TaskStatusCompleted})
	if res.Status != ResolveFailed {
		t.Fatalf("resolved as %q, want failed", res.Status)
	}
	if res.ErrorMessage != "no audio url" {
		t.Fatalf("unexpected error message: %q", res.ErrorMessage)
	}
}

func TestResolveFailedCarriesError(t *testing.T) {
	res := Resolve(&GenerationTask{TaskID: "abc123", Status: TaskStatusFailed, ErrorMessage: "render failed"})
	if res.Status != ResolveFailed {
		t.Fatalf("resolved as %q, want failed", res.Status)
	}
	if res.ErrorMessage != "render failed" {
		t.Fatalf("unexpected error message: %q", res.ErrorMessage)
	}
}

func TestCompletionResultTerminalStatus(t *testing.T) {
	completed := CompletionResult{AudioURL: "https://cdn.example.com/x.mp3"}
	if completed.TerminalStatus() != TaskStatusCompleted {
		t.Fatalf("result with audio must complete")
	}
	failed := CompletionResult{ErrorMessage: "render failed"}
	if failed.TerminalStatus() != TaskStatusFailed {
		t.Fatalf("result without audio must fail")
	}
	if failed.FailureMessage() != "render failed" {
		t.Fatalf("unexpected failure message: %q", failed.FailureMessage())
	}
	missing := CompletionResult{}
	if missing.FailureMessage() != "no audio url" {
		t.Fatalf("unexpected default failure message: %q", missing.FailureMessage())
	}
}
