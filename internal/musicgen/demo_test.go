package musicgen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/storage"
)

type capturedCompletion struct {
	taskID string
	result domain.CompletionResult
	raw    []byte
}

type completionRecorder struct {
	mu   sync.Mutex
	got  []capturedCompletion
	done chan struct{}
}

func newCompletionRecorder() *completionRecorder {
	return &completionRecorder{done: make(chan struct{}, 4)}
}

func (r *completionRecorder) sink(ctx context.Context, taskID string, result domain.CompletionResult, raw []byte) {
	r.mu.Lock()
	r.got = append(r.got, capturedCompletion{taskID: taskID, result: result, raw: raw})
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *completionRecorder) wait(t *testing.T) capturedCompletion {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for demo completion")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

func TestDemoSubmitDeliversCompletion(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	rec := newCompletionRecorder()
	demo := NewDemo(DemoOptions{
		Store:          store,
		StorageBaseURL: "http://localhost:8080/static",
		Complete:       rec.sink,
		Delay:          10 * time.Millisecond,
		Logger:         zerolog.Nop(),
	})

	taskID, err := demo.Submit(context.Background(), SubmitRequest{
		Prompt:          "calm rainy evening with soft piano",
		DurationSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(taskID, "demo-") {
		t.Fatalf("task ID = %q, want demo- prefix", taskID)
	}

	got := rec.wait(t)
	if got.taskID != taskID {
		t.Errorf("completion task ID = %q, want %q", got.taskID, taskID)
	}
	if got.result.Failed() {
		t.Fatalf("demo completion failed: %+v", got.result)
	}
	if !strings.HasPrefix(got.result.AudioURL, "http://localhost:8080/static/demo/") {
		t.Errorf("audio URL = %q, want under /static/demo/", got.result.AudioURL)
	}
	if got.result.Title != "calm rainy evening with" {
		t.Errorf("title = %q", got.result.Title)
	}
	if got.result.DurationSeconds != 60 {
		t.Errorf("duration = %d, want 60", got.result.DurationSeconds)
	}
	if len(got.raw) == 0 {
		t.Error("raw payload is empty")
	}
}

func TestDemoSubmitRejectsEmptyPrompt(t *testing.T) {
	demo := NewDemo(DemoOptions{Logger: zerolog.Nop()})
	_, err := demo.Submit(context.Background(), SubmitRequest{Prompt: "   "})
	var serr *SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want SubmissionError", err)
	}
}

func TestDemoCompletionWithoutStoreUsesPlaceholder(t *testing.T) {
	rec := newCompletionRecorder()
	demo := NewDemo(DemoOptions{
		StorageBaseURL: "http://localhost:8080/static",
		Complete:       rec.sink,
		Delay:          time.Millisecond,
		Logger:         zerolog.Nop(),
	})
	if _, err := demo.Submit(context.Background(), SubmitRequest{Prompt: "lofi"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got := rec.wait(t)
	if got.result.AudioURL != "http://localhost:8080/static/demo/placeholder.mp3" {
		t.Errorf("audio URL = %q", got.result.AudioURL)
	}
}
