package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
)

type fakeExecutor struct {
	tag   pgconn.CommandTag
	rows  []func(dest ...any) error
	calls int
}

func (f *fakeExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return f.tag, nil
}

func (f *fakeExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	var scan func(dest ...any) error
	if f.calls < len(f.rows) {
		scan = f.rows[f.calls]
	}
	f.calls++
	return fakeRow{scan: scan}
}

func (f *fakeExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func taskRow(task domain.GenerationTask) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = task.TaskID
		*(dest[1].(*string)) = task.AccountID
		*(dest[2].(*string)) = string(task.Status)
		*(dest[3].(*string)) = task.Prompt
		*(dest[4].(*string)) = task.AudioURL
		*(dest[5].(*string)) = task.Title
		*(dest[6].(*int)) = task.DurationSeconds
		*(dest[7].(*string)) = task.ImageURL
		*(dest[8].(*string)) = task.ErrorMessage
		*(dest[9].(*time.Time)) = task.CreatedAt
		*(dest[10].(**time.Time)) = task.CompletedAt
		return nil
	}
}

func TestPostgresRegister(t *testing.T) {
	exec := &fakeExecutor{tag: pgconn.NewCommandTag("INSERT 0 1")}
	err := NewPostgres(exec).Register(context.Background(), &domain.GenerationTask{TaskID: "task-1", AccountID: "acct-1"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
}

func TestPostgresRegisterDuplicate(t *testing.T) {
	exec := &fakeExecutor{tag: pgconn.NewCommandTag("INSERT 0 0")}
	err := NewPostgres(exec).Register(context.Background(), &domain.GenerationTask{TaskID: "task-1"})
	if !errors.Is(err, domain.ErrDuplicateTask) {
		t.Fatalf("expected ErrDuplicateTask, got %v", err)
	}
}

// A re-delivered callback finds the row already terminal; the upsert returns
// no rows and the readback decides the outcome. A matching status is a no-op.
func TestPostgresUpsertCompletionRedelivery(t *testing.T) {
	completed := time.Now()
	stored := domain.GenerationTask{
		TaskID:      "task-1",
		AccountID:   "acct-1",
		Status:      domain.TaskStatusCompleted,
		AudioURL:    "https://cdn.example.com/track.mp3",
		CompletedAt: &completed,
	}
	exec := &fakeExecutor{rows: []func(dest ...any) error{nil, taskRow(stored)}}

	task, err := NewPostgres(exec).UpsertCompletion(context.Background(), "task-1",
		domain.CompletionResult{AudioURL: "https://cdn.example.com/track.mp3"}, nil)
	if err != nil {
		t.Fatalf("UpsertCompletion error: %v", err)
	}
	if task.Status != domain.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", task.Status)
	}
	if exec.calls != 2 {
		t.Fatalf("expected upsert plus readback, got %d queries", exec.calls)
	}
}

func TestPostgresUpsertCompletionConflict(t *testing.T) {
	stored := domain.GenerationTask{
		TaskID: "task-1",
		Status: domain.TaskStatusFailed,
	}
	exec := &fakeExecutor{rows: []func(dest ...any) error{nil, taskRow(stored)}}

	task, err := NewPostgres(exec).UpsertCompletion(context.Background(), "task-1",
		domain.CompletionResult{AudioURL: "https://cdn.example.com/track.mp3"}, nil)
	if !errors.Is(err, domain.ErrConflictingResult) {
		t.Fatalf("expected ErrConflictingResult, got %v", err)
	}
	if task == nil || task.Status != domain.TaskStatusFailed {
		t.Fatalf("expected stored failed record, got %+v", task)
	}
}

func TestPostgresGetNotFound(t *testing.T) {
	exec := &fakeExecutor{}
	_, err := NewPostgres(exec).Get(context.Background(), "task-1")
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
