package registry

import (
	"context"
	"fmt"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// Postgres is the authoritative task registry. Every mutation is a single
// atomic row statement keyed by task_id, so concurrent callbacks for the same
// task need no additional locking.
type Postgres struct {
	sql infra.SQLExecutor
}

// NewPostgres constructs a registry over the given SQL executor.
func NewPostgres(sql infra.SQLExecutor) *Postgres {
	return &Postgres{sql: sql}
}

// Register inserts a pending record for the task.
func (r *Postgres) Register(ctx context.Context, task *domain.GenerationTask) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertTask, task.TaskID, task.AccountID, task.Prompt)
	if err != nil {
		return fmt.Errorf("register task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateTask
	}
	return nil
}

// UpsertCompletion applies a terminal result. The insert-or-update statement
// only fires while the stored status is pending; when nothing comes back the
// record is already terminal and the stored outcome decides between no-op and
// conflict.
func (r *Postgres) UpsertCompletion(ctx context.Context, taskID string, result domain.CompletionResult, raw []byte) (*domain.GenerationTask, error) {
	status := result.TerminalStatus()
	errMsg := ""
	if status == domain.TaskStatusFailed {
		errMsg = result.FailureMessage()
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	row := r.sql.QueryRow(ctx, sqlinline.QUpsertTaskCompletion,
		taskID, string(status), result.AudioURL, result.Title, result.DurationSeconds, result.ImageURL, errMsg, raw)
	task, err := scanTask(row)
	if err == nil {
		return task, nil
	}
	if !infra.IsNoRows(err) {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}

	existing, getErr := r.Get(ctx, taskID)
	if getErr != nil {
		return nil, fmt.Errorf("upsert completion readback: %w", getErr)
	}
	if existing.Status == status {
		return existing, nil
	}
	return existing, domain.ErrConflictingResult
}

// Get returns the current record or domain.ErrTaskNotFound.
func (r *Postgres) Get(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectTask, taskID)
	task, err := scanTask(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListAll enumerates records, newest first.
func (r *Postgres) ListAll(ctx context.Context, limit int) ([]domain.GenerationTask, error) {
	return r.query(ctx, sqlinline.QListTasks, limit)
}

// ListCompleted enumerates completed records, newest first.
func (r *Postgres) ListCompleted(ctx context.Context, limit int) ([]domain.GenerationTask, error) {
	return r.query(ctx, sqlinline.QListCompletedTasks, limit)
}

func (r *Postgres) query(ctx context.Context, q string, limit int) ([]domain.GenerationTask, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.sql.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var items []domain.GenerationTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Sweep deletes records older than maxAge.
func (r *Postgres) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	tag, err := r.sql.Exec(ctx, sqlinline.QSweepTasks, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.GenerationTask, error) {
	var task domain.GenerationTask
	var status string
	if err := row.Scan(
		&task.TaskID,
		&task.AccountID,
		&status,
		&task.Prompt,
		&task.AudioURL,
		&task.Title,
		&task.DurationSeconds,
		&task.ImageURL,
		&task.ErrorMessage,
		&task.CreatedAt,
		&task.CompletedAt,
	); err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}

var _ domain.TaskRegistry = (*Postgres)(nil)
