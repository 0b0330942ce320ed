// Package registry provides the durable store for generation task lifecycle
// state, keyed by the opaque task ID the external music service assigns.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"server/internal/domain"
)

// Memory is the non-durable task registry used in dev/demo mode and in
// tests. It is selected only by explicit configuration; production always
// runs on the Postgres registry, which survives process restarts.
type Memory struct {
	mu    sync.Mutex
	tasks map[string]*domain.GenerationTask
	now   func() time.Time
}

// NewMemory constructs an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{tasks: make(map[string]*domain.GenerationTask), now: time.Now}
}

// Register creates a pending record for the task.
func (m *Memory) Register(ctx context.Context, task *domain.GenerationTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[task.TaskID]; exists {
		return domain.ErrDuplicateTask
	}
	stored := *task
	stored.Status = domain.TaskStatusPending
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now()
	}
	m.tasks[task.TaskID] = &stored
	return nil
}

// UpsertCompletion applies a terminal result, creating the record first when
// the callback arrived before registration.
func (m *Memory) UpsertCompletion(ctx context.Context, taskID string, result domain.CompletionResult, raw []byte) (*domain.GenerationTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	task, exists := m.tasks[taskID]
	if !exists {
		task = &domain.GenerationTask{
			TaskID:    taskID,
			Status:    domain.TaskStatusPending,
			CreatedAt: m.now(),
		}
		m.tasks[taskID] = task
	}

	target := result.TerminalStatus()
	if task.Status.IsTerminal() {
		if task.Status == target {
			snapshot := *task
			return &snapshot, nil
		}
		snapshot := *task
		return &snapshot, domain.ErrConflictingResult
	}

	task.Status = target
	task.AudioURL = result.AudioURL
	task.Title = result.Title
	task.DurationSeconds = result.DurationSeconds
	task.ImageURL = result.ImageURL
	if target == domain.TaskStatusFailed {
		task.ErrorMessage = result.FailureMessage()
	}
	task.RawPayload = append([]byte(nil), raw...)
	completed := m.now()
	task.CompletedAt = &completed

	snapshot := *task
	return &snapshot, nil
}

// Get returns a copy of the current record.
func (m *Memory) Get(ctx context.Context, taskID string) (*domain.GenerationTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, domain.ErrTaskNotFound
	}
	snapshot := *task
	return &snapshot, nil
}

// ListAll enumerates records, newest first.
func (m *Memory) ListAll(ctx context.Context, limit int) ([]domain.GenerationTask, error) {
	return m.list(ctx, limit, func(*domain.GenerationTask) bool { return true })
}

// ListCompleted enumerates completed records, newest first.
func (m *Memory) ListCompleted(ctx context.Context, limit int) ([]domain.GenerationTask, error) {
	return m.list(ctx, limit, func(t *domain.GenerationTask) bool {
		return t.Status == domain.TaskStatusCompleted
	})
}

func (m *Memory) list(ctx context.Context, limit int, keep func(*domain.GenerationTask) bool) ([]domain.GenerationTask, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.GenerationTask
	for _, task := range m.tasks {
		if keep(task) {
			items = append(items, *task)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Sweep removes records older than maxAge.
func (m *Memory) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-maxAge)
	var removed int64
	for id, task := range m.tasks {
		if task.CreatedAt.Before(cutoff) {
			delete(m.tasks, id)
			removed++
		}
	}
	return removed, nil
}

var _ domain.TaskRegistry = (*Memory)(nil)
