package domain

import (
	"context"
	"time"
)

// TaskRegistry is the durable store for generation task lifecycle state.
// Implementations must make UpsertCompletion safe to retry: repeating the
// same terminal outcome is a no-op, and a conflicting terminal outcome is
// rejected with ErrConflictingResult without touching the stored record.
type TaskRegistry interface {
	// Register creates a pending record. ErrDuplicateTask when the task ID
	// already exists; idempotent callers treat that as success.
	Register(ctx context.Context, task *GenerationTask) error

	// UpsertCompletion applies a terminal result. If the task was never
	// registered the record is created first, since the external callback
	// may race ahead of registration.
	UpsertCompletion(ctx context.Context, taskID string, result CompletionResult, raw []byte) (*GenerationTask, error)

	// Get returns the current record or ErrTaskNotFound.
	Get(ctx context.Context, taskID string) (*GenerationTask, error)

	// ListAll and ListCompleted enumerate records ordered by recency.
	ListAll(ctx context.Context, limit int) ([]GenerationTask, error)
	ListCompleted(ctx context.Context, limit int) ([]GenerationTask, error)

	// Sweep deletes records older than maxAge and returns the count removed.
	Sweep(ctx context.Context, maxAge time.Duration) (int64, error)
}

// CreditParams describes a purchase or bonus credit.
type CreditParams struct {
	Type        TransactionType
	Amount      int64
	Description string
	// Reference is the external identifier making the credit idempotent,
	// e.g. a payment gateway transaction ID.
	Reference string
	Metadata  map[string]any
}

// TokenLedger mutates token balances through append-only transactions.
// Balances never go negative; a debit that would do so is rejected with
// ErrInsufficientTokens and has no side effect.
type TokenLedger interface {
	// Debit appends a usage transaction. At most one usage debit per task:
	// a second debit for the same task returns ErrDuplicateOperation.
	Debit(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*TokenTransaction, error)

	// Credit appends a purchase or bonus transaction. A credit with an
	// already-seen reference returns ErrDuplicateOperation.
	Credit(ctx context.Context, accountID string, params CreditParams) (*TokenTransaction, error)

	// Refund compensates a prior usage debit for the task. Without such a
	// debit it returns ErrNoUsageToRefund; refunding twice returns
	// ErrDuplicateOperation.
	Refund(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*TokenTransaction, error)

	Balance(ctx context.Context, accountID string) (int64, error)
	Transactions(ctx context.Context, accountID string, limit int) ([]TokenTransaction, error)
}
