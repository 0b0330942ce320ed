// Package ledger implements the token balance store. Balances change only
// through append-only transactions; for any account the sum of transaction
// amounts equals the balance.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
)

// Memory is the non-durable ledger for dev/demo mode and tests.
type Memory struct {
	mu           sync.Mutex
	balances     map[string]int64
	transactions []domain.TokenTransaction
	now          func() time.Time
}

// NewMemory constructs an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64), now: time.Now}
}

// Debit appends a usage transaction after the balance and one-per-task guards pass.
func (m *Memory) Debit(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*domain.TokenTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasTaskTransaction(relatedTaskID, domain.TransactionUsage) {
		return nil, domain.ErrDuplicateOperation
	}
	if m.balances[accountID] < amount {
		return nil, domain.ErrInsufficientTokens
	}

	m.balances[accountID] -= amount
	tx := domain.TokenTransaction{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Type:          domain.TransactionUsage,
		Amount:        -amount,
		Description:   description,
		RelatedTaskID: relatedTaskID,
		CreatedAt:     m.now(),
	}
	m.transactions = append(m.transactions, tx)
	return &tx, nil
}

// Credit appends a purchase or bonus transaction, idempotent per reference.
func (m *Memory) Credit(ctx context.Context, accountID string, params domain.CreditParams) (*domain.TokenTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if params.Reference != "" {
		for _, tx := range m.transactions {
			if tx.Reference == params.Reference {
				return nil, domain.ErrDuplicateOperation
			}
		}
	}

	m.balances[accountID] += params.Amount
	tx := domain.TokenTransaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Type:        params.Type,
		Amount:      params.Amount,
		Description: params.Description,
		Reference:   params.Reference,
		Metadata:    params.Metadata,
		CreatedAt:   m.now(),
	}
	m.transactions = append(m.transactions, tx)
	return &tx, nil
}

// Refund compensates a prior usage debit for the task.
func (m *Memory) Refund(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*domain.TokenTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasTaskTransaction(relatedTaskID, domain.TransactionUsage) {
		return nil, domain.ErrNoUsageToRefund
	}
	if m.hasTaskTransaction(relatedTaskID, domain.TransactionRefund) {
		return nil, domain.ErrDuplicateOperation
	}

	m.balances[accountID] += amount
	tx := domain.TokenTransaction{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		Type:          domain.TransactionRefund,
		Amount:        amount,
		Description:   description,
		RelatedTaskID: relatedTaskID,
		CreatedAt:     m.now(),
	}
	m.transactions = append(m.transactions, tx)
	return &tx, nil
}

// Balance returns the current balance; unknown accounts hold zero.
func (m *Memory) Balance(ctx context.Context, accountID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[accountID], nil
}

// Transactions lists the account's entries, newest first.
func (m *Memory) Transactions(ctx context.Context, accountID string, limit int) ([]domain.TokenTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []domain.TokenTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].AccountID != accountID {
			continue
		}
		items = append(items, m.transactions[i])
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (m *Memory) hasTaskTransaction(relatedTaskID string, txType domain.TransactionType) bool {
	if relatedTaskID == "" {
		return false
	}
	for _, tx := range m.transactions {
		if tx.RelatedTaskID == relatedTaskID && tx.Type == txType {
			return true
		}
	}
	return false
}

var _ domain.TokenLedger = (*Memory)(nil)
