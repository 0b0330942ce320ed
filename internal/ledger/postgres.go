package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// Postgres is the durable token ledger. Every mutation is a single CTE
// statement that checks eligibility, moves the balance, and appends the
// transaction atomically, so concurrent requests cannot drive a balance
// negative or double-charge a task.
type Postgres struct {
	sql infra.SQLExecutor
}

// NewPostgres constructs a ledger over the given SQL executor.
func NewPostgres(sql infra.SQLExecutor) *Postgres {
	return &Postgres{sql: sql}
}

// Debit appends a usage transaction for the task.
func (l *Postgres) Debit(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*domain.TokenTransaction, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QDebitTokens, accountID, amount, description, relatedTaskID)
	tx := domain.TokenTransaction{
		AccountID:     accountID,
		Type:          domain.TransactionUsage,
		Amount:        -amount,
		Description:   description,
		RelatedTaskID: relatedTaskID,
	}
	var balance int64
	if err := row.Scan(&tx.ID, &balance, &tx.CreatedAt); err != nil {
		if !infra.IsNoRows(err) {
			return nil, fmt.Errorf("debit tokens: %w", err)
		}
		if charged, checkErr := l.taskHasType(ctx, relatedTaskID, domain.TransactionUsage); checkErr != nil {
			return nil, checkErr
		} else if charged {
			return nil, domain.ErrDuplicateOperation
		}
		return nil, domain.ErrInsufficientTokens
	}
	return &tx, nil
}

// Credit appends a purchase or bonus transaction, idempotent per reference.
func (l *Postgres) Credit(ctx context.Context, accountID string, params domain.CreditParams) (*domain.TokenTransaction, error) {
	metadata, err := json.Marshal(params.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode credit metadata: %w", err)
	}
	if params.Metadata == nil {
		metadata = []byte("{}")
	}
	row := l.sql.QueryRow(ctx, sqlinline.QCreditTokens,
		accountID, string(params.Type), params.Amount, params.Description, params.Reference, metadata)
	tx := domain.TokenTransaction{
		AccountID:   accountID,
		Type:        params.Type,
		Amount:      params.Amount,
		Description: params.Description,
		Reference:   params.Reference,
		Metadata:    params.Metadata,
	}
	var balance int64
	if err := row.Scan(&tx.ID, &balance, &tx.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrDuplicateOperation
		}
		return nil, fmt.Errorf("credit tokens: %w", err)
	}
	return &tx, nil
}

// Refund compensates a prior usage debit for the task.
func (l *Postgres) Refund(ctx context.Context, accountID string, amount int64, description, relatedTaskID string) (*domain.TokenTransaction, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QRefundTokens, accountID, amount, description, relatedTaskID)
	tx := domain.TokenTransaction{
		AccountID:     accountID,
		Type:          domain.TransactionRefund,
		Amount:        amount,
		Description:   description,
		RelatedTaskID: relatedTaskID,
	}
	var balance int64
	if err := row.Scan(&tx.ID, &balance, &tx.CreatedAt); err != nil {
		if !infra.IsNoRows(err) {
			return nil, fmt.Errorf("refund tokens: %w", err)
		}
		if charged, checkErr := l.taskHasType(ctx, relatedTaskID, domain.TransactionUsage); checkErr != nil {
			return nil, checkErr
		} else if !charged {
			return nil, domain.ErrNoUsageToRefund
		}
		return nil, domain.ErrDuplicateOperation
	}
	return &tx, nil
}

// Balance returns the current balance; unknown accounts hold zero.
func (l *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QSelectBalance, accountID)
	var balance int64
	if err := row.Scan(&balance); err != nil {
		if infra.IsNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("select balance: %w", err)
	}
	return balance, nil
}

// Transactions lists the account's entries, newest first.
func (l *Postgres) Transactions(ctx context.Context, accountID string, limit int) ([]domain.TokenTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.sql.Query(ctx, sqlinline.QListTransactions, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var items []domain.TokenTransaction
	for rows.Next() {
		var tx domain.TokenTransaction
		var txType string
		var metadata []byte
		if err := rows.Scan(&tx.ID, &tx.AccountID, &txType, &tx.Amount, &tx.Description, &tx.RelatedTaskID, &tx.Reference, &metadata, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = domain.TransactionType(txType)
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &tx.Metadata)
		}
		items = append(items, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (l *Postgres) taskHasType(ctx context.Context, relatedTaskID string, txType domain.TransactionType) (bool, error) {
	if relatedTaskID == "" {
		return false, nil
	}
	rows, err := l.sql.Query(ctx, sqlinline.QSelectTaskTransactionTypes, relatedTaskID)
	if err != nil {
		return false, fmt.Errorf("select task transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var found string
		if err := rows.Scan(&found); err != nil {
			return false, err
		}
		if domain.TransactionType(found) == txType {
			return true, nil
		}
	}
	return false, rows.Err()
}

var _ domain.TokenLedger = (*Postgres)(nil)
