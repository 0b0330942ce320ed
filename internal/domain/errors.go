package domain

import "errors"

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrDuplicateTask      = errors.New("duplicate task")
	ErrConflictingResult  = errors.New("conflicting terminal result")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrDuplicateOperation = errors.New("duplicate operation")
	ErrNoUsageToRefund    = errors.New("no usage debit to refund")
)
