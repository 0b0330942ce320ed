package sqlinline

import (
	"strings"
	"testing"
)

// The ledger mutations must guard idempotency with on-conflict arbiters, not
// snapshot subqueries: under read committed a blocked writer re-checks the
// locked account row but never re-reads token_transactions, so a not-exists
// guard lets two racing statements both pass.
func TestLedgerMutationsUseConflictArbiters(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		arbiter string
	}{
		{"debit", QDebitTokens, "on conflict (related_task_id) where type = 'usage' do nothing"},
		{"credit", QCreditTokens, "on conflict (reference) where reference <> '' do nothing"},
		{"refund", QRefundTokens, "on conflict (related_task_id) where type = 'refund' do nothing"},
	}
	for _, tc := range cases {
		if !strings.Contains(tc.query, tc.arbiter) {
			t.Errorf("%s statement lost its arbiter clause %q", tc.name, tc.arbiter)
		}
		if strings.Contains(tc.query, "not exists") {
			t.Errorf("%s statement guards a unique rule with a snapshot subquery", tc.name)
		}
	}
}

// The balance updates must key off the inserted entry rows; an update driven
// straight from params would move the balance even when the entry insert hit
// its arbiter and produced nothing.
func TestLedgerBalanceMovesFollowEntry(t *testing.T) {
	for _, q := range []string{QDebitTokens, QRefundTokens} {
		if !strings.Contains(q, "where a.account_id in (select account_id from entry)") {
			t.Errorf("balance update is not keyed on the entry insert:\n%s", q)
		}
	}
	if !strings.Contains(QCreditTokens, "select e.account_id, p.amount, now(), now()\n  from entry e, params p") {
		t.Error("credit balance upsert is not keyed on the entry insert")
	}
}
