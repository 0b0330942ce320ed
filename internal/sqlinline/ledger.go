package sqlinline

// The ledger mutations rely on three partial unique indexes over
// token_transactions to stay idempotent under concurrency:
//
//   create unique index uq_token_tx_usage_task
//     on token_transactions (related_task_id) where type = 'usage';
//   create unique index uq_token_tx_refund_task
//     on token_transactions (related_task_id) where type = 'refund';
//   create unique index uq_token_tx_reference
//     on token_transactions (reference) where reference <> '';
//
// Each statement inserts the transaction entry first, with the index as the
// on-conflict arbiter, and moves the balance only for rows the insert
// actually produced. A read-committed snapshot cannot see a concurrent
// writer's entries, but the arbiter index can, so the losing statement
// returns zero rows and leaves the balance alone.

// QDebitTokens decrements the balance and appends the usage entry in one
// statement. The funded CTE locks the account row and enforces the
// non-negative balance rule; the usage index enforces one debit per task.
// When no row comes back the caller distinguishes the two cases with
// QSelectTaskTransactionTypes.
const QDebitTokens = `--sql 8c1d2e3f-4a5b-4c6d-8e9f-0a1b2c3d4e5f
with params as (
  select
    $1::text   as account_id,
    $2::bigint as amount,
    $3::text   as description,
    $4::text   as task_id
),
funded as (
  select a.account_id
  from token_accounts a, params p
  where a.account_id = p.account_id
    and a.balance >= p.amount
  for update of a
),
entry as (
  insert into token_transactions(id, account_id, type, amount, description, related_task_id, reference, metadata, created_at)
  select gen_random_uuid(), f.account_id, 'usage', -p.amount, p.description, p.task_id, '', '{}'::jsonb, now()
  from funded f, params p
  on conflict (related_task_id) where type = 'usage' do nothing
  returning id, account_id, created_at
),
debited as (
  update token_accounts a
  set balance = a.balance - p.amount, updated_at = now()
  from params p
  where a.account_id in (select account_id from entry)
  returning a.balance
)
select entry.id, debited.balance, entry.created_at
from entry, debited;
`

// QCreditTokens inserts the credit entry first so a duplicate reference hits
// the reference index and skips the balance upsert entirely.
const QCreditTokens = `--sql 3e4f5a6b-7c8d-4e9f-a0b1-2c3d4e5f6a7b
with params as (
  select
    $1::text   as account_id,
    $2::text   as tx_type,
    $3::bigint as amount,
    $4::text   as description,
    $5::text   as reference,
    coalesce($6::jsonb, '{}'::jsonb) as metadata
),
entry as (
  insert into token_transactions(id, account_id, type, amount, description, related_task_id, reference, metadata, created_at)
  select gen_random_uuid(), p.account_id, p.tx_type, p.amount, p.description, '', p.reference, p.metadata, now()
  from params p
  on conflict (reference) where reference <> '' do nothing
  returning id, account_id, created_at
),
upacct as (
  insert into token_accounts(account_id, balance, created_at, updated_at)
  select e.account_id, p.amount, now(), now()
  from entry e, params p
  on conflict (account_id) do update set
    balance = token_accounts.balance + excluded.balance,
    updated_at = now()
  returning account_id, balance
)
select entry.id, upacct.balance, entry.created_at
from entry, upacct;
`

// QRefundTokens compensates a prior usage debit. Eligibility requires a usage
// entry for the task; the refund index forbids a second refund.
const QRefundTokens = `--sql 6a7b8c9d-0e1f-4a2b-8c3d-4e5f6a7b8c9d
with params as (
  select
    $1::text   as account_id,
    $2::bigint as amount,
    $3::text   as description,
    $4::text   as task_id
),
eligible as (
  select p.account_id
  from params p
  where exists (
      select 1 from token_transactions t
      where t.related_task_id = p.task_id and t.type = 'usage'
    )
),
entry as (
  insert into token_transactions(id, account_id, type, amount, description, related_task_id, reference, metadata, created_at)
  select gen_random_uuid(), e.account_id, 'refund', p.amount, p.description, p.task_id, '', '{}'::jsonb, now()
  from eligible e, params p
  on conflict (related_task_id) where type = 'refund' do nothing
  returning id, account_id, created_at
),
credited as (
  update token_accounts a
  set balance = a.balance + p.amount, updated_at = now()
  from params p
  where a.account_id in (select account_id from entry)
  returning a.balance
)
select entry.id, credited.balance, entry.created_at
from entry, credited;
`

const QSelectTaskTransactionTypes = `--sql 0b1c2d3e-4f5a-4b6c-9d7e-8f9a0b1c2d3e
select type
from token_transactions
where related_task_id = $1::text
order by created_at asc;
`

const QSelectBalance = `--sql 9d8e7f6a-5b4c-4d3e-8f2a-1b0c9d8e7f6a
select balance
from token_accounts
where account_id = $1::text
limit 1;
`

const QListTransactions = `--sql 4e5f6a7b-8c9d-4e0f-a1b2-3c4d5e6f7a8b
select id, account_id, type, amount, description, related_task_id, reference, metadata, created_at
from token_transactions
where account_id = $1::text
order by created_at desc
limit $2::int;
`
