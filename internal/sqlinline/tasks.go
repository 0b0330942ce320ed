package sqlinline

const QInsertTask = `--sql 7d1f3c9a-52e4-4b0a-9d3e-6f0a8c1b2d4e
insert into music_tasks(
  task_id,
  account_id,
  status,
  prompt,
  raw_payload,
  created_at
)
values (
  $1::text,
  $2::text,
  'pending',
  $3::text,
  '{}'::jsonb,
  now()
)
on conflict (task_id) do nothing;
`

// QUpsertTaskCompletion applies a terminal result as a single atomic row
// upsert. The status guard keeps terminal records immutable: when the task is
// already terminal no row comes back and the caller compares against the
// stored outcome.
const QUpsertTaskCompletion = `--sql 4b8e2f61-9c3d-4e7a-b5f0-1a2d3c4e5f60
insert into music_tasks(
  task_id,
  account_id,
  status,
  prompt,
  audio_url,
  title,
  duration_seconds,
  image_url,
  error_message,
  raw_payload,
  created_at,
  completed_at
)
values (
  $1::text,
  '',
  $2::text,
  '',
  $3::text,
  $4::text,
  $5::int,
  $6::text,
  $7::text,
  coalesce($8::jsonb, '{}'::jsonb),
  now(),
  now()
)
on conflict (task_id) do update set
  status = excluded.status,
  audio_url = excluded.audio_url,
  title = excluded.title,
  duration_seconds = excluded.duration_seconds,
  image_url = excluded.image_url,
  error_message = excluded.error_message,
  raw_payload = excluded.raw_payload,
  completed_at = coalesce(music_tasks.completed_at, now())
where music_tasks.status = 'pending'
returning task_id, account_id, status, prompt, audio_url, title, duration_seconds, image_url, error_message, created_at, completed_at;
`

const QSelectTask = `--sql 9e4a7b12-6d5c-4f3e-8a90-2b1c0d9e8f7a
select task_id, account_id, status, prompt, audio_url, title, duration_seconds, image_url, error_message, created_at, completed_at
from music_tasks
where task_id = $1::text
limit 1;
`

const QListTasks = `--sql 1c6d8e2f-3a4b-4c5d-9e0f-7a8b9c0d1e2f
select task_id, account_id, status, prompt, audio_url, title, duration_seconds, image_url, error_message, created_at, completed_at
from music_tasks
order by created_at desc
limit $1::int;
`

const QListCompletedTasks = `--sql 5f0e9d8c-7b6a-4d3c-a2b1-0c9d8e7f6a5b
select task_id, account_id, status, prompt, audio_url, title, duration_seconds, image_url, error_message, created_at, completed_at
from music_tasks
where status = 'completed'
order by completed_at desc
limit $1::int;
`

const QSweepTasks = `--sql 2a3b4c5d-6e7f-4a8b-9c0d-1e2f3a4b5c6d
delete from music_tasks
where created_at < $1::timestamptz;
`
