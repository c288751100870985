package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const insertPipelineRecord = `-- name: InsertPipelineRecord :exec
INSERT INTO pipeline_records (id, kind, record_key, request_id, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING
`

type InsertPipelineRecordParams struct {
	ID        uuid.UUID
	Kind      string
	RecordKey string
	RequestID string
	Payload   json.RawMessage
	CreatedAt time.Time
}

func (q *Queries) InsertPipelineRecord(ctx context.Context, arg InsertPipelineRecordParams) error {
	_, err := q.db.ExecContext(ctx, insertPipelineRecord,
		arg.ID,
		arg.Kind,
		arg.RecordKey,
		arg.RequestID,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const listPipelineRecordsByKind = `-- name: ListPipelineRecordsByKind :many
SELECT id, kind, record_key, request_id, payload, created_at FROM pipeline_records
WHERE ($1::text = '' OR kind = $1)
ORDER BY created_at DESC
LIMIT $2
`

type ListPipelineRecordsByKindParams struct {
	Kind  string
	Limit int32
}

func (q *Queries) ListPipelineRecordsByKind(ctx context.Context, arg ListPipelineRecordsByKindParams) ([]PipelineRecord, error) {
	rows, err := q.db.QueryContext(ctx, listPipelineRecordsByKind, arg.Kind, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PipelineRecord
	for rows.Next() {
		var i PipelineRecord
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.RecordKey,
			&i.RequestID,
			&i.Payload,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPipelineRecord = `-- name: GetPipelineRecord :one
SELECT id, kind, record_key, request_id, payload, created_at FROM pipeline_records
WHERE id = $1
`

func (q *Queries) GetPipelineRecord(ctx context.Context, id uuid.UUID) (PipelineRecord, error) {
	row := q.db.QueryRowContext(ctx, getPipelineRecord, id)
	var i PipelineRecord
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.RecordKey,
		&i.RequestID,
		&i.Payload,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestPipelineRecordByKey = `-- name: GetLatestPipelineRecordByKey :one
SELECT id, kind, record_key, request_id, payload, created_at FROM pipeline_records
WHERE kind = $1 AND record_key = $2
ORDER BY created_at DESC
LIMIT 1
`

type GetLatestPipelineRecordByKeyParams struct {
	Kind      string
	RecordKey string
}

func (q *Queries) GetLatestPipelineRecordByKey(ctx context.Context, arg GetLatestPipelineRecordByKeyParams) (PipelineRecord, error) {
	row := q.db.QueryRowContext(ctx, getLatestPipelineRecordByKey, arg.Kind, arg.RecordKey)
	var i PipelineRecord
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.RecordKey,
		&i.RequestID,
		&i.Payload,
		&i.CreatedAt,
	)
	return i, err
}

const countPipelineRecordsByKind = `-- name: CountPipelineRecordsByKind :many
SELECT kind, COUNT(*) AS total FROM pipeline_records
GROUP BY kind
`

func (q *Queries) CountPipelineRecordsByKind(ctx context.Context) ([]KindSummary, error) {
	rows, err := q.db.QueryContext(ctx, countPipelineRecordsByKind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []KindSummary
	for rows.Next() {
		var i KindSummary
		if err := rows.Scan(&i.Kind, &i.Total); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
