package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const createOrUpdateAnalysesResults = `-- name: CreateOrUpdateAnalysesResults :exec
INSERT INTO analyses_results (
results, session_id)
VALUES ( $1, $2)
ON CONFLICT (session_id)
DO UPDATE SET
    results = EXCLUDED.results,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateAnalysesResultsParams struct {
	Results   json.RawMessage
	SessionID uuid.UUID
}

func (q *Queries) CreateOrUpdateAnalysesResults(ctx context.Context, arg CreateOrUpdateAnalysesResultsParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateAnalysesResults, arg.Results, arg.SessionID)
	return err
}

const getAnalysesResultsBySession = `-- name: GetAnalysesResultsBySession :one
SELECT results, updated_at FROM analyses_results WHERE session_id=$1
`

type GetAnalysesResultsBySessionRow struct {
	Results   json.RawMessage
	UpdatedAt time.Time
}

func (q *Queries) GetAnalysesResultsBySession(ctx context.Context, sessionID uuid.UUID) (GetAnalysesResultsBySessionRow, error) {
	row := q.db.QueryRowContext(ctx, getAnalysesResultsBySession, sessionID)
	var i GetAnalysesResultsBySessionRow
	err := row.Scan(&i.Results, &i.UpdatedAt)
	return i, err
}
