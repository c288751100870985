package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/database"
)

// ErrNotFound is returned by history lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Postgres writes records to the pipeline_records table and serves them back
// as history.
type Postgres struct {
	DB *database.Queries
}

func NewPostgres(db *database.Queries) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal record payload: %w", err)
	}
	err = p.DB.InsertPipelineRecord(ctx, database.InsertPipelineRecordParams{
		ID:        rec.ID,
		Kind:      rec.Kind,
		RecordKey: rec.Key,
		RequestID: rec.RequestID,
		Payload:   payload,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert %s record: %w", rec.Kind, err)
	}
	return nil
}

// List returns the newest records of a kind, or of every kind when kind is empty.
func (p *Postgres) List(ctx context.Context, kind string, limit int) ([]Record, error) {
	rows, err := p.DB.ListPipelineRecordsByKind(ctx, database.ListPipelineRecordsByKindParams{
		Kind:  kind,
		Limit: int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row, err := p.DB.GetPipelineRecord(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	return fromRow(row)
}

// Latest returns the newest record of kind stored under key.
func (p *Postgres) Latest(ctx context.Context, kind, key string) (Record, error) {
	row, err := p.DB.GetLatestPipelineRecordByKey(ctx, database.GetLatestPipelineRecordByKeyParams{
		Kind:      kind,
		RecordKey: key,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get %s record %q: %w", kind, key, err)
	}
	return fromRow(row)
}

// Counts returns the number of stored records per kind.
func (p *Postgres) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := p.DB.CountPipelineRecordsByKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Total
	}
	return out, nil
}

func fromRow(row database.PipelineRecord) (Record, error) {
	rec := Record{
		ID:        row.ID,
		Kind:      row.Kind,
		Key:       row.RecordKey,
		RequestID: row.RequestID,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Payload, &rec.Payload); err != nil {
		return Record{}, fmt.Errorf("failed to decode record %s: %w", row.ID, err)
	}
	return rec, nil
}
