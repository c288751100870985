package recorder

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{"id", "kind", "record_key", "request_id", "payload", "created_at"}

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(database.New(db)), mock
}

func TestPostgresAppend(t *testing.T) {
	p, mock := newMockPostgres(t)
	rec := NewRecord(KindMatch, "req1", map[string]any{"score": 70})
	rec.Key = "cv.pdf"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pipeline_records")).
		WithArgs(rec.ID, KindMatch, "cv.pdf", "req1", []byte(`{"score":70}`), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Append(context.Background(), *rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListAndGet(t *testing.T) {
	p, mock := newMockPostgres(t)
	id := uuid.New()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM pipeline_records")).
		WithArgs(KindQASession, int32(5)).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(id.String(), KindQASession, "abc", "abc", []byte(`{"questions":[]}`), now))

	recs, err := p.List(context.Background(), KindQASession, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, id, recs[0].ID)
	assert.Equal(t, "abc", recs[0].Key)
	assert.Equal(t, []any{}, recs[0].Payload["questions"])

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)
	_, err = p.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCounts(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY kind")).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "total"}).
			AddRow(KindMatch, int64(4)).
			AddRow(KindInterview, int64(1)))

	counts, err := p.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{KindMatch: 4, KindInterview: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
