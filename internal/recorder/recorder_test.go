package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errRecorder struct{ err error }

func (e errRecorder) Append(context.Context, Record) error { return e.err }

func TestNewRecord(t *testing.T) {
	rec := NewRecord(KindMatch, "req1", map[string]any{"score": 1})
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, KindMatch, rec.Kind)
	assert.Equal(t, "req1", rec.RequestID)
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)
}

func TestMultiAppendsToAll(t *testing.T) {
	a, b := &Memory{}, &Memory{}
	boom := errors.New("boom")
	m := Multi{a, errRecorder{boom}, b}

	err := m.Append(context.Background(), *NewRecord(KindMatch, "", nil))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.Records(), 1)
	assert.Len(t, b.Records(), 1)
}

func TestAppendBestEffortLogs(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	AppendBestEffort(context.Background(), errRecorder{errors.New("down")}, *NewRecord(KindAssistant, "", nil), log)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "failed to record result", entry.Message)
	assert.Equal(t, KindAssistant, entry.Data["kind"])

	hook.Reset()
	AppendBestEffort(context.Background(), Nop{}, *NewRecord(KindAssistant, "", nil), log)
	assert.Empty(t, hook.AllEntries())
}

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	m := &Memory{}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, kind := range []string{KindMatch, KindQASession, KindMatch, KindInterview} {
		rec := NewRecord(kind, "", map[string]any{"i": i})
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		rec.Key = "k"
		ids = append(ids, rec.ID)
		require.NoError(t, m.Append(ctx, *rec))
	}

	matches, err := m.List(ctx, KindMatch, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, ids[2], matches[0].ID)

	all, err := m.List(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[3], all[0].ID)

	got, err := m.Get(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, KindQASession, got.Kind)

	_, err = m.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	latest, err := m.Latest(ctx, KindMatch, "k")
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)

	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{KindMatch: 2, KindQASession: 1, KindInterview: 1}, counts)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	ctx := WithRequestID(context.Background(), "1a2b3c4d")
	assert.Equal(t, "1a2b3c4d", RequestID(ctx))
}

func TestMemoryEvictsOldest(t *testing.T) {
	ctx := context.Background()
	m := &Memory{Limit: 3}
	var ids []uuid.UUID
	for i := range 5 {
		rec := NewRecord(KindMatch, "", map[string]any{"i": i})
		ids = append(ids, rec.ID)
		require.NoError(t, m.Append(ctx, *rec))
	}

	records := m.Records()
	require.Len(t, records, 3)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[4], records[2].ID)

	_, err := m.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound)
	counts, err := m.Counts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[KindMatch])
}

func TestMemoryDefaultLimit(t *testing.T) {
	ctx := context.Background()
	m := &Memory{}
	for range DefaultMemoryLimit + 10 {
		require.NoError(t, m.Append(ctx, *NewRecord(KindAssistant, "", nil)))
	}
	assert.Len(t, m.Records(), DefaultMemoryLimit)
}
