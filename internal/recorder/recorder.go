// Package recorder persists completed pipeline results for history and analytics.
// Recording is never on the success path of a request.
package recorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Record kinds written by the hiring workflows.
const (
	KindMatch        = "match"
	KindQASession    = "qa_session"
	KindCallAnalysis = "call_analysis"
	KindInterview    = "interview"
	KindAssistant    = "assistant"
)

type Record struct {
	ID        uuid.UUID      `json:"id"`
	Kind      string         `json:"kind"`
	Key       string         `json:"key,omitempty"` // caller-chosen id, e.g. an interview id
	RequestID string         `json:"request_id,omitempty"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRecord stamps a record with a fresh id and the current time.
func NewRecord(kind, requestID string, payload map[string]any) *Record {
	return &Record{
		ID:        uuid.New(),
		Kind:      kind,
		RequestID: requestID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder is an append-only sink.
type Recorder interface {
	Append(ctx context.Context, rec Record) error
}

// AppendBestEffort appends rec and logs, but never returns, a failure.
func AppendBestEffort(ctx context.Context, r Recorder, rec Record, log logrus.FieldLogger) {
	if err := r.Append(ctx, rec); err != nil {
		log.WithFields(logrus.Fields{
			"record_id": rec.ID.String(),
			"kind":      rec.Kind,
		}).WithError(err).Error("failed to record result")
	}
}

type Nop struct{}

func (Nop) Append(context.Context, Record) error { return nil }

// Multi fans a record out to every sink; one failing sink does not stop the others.
type Multi []Recorder

func (m Multi) Append(ctx context.Context, rec Record) error {
	var errs []error
	for _, r := range m {
		if err := r.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultMemoryLimit is how many records a zero-value Memory retains.
const DefaultMemoryLimit = 1000

// Memory keeps the most recent records in process. Used when no durable store
// is configured; it also serves history reads in that case. Once Limit records
// are held, each append evicts the oldest.
type Memory struct {
	Limit int

	mu      sync.Mutex
	records []Record
}

func (m *Memory) limit() int {
	if m.Limit > 0 {
		return m.Limit
	}
	return DefaultMemoryLimit
}

func (m *Memory) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if over := len(m.records) + 1 - m.limit(); over > 0 {
		clear(m.records[:over])
		m.records = m.records[over:]
	}
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of everything appended so far, oldest first.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}
