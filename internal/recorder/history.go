package recorder

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// History reads recorded results back, newest first.
type History interface {
	List(ctx context.Context, kind string, limit int) ([]Record, error)
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	Latest(ctx context.Context, kind, key string) (Record, error)
	Counts(ctx context.Context) (map[string]int64, error)
}

// List returns up to limit records of kind (all kinds when empty), newest first.
func (m *Memory) List(_ context.Context, kind string, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for i := len(m.records) - 1; i >= 0; i-- {
		if kind != "" && m.records[i].Kind != kind {
			continue
		}
		out = append(out, m.records[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id uuid.UUID) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *Memory) Latest(_ context.Context, kind, key string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if r := m.records[i]; r.Kind == kind && r.Key == key {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *Memory) Counts(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64)
	for _, r := range m.records {
		out[r.Kind]++
	}
	return out, nil
}

type requestIDKey struct{}

// WithRequestID attaches the id of the HTTP request being served.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
