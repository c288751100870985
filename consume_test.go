package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/database"
	"github.com/muhammadolammi/talentpipeline/internal/hiring"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	resumes  []database.Resume
	listErr  error
	saveErrs []error
	saves    int
	saved    json.RawMessage
	statuses []string
}

func (f *fakeSessionStore) GetResumesBySession(context.Context, uuid.UUID) ([]database.Resume, error) {
	return f.resumes, f.listErr
}

func (f *fakeSessionStore) CreateOrUpdateAnalysesResults(_ context.Context, arg database.CreateOrUpdateAnalysesResultsParams) error {
	i := f.saves
	f.saves++
	if i < len(f.saveErrs) && f.saveErrs[i] != nil {
		return f.saveErrs[i]
	}
	f.saved = arg.Results
	return nil
}

func (f *fakeSessionStore) UpdateSessionStatus(_ context.Context, arg database.UpdateSessionStatusParams) error {
	f.statuses = append(f.statuses, arg.Status)
	return nil
}

// fakeFiles serves objects from memory; missing keys fail every time.
type fakeFiles map[string]string

func (f fakeFiles) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

type capturePublisher struct {
	mu      sync.Mutex
	updates []SessionUpdate
}

func (c *capturePublisher) Publish(u SessionUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
	return nil
}

func newTestWorker(t *testing.T, store *fakeSessionStore, files fakeFiles, llm *scriptedLLM) (*WorkerConfig, *capturePublisher) {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	pub := &capturePublisher{}
	return &WorkerConfig{
		DB:        store,
		Files:     files,
		Bucket:    "resumes",
		Publisher: pub,
		LLM:       llm,
		System:    hiring.ResumeAnalysisInstruction,
		Exec:      testExecutor(t),
		Log:       log,
	}, pub
}

func textResume(key string) database.Resume {
	return database.Resume{ID: uuid.New(), ObjectKey: key, OriginalFilename: key, Mime: "text/plain"}
}

func TestProcessSession(t *testing.T) {
	store := &fakeSessionStore{resumes: []database.Resume{textResume("a.txt"), textResume("missing.txt"), textResume("b.txt")}}
	files := fakeFiles{"a.txt": "Go developer, 6 years", "b.txt": "Designer"}
	llm := &scriptedLLM{replies: []string{
		"```json\n{\"candidate_email\": \"a@x.io\", \"match_score\": 88, \"summary\": \"strong\"}\n```",
		"I cannot evaluate this.",
	}}
	wc, pub := newTestWorker(t, store, files, llm)

	sess := Session{ID: uuid.New(), JobTitle: "Backend Engineer", JobDescription: "Go"}
	require.NoError(t, wc.processSession(context.Background(), sess))

	var results []AnalysesResult
	require.NoError(t, json.Unmarshal(store.saved, &results))
	require.Len(t, results, 3)

	assert.False(t, results[0].IsErrorResult)
	assert.Equal(t, 88.0, results[0].MatchScore)
	assert.Equal(t, "a.txt", results[0].ResumeKey)

	assert.True(t, results[1].IsErrorResult)
	assert.Contains(t, results[1].Error, "file download error")

	assert.True(t, results[2].IsErrorResult)
	assert.Equal(t, "b.txt", results[2].ResumeKey)

	assert.Equal(t, hiring.ResumeAnalysisInstruction, llm.systems[0])
	require.Len(t, pub.updates, 3)
	assert.Equal(t, 3, pub.updates[2].Processed)
	assert.Equal(t, 3, pub.updates[2].Total)
}

func TestProcessSessionRetriesSave(t *testing.T) {
	store := &fakeSessionStore{saveErrs: []error{errors.New("conn reset")}}
	wc, _ := newTestWorker(t, store, fakeFiles{}, &scriptedLLM{})

	require.NoError(t, wc.processSession(context.Background(), Session{ID: uuid.New()}))
	assert.Equal(t, 2, store.saves)
	assert.JSONEq(t, `[]`, string(store.saved))
}

func TestHandleMessage(t *testing.T) {
	store := &fakeSessionStore{resumes: []database.Resume{textResume("a.txt")}}
	llm := &scriptedLLM{replies: []string{`{"match_score": 70}`}}
	wc, pub := newTestWorker(t, store, fakeFiles{"a.txt": "resume"}, llm)

	body, err := json.Marshal(Session{ID: uuid.New(), JobTitle: "SRE"})
	require.NoError(t, err)
	wc.handleMessage(context.Background(), 1, body)

	assert.Equal(t, []string{"processing", "completed"}, store.statuses)
	require.NotEmpty(t, pub.updates)
	assert.Equal(t, "completed", pub.updates[len(pub.updates)-1].Status)
}

func TestHandleMessageFailure(t *testing.T) {
	store := &fakeSessionStore{listErr: errors.New("db down")}
	wc, _ := newTestWorker(t, store, fakeFiles{}, &scriptedLLM{})

	body, err := json.Marshal(Session{ID: uuid.New()})
	require.NoError(t, err)
	wc.handleMessage(context.Background(), 1, body)
	assert.Equal(t, []string{"processing", "failed"}, store.statuses)

	store.statuses = nil
	wc.handleMessage(context.Background(), 1, []byte("not json"))
	assert.Empty(t, store.statuses)
}
