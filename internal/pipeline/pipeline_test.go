package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRecorder struct{}

func (failingRecorder) Append(context.Context, recorder.Record) error {
	return errors.New("disk full")
}

func recordAll(kind string) func(any) *recorder.Record {
	return func(v any) *recorder.Record {
		return recorder.NewRecord(kind, "", map[string]any{"result": v})
	}
}

func TestRunExtractsAndRecords(t *testing.T) {
	exec, _ := testExecutor(t, RetryPolicy{MaxRetries: 3})
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	mem := &recorder.Memory{}
	p := New(exec, mem, log)

	c := &countingCall{errs: []error{errors.New("blip")}, ok: "Sure! ```json\n{\"score\": 91}\n```"}
	res, err := p.Run(context.Background(), Request{
		Name:    "match",
		Call:    c.call,
		Default: map[string]any{"score": 0},
		Record:  recordAll(recorder.KindMatch),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"score": json.Number("91")}, res.Value)
	assert.Equal(t, MethodFenced, res.Method)
	assert.Equal(t, 2, res.Attempts)

	records := mem.Records()
	require.Len(t, records, 1)
	assert.Equal(t, map[string]any{"score": json.Number("91")}, records[0].Payload["result"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "fenced", entry.Data["method"])
}

func TestRunInadequateBecomesDefault(t *testing.T) {
	exec, _ := testExecutor(t, RetryPolicy{MaxRetries: 1})
	log, hook := logtest.NewNullLogger()
	p := New(exec, nil, log)

	def := map[string]any{"questions": []any{"q1", "q2", "q3"}}
	c := &countingCall{ok: `{"questions": ["only"]}`}
	res, err := p.Run(context.Background(), Request{
		Name:    "questions",
		Call:    c.call,
		Default: def,
		Adequate: func(v any) bool {
			m, ok := v.(map[string]any)
			if !ok {
				return false
			}
			qs, _ := m["questions"].([]any)
			return len(qs) >= 3
		},
	})
	require.NoError(t, err)
	assert.Equal(t, def, res.Value)
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, `{"questions": ["only"]}`, res.Raw)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "fallback", entry.Data["method"])
}

func TestRunProviderErrorSkipsRecording(t *testing.T) {
	exec, _ := testExecutor(t, RetryPolicy{MaxRetries: 2})
	log, _ := logtest.NewNullLogger()
	mem := &recorder.Memory{}
	p := New(exec, mem, log)

	c := &countingCall{errs: []error{errors.New("down"), errors.New("down")}}
	res, err := p.Run(context.Background(), Request{
		Call:   c.call,
		Record: recordAll(recorder.KindMatch),
	})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, res.Attempts)
	assert.Empty(t, mem.Records())
}

func TestRunRecorderFailureIsNotFatal(t *testing.T) {
	exec, _ := testExecutor(t, RetryPolicy{MaxRetries: 1})
	log, hook := logtest.NewNullLogger()
	p := New(exec, failingRecorder{}, log)

	c := &countingCall{ok: `{"a": 1}`}
	res, err := p.Run(context.Background(), Request{
		Call:   c.call,
		Record: recordAll(recorder.KindAssistant),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": json.Number("1")}, res.Value)

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Message == "failed to record result" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ab...", preview("abcdef", 2))
}
