package pipeline

import (
	"context"

	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/sirupsen/logrus"
)

// Request describes one prompt-to-result run. Call is the pure provider
// round-trip; everything else is applied once, after the executor returns.
type Request struct {
	Name    string
	Call    ProviderCall
	Default any

	// Adequate rejects results that parsed but are not usable at this call
	// site (for example too few items). Rejected results become Default.
	Adequate func(v any) bool

	// Record builds the history record for a result. Nil skips recording.
	Record func(v any) *recorder.Record
}

type Result struct {
	Value    any
	Method   Method
	Raw      string
	Attempts int
}

// Pipeline composes an Executor, the extractor and a session recorder.
type Pipeline struct {
	exec *Executor
	rec  recorder.Recorder
	log  logrus.FieldLogger
}

func New(exec *Executor, rec recorder.Recorder, log logrus.FieldLogger) *Pipeline {
	if rec == nil {
		rec = recorder.Nop{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{exec: exec, rec: rec, log: log}
}

// Executor exposes the underlying executor for non-text retries.
func (p *Pipeline) Executor() *Executor { return p.exec }

// Run executes req. The only error it returns is a *ProviderError.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	log := p.log.WithField("pipeline", req.Name)

	raw, attempts, err := retry[string](ctx, p.exec, req.Call)
	if err != nil {
		log.WithError(err).Error("provider unavailable")
		return Result{Attempts: attempts}, err
	}

	value, method := Extract(raw, req.Default)
	if method != MethodFallback && req.Adequate != nil && !req.Adequate(value) {
		log.WithField("method", method.String()).Warn("result rejected as inadequate, using default")
		value, method = req.Default, MethodFallback
	}
	fields := logrus.Fields{"method": method.String(), "attempts": attempts}
	if method == MethodFallback {
		log.WithFields(fields).WithField("raw_preview", preview(raw, 200)).Warn("extraction fell back to default")
	} else {
		log.WithFields(fields).Debug("extraction succeeded")
	}

	if req.Record != nil {
		if rec := req.Record(value); rec != nil {
			recorder.AppendBestEffort(ctx, p.rec, *rec, log)
		}
	}
	return Result{Value: value, Method: method, Raw: raw, Attempts: attempts}, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
