package hiring

import (
	"context"
	"strings"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
)

type AssistRequest struct {
	Query   string         `json:"query"`
	Context map[string]any `json:"context"`
}

func defaultAssist() map[string]any {
	return map[string]any{
		"answer":   "The hiring assistant is unavailable right now, please try again.",
		"insights": []any{},
	}
}

// Assist answers a free-form hiring question.
func (s *Service) Assist(ctx context.Context, req AssistRequest) (map[string]any, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, invalid("query is required")
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}

	res, err := s.pipe.Run(ctx, pipeline.Request{
		Name:     "hiring_assistant",
		Call:     s.call(assistPrompt(req.Query, req.Context)),
		Default:  defaultAssist(),
		Adequate: isObject,
		Record: func(v any) *recorder.Record {
			return recorder.NewRecord(recorder.KindAssistant, recorder.RequestID(ctx), map[string]any{
				"query":  truncate(req.Query, 500),
				"result": v,
			})
		},
	})
	if err != nil {
		return nil, err
	}
	return res.Value.(map[string]any), nil
}
