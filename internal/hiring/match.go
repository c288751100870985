package hiring

import (
	"context"
	"strings"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
)

type MatchRequest struct {
	JDText     string
	Filename   string
	ResumeText string
}

// MatchResult is the model's analysis as returned, typically
// score, skill_gaps, strengths and cultural_fit.
type MatchResult map[string]any

func defaultMatch() map[string]any {
	return map[string]any{
		"score":        0,
		"skill_gaps":   []any{},
		"strengths":    []any{},
		"cultural_fit": 0,
		"summary":      "Match analysis unavailable, please try again.",
	}
}

// Match scores a resume against a job description.
func (s *Service) Match(ctx context.Context, req MatchRequest) (MatchResult, error) {
	if strings.TrimSpace(req.JDText) == "" || strings.TrimSpace(req.ResumeText) == "" {
		return nil, invalid("Missing JD text or resume file")
	}

	res, err := s.pipe.Run(ctx, pipeline.Request{
		Name:     "match",
		Call:     s.call(matchPrompt(req.JDText, req.ResumeText)),
		Default:  defaultMatch(),
		Adequate: isObject,
		Record: func(v any) *recorder.Record {
			rec := recorder.NewRecord(recorder.KindMatch, recorder.RequestID(ctx), map[string]any{
				"jd_text":  truncate(req.JDText, 500),
				"filename": req.Filename,
				"result":   v,
			})
			rec.Key = req.Filename
			return rec
		},
	})
	if err != nil {
		return nil, err
	}
	return MatchResult(res.Value.(map[string]any)), nil
}
