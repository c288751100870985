package hiring

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
)

// Recommendation labels shared by the skill average and the overall score.
const (
	Recommended    = "Recommended for next round"
	Maybe          = "Maybe"
	NotRecommended = "Not recommended"
)

// ErrTranscription wraps failures to turn uploaded audio into text.
var ErrTranscription = errors.New("audio transcription failed")

type CallRequest struct {
	InterviewID   string
	CandidateName string
	Role          string
	JD            string
	Transcript    string
	AudioName     string
	Audio         []byte
}

type CallAnalysis struct {
	InterviewID           string         `json:"interview_id"`
	Transcript            string         `json:"transcript"`
	Analysis              map[string]any `json:"analysis"`
	Recommendation        string         `json:"recommendation"`
	ManualRecommendation  string         `json:"manual_recommendation"`
	OverallRecommendation string         `json:"overall_recommendation"`
	OverallScore          float64        `json:"overall_score"`
	NBRO                  string         `json:"nbro"`
}

type callScores struct {
	Skills []struct {
		Score float64 `json:"score"`
	} `json:"skills"`
	SentimentAnalysis struct {
		OverallScore float64 `json:"overall_score"`
	} `json:"sentiment_analysis"`
}

func defaultCallAnalysis() map[string]any {
	return map[string]any{
		"skills":             []any{},
		"sentiment_analysis": map[string]any{"overall_score": 0},
		"engagement_metrics": map[string]any{},
		"summary":            "Call analysis unavailable, please try again.",
	}
}

// recommend maps a 0-100 score onto the recommendation labels.
func recommend(score float64) string {
	switch {
	case score >= 80:
		return Recommended
	case score >= 70:
		return Maybe
	default:
		return NotRecommended
	}
}

// AnalyzeCall evaluates an interview transcript against a job description.
// When Audio is set and no Transcript is given, the audio is transcribed
// first; a transcription failure aborts the request.
func (s *Service) AnalyzeCall(ctx context.Context, req CallRequest) (*CallAnalysis, error) {
	transcript := strings.TrimSpace(req.Transcript)
	if transcript == "" && len(req.Audio) > 0 {
		if s.transcriber == nil {
			return nil, invalid("audio transcription is not configured")
		}
		text, err := s.transcriber.Transcribe(ctx, req.AudioName, req.Audio)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
		}
		transcript = text
	}
	if transcript == "" {
		return nil, invalid("No transcript provided")
	}

	id := req.InterviewID
	if id == "" {
		id = "call_" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	res, err := s.pipe.Run(ctx, pipeline.Request{
		Name:     "analyze_call",
		Call:     s.call(callPrompt(req.JD, transcript)),
		Default:  defaultCallAnalysis(),
		Adequate: isObject,
		Record: func(v any) *recorder.Record {
			rec := recorder.NewRecord(recorder.KindCallAnalysis, recorder.RequestID(ctx), map[string]any{
				"interview_id":   id,
				"candidate_name": req.CandidateName,
				"role":           req.Role,
				"jd_text":        truncate(req.JD, 500),
				"transcript":     truncate(transcript, 1000),
				"analysis":       v,
				"status":         "analyzed",
			})
			rec.Key = id
			return rec
		},
	})
	if err != nil {
		return nil, err
	}

	analysis := res.Value.(map[string]any)
	scores, _ := pipeline.As[callScores](analysis)
	var avg float64
	if n := len(scores.Skills); n > 0 {
		for _, sk := range scores.Skills {
			avg += sk.Score
		}
		avg /= float64(n)
	}
	overall := scores.SentimentAnalysis.OverallScore

	return &CallAnalysis{
		InterviewID:           id,
		Transcript:            transcript,
		Analysis:              analysis,
		Recommendation:        recommend(avg),
		OverallRecommendation: recommend(overall),
		OverallScore:          overall,
		NBRO:                  recommend(overall),
	}, nil
}
