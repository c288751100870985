package hiring

import (
	"context"
	"strings"

	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
)

// Question generation modes.
const (
	MethodJD       = "jd"
	MethodTitle    = "title"
	MethodDetailed = "detailed"
)

// minQuestions is the smallest generated set accepted from the model.
const minQuestions = 3

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type QuestionSet struct {
	Questions []QA `json:"questions"`
}

type QuestionRequest struct {
	Method          string `json:"method"`
	JobDescription  string `json:"jobDescription"`
	JobTitle        string `json:"jobTitle"`
	ExperienceLevel string `json:"experienceLevel"`
	SkillLevel      string `json:"skillLevel"`
	QuestionType    string `json:"questionType"`
}

func defaultQuestions() QuestionSet {
	return QuestionSet{Questions: []QA{
		{
			Question: "Tell me about your background and experience relevant to this role.",
			Answer:   "This is a general opening question to understand the candidate's background.",
		},
		{
			Question: "What interests you most about this position?",
			Answer:   "This helps gauge the candidate's motivation and interest level.",
		},
		{
			Question: "Describe a challenging project you've worked on recently.",
			Answer:   "This assesses problem-solving skills and technical experience.",
		},
	}}
}

// resolveMethod picks the generation mode. Requests without a method but with a
// skill level and question type are detailed requests.
func (r QuestionRequest) resolveMethod() string {
	if r.Method != "" {
		return strings.ToLower(r.Method)
	}
	if r.SkillLevel != "" || r.QuestionType != "" {
		return MethodDetailed
	}
	return ""
}

func (r QuestionRequest) prompt() (string, error) {
	switch r.resolveMethod() {
	case MethodJD:
		if strings.TrimSpace(r.JobDescription) == "" {
			return "", invalid("Job description is required")
		}
		return jdQuestionsPrompt(r.JobDescription, r.ExperienceLevel), nil
	case MethodTitle:
		if strings.TrimSpace(r.JobTitle) == "" || strings.TrimSpace(r.ExperienceLevel) == "" {
			return "", invalid("Job title and experience level are required")
		}
		return titleQuestionsPrompt(r.JobTitle, r.ExperienceLevel, r.JobDescription), nil
	case MethodDetailed:
		switch {
		case strings.TrimSpace(r.JobDescription) == "":
			return "", invalid("Job description is required")
		case r.ExperienceLevel == "":
			return "", invalid("Experience level is required")
		case r.SkillLevel == "":
			return "", invalid("Skill level is required")
		case r.QuestionType == "":
			return "", invalid("Question type is required")
		}
		return detailedQuestionsPrompt(r), nil
	default:
		return "", invalid(`Invalid method. Use "jd" or "title"`)
	}
}

func hasQuestions(min int) func(any) bool {
	return func(v any) bool {
		set, ok := pipeline.As[QuestionSet](v)
		return ok && len(set.Questions) >= min
	}
}

// GenerateQuestions produces an interview question bank. Sets with fewer than
// three questions are replaced by a generic three-question set.
func (s *Service) GenerateQuestions(ctx context.Context, req QuestionRequest) (QuestionSet, error) {
	prompt, err := req.prompt()
	if err != nil {
		return QuestionSet{}, err
	}
	log := s.logger(ctx).WithField("method", req.resolveMethod())

	res, err := s.pipe.Run(ctx, pipeline.Request{
		Name:     "generate_questions",
		Call:     s.call(prompt),
		Default:  defaultQuestions(),
		Adequate: hasQuestions(minQuestions),
		Record: func(v any) *recorder.Record {
			set, _ := pipeline.As[QuestionSet](v)
			requestID := recorder.RequestID(ctx)
			rec := recorder.NewRecord(recorder.KindQASession, requestID, map[string]any{
				"session_id":       requestID,
				"method":           req.resolveMethod(),
				"job_title":        req.JobTitle,
				"job_description":  truncate(req.JobDescription, 500),
				"experience_level": req.ExperienceLevel,
				"skill_level":      req.SkillLevel,
				"question_type":    req.QuestionType,
				"questions":        set.Questions,
			})
			rec.Key = requestID
			return rec
		},
	})
	if err != nil {
		return QuestionSet{}, err
	}
	set, _ := pipeline.As[QuestionSet](res.Value)
	log.WithField("questions", len(set.Questions)).Info("generated questions")
	return set, nil
}

type CustomizeRequest struct {
	UserRequest      string         `json:"userRequest"`
	CurrentQuestions []QA           `json:"currentQuestions"`
	Context          map[string]any `json:"context"`
}

// CustomizeQuestions rewrites a question set following the user's
// instruction. If the model returns nothing usable the current set is kept.
func (s *Service) CustomizeQuestions(ctx context.Context, req CustomizeRequest) (QuestionSet, error) {
	if strings.TrimSpace(req.UserRequest) == "" {
		return QuestionSet{}, invalid("userRequest is required")
	}
	if req.Context == nil {
		req.Context = map[string]any{}
	}
	current := QuestionSet{Questions: append([]QA{}, req.CurrentQuestions...)}

	res, err := s.pipe.Run(ctx, pipeline.Request{
		Name:     "customize_questions",
		Call:     s.call(customizePrompt(req.UserRequest, current.Questions, req.Context)),
		Default:  current,
		Adequate: hasQuestions(1),
	})
	if err != nil {
		return QuestionSet{}, err
	}
	set, _ := pipeline.As[QuestionSet](res.Value)
	s.logger(ctx).WithField("questions", len(set.Questions)).Info("customized questions")
	return set, nil
}
