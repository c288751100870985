package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

func parseLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultHistoryLimit
	}
	return min(n, maxHistoryLimit)
}

func (cfg *apiConfig) handlerHistory(w http.ResponseWriter, r *http.Request) {
	records, err := cfg.history.List(r.Context(), r.URL.Query().Get("kind"), parseLimit(r))
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load history", Details: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"history": records})
}

// handlerHistoryItem looks a record up by id, or by its key (an interview id,
// say) when the path is not a uuid. Key lookups default to call analyses.
func (cfg *apiConfig) handlerHistoryItem(w http.ResponseWriter, r *http.Request) {
	idParam := r.PathValue("id")
	var (
		rec recorder.Record
		err error
	)
	if id, perr := uuid.Parse(idParam); perr == nil {
		rec, err = cfg.history.Get(r.Context(), id)
	} else {
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = recorder.KindCallAnalysis
		}
		rec, err = cfg.history.Latest(r.Context(), kind, idParam)
	}
	if errors.Is(err, recorder.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Analysis not found")
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load record", Details: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, rec)
}

type qaHistoryItem struct {
	SessionID       string    `json:"session_id"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	SkillLevel      string    `json:"skill_level,omitempty"`
	QuestionType    string    `json:"question_type,omitempty"`
	QuestionCount   int       `json:"question_count"`
	Timestamp       time.Time `json:"timestamp"`
	Size            int64     `json:"size,omitempty"`
}

func qaItemFromRecord(rec recorder.Record) qaHistoryItem {
	str := func(k string) string {
		s, _ := rec.Payload[k].(string)
		return s
	}
	qs, _ := pipeline.As[[]any](rec.Payload["questions"])
	return qaHistoryItem{
		SessionID:       rec.Key,
		ExperienceLevel: str("experience_level"),
		SkillLevel:      str("skill_level"),
		QuestionType:    str("question_type"),
		QuestionCount:   len(qs),
		Timestamp:       rec.CreatedAt,
	}
}

// handlerQAHistory lists generated question sets, from the blob store when
// one is configured.
func (cfg *apiConfig) handlerQAHistory(w http.ResponseWriter, r *http.Request) {
	items := []qaHistoryItem{}
	if cfg.qaBlob != nil {
		entries, err := cfg.qaBlob.List(r.Context())
		if err != nil {
			respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load history", Details: err.Error()})
			return
		}
		for _, e := range entries {
			items = append(items, qaHistoryItem{SessionID: e.Name, Timestamp: e.LastModified, Size: e.Size})
		}
	} else {
		records, err := cfg.history.List(r.Context(), recorder.KindQASession, parseLimit(r))
		if err != nil {
			respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load history", Details: err.Error()})
			return
		}
		for _, rec := range records {
			items = append(items, qaItemFromRecord(rec))
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"history": items})
}

func (cfg *apiConfig) handlerQASession(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var (
		rec recorder.Record
		err error
	)
	if cfg.qaBlob != nil {
		rec, err = cfg.qaBlob.Get(r.Context(), name)
	} else {
		rec, err = cfg.history.Latest(r.Context(), recorder.KindQASession, name)
	}
	if errors.Is(err, recorder.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load session", Details: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, rec.Payload)
}

type recentMatch struct {
	Filename  string    `json:"filename"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

type dashboardStats struct {
	TotalMatches      int64            `json:"total_matches"`
	TotalInterviews   int64            `json:"total_interviews"`
	TotalQASessions   int64            `json:"total_qa_sessions"`
	TotalCallAnalyses int64            `json:"total_call_analyses"`
	AvgScore          float64          `json:"avg_score"`
	AvgSentiment      float64          `json:"avg_sentiment"`
	RecentMatches     []recentMatch    `json:"recent_matches"`
	RoleDistribution  map[string]int   `json:"role_distribution"`
	Counts            map[string]int64 `json:"counts"`
}

// numberAt walks path through a record payload. Payloads recorded in process
// still hold typed values, so the payload is normalised through JSON first.
func numberAt(payload map[string]any, path ...string) (float64, bool) {
	var cur any
	cur, _ = pipeline.As[map[string]any](payload)
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur = obj[p]
	}
	n, ok := cur.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	return f, err == nil
}

// buildDashboardStats summarises the last ten matches and call analyses and
// the role mix of recent question sets.
func buildDashboardStats(ctx context.Context, h recorder.History) (dashboardStats, error) {
	counts, err := h.Counts(ctx)
	if err != nil {
		return dashboardStats{}, err
	}
	stats := dashboardStats{
		TotalMatches:      counts[recorder.KindMatch],
		TotalInterviews:   counts[recorder.KindInterview],
		TotalQASessions:   counts[recorder.KindQASession],
		TotalCallAnalyses: counts[recorder.KindCallAnalysis],
		RecentMatches:     []recentMatch{},
		RoleDistribution:  map[string]int{},
		Counts:            counts,
	}

	matches, err := h.List(ctx, recorder.KindMatch, 10)
	if err != nil {
		return dashboardStats{}, err
	}
	var total float64
	for _, m := range matches {
		score, _ := numberAt(m.Payload, "result", "score")
		filename, _ := m.Payload["filename"].(string)
		if filename == "" {
			filename = "Unknown"
		}
		total += score
		stats.RecentMatches = append(stats.RecentMatches, recentMatch{Filename: filename, Score: score, Timestamp: m.CreatedAt})
	}
	if len(matches) > 0 {
		stats.AvgScore = total / float64(len(matches))
	}

	calls, err := h.List(ctx, recorder.KindCallAnalysis, 10)
	if err != nil {
		return dashboardStats{}, err
	}
	var sentiment float64
	var scored int
	for _, c := range calls {
		if s, ok := numberAt(c.Payload, "analysis", "sentiment_analysis", "overall_score"); ok {
			sentiment += s
			scored++
		}
	}
	if scored > 0 {
		stats.AvgSentiment = sentiment / float64(scored)
	}

	sessions, err := h.List(ctx, recorder.KindQASession, 50)
	if err != nil {
		return dashboardStats{}, err
	}
	for _, s := range sessions {
		role, _ := s.Payload["job_title"].(string)
		if role == "" {
			role = "Unknown"
		}
		stats.RoleDistribution[role]++
	}
	return stats, nil
}

func (cfg *apiConfig) handlerDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := buildDashboardStats(r.Context(), cfg.history)
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load dashboard", Details: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

type sessionStatusResponse struct {
	SessionID   uuid.UUID        `json:"session_id"`
	Status      string           `json:"status"`
	ResumeCount int64            `json:"resume_count"`
	Results     []AnalysesResult `json:"results"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
}

// handlerSessionStatus reports a batch analysis session and its results so far.
func (cfg *apiConfig) handlerSessionStatus(w http.ResponseWriter, r *http.Request) {
	if cfg.sessions == nil {
		respondWithError(w, http.StatusServiceUnavailable, "Database not available")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	ctx := r.Context()

	status, err := cfg.sessions.GetSessionStatus(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load session", Details: err.Error()})
		return
	}
	count, err := cfg.sessions.CountResumesBySession(ctx, id)
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load session", Details: err.Error()})
		return
	}

	resp := sessionStatusResponse{SessionID: id, Status: status, ResumeCount: count, Results: []AnalysesResult{}}
	row, err := cfg.sessions.GetAnalysesResultsBySession(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to load results", Details: err.Error()})
		return
	default:
		if err := json.Unmarshal(row.Results, &resp.Results); err != nil {
			respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to decode results", Details: err.Error()})
			return
		}
		resp.UpdatedAt = &row.UpdatedAt
	}
	respondWithJSON(w, http.StatusOK, resp)
}
