package main

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/muhammadolammi/talentpipeline/internal/document"
	"github.com/muhammadolammi/talentpipeline/internal/hiring"
	"github.com/muhammadolammi/talentpipeline/internal/interview"
	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
)

// respondWithWorkflowError maps workflow errors onto HTTP responses. Provider
// outages get the route's generic message with the cause as details.
func (cfg *apiConfig) respondWithWorkflowError(w http.ResponseWriter, err error, generic string) {
	var perr *pipeline.ProviderError
	switch {
	case errors.Is(err, hiring.ErrInvalidRequest):
		respondWithError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), hiring.ErrInvalidRequest.Error()+": "))
	case errors.Is(err, hiring.ErrTranscription):
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Audio transcription failed", Details: err.Error()})
	case errors.As(err, &perr):
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: generic, Details: perr.Error()})
	default:
		cfg.log.WithError(err).Error("unexpected workflow error")
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: generic, Details: err.Error()})
	}
}

func (cfg *apiConfig) handlerHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": cfg.llmName})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (cfg *apiConfig) handlerMatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing JD text or resume file")
		return
	}
	jdText := r.FormValue("jd_text")
	file, header, err := r.FormFile("resume")
	if jdText == "" || err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing JD text or resume file")
		return
	}
	file.Close()

	data, err := readUpload(header)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Could not read resume file")
		return
	}
	resumeText, err := document.ExtractText(header.Header.Get("Content-Type"), header.Filename, data)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "Could not read resume file", Details: err.Error()})
		return
	}

	result, err := cfg.hiring.Match(r.Context(), hiring.MatchRequest{
		JDText:     jdText,
		Filename:   header.Filename,
		ResumeText: resumeText,
	})
	if err != nil {
		cfg.respondWithWorkflowError(w, err, "Failed to match resume. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (cfg *apiConfig) handlerGenerateQA(w http.ResponseWriter, r *http.Request) {
	var req hiring.QuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	set, err := cfg.hiring.GenerateQuestions(r.Context(), req)
	if err != nil {
		cfg.respondWithWorkflowError(w, err, "Failed to generate questions. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, set)
}

func (cfg *apiConfig) handlerCustomizeQA(w http.ResponseWriter, r *http.Request) {
	var req hiring.CustomizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	set, err := cfg.hiring.CustomizeQuestions(r.Context(), req)
	if err != nil {
		cfg.respondWithWorkflowError(w, err, "Failed to customize questions. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, set)
}

type analyzeCallBody struct {
	Transcript    string `json:"transcript"`
	InterviewID   string `json:"interview_id"`
	JD            string `json:"jd"`
	CandidateName string `json:"candidate_name"`
	Role          string `json:"role"`
}

// handlerAnalyzeCall accepts either a JSON transcript or a multipart audio upload.
func (cfg *apiConfig) handlerAnalyzeCall(w http.ResponseWriter, r *http.Request) {
	var req hiring.CallRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body analyzeCallBody
		if err := decodeJSON(w, r, &body); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		req = hiring.CallRequest{
			InterviewID:   body.InterviewID,
			CandidateName: body.CandidateName,
			Role:          body.Role,
			JD:            body.JD,
			Transcript:    body.Transcript,
		}
	} else {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondWithError(w, http.StatusBadRequest, "No audio file provided")
			return
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "No audio file provided")
			return
		}
		file.Close()
		audio, err := readUpload(header)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Could not read audio file")
			return
		}
		req = hiring.CallRequest{
			InterviewID:   r.FormValue("interview_id"),
			CandidateName: r.FormValue("candidate_name"),
			Role:          r.FormValue("role"),
			JD:            r.FormValue("jd"),
			AudioName:     header.Filename,
			Audio:         audio,
		}
	}

	out, err := cfg.hiring.AnalyzeCall(r.Context(), req)
	if err != nil {
		cfg.respondWithWorkflowError(w, err, "Failed to analyze call. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (cfg *apiConfig) handlerAssist(w http.ResponseWriter, r *http.Request) {
	var req hiring.AssistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	out, err := cfg.hiring.Assist(r.Context(), req)
	if err != nil {
		cfg.respondWithWorkflowError(w, err, "Hiring assistant failed. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (cfg *apiConfig) handlerStartInterview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CandidateName string               `json:"candidate_name"`
		Role          string               `json:"role"`
		Questions     []interview.Question `json:"questions"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	started, err := cfg.interviews.Start(r.Context(), body.CandidateName, body.Role, body.Questions)
	if errors.Is(err, interview.ErrNoQuestions) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to start interview", Details: err.Error()})
		return
	}
	respondWithJSON(w, http.StatusOK, started)
}

func (cfg *apiConfig) handlerNextQuestion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InterviewID string `json:"interview_id"`
		Answer      string `json:"answer"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if body.InterviewID == "" {
		respondWithError(w, http.StatusBadRequest, "interview_id is required")
		return
	}
	next, err := cfg.interviews.Answer(r.Context(), body.InterviewID, body.Answer)
	switch {
	case errors.Is(err, interview.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interview.ErrCompleted):
		respondWithError(w, http.StatusConflict, err.Error())
	case err != nil:
		respondWithJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to record answer", Details: err.Error()})
	default:
		respondWithJSON(w, http.StatusOK, next)
	}
}
