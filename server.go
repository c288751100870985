package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/database"
	"github.com/muhammadolammi/talentpipeline/internal/hiring"
	"github.com/muhammadolammi/talentpipeline/internal/interview"
	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadBytes = 32 << 20
	shutdownGrace  = 3 * time.Minute
)

// sessionReader is the part of *database.Queries the session status route reads.
type sessionReader interface {
	GetSessionStatus(ctx context.Context, id uuid.UUID) (string, error)
	CountResumesBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
	GetAnalysesResultsBySession(ctx context.Context, sessionID uuid.UUID) (database.GetAnalysesResultsBySessionRow, error)
}

type apiConfig struct {
	hiring     *hiring.Service
	interviews *interview.Service
	history    recorder.History
	qaBlob     *recorder.Blob
	sessions   sessionReader
	llmName    string
	log        logrus.FieldLogger
}

func (cfg *apiConfig) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", cfg.handlerHealth)

	mux.HandleFunc("POST /api/match", cfg.handlerMatch)
	mux.HandleFunc("POST /generate-qa", cfg.handlerGenerateQA)
	mux.HandleFunc("POST /api/customize-qa", cfg.handlerCustomizeQA)
	mux.HandleFunc("POST /api/analyze-call", cfg.handlerAnalyzeCall)
	mux.HandleFunc("POST /api/hiring-assistant", cfg.handlerAssist)

	mux.HandleFunc("POST /api/start-interview", cfg.handlerStartInterview)
	mux.HandleFunc("POST /api/next-question", cfg.handlerNextQuestion)

	mux.HandleFunc("GET /api/history", cfg.handlerHistory)
	mux.HandleFunc("GET /api/history/{id}", cfg.handlerHistoryItem)
	mux.HandleFunc("GET /api/qa-history", cfg.handlerQAHistory)
	mux.HandleFunc("GET /api/qa-history/{name}", cfg.handlerQASession)
	mux.HandleFunc("GET /api/dashboard-stats", cfg.handlerDashboardStats)
	mux.HandleFunc("GET /api/sessions/{id}", cfg.handlerSessionStatus)

	return cfg.withRequestLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags each request with a short id and logs its outcome.
func (cfg *apiConfig) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()[:8]
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(recorder.WithRequestID(r.Context(), id)))

		cfg.log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	return dec.Decode(v)
}

// serve runs srv on ln until ctx is done, then stops accepting connections and
// waits up to grace for in-flight requests. Request contexts do not derive from
// ctx, so a shutdown signal never cancels work that is already running.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration, log logrus.FieldLogger) error {
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down, draining in-flight requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
