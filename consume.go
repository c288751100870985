package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/talentpipeline/internal/database"
	"github.com/muhammadolammi/talentpipeline/internal/document"
	"github.com/muhammadolammi/talentpipeline/internal/hiring"
	"github.com/muhammadolammi/talentpipeline/internal/pipeline"
	"github.com/muhammadolammi/talentpipeline/internal/provider"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

const sessionsQueue = "sessions"

// sessionStore is the part of *database.Queries the worker needs.
type sessionStore interface {
	GetResumesBySession(ctx context.Context, sessionID uuid.UUID) ([]database.Resume, error)
	CreateOrUpdateAnalysesResults(ctx context.Context, arg database.CreateOrUpdateAnalysesResultsParams) error
	UpdateSessionStatus(ctx context.Context, arg database.UpdateSessionStatusParams) error
}

// WorkerConfig holds what the batch resume workers share.
type WorkerConfig struct {
	DB          sessionStore
	Files       objectGetter
	Bucket      string
	Publisher   updatePublisher
	RabbitMQURL string

	// LLM analyzes one resume per call; System is sent with every call.
	LLM    provider.Provider
	System string
	Exec   *pipeline.Executor

	Log logrus.FieldLogger
}

func errorResult(key, msg string) AnalysesResult {
	return AnalysesResult{ResumeKey: key, IsErrorResult: true, Error: msg}
}

// analyzeResume runs one resume through the model. Provider failures and
// unusable output both become error entries; they never fail the session.
func (wc *WorkerConfig) analyzeResume(ctx context.Context, sess Session, resume database.Resume) AnalysesResult {
	log := wc.Log.WithFields(logrus.Fields{"session_id": sess.ID, "object_key": resume.ObjectKey})

	fileBytes, err := pipeline.Retry(ctx, wc.Exec, func(ctx context.Context) ([]byte, error) {
		return DownloadFromR2(ctx, wc.Files, wc.Bucket, resume.ObjectKey)
	})
	if err != nil {
		log.WithError(err).Warn("failed to download resume")
		return errorResult(resume.ObjectKey, fmt.Sprintf("file download error: %v", err))
	}

	resumeText, err := document.ExtractText(resume.Mime, resume.OriginalFilename, fileBytes)
	if err != nil {
		log.WithError(err).Warn("text extraction failed")
		return errorResult(resume.ObjectKey, fmt.Sprintf("text extraction error: %v", err))
	}

	msg := hiring.ResumeAnalysisMessage(sess.JobTitle, sess.JobDescription, resumeText)
	output, err := wc.Exec.Execute(ctx, provider.Call(wc.LLM, wc.System, msg))
	if err != nil {
		log.WithError(err).Warn("resume analysis failed")
		return errorResult(resume.ObjectKey, fmt.Sprintf("agent error: %v", err))
	}

	result, method := pipeline.ExtractInto(output, errorResult(resume.ObjectKey, "could not read analysis from model output"))
	if method == pipeline.MethodFallback {
		log.WithField("method", method.String()).Warn("resume analysis output unusable")
		return result
	}
	result.ResumeKey = resume.ObjectKey
	return result
}

// processSession analyzes every resume of a session and stores the results.
func (wc *WorkerConfig) processSession(ctx context.Context, sess Session) error {
	resumes, err := wc.DB.GetResumesBySession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("error getting resumes for session: %v, err: %w", sess.ID, err)
	}

	results := make([]AnalysesResult, 0, len(resumes))
	for i, resume := range resumes {
		if err := ctx.Err(); err != nil {
			return err
		}
		results = append(results, wc.analyzeResume(ctx, sess, resume))
		wc.publish(SessionUpdate{
			SessionID: sess.ID,
			Status:    "processing",
			Message:   "resume analyzed",
			Processed: i + 1,
			Total:     len(resumes),
		})
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal analyses results: %w", err)
	}
	_, err = pipeline.Retry(ctx, wc.Exec, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, wc.DB.CreateOrUpdateAnalysesResults(ctx, database.CreateOrUpdateAnalysesResultsParams{
			Results:   resultsJSON,
			SessionID: sess.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save agent result after retries: %w", err)
	}
	wc.Log.WithFields(logrus.Fields{"session_id": sess.ID, "resumes": len(resumes)}).Info("session analyzed")
	return nil
}

// handleMessage drives one queue message through status updates and analysis.
func (wc *WorkerConfig) handleMessage(ctx context.Context, workerID int, body []byte) {
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		wc.Log.WithError(err).Error("error unmarshalling message body")
		if sess.ID != uuid.Nil {
			wc.setStatus(ctx, sess.ID, "failed", "analysis failed")
		}
		return
	}
	wc.Log.WithFields(logrus.Fields{"worker": workerID, "session_id": sess.ID}).Info("processing session")

	wc.setStatus(ctx, sess.ID, "processing", "analysis started")
	if err := wc.processSession(ctx, sess); err != nil {
		wc.Log.WithError(err).WithField("session_id", sess.ID).Error("error running analysis for session")
		wc.setStatus(context.WithoutCancel(ctx), sess.ID, "failed", "analysis failed")
		return
	}
	wc.setStatus(ctx, sess.ID, "completed", "analysis completed")
}

func (wc *WorkerConfig) setStatus(ctx context.Context, id uuid.UUID, status, message string) {
	if err := wc.DB.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{Status: status, ID: id}); err != nil {
		wc.Log.WithError(err).WithField("session_id", id).Warn("failed to update session status")
	}
	wc.publish(SessionUpdate{SessionID: id, Status: status, Message: message})
}

func (wc *WorkerConfig) publish(update SessionUpdate) {
	if wc.Publisher == nil {
		return
	}
	update.Timestamp = time.Now()
	if err := wc.Publisher.Publish(update); err != nil {
		wc.Log.WithError(err).Warn("failed to publish update")
	}
}

func (wc *WorkerConfig) worker(ctx context.Context, id int) error {
	conn, err := amqp.Dial(wc.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		sessionsQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	msgs, err := ch.Consume(
		sessionsQueue,
		fmt.Sprintf("worker-%d", id),
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("error consuming rabbitmq message: %w", err)
	}

	go func() {
		<-ctx.Done()
		ch.Close()
	}()

	for msg := range msgs {
		wc.handleMessage(ctx, id, msg.Body)
	}
	return nil
}

// StartConsumerWorkerPool runs numWorkers consumers until ctx is cancelled.
func (wc *WorkerConfig) StartConsumerWorkerPool(ctx context.Context, numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := range numWorkers {
		go func(id int) {
			defer wg.Done()
			wc.Log.WithField("worker", id).Info("worker started")
			if err := wc.worker(ctx, id); err != nil {
				wc.Log.WithError(err).WithField("worker", id).Error("worker stopped")
			}
		}(i + 1)
	}
	wg.Wait()
}
