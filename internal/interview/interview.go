// Package interview keeps the state of turn-based voice interviews.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/muhammadolammi/talentpipeline/internal/recorder"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = errors.New("interview not found")
	ErrNoQuestions = errors.New("interview needs at least one question")
	ErrCompleted   = errors.New("interview already completed")
)

const (
	StatusStarted   = "started"
	StatusContinue  = "continue"
	StatusCompleted = "completed"
)

type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type Session struct {
	ID            string     `json:"interview_id"`
	CandidateName string     `json:"candidate_name"`
	Role          string     `json:"role"`
	Questions     []Question `json:"questions"`
	Current       int        `json:"current_question"`
	Transcript    []Turn     `json:"transcript"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
}

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Update applies fn to the stored session and saves the result as one
	// step. An error from fn leaves the session untouched and is returned.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
}

type Started struct {
	InterviewID   string    `json:"interview_id"`
	Status        string    `json:"status"`
	FirstQuestion *Question `json:"first_question"`
}

type Next struct {
	Status   string    `json:"status"`
	Question *Question `json:"question,omitempty"`
	Progress string    `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
}

type Service struct {
	store Store
	rec   recorder.Recorder
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewService(store Store, rec recorder.Recorder, log logrus.FieldLogger) *Service {
	if rec == nil {
		rec = recorder.Nop{}
	}
	return &Service{store: store, rec: rec, log: log, now: time.Now}
}

// Start opens a session and returns its first question.
func (s *Service) Start(ctx context.Context, candidate, role string, questions []Question) (*Started, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	now := s.now().UTC()
	sess := &Session{
		ID:            "interview_" + strconv.FormatInt(now.UnixNano(), 10),
		CandidateName: candidate,
		Role:          role,
		Questions:     questions,
		Transcript:    []Turn{},
		Status:        StatusStarted,
		StartedAt:     now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save interview: %w", err)
	}
	s.record(ctx, sess)

	first := questions[0]
	return &Started{InterviewID: sess.ID, Status: StatusStarted, FirstQuestion: &first}, nil
}

// Answer stores the answer to the current question and advances the session.
// Concurrent answers to one interview are applied one after the other.
func (s *Service) Answer(ctx context.Context, id, answer string) (*Next, error) {
	var next *Next
	sess, err := s.store.Update(ctx, id, func(sess *Session) error {
		if sess.Status == StatusCompleted {
			return ErrCompleted
		}

		var asked string
		if sess.Current < len(sess.Questions) {
			asked = sess.Questions[sess.Current].Question
		}
		sess.Transcript = append(sess.Transcript, Turn{
			Question:  asked,
			Answer:    answer,
			Timestamp: s.now().UTC(),
		})
		sess.Current++

		if sess.Current >= len(sess.Questions) {
			sess.Status = StatusCompleted
			next = &Next{Status: StatusCompleted, Message: "Interview completed"}
			return nil
		}
		sess.Status = StatusContinue
		q := sess.Questions[sess.Current]
		next = &Next{
			Status:   StatusContinue,
			Question: &q,
			Progress: fmt.Sprintf("%d/%d", sess.Current+1, len(sess.Questions)),
		}
		return nil
	})
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCompleted):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("failed to save interview: %w", err)
	}
	if sess.Status == StatusCompleted {
		s.record(ctx, sess)
	}
	return next, nil
}

func (s *Service) record(ctx context.Context, sess *Session) {
	rec := recorder.NewRecord(recorder.KindInterview, "", map[string]any{
		"interview_id":   sess.ID,
		"candidate_name": sess.CandidateName,
		"role":           sess.Role,
		"questions":      sess.Questions,
		"transcript":     sess.Transcript,
		"status":         sess.Status,
	})
	rec.Key = sess.ID
	recorder.AppendBestEffort(ctx, s.rec, *rec, s.log)
}
