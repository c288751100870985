package main

import (
	"time"

	"github.com/google/uuid"
)

// AnalysesResult is one resume's evaluation inside a batch session.
type AnalysesResult struct {
	CandidateEmail      string   `json:"candidate_email"`
	MatchScore          float64  `json:"match_score"`
	RelevantExperiences []string `json:"relevant_experiences"`
	RelevantSkills      []string `json:"relevant_skills"`
	MissingSkills       []string `json:"missing_skills"`
	Summary             string   `json:"summary"`
	Recomendation       string   `json:"recommendation"`
	ResumeKey           string   `json:"resume_key,omitempty"`
	// Error result entry
	IsErrorResult bool   `json:"is_error_result"`
	Error         string `json:"error,omitempty"`
}

// Session is the message published on the sessions queue.
type Session struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Name           string    `json:"name"`
	UserID         uuid.UUID `json:"user_id"`
	Status         string    `json:"status"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
}

// SessionUpdate is published on the session_updates exchange.
type SessionUpdate struct {
	SessionID uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Processed int       `json:"processed,omitempty"`
	Total     int       `json:"total,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
