package model

import (
	"time"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// ModuleResult is the recorded outcome of one module attempt.
type ModuleResult struct {
	ModuleID    string   `json:"module_id"`
	ModuleTitle string   `json:"module_title"`
	Level       int      `json:"level"`
	Passed      bool     `json:"passed"`
	Score       float64  `json:"score"`
	MaxScore    float64  `json:"max_score"`
	Duration    float64  `json:"duration"` // seconds
	Category    Category `json:"category"`
}

// ExamSession is a single run through a battery of modules.
type ExamSession struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	ExamMode     string         `json:"exam_mode"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  *time.Time     `json:"completed_at"`
	Modules      []Module       `json:"modules"`
	CurrentIndex int            `json:"current_index"`
	CurrentLevel int            `json:"current_level"`
	Results      []ModuleResult `json:"results"`
	Status       SessionStatus  `json:"status"`
}

// Clone returns a deep copy so callers never share slices with the engine.
func (s *ExamSession) Clone() *ExamSession {
	if s == nil {
		return nil
	}
	c := *s
	c.Modules = append([]Module(nil), s.Modules...)
	c.Results = append([]ModuleResult(nil), s.Results...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Outcome is what the module runner reports back after a module ends.
type Outcome struct {
	Passed          bool
	Score           float64
	MaxScore        float64
	DurationSeconds float64
}

// Progress describes how far through its modules a session is.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// StartExamRequest is the payload for starting a session.
type StartExamRequest struct {
	Mode string `json:"mode" binding:"omitempty,max=32,slug"`
}

// SubmitResultRequest is the payload reported by the module runner.
type SubmitResultRequest struct {
	Passed          *bool    `json:"passed" binding:"required"`
	Score           *float64 `json:"score" binding:"required,min=0"`
	MaxScore        *float64 `json:"max_score" binding:"required,min=0"`
	DurationSeconds *float64 `json:"duration_seconds" binding:"required,min=0"`
}

// Outcome converts the request into the engine's outcome type.
func (r *SubmitResultRequest) Outcome() Outcome {
	return Outcome{
		Passed:          *r.Passed,
		Score:           *r.Score,
		MaxScore:        *r.MaxScore,
		DurationSeconds: *r.DurationSeconds,
	}
}

// AbandonExamRequest must carry an explicit confirmation.
type AbandonExamRequest struct {
	Confirm bool `json:"confirm"`
}
