package model

import "time"

// CategoryBreakdown summarizes the results of one category.
type CategoryBreakdown struct {
	Category   Category `json:"category"`
	Attempted  int      `json:"attempted"`
	Passed     int      `json:"passed"`
	Percentage int      `json:"percentage"`
}

// ExamReport is the final, archived record of a finished session.
type ExamReport struct {
	SessionID       string              `json:"session_id"`
	OwnerID         string              `json:"owner_id"`
	ExamMode        string              `json:"exam_mode"`
	StartedAt       time.Time           `json:"started_at"`
	CompletedAt     time.Time           `json:"completed_at"`
	ModuleCount     int                 `json:"module_count"`
	Results         []ModuleResult      `json:"results"`
	Categories      []CategoryBreakdown `json:"categories"`
	PassCount       int                 `json:"pass_count"`
	FailCount       int                 `json:"fail_count"`
	MeanLevel       float64             `json:"mean_level"`
	Percentage      int                 `json:"percentage"`
	AbilityIndex    int                 `json:"ability_index"`
	RawIndex        float64             `json:"raw_index"`
	Band            string              `json:"band"`
	BandLabel       string              `json:"band_label"`
	AbilityEstimate float64             `json:"ability_estimate"`
}

// SessionEventType names a lifecycle transition.
type SessionEventType string

const (
	EventSessionStarted  SessionEventType = "started"
	EventResultRecorded  SessionEventType = "result_recorded"
	EventSessionComplete SessionEventType = "completed"
	EventSessionFinished SessionEventType = "finished"
	EventSessionAbandon  SessionEventType = "abandoned"
)

// SessionEvent is published after every committed transition.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	OwnerID   string           `json:"owner_id"`
	SessionID string           `json:"session_id"`
	Progress  Progress         `json:"progress"`
	Level     int              `json:"level"`
	Result    *ModuleResult    `json:"result,omitempty"`
	Report    *ExamReport      `json:"report,omitempty"`
	At        time.Time        `json:"at"`
}
