package models

import "time"

type Status string

const (
	StatusExcellent Status = "EXCELLENT"
	StatusStable    Status = "STABLE"
	StatusAlert     Status = "ALERT"
	StatusCritical  Status = "CRITICAL"
)

// Rank orders statuses from worst (0) to best.
func (s Status) Rank() int {
	switch s {
	case StatusCritical:
		return 0
	case StatusAlert:
		return 1
	case StatusStable:
		return 2
	default:
		return 3
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
)

type Finding struct {
	Dimension string   `json:"dimension"`
	Score     float64  `json:"score"`
	Severity  Severity `json:"severity"`
	Text      string   `json:"text"`
}

// Diagnostic is a stored, scored submission. Records are append-only.
type Diagnostic struct {
	ID              string             `json:"id"`
	NumericID       int64              `json:"numeric_id"`
	CreatedAt       time.Time          `json:"created_at"`
	Product         Product            `json:"product"`
	ClientEmail     string             `json:"client_email,omitempty"`
	KeyID           int64              `json:"key_id"`
	KeyValue        string             `json:"key_value"`
	ClientIP        string             `json:"client_ip,omitempty"`
	UserAgent       string             `json:"user_agent,omitempty"`
	RawAnswers      []*int             `json:"raw_answers"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	OverallAverage  float64            `json:"overall_average"`
	Status          Status             `json:"status"`
	Priority        Priority           `json:"priority"`
	Findings        []Finding          `json:"findings"`
	Recommendations []string           `json:"recommendations"`
	SystemVersion   string             `json:"system_version"`
}
