package model

import "time"

// Investigation report statuses.
const (
	ReportStatusFixed        = "fixed"
	ReportStatusPartialFix   = "partial_fix"
	ReportStatusInconclusive = "inconclusive"
)

// InvestigationReport is the durable audit record of one completed
// investigation. Written once, never mutated.
type InvestigationReport struct {
	ID         string              `json:"id"`
	Timestamp  time.Time           `json:"timestamp"`
	Ticker     string              `json:"ticker"`
	Anomaly    Anomaly             `json:"anomaly"`
	Hypotheses []Hypothesis        `json:"hypotheses"`
	Evidence   Evidence            `json:"evidence"`
	Diagnosis  Diagnosis           `json:"diagnosis"`
	FixApplied *FixResult          `json:"fix_applied,omitempty"`
	Prevention []PreventionMeasure `json:"prevention_measures,omitempty"`
	Status     string              `json:"status"`
}

// DeadlineOutcome classifies what a deadline-extension scan found.
type DeadlineOutcome string

const (
	DeadlineExtensionFound   DeadlineOutcome = "extension_found"
	DeadlineCompletionFound  DeadlineOutcome = "completion_found"
	DeadlineTerminationFound DeadlineOutcome = "termination_found"
	DeadlineNothingFound     DeadlineOutcome = "none_found"
)

// DeadlineResult is the outcome of the specialized deadline-extension scan.
type DeadlineResult struct {
	Ticker      string          `json:"ticker"`
	Outcome     DeadlineOutcome `json:"outcome"`
	NewDeadline *time.Time      `json:"new_deadline,omitempty"`
	Filing      *Filing         `json:"filing,omitempty"`
	Detail      string          `json:"detail,omitempty"`
}
