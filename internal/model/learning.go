package model

import "time"

// Issue types recorded in learning cases.
const (
	IssueExtractionSuccess = "extraction_success"
	IssueFormatError       = "format_error"
	IssueValidationError   = "validation_error"
	IssueWrongCIK          = "wrong_cik_mapping"
	IssueDeadlinePassed    = "deadline_passed"
)

// Learning case lifecycle statuses.
const (
	CaseStatusCompleted = "completed"
	CaseStatusOpen      = "open"
)

// LearningCase is one persisted extraction or investigation outcome.
// Immutable once CompletedAt is set, except for the idempotent upsert on
// IssueID.
type LearningCase struct {
	IssueID       string     `json:"issue_id"`
	IssueType     string     `json:"issue_type"`
	Ticker        string     `json:"ticker"`
	Field         string     `json:"field,omitempty"`
	OriginalData  string     `json:"original_data,omitempty"`
	FinalFix      string     `json:"final_fix,omitempty"`
	LearningNotes string     `json:"learning_notes,omitempty"`
	Status        string     `json:"status"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// LessonBundle aggregates past learning cases for one field into the buckets
// the extraction prompts consume.
type LessonBundle struct {
	Field             string   `json:"field"`
	FormatWarnings    []string `json:"format_warnings"`
	FilingHints       []string `json:"filing_hints"`
	CommonMistakes    []string `json:"common_mistakes"`
	SuccessPatterns   []string `json:"success_patterns"`
	ContributingScans []string `json:"contributing_scans"`
	TotalLearnings    int      `json:"total_learnings"`
}

// SearchStrategy biases where extraction looks first for a field, derived
// from past successes or from static per-category defaults.
type SearchStrategy struct {
	Field           string   `json:"field"`
	PrimarySource   string   `json:"primary_source"`
	SectionHints    []string `json:"section_hints,omitempty"`
	FallbackSources []string `json:"fallback_sources,omitempty"`
	LookbackDays    int      `json:"lookback_days"`
	Confidence      float64  `json:"confidence"`
	PastSuccesses   int      `json:"past_successes"`
}
