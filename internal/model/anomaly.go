package model

// Severity ranks how urgent an anomaly is.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Anomaly type values produced by the detector, in detection order.
const (
	AnomalyTemporalInconsistency = "temporal_inconsistency"
	AnomalyExtractionFailure     = "extraction_failure"
	AnomalyIdentityMismatch      = "identity_mismatch"
)

// Anomaly is a structurally detected inconsistency between a research result
// and current record state. Transient: persisted only via learning summaries.
type Anomaly struct {
	Type              string         `json:"type"`
	Severity          Severity       `json:"severity"`
	Description       string         `json:"description"`
	Evidence          map[string]any `json:"evidence,omitempty"`
	PrimaryHypothesis string         `json:"primary_hypothesis,omitempty"`
}

// StepKind is the closed set of verification steps the evidence collector
// knows how to execute. Hypothesis step text is parsed into these once; the
// free text is kept only for the report.
type StepKind string

const (
	StepCIKLookup       StepKind = "cik_lookup"
	StepSICCheck        StepKind = "sic_check"
	StepCIKSearchByName StepKind = "cik_search_by_name"
	StepDateConsistency StepKind = "date_consistency"
	StepUnknown         StepKind = "unknown"
)

// VerificationStep pairs the declarative step text from a hypothesis with
// its parsed kind.
type VerificationStep struct {
	Text string   `json:"text"`
	Kind StepKind `json:"kind"`
}

// Hypothesis is a ranked candidate explanation for an anomaly.
type Hypothesis struct {
	Rank       int                `json:"rank"`
	Likelihood int                `json:"likelihood"`
	RootCause  string             `json:"root_cause"`
	Reasoning  string             `json:"reasoning"`
	Steps      []VerificationStep `json:"verification_steps"`
	FixIfTrue  string             `json:"fix_if_true"`
}

// Root-cause classes the diagnoser understands.
const (
	RootCauseWrongIdentity = "wrong_cik_mapping"
)

// Evidence is the flat map accumulated by executing verification steps.
// Entries are only ever added, never partially overwritten.
type Evidence map[string]any

// Diagnosis is the outcome of matching evidence against hypotheses.
type Diagnosis struct {
	Confirmed   bool     `json:"confirmed"`
	RootCause   string   `json:"root_cause,omitempty"`
	Confidence  int      `json:"confidence,omitempty"`
	CorrectCIK  string   `json:"correct_cik,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	FixStrategy string   `json:"fix_strategy,omitempty"`
	Evidence    Evidence `json:"evidence,omitempty"`
}

// FixResult captures before/after state of an applied fix for the audit trail.
type FixResult struct {
	Applied bool           `json:"applied"`
	Before  map[string]any `json:"before"`
	After   map[string]any `json:"after"`
	Changes []string       `json:"changes"`
	Warning string         `json:"warning,omitempty"`
}

// PreventionMeasure is a recommended recurring validation tied to a confirmed
// root cause. Advisory only.
type PreventionMeasure struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Cadence     string `json:"cadence"`
}
