package model

import "time"

// SPAC status values tracked in the database.
const (
	StatusSearching  = "searching"
	StatusAnnounced  = "announced"
	StatusCompleted  = "completed"
	StatusLiquidated = "liquidated"
)

// Provenance records which filing a tracked field's current value came from.
// It is set if and only if the field was written through the precedence
// manager.
type Provenance struct {
	Source     string     `json:"source"`
	FilingDate *time.Time `json:"filing_date,omitempty"`
}

// Record is one tracked SPAC. Each tracked field carries a value here plus a
// Provenance entry keyed by field name.
type Record struct {
	ID     string `json:"id,omitempty"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	CIK    string `json:"cik"`
	Status string `json:"status"`

	// IPO-static fields.
	IPODate  *time.Time `json:"ipo_date,omitempty"`
	IPOSize  *float64   `json:"ipo_size,omitempty"`
	IPOPrice *float64   `json:"ipo_price,omitempty"`

	// Periodic fields.
	TrustValue        *float64 `json:"trust_value,omitempty"`
	TrustPerShare     *float64 `json:"trust_per_share,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`

	// Event-based fields.
	Target        *string    `json:"target,omitempty"`
	AnnouncedDate *time.Time `json:"announced_date,omitempty"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`

	// IPO-mutable fields.
	Deadline        *time.Time `json:"deadline,omitempty"`
	ExtensionMonths *float64   `json:"extension_months,omitempty"`

	// Provenance maps tracked field name to the filing that set it.
	Provenance map[string]Provenance `json:"provenance,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ProvenanceFor returns the provenance entry for a field, or a zero value if
// the field was never written through the precedence manager.
func (r *Record) ProvenanceFor(field string) Provenance {
	if r.Provenance == nil {
		return Provenance{}
	}
	return r.Provenance[field]
}

// SetProvenance records the source filing for a field.
func (r *Record) SetProvenance(field, source string, filingDate *time.Time) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]Provenance)
	}
	r.Provenance[field] = Provenance{Source: source, FilingDate: filingDate}
}

// ClearProvenance removes the provenance entry for a field, used when the
// field value itself is cleared.
func (r *Record) ClearProvenance(field string) {
	delete(r.Provenance, field)
}
