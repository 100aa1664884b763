// Package investigate implements the anomaly investigation pipeline: detect
// a structural inconsistency, rank root-cause hypotheses, collect evidence
// from the filing registry, confirm a diagnosis, and apply the fix.
package investigate

import (
	"context"
	"time"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/pkg/edgar"
)

// Issue describes what prompted the investigation.
type Issue struct {
	Type        string `json:"type"`
	Field       string `json:"field,omitempty"`
	Description string `json:"description"`
}

// ResearchResult is what an external research pass claims about the SPAC.
type ResearchResult struct {
	DealFound     bool           `json:"deal_found"`
	Target        string         `json:"target,omitempty"`
	AnnouncedDate *time.Time     `json:"announced_date,omitempty"`
	CompanyName   string         `json:"company_name,omitempty"`
	Raw           map[string]any `json:"raw,omitempty"`
}

// Context carries the record state an investigation runs against.
type Context struct {
	Ticker      string
	CIK         string
	CompanyName string
	IPODate     *time.Time
	Record      *model.Record
}

// Registry is the filing-registry surface the pipeline consumes. The edgar
// client satisfies it; tests substitute mocks.
type Registry interface {
	CompanyByCIK(ctx context.Context, cik string) (*edgar.CompanyInfo, error)
	SearchCompanyByName(ctx context.Context, name string) ([]edgar.CompanyMatch, error)
	EarliestFilingDate(ctx context.Context, cik string) (*time.Time, error)
	SearchFilings(ctx context.Context, cik, filingType string, count int) ([]model.Filing, error)
	FetchDocument(ctx context.Context, url string) (string, error)
}

// Config holds the investigation thresholds. Defaults match the values the
// pipeline has always run with; change them only with evidence.
type Config struct {
	// TemporalGapYears is how far a deal announcement may precede the IPO
	// before it is an anomaly (exclusive boundary).
	TemporalGapYears float64 `yaml:"temporal_gap_years" mapstructure:"temporal_gap_years"`
}

func (c Config) gapYears() float64 {
	if c.TemporalGapYears <= 0 {
		return 2.0
	}
	return c.TemporalGapYears
}

// yearsBetween returns the span from a to b in years, fractional.
func yearsBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / (24 * 365.25)
}
