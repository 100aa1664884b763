package investigate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
)

// Detector flags structural inconsistencies between a research result and
// current record state. Pure: same inputs, same anomalies, same order.
type Detector struct {
	cfg Config
}

// NewDetector creates a Detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// Detect runs the three checks in fixed order: temporal impossibility,
// extraction failure despite a claimed match, identity mismatch. An empty
// result means the data is consistent and no investigation is needed.
func (d *Detector) Detect(issue Issue, res ResearchResult, ictx Context) []model.Anomaly {
	var anomalies []model.Anomaly

	if a := d.checkTemporal(res, ictx); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := d.checkExtractionFailure(res); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := d.checkIdentity(res, ictx); a != nil {
		anomalies = append(anomalies, *a)
	}

	if len(anomalies) == 0 {
		zap.L().Debug("investigate: no anomalies detected",
			zap.String("ticker", ictx.Ticker),
			zap.String("issue", issue.Type),
		)
	}
	return anomalies
}

// checkTemporal flags a deal announcement that predates the IPO by more
// than the configured gap. A SPAC cannot announce a deal years before it
// exists; the usual cause is a reused or misassigned CIK.
func (d *Detector) checkTemporal(res ResearchResult, ictx Context) *model.Anomaly {
	if res.AnnouncedDate == nil || ictx.IPODate == nil {
		return nil
	}
	years := yearsBetween(*res.AnnouncedDate, *ictx.IPODate)
	if years <= d.cfg.gapYears() {
		return nil
	}
	return &model.Anomaly{
		Type:     model.AnomalyTemporalInconsistency,
		Severity: model.SeverityCritical,
		Description: fmt.Sprintf("announced date %s precedes IPO %s by %.1f years",
			res.AnnouncedDate.Format("2006-01-02"), ictx.IPODate.Format("2006-01-02"), years),
		Evidence: map[string]any{
			"announced_date":   res.AnnouncedDate.Format("2006-01-02"),
			"ipo_date":         ictx.IPODate.Format("2006-01-02"),
			"years_before_ipo": years,
		},
		PrimaryHypothesis: "wrong identity mapping: CIK reused or misassigned",
	}
}

// checkExtractionFailure flags a research result that claims a deal was
// found but carries no target name.
func (d *Detector) checkExtractionFailure(res ResearchResult) *model.Anomaly {
	if !res.DealFound || strings.TrimSpace(res.Target) != "" {
		return nil
	}
	return &model.Anomaly{
		Type:        model.AnomalyExtractionFailure,
		Severity:    model.SeverityMedium,
		Description: "research claims a deal was found but no target name was extracted",
		Evidence:    map[string]any{"deal_found": true, "target": ""},
	}
}

// checkIdentity flags a database company name and an externally-sourced
// name that share no substring in either direction.
func (d *Detector) checkIdentity(res ResearchResult, ictx Context) *model.Anomaly {
	db := strings.ToLower(strings.TrimSpace(ictx.CompanyName))
	ext := strings.ToLower(strings.TrimSpace(res.CompanyName))
	if db == "" || ext == "" {
		return nil
	}
	if strings.Contains(db, ext) || strings.Contains(ext, db) {
		return nil
	}
	return &model.Anomaly{
		Type:        model.AnomalyIdentityMismatch,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("database name %q does not match externally sourced name %q", ictx.CompanyName, res.CompanyName),
		Evidence: map[string]any{
			"db_name":       ictx.CompanyName,
			"external_name": res.CompanyName,
		},
		PrimaryHypothesis: "record tracks the wrong entity",
	}
}
