package investigate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/pkg/edgar"
)

// Collector executes a hypothesis's verification steps against EDGAR and
// accumulates the results into a flat evidence map.
type Collector struct {
	reg Registry
	cfg Config
}

// NewCollector creates a Collector over an EDGAR registry.
func NewCollector(reg Registry, cfg Config) *Collector {
	return &Collector{reg: reg, cfg: cfg}
}

// Collect runs each recognized step in order. Steps that don't map to a
// known kind are skipped, not failed. Individual EDGAR errors are recorded
// as evidence rather than aborting the run so the diagnoser always sees a
// complete picture.
func (c *Collector) Collect(ctx context.Context, hyp model.Hypothesis, ictx Context) model.Evidence {
	ev := model.Evidence{}
	var company *companyLookup

	for _, step := range hyp.Steps {
		switch step.Kind {
		case model.StepCIKLookup:
			company = c.lookupCompany(ctx, ictx.CIK, company)
			ev["cik_resolves"] = company.err == nil && company.info != nil
			if company.info != nil {
				ev["company_name"] = company.info.Name
			}
		case model.StepSICCheck:
			company = c.lookupCompany(ctx, ictx.CIK, company)
			if company.info != nil {
				ev["sic_code"] = company.info.SIC
				ev["is_spac"] = company.info.IsBlankCheck()
			}
		case model.StepCIKSearchByName:
			c.searchByName(ctx, ictx, ev)
		case model.StepDateConsistency:
			c.checkDates(ictx, ev)
		default:
			zap.L().Warn("investigate: skipping unrecognized verification step",
				zap.String("ticker", ictx.Ticker),
				zap.String("step", step.Text),
			)
		}
	}
	return ev
}

type companyLookup struct {
	info *edgar.CompanyInfo
	err  error
}

// lookupCompany fetches the company record once and reuses it across steps.
func (c *Collector) lookupCompany(ctx context.Context, cik string, cached *companyLookup) *companyLookup {
	if cached != nil {
		return cached
	}
	info, err := c.reg.CompanyByCIK(ctx, cik)
	if err != nil {
		zap.L().Warn("investigate: company lookup failed",
			zap.String("cik", cik),
			zap.Error(err),
		)
	}
	return &companyLookup{info: info, err: err}
}

func (c *Collector) searchByName(ctx context.Context, ictx Context, ev model.Evidence) {
	if ictx.CompanyName == "" {
		return
	}
	matches, err := c.reg.SearchCompanyByName(ctx, ictx.CompanyName)
	if err != nil {
		zap.L().Warn("investigate: name search failed",
			zap.String("name", ictx.CompanyName),
			zap.Error(err),
		)
		return
	}
	for _, m := range matches {
		if m.CIK == ictx.CIK {
			continue
		}
		if namesMatch(m.Name, ictx.CompanyName) {
			ev["correct_cik"] = m.CIK
			ev["correct_cik_name"] = m.Name
			break
		}
	}
	ev["name_matches"] = len(matches)
}

func (c *Collector) checkDates(ictx Context, ev model.Evidence) {
	rec := ictx.Record
	if rec == nil || rec.AnnouncedDate == nil || ictx.IPODate == nil {
		return
	}
	years := yearsBetween(*rec.AnnouncedDate, *ictx.IPODate)
	ev["years_before_ipo"] = years
	ev["dates_consistent"] = years <= c.cfg.gapYears()
}

func namesMatch(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
