package investigate

import (
	"fmt"

	"github.com/sells-group/spac-sync/internal/model"
)

// Diagnoser turns collected evidence into a confirmed or unconfirmed
// diagnosis. Only the wrong-identity root cause has a confirmation rule;
// everything else stays unconfirmed and the investigation ends inconclusive.
type Diagnoser struct {
	cfg Config
}

// NewDiagnoser creates a Diagnoser.
func NewDiagnoser(cfg Config) *Diagnoser {
	return &Diagnoser{cfg: cfg}
}

// Diagnose walks the ranked hypotheses highest-likelihood-first and returns
// the first confirmable diagnosis. When none confirms, the top hypothesis's
// unconfirmed diagnosis is returned so the caller still sees why.
func (d *Diagnoser) Diagnose(hyps []model.Hypothesis, ev model.Evidence) model.Diagnosis {
	if len(hyps) == 0 {
		return model.Diagnosis{Evidence: ev, Summary: "no hypotheses to evaluate"}
	}
	for _, hyp := range hyps {
		if diag := d.diagnoseOne(hyp, ev); diag.Confirmed {
			return diag
		}
	}
	return d.diagnoseOne(hyps[0], ev)
}

// diagnoseOne evaluates a single hypothesis. Wrong identity is confirmed
// only when the current CIK is not a blank-check company AND the announced
// date precedes the IPO by more than the temporal gap. Confidence is 100
// when a replacement CIK was found, 95 otherwise.
func (d *Diagnoser) diagnoseOne(hyp model.Hypothesis, ev model.Evidence) model.Diagnosis {
	diag := model.Diagnosis{
		RootCause: hyp.RootCause,
		Evidence:  ev,
	}

	if hyp.RootCause != model.RootCauseWrongIdentity {
		diag.Summary = fmt.Sprintf("no confirmation rule for root cause %q", hyp.RootCause)
		return diag
	}

	isSPAC, haveSIC := ev["is_spac"].(bool)
	years, haveYears := ev["years_before_ipo"].(float64)
	if !haveSIC || !haveYears {
		diag.Summary = "insufficient evidence: need both SIC classification and date gap"
		return diag
	}
	if isSPAC || years <= d.cfg.gapYears() {
		diag.Summary = "evidence does not support wrong identity"
		return diag
	}

	diag.Confirmed = true
	diag.Confidence = 95
	diag.Summary = fmt.Sprintf("CIK is not a blank-check company and the deal predates the IPO by %.1f years", years)
	if cik, ok := ev["correct_cik"].(string); ok && cik != "" {
		diag.Confidence = 100
		diag.CorrectCIK = cik
		diag.Summary += fmt.Sprintf("; replacement CIK %s found by name search", cik)
	}
	return diag
}
