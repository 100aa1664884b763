package investigate

import "github.com/sells-group/spac-sync/internal/model"

// preventionFor returns the recurring validations recommended after a
// confirmed root cause. These are advisory; nothing schedules them
// automatically.
func preventionFor(rootCause string) []model.PreventionMeasure {
	switch rootCause {
	case model.RootCauseWrongIdentity:
		return []model.PreventionMeasure{
			{
				Name:        "sic_code_audit",
				Description: "verify every tracked CIK still resolves to a blank-check company (SIC 6770)",
				Cadence:     "weekly",
			},
			{
				Name:        "announce_date_sanity",
				Description: "flag any announced date that precedes the IPO date before it is written",
				Cadence:     "per-sync",
			},
			{
				Name:        "cik_name_crosscheck",
				Description: "cross-check the company name registered under each CIK against the tracked name",
				Cadence:     "monthly",
			},
		}
	default:
		return nil
	}
}
