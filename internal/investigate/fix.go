package investigate

import (
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
)

// Fixer mutates a record to repair a confirmed diagnosis. It only edits the
// in-memory record; persistence is the caller's job so the before/after
// snapshot and the write stay in one transaction boundary.
type Fixer struct{}

// NewFixer creates a Fixer.
func NewFixer() *Fixer {
	return &Fixer{}
}

// Apply repairs a wrong-identity record. With a replacement CIK the record
// is repointed and its stale deal facts cleared; without one only the
// cleanup half runs and the result carries a warning. Unconfirmed diagnoses
// and unknown root causes are no-ops.
func (f *Fixer) Apply(rec *model.Record, diag model.Diagnosis) model.FixResult {
	res := model.FixResult{
		Before: snapshot(rec),
		After:  snapshot(rec),
	}
	if !diag.Confirmed || diag.RootCause != model.RootCauseWrongIdentity {
		return res
	}

	if diag.CorrectCIK != "" {
		rec.CIK = diag.CorrectCIK
		res.Changes = append(res.Changes, "cik")
	} else {
		res.Warning = "no replacement CIK found; cleared stale deal data but the record still points at the wrong company"
	}

	if rec.Target != nil {
		rec.Target = nil
		rec.ClearProvenance("target")
		res.Changes = append(res.Changes, "target")
	}
	if rec.AnnouncedDate != nil {
		rec.AnnouncedDate = nil
		rec.ClearProvenance("announced_date")
		res.Changes = append(res.Changes, "announced_date")
	}
	if rec.Status != model.StatusSearching {
		rec.Status = model.StatusSearching
		rec.ClearProvenance("status")
		res.Changes = append(res.Changes, "status")
	}

	res.Applied = len(res.Changes) > 0
	res.After = snapshot(rec)

	zap.L().Info("investigate: fix applied",
		zap.String("ticker", rec.Ticker),
		zap.Strings("changes", res.Changes),
		zap.Bool("full_fix", res.Warning == ""),
	)
	return res
}

// snapshot captures the fields a wrong-identity fix can touch.
func snapshot(rec *model.Record) map[string]any {
	s := map[string]any{
		"cik":    rec.CIK,
		"status": rec.Status,
	}
	if rec.Target != nil {
		s["target"] = *rec.Target
	}
	if rec.AnnouncedDate != nil {
		s["announced_date"] = rec.AnnouncedDate.Format("2006-01-02")
	}
	return s
}
