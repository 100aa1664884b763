package investigate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/monitoring"
	"github.com/sells-group/spac-sync/internal/store"
)

// Agent runs the full investigation pipeline sequentially: detect, rank
// hypotheses, collect evidence for the top one, diagnose, fix, persist,
// report. One anomaly is investigated per run; secondary anomalies are
// carried in the report for the next pass. A report is only written when a
// fix lands; any stage stopping early ends the run with no report and no
// durable writes.
type Agent struct {
	detector  *Detector
	generator *Generator
	collector *Collector
	diagnoser *Diagnoser
	fixer     *Fixer
	db        store.Store
	lessons   *learning.Store
	alerter   *monitoring.Alerter
}

// NewAgent wires the pipeline stages together.
func NewAgent(cfg Config, reg Registry, gen *Generator, db store.Store, lessons *learning.Store, alerter *monitoring.Alerter) *Agent {
	return &Agent{
		detector:  NewDetector(cfg),
		generator: gen,
		collector: NewCollector(reg, cfg),
		diagnoser: NewDiagnoser(cfg),
		fixer:     NewFixer(),
		db:        db,
		lessons:   lessons,
		alerter:   alerter,
	}
}

// Run investigates one issue end to end and returns the durable report, or
// nil when no anomaly was detected or the investigation ended inconclusive
// before a fix was applied. Side effects past the fix (learning write,
// alert) are log-only: the report is the source of truth.
func (a *Agent) Run(ctx context.Context, issue Issue, res ResearchResult, ictx Context) (*model.InvestigationReport, error) {
	anomalies := a.detector.Detect(issue, res, ictx)
	if len(anomalies) == 0 {
		return nil, nil
	}
	primary := anomalies[0]
	zap.L().Info("investigate: anomaly detected",
		zap.String("ticker", ictx.Ticker),
		zap.String("type", primary.Type),
		zap.String("severity", string(primary.Severity)),
	)

	report := &model.InvestigationReport{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Ticker:    ictx.Ticker,
		Anomaly:   primary,
		Status:    model.ReportStatusInconclusive,
	}

	past := a.pastCases(ctx, primary.Type, ictx.Ticker)
	hyps := a.generator.Generate(ctx, primary, ictx, past)
	report.Hypotheses = hyps
	if len(hyps) == 0 {
		return a.inconclusive(ictx.Ticker, "no hypotheses generated")
	}

	report.Evidence = a.collector.Collect(ctx, hyps[0], ictx)
	report.Diagnosis = a.diagnoser.Diagnose(hyps, report.Evidence)
	if !report.Diagnosis.Confirmed {
		return a.inconclusive(ictx.Ticker, "diagnosis unconfirmed")
	}

	fix := a.fixer.Apply(ictx.Record, report.Diagnosis)
	report.FixApplied = &fix
	if !fix.Applied {
		return a.inconclusive(ictx.Ticker, "fix not applied")
	}
	if err := a.db.UpsertRecord(ctx, ictx.Record); err != nil {
		return nil, eris.Wrap(err, "investigate: persist fixed record")
	}
	if fix.Warning == "" {
		report.Status = model.ReportStatusFixed
	} else {
		report.Status = model.ReportStatusPartialFix
	}
	report.Prevention = preventionFor(report.Diagnosis.RootCause)

	return a.finish(ctx, report)
}

// inconclusive ends a run with no report and no durable writes.
func (a *Agent) inconclusive(ticker, reason string) (*model.InvestigationReport, error) {
	zap.L().Info("investigate: inconclusive, no report written",
		zap.String("ticker", ticker),
		zap.String("reason", reason),
	)
	return nil, nil
}

// finish persists the report and fans out the learning write and the alert.
// The report insert is the only failure that propagates.
func (a *Agent) finish(ctx context.Context, report *model.InvestigationReport) (*model.InvestigationReport, error) {
	if err := a.db.InsertReport(ctx, *report); err != nil {
		return nil, eris.Wrap(err, "investigate: insert report")
	}

	if a.lessons != nil {
		notes := report.Diagnosis.Summary
		if notes == "" {
			notes = report.Anomaly.Description
		}
		if err := a.lessons.RecordInvestigationOutcome(ctx, report.Anomaly.Type, report.Ticker, report.Status, notes); err != nil {
			zap.L().Warn("investigate: learning write failed",
				zap.String("ticker", report.Ticker),
				zap.Error(err),
			)
		}
	}
	if a.alerter != nil {
		a.alerter.InvestigationCompleted(ctx, report)
	}

	zap.L().Info("investigate: report written",
		zap.String("ticker", report.Ticker),
		zap.String("report_id", report.ID),
		zap.String("status", report.Status),
	)
	return report, nil
}

func (a *Agent) pastCases(ctx context.Context, issueType, ticker string) []model.LearningCase {
	if a.lessons == nil {
		return nil
	}
	past, err := a.lessons.PastCasesFor(ctx, issueType, ticker, 5)
	if err != nil {
		zap.L().Warn("investigate: past-case lookup failed",
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		return nil
	}
	return past
}
