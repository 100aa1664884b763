package investigate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/store"
	"github.com/sells-group/spac-sync/pkg/anthropic"
	"github.com/sells-group/spac-sync/pkg/edgar"
)

// fakeStore is an in-memory store.Store for pipeline tests.
type fakeStore struct {
	records map[string]model.Record
	cases   map[string]model.LearningCase
	reports []model.InvestigationReport
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]model.Record),
		cases:   make(map[string]model.LearningCase),
	}
}

func (f *fakeStore) GetRecord(_ context.Context, ticker string) (*model.Record, error) {
	rec, ok := f.records[ticker]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) UpsertRecord(_ context.Context, rec *model.Record) error {
	f.records[rec.Ticker] = *rec
	return nil
}

func (f *fakeStore) ListTickers(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(f.records))
	for t := range f.records {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) UpsertLearningCase(_ context.Context, c model.LearningCase) error {
	f.cases[c.IssueID] = c
	return nil
}

func (f *fakeStore) ListLearningCases(_ context.Context, filter store.CaseFilter) ([]model.LearningCase, error) {
	var out []model.LearningCase
	for _, c := range f.cases {
		keep := len(filter.IssueTypes) == 0
		for _, t := range filter.IssueTypes {
			if c.IssueType == t {
				keep = true
			}
		}
		if keep && (filter.Field == "" || c.Field == filter.Field) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertReport(_ context.Context, report model.InvestigationReport) error {
	f.reports = append(f.reports, report)
	return nil
}

func (f *fakeStore) ListReports(_ context.Context, ticker string, limit int) ([]model.InvestigationReport, error) {
	var out []model.InvestigationReport
	for _, r := range f.reports {
		if ticker == "" || r.Ticker == ticker {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func oxleyScenario() (*model.Record, Context, ResearchResult) {
	rec := &model.Record{
		Ticker:        "OBA",
		Name:          "Oxley Bridge Acquisition Corp",
		CIK:           "0001234567",
		Status:        model.StatusAnnounced,
		IPODate:       datePtr("2025-06-26"),
		Target:        strPtr("Continental Machining"),
		AnnouncedDate: datePtr("2014-09-19"),
	}
	ictx := Context{
		Ticker:      "OBA",
		CIK:         rec.CIK,
		CompanyName: rec.Name,
		IPODate:     rec.IPODate,
		Record:      rec,
	}
	res := ResearchResult{
		DealFound:     true,
		Target:        "Continental Machining",
		AnnouncedDate: datePtr("2014-09-19"),
		CompanyName:   "Oxley Bridge Acquisition Corp",
	}
	return rec, ictx, res
}

func TestRunEndToEndPartialFix(t *testing.T) {
	rec, ictx, res := oxleyScenario()

	reg := &mockRegistry{}
	reg.On("CompanyByCIK", mock.Anything, "0001234567").Return(&edgar.CompanyInfo{
		CIK:  "0001234567",
		Name: "Continental Machining Co",
		SIC:  "3540",
	}, nil)
	reg.On("SearchCompanyByName", mock.Anything, "Oxley Bridge Acquisition Corp").Return(nil, nil)

	db := newFakeStore()
	db.records[rec.Ticker] = *rec
	lessons := learning.New(db, learning.Config{})

	agent := NewAgent(Config{}, reg, NewGenerator(nil, ""), db, lessons, nil)
	report, err := agent.Run(context.Background(), Issue{Type: "stale_deal"}, res, ictx)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, model.AnomalyTemporalInconsistency, report.Anomaly.Type)
	require.Len(t, report.Hypotheses, 1)
	assert.Equal(t, 90, report.Hypotheses[0].Likelihood)

	assert.True(t, report.Diagnosis.Confirmed)
	assert.Equal(t, 95, report.Diagnosis.Confidence)
	assert.Empty(t, report.Diagnosis.CorrectCIK)

	require.NotNil(t, report.FixApplied)
	assert.True(t, report.FixApplied.Applied)
	assert.NotEmpty(t, report.FixApplied.Warning)
	assert.Equal(t, model.ReportStatusPartialFix, report.Status)

	// Record persisted with stale deal facts cleared but the CIK untouched.
	stored := db.records["OBA"]
	assert.Equal(t, "0001234567", stored.CIK)
	assert.Nil(t, stored.Target)
	assert.Nil(t, stored.AnnouncedDate)
	assert.Equal(t, model.StatusSearching, stored.Status)

	// Outcome reached the learning store and the report was written.
	require.Len(t, db.reports, 1)
	assert.NotEmpty(t, db.reports[0].ID)
	require.Len(t, db.cases, 1)
	for _, c := range db.cases {
		assert.Equal(t, model.AnomalyTemporalInconsistency, c.IssueType)
		assert.Equal(t, model.ReportStatusPartialFix, c.FinalFix)
	}
	assert.NotEmpty(t, report.Prevention)
}

func TestRunEndToEndFullFix(t *testing.T) {
	rec, ictx, res := oxleyScenario()

	reg := &mockRegistry{}
	reg.On("CompanyByCIK", mock.Anything, "0001234567").Return(&edgar.CompanyInfo{
		CIK:  "0001234567",
		Name: "Continental Machining Co",
		SIC:  "3540",
	}, nil)
	reg.On("SearchCompanyByName", mock.Anything, "Oxley Bridge Acquisition Corp").Return([]edgar.CompanyMatch{
		{CIK: "0009999999", Name: "Oxley Bridge Acquisition Corp II"},
	}, nil)

	db := newFakeStore()
	db.records[rec.Ticker] = *rec

	agent := NewAgent(Config{}, reg, NewGenerator(nil, ""), db, learning.New(db, learning.Config{}), nil)
	report, err := agent.Run(context.Background(), Issue{Type: "stale_deal"}, res, ictx)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 100, report.Diagnosis.Confidence)
	assert.Equal(t, "0009999999", report.Diagnosis.CorrectCIK)
	assert.Equal(t, model.ReportStatusFixed, report.Status)
	assert.Empty(t, report.FixApplied.Warning)
	assert.Equal(t, "0009999999", db.records["OBA"].CIK)
}

func TestRunNoAnomalyReturnsNil(t *testing.T) {
	db := newFakeStore()
	agent := NewAgent(Config{}, &mockRegistry{}, NewGenerator(nil, ""), db, nil, nil)

	res := ResearchResult{DealFound: true, Target: "T", AnnouncedDate: datePtr("2025-08-01")}
	ictx := Context{Ticker: "OK", IPODate: datePtr("2025-01-01")}
	report, err := agent.Run(context.Background(), Issue{}, res, ictx)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, db.reports)
}

func TestRunNoHypothesesWritesNothing(t *testing.T) {
	db := newFakeStore()
	agent := NewAgent(Config{}, &mockRegistry{}, NewGenerator(nil, ""), db, learning.New(db, learning.Config{}), nil)

	// Extraction failure has no fallback hypothesis.
	res := ResearchResult{DealFound: true, Target: ""}
	report, err := agent.Run(context.Background(), Issue{}, res, Context{Ticker: "EF"})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, db.reports)
	assert.Empty(t, db.cases)
}

func TestRunUnconfirmedDiagnosisWritesNothing(t *testing.T) {
	rec, ictx, res := oxleyScenario()

	// The CIK resolves to a blank-check company, so wrong identity cannot
	// be confirmed.
	reg := &mockRegistry{}
	reg.On("CompanyByCIK", mock.Anything, "0001234567").Return(&edgar.CompanyInfo{
		CIK:  "0001234567",
		Name: "Oxley Bridge Acquisition Corp",
		SIC:  "6770",
	}, nil)
	reg.On("SearchCompanyByName", mock.Anything, "Oxley Bridge Acquisition Corp").Return(nil, nil)

	db := newFakeStore()
	db.records[rec.Ticker] = *rec

	agent := NewAgent(Config{}, reg, NewGenerator(nil, ""), db, learning.New(db, learning.Config{}), nil)
	report, err := agent.Run(context.Background(), Issue{Type: "stale_deal"}, res, ictx)
	require.NoError(t, err)
	assert.Nil(t, report)

	assert.Empty(t, db.reports)
	assert.Empty(t, db.cases)
	stored := db.records["OBA"]
	assert.Equal(t, model.StatusAnnounced, stored.Status, "record left untouched")
	assert.NotNil(t, stored.Target)
}

func TestRunDiagnosesPastNonConfirmableTopHypothesis(t *testing.T) {
	rec, ictx, res := oxleyScenario()

	reg := &mockRegistry{}
	reg.On("CompanyByCIK", mock.Anything, "0001234567").Return(&edgar.CompanyInfo{
		CIK:  "0001234567",
		Name: "Continental Machining Co",
		SIC:  "3540",
	}, nil)

	// The backend ranks a non-confirmable cause first; the evidence still
	// confirms the lower-ranked wrong-identity hypothesis.
	backend := &mockBackend{}
	backend.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
		Model: "m",
		Text: `[
			{"rank": 1, "likelihood": 80, "root_cause": "stale_extraction", "reasoning": "cached page", "verification_steps": ["Query EDGAR company data for the current CIK", "Check the SIC code classification", "Compare the announced date against the IPO date for consistency"], "fix_if_true": "re-extract"},
			{"rank": 2, "likelihood": 70, "root_cause": "wrong_cik_mapping", "reasoning": "ticker mapped to the wrong entity", "verification_steps": ["Query EDGAR company data for the current CIK"], "fix_if_true": "repoint the CIK"}
		]`,
	}, nil)

	db := newFakeStore()
	db.records[rec.Ticker] = *rec

	agent := NewAgent(Config{}, reg, NewGenerator(backend, "test-model"), db, learning.New(db, learning.Config{}), nil)
	report, err := agent.Run(context.Background(), Issue{Type: "stale_deal"}, res, ictx)
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, report.Hypotheses, 2)
	assert.Equal(t, "stale_extraction", report.Hypotheses[0].RootCause)
	assert.True(t, report.Diagnosis.Confirmed)
	assert.Equal(t, model.RootCauseWrongIdentity, report.Diagnosis.RootCause)
	assert.Equal(t, model.ReportStatusPartialFix, report.Status)
}
