package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/spac-sync/internal/learning"
	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/precedence"
	"github.com/sells-group/spac-sync/internal/store"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) SearchFilings(ctx context.Context, cik, filingType string, count int) ([]model.Filing, error) {
	args := m.Called(ctx, cik, filingType, count)
	filings, _ := args.Get(0).([]model.Filing)
	return filings, args.Error(1)
}

func (m *mockRegistry) FetchDocument(ctx context.Context, url string) (string, error) {
	args := m.Called(ctx, url)
	return args.String(0), args.Error(1)
}

type memStore struct {
	records map[string]model.Record
	cases   map[string]model.LearningCase
}

func newMemStore() *memStore {
	return &memStore{records: map[string]model.Record{}, cases: map[string]model.LearningCase{}}
}

func (s *memStore) GetRecord(_ context.Context, ticker string) (*model.Record, error) {
	rec, ok := s.records[ticker]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) UpsertRecord(_ context.Context, rec *model.Record) error {
	s.records[rec.Ticker] = *rec
	return nil
}

func (s *memStore) ListTickers(_ context.Context) ([]string, error) { return nil, nil }

func (s *memStore) UpsertLearningCase(_ context.Context, c model.LearningCase) error {
	s.cases[c.IssueID] = c
	return nil
}

func (s *memStore) ListLearningCases(_ context.Context, _ store.CaseFilter) ([]model.LearningCase, error) {
	return nil, nil
}

func (s *memStore) InsertReport(_ context.Context, _ model.InvestigationReport) error { return nil }
func (s *memStore) ListReports(_ context.Context, _ string, _ int) ([]model.InvestigationReport, error) {
	return nil, nil
}
func (s *memStore) Migrate(context.Context) error { return nil }
func (s *memStore) Close() error                  { return nil }

func filingOn(form, date, url string) model.Filing {
	d, _ := time.Parse("2006-01-02", date)
	return model.Filing{Type: form, Date: d, URL: url}
}

func TestSyncTickerAppliesExtractedValue(t *testing.T) {
	db := newMemStore()
	db.records["ABCD"] = model.Record{Ticker: "ABCD", CIK: "0001234567", Status: model.StatusSearching}

	reg := &mockRegistry{}
	reg.On("SearchFilings", mock.Anything, "0001234567", model.Form10Q, 3).Return([]model.Filing{
		filingOn(model.Form10Q, "2025-08-01", "https://example.test/10q.htm"),
	}, nil)
	reg.On("SearchFilings", mock.Anything, "0001234567", mock.Anything, 3).Return(nil, nil)
	reg.On("FetchDocument", mock.Anything, "https://example.test/10q.htm").Return(
		"as of June 30, 2025 there was $414,712,500 held in the trust account", nil)

	engine := New(reg, db, precedence.NewManager(precedence.Config{}), learning.New(db, learning.Config{}), nil)
	summary, err := engine.SyncTicker(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Contains(t, summary.FieldsUpdated, "trust_value")

	stored := db.records["ABCD"]
	require.NotNil(t, stored.TrustValue)
	assert.Equal(t, 414712500.0, *stored.TrustValue)
	assert.Equal(t, model.Form10Q, stored.ProvenanceFor("trust_value").Source)

	// Every applied update leaves a success case behind.
	require.NotEmpty(t, db.cases)
	var found bool
	for _, c := range db.cases {
		if c.Field == "trust_value" && c.IssueType == model.IssueExtractionSuccess {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSyncTickerScalesUnitWordAmounts(t *testing.T) {
	db := newMemStore()
	db.records["ABCD"] = model.Record{Ticker: "ABCD", CIK: "0001234567", Status: model.StatusSearching}

	// The dominant filing phrasing states the trust balance with a unit
	// word; the persisted value must carry the full magnitude.
	reg := &mockRegistry{}
	reg.On("SearchFilings", mock.Anything, "0001234567", model.Form10Q, 3).Return([]model.Filing{
		filingOn(model.Form10Q, "2025-08-01", "https://example.test/10q.htm"),
	}, nil)
	reg.On("SearchFilings", mock.Anything, "0001234567", mock.Anything, 3).Return(nil, nil)
	reg.On("FetchDocument", mock.Anything, "https://example.test/10q.htm").Return(
		"approximately $345.6 million held in the trust account as of June 30, 2025", nil)

	engine := New(reg, db, precedence.NewManager(precedence.Config{}), nil, nil)
	summary, err := engine.SyncTicker(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Contains(t, summary.FieldsUpdated, "trust_value")

	stored := db.records["ABCD"]
	require.NotNil(t, stored.TrustValue)
	assert.InDelta(t, 345600000.0, *stored.TrustValue, 0.001)
}

func TestSyncTickerRespectsPrecedence(t *testing.T) {
	annDate, _ := time.Parse("2006-01-02", "2025-08-10")
	rec := model.Record{Ticker: "ABCD", CIK: "0001234567", Status: model.StatusAnnounced}
	rec.Target = new(string)
	*rec.Target = "Existing Target Co"
	rec.SetProvenance("target", model.Form8K, &annDate)

	db := newMemStore()
	db.records["ABCD"] = rec

	// An older, lower-precedence 10-Q mentions a different target.
	reg := &mockRegistry{}
	reg.On("SearchFilings", mock.Anything, "0001234567", model.Form10Q, 3).Return([]model.Filing{
		filingOn(model.Form10Q, "2025-05-01", "https://example.test/10q.htm"),
	}, nil)
	reg.On("SearchFilings", mock.Anything, "0001234567", mock.Anything, 3).Return(nil, nil)
	reg.On("FetchDocument", mock.Anything, "https://example.test/10q.htm").Return(
		"proposed business combination with Stale Target Holdings, previously announced", nil)

	engine := New(reg, db, precedence.NewManager(precedence.Config{}), nil, nil)
	summary, err := engine.SyncTicker(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.NotContains(t, summary.FieldsUpdated, "target")
	assert.Equal(t, "Existing Target Co", *db.records["ABCD"].Target)
}

func TestSyncTickerUnknownTicker(t *testing.T) {
	engine := New(&mockRegistry{}, newMemStore(), precedence.NewManager(precedence.Config{}), nil, nil)
	_, err := engine.SyncTicker(context.Background(), "NOPE")
	require.Error(t, err)
}

func TestSyncTickerSkipsUnparseableNumbers(t *testing.T) {
	db := newMemStore()
	db.records["ABCD"] = model.Record{Ticker: "ABCD", CIK: "0001234567", Status: model.StatusSearching}

	reg := &mockRegistry{}
	reg.On("SearchFilings", mock.Anything, "0001234567", model.Form10Q, 3).Return([]model.Filing{
		filingOn(model.Form10Q, "2025-08-01", "https://example.test/10q.htm"),
	}, nil)
	reg.On("SearchFilings", mock.Anything, "0001234567", mock.Anything, 3).Return(nil, nil)
	reg.On("FetchDocument", mock.Anything, "https://example.test/10q.htm").Return(
		"there was $N/A held in the trust account", nil)

	engine := New(reg, db, precedence.NewManager(precedence.Config{}), nil, nil)
	summary, err := engine.SyncTicker(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.NotContains(t, summary.FieldsUpdated, "trust_value")
	assert.Nil(t, db.records["ABCD"].TrustValue)
}

func TestKeywordExtractor(t *testing.T) {
	filing := model.Filing{Type: model.Form8K}

	v, ok := KeywordExtractor(context.Background(), "target", filing,
		"entered into a definitive agreement for a business combination with Continental Machining Co, a Delaware corporation")
	require.True(t, ok)
	assert.Equal(t, "Continental Machining Co", v)

	v, ok = KeywordExtractor(context.Background(), "announced_date", filing,
		"the merger agreement was announced on September 19, 2025 by the parties")
	require.True(t, ok)
	assert.Equal(t, "2025-09-19", v.(time.Time).Format("2006-01-02"))

	_, ok = KeywordExtractor(context.Background(), "target", filing, "routine quarterly disclosure")
	assert.False(t, ok)

	_, ok = KeywordExtractor(context.Background(), "name", filing, "anything")
	assert.False(t, ok)
}

func TestKeywordExtractorScalesDollarAmounts(t *testing.T) {
	filing := model.Filing{Type: model.Form10Q}

	cases := []struct {
		field string
		doc   string
		want  float64
	}{
		{"trust_value", "$345.6 million held in the trust account", 345600000},
		{"trust_value", "$1.2 billion held in the trust account", 1200000000},
		{"trust_value", "$414,712,500 held in the trust account", 414712500},
		{"trust_value", "$414,712,500 in the trust account", 414712500},
		{"ipo_size", "completed its initial public offering of $300 million", 300000000},
		{"ipo_size", "initial public offering of $345,000,000", 345000000},
	}
	for _, tc := range cases {
		v, ok := KeywordExtractor(context.Background(), tc.field, filing, tc.doc)
		require.True(t, ok, tc.doc)
		assert.InDelta(t, tc.want, v.(float64), 0.001, tc.doc)
	}

	_, ok := KeywordExtractor(context.Background(), "trust_value", filing,
		"there was $N/A held in the trust account")
	assert.False(t, ok)
}
