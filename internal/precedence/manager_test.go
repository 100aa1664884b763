package precedence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/spac-sync/internal/model"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func recordWith(field string, value any, source string, filingDate *time.Time) *model.Record {
	rec := &model.Record{Ticker: "TEST"}
	spec, ok := SpecFor(field)
	if !ok {
		panic("untracked field " + field)
	}
	if err := spec.Set(rec, value); err != nil {
		panic(err)
	}
	if source != "" {
		rec.SetProvenance(field, source, filingDate)
	}
	return rec
}

func TestDecide_EmptyFieldAlwaysUpdates(t *testing.T) {
	m := NewManager(Config{})
	rec := &model.Record{Ticker: "TEST"}

	d := m.Decide(rec, "trust_value", Proposed{Value: 275e6, Source: model.Form8K, FilingDate: date("2025-01-01")})

	assert.True(t, d.ShouldUpdate)
	assert.Equal(t, "field empty", d.Reason)
}

func TestDecide_UnchangedValueNeverUpdates(t *testing.T) {
	m := NewManager(Config{})
	// Newer date and higher-precedence source must not matter when the
	// value itself is identical.
	rec := recordWith("trust_value", 275e6, model.Form8K, date("2024-01-01"))

	d := m.Decide(rec, "trust_value", Proposed{Value: 275e6, Source: model.Form10Q, FilingDate: date("2025-06-01")})

	assert.False(t, d.ShouldUpdate)
	assert.Equal(t, "value unchanged", d.Reason)
}

func TestDecide_NoSourceTracked(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, "", nil)

	d := m.Decide(rec, "trust_value", Proposed{Value: 200e6, Source: model.Form10Q, FilingDate: date("2025-06-01")})

	assert.True(t, d.ShouldUpdate)
	assert.Equal(t, "no source tracked", d.Reason)
}

func TestDecide_Pure(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form10Q, date("2025-03-31"))
	p := Proposed{Value: 110e6, Source: model.Form8K, FilingDate: date("2025-01-15")}

	first := m.Decide(rec, "trust_value", p)
	second := m.Decide(rec, "trust_value", p)

	assert.Equal(t, first, second)
}

func TestDecide_IPOStaticMonotonicPrecedence(t *testing.T) {
	m := NewManager(Config{})

	// 424B4 ranks 0, S-1 ranks 1, 8-K ranks 2 for ipo_static.
	tests := []struct {
		name       string
		curSource  string
		newSource  string
		newDate    *time.Time
		wantUpdate bool
	}{
		{"higher rank wins", model.FormS1, model.Form424B4, date("2020-01-01"), true},
		{"equal rank loses", model.FormS1, model.FormS1, date("2030-01-01"), false},
		{"lower rank loses even if far newer", model.Form424B4, model.Form8K, date("2030-01-01"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordWith("ipo_price", 10.0, tt.curSource, date("2025-06-26"))
			d := m.Decide(rec, "ipo_price", Proposed{Value: 10.5, Source: tt.newSource, FilingDate: tt.newDate})
			assert.Equal(t, tt.wantUpdate, d.ShouldUpdate)
			assert.Equal(t, IPOStatic, d.Category)
		})
	}
}

func TestDecide_MoreRecentWins(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form10Q, date("2025-03-31"))

	d := m.Decide(rec, "trust_value", Proposed{Value: 110e6, Source: model.Form8K, FilingDate: date("2025-05-10")})

	assert.True(t, d.ShouldUpdate)
	assert.Contains(t, d.Reason, "more recent")
}

func TestDecide_RecencyOverrideRequiresRankGap(t *testing.T) {
	m := NewManager(Config{})

	// Periodic order: 10-Q(0), 10-K(1), 8-K(2), DEF 14A(3).
	// Current source ranks 2; an older filing needs rank <= 0 to override.
	cur := model.Form8K

	t.Run("one level higher is not enough", func(t *testing.T) {
		rec := recordWith("trust_value", 100e6, cur, date("2025-05-01"))
		d := m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: model.Form10K, FilingDate: date("2025-04-01")})
		assert.False(t, d.ShouldUpdate)
	})

	t.Run("two levels higher overrides", func(t *testing.T) {
		rec := recordWith("trust_value", 100e6, cur, date("2025-05-01"))
		d := m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: model.Form10Q, FilingDate: date("2025-04-01")})
		assert.True(t, d.ShouldUpdate)
	})
}

func TestDecide_MissingDatesFallToRankComparison(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form8K, nil)

	d := m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: model.Form10Q})
	assert.True(t, d.ShouldUpdate)

	d = m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: model.FormDEF14A})
	assert.False(t, d.ShouldUpdate)
}

func TestDecide_SameDayFallsToRankComparison(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form8K, date("2025-05-01"))

	d := m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: model.Form10Q, FilingDate: date("2025-05-01")})

	assert.True(t, d.ShouldUpdate)
}

func TestDecide_UnknownFilingTypeRanksLast(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form10Q, nil)

	d := m.Decide(rec, "trust_value", Proposed{Value: 120e6, Source: "SC 13G"})

	assert.False(t, d.ShouldUpdate)
}

func TestDecide_UnmappedFieldDefaultsToPeriodic(t *testing.T) {
	assert.Equal(t, Periodic, CategoryOf("founder_shares"))
}

func TestApply_WritesValueAndProvenance(t *testing.T) {
	m := NewManager(Config{})
	rec := &model.Record{Ticker: "TEST"}
	p := Proposed{Value: 275e6, Source: model.Form10Q, FilingDate: date("2025-03-31")}

	d := m.Decide(rec, "trust_value", p)
	require.True(t, d.ShouldUpdate)
	require.NoError(t, m.Apply(rec, "trust_value", p, d))

	require.NotNil(t, rec.TrustValue)
	assert.Equal(t, 275e6, *rec.TrustValue)
	prov := rec.ProvenanceFor("trust_value")
	assert.Equal(t, model.Form10Q, prov.Source)
	assert.Equal(t, *date("2025-03-31"), *prov.FilingDate)
}

func TestApply_NoOpWhenDecisionRejects(t *testing.T) {
	m := NewManager(Config{})
	rec := recordWith("trust_value", 100e6, model.Form10Q, date("2025-03-31"))
	p := Proposed{Value: 120e6, Source: model.FormDEF14A, FilingDate: date("2025-01-01")}

	d := m.Decide(rec, "trust_value", p)
	require.False(t, d.ShouldUpdate)
	require.NoError(t, m.Apply(rec, "trust_value", p, d))

	assert.Equal(t, 100e6, *rec.TrustValue)
	assert.Equal(t, model.Form10Q, rec.ProvenanceFor("trust_value").Source)
}

func TestApply_DateFieldFromString(t *testing.T) {
	m := NewManager(Config{})
	rec := &model.Record{Ticker: "TEST"}
	p := Proposed{Value: "2026-09-30", Source: model.FormDEF14A, FilingDate: date("2025-08-01")}

	d := m.Decide(rec, "deadline", p)
	require.True(t, d.ShouldUpdate)
	require.NoError(t, m.Apply(rec, "deadline", p, d))

	require.NotNil(t, rec.Deadline)
	assert.Equal(t, *date("2026-09-30"), *rec.Deadline)
}

func TestFieldSpecs_CoverAllTrackedFields(t *testing.T) {
	for _, name := range TrackedFields() {
		spec, ok := SpecFor(name)
		require.True(t, ok, name)
		rec := &model.Record{}
		assert.Nil(t, spec.Get(rec), "zero record should read nil for %s", name)
	}
}

func fieldFloat(rec *model.Record, field string) *float64 {
	spec, _ := SpecFor(field)
	v := spec.Get(rec)
	if v == nil {
		return nil
	}
	f := v.(float64)
	return &f
}

func TestFieldSpec_ClearResetsValue(t *testing.T) {
	rec := recordWith("trust_value", 100e6, model.Form10Q, date("2025-03-31"))
	spec, _ := SpecFor("trust_value")

	spec.Clear(rec)
	rec.ClearProvenance("trust_value")

	assert.Nil(t, fieldFloat(rec, "trust_value"))
	assert.Equal(t, "", rec.ProvenanceFor("trust_value").Source)
}
