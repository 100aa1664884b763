package investigate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/spac-sync/internal/model"
)

func wrongIdentityRecord() *model.Record {
	rec := &model.Record{
		Ticker:        "ABCD",
		CIK:           "0001234567",
		Status:        model.StatusAnnounced,
		Target:        strPtr("Oxley Bridge Acquisitions"),
		AnnouncedDate: datePtr("2014-09-19"),
	}
	rec.SetProvenance("target", model.Form8K, datePtr("2014-09-20"))
	rec.SetProvenance("announced_date", model.Form8K, datePtr("2014-09-20"))
	return rec
}

func TestApplyFullFix(t *testing.T) {
	rec := wrongIdentityRecord()
	diag := model.Diagnosis{
		Confirmed:  true,
		RootCause:  model.RootCauseWrongIdentity,
		Confidence: 100,
		CorrectCIK: "0009999999",
	}

	res := NewFixer().Apply(rec, diag)
	assert.True(t, res.Applied)
	assert.Empty(t, res.Warning)
	assert.ElementsMatch(t, []string{"cik", "target", "announced_date", "status"}, res.Changes)

	assert.Equal(t, "0009999999", rec.CIK)
	assert.Nil(t, rec.Target)
	assert.Nil(t, rec.AnnouncedDate)
	assert.Equal(t, model.StatusSearching, rec.Status)
	assert.Empty(t, rec.ProvenanceFor("target").Source)
	assert.Empty(t, rec.ProvenanceFor("announced_date").Source)

	assert.Equal(t, "0001234567", res.Before["cik"])
	assert.Equal(t, "Oxley Bridge Acquisitions", res.Before["target"])
	assert.Equal(t, "0009999999", res.After["cik"])
	_, hasTarget := res.After["target"]
	assert.False(t, hasTarget)
}

func TestApplyPartialFixWarnsWithoutReplacementCIK(t *testing.T) {
	rec := wrongIdentityRecord()
	diag := model.Diagnosis{
		Confirmed:  true,
		RootCause:  model.RootCauseWrongIdentity,
		Confidence: 95,
	}

	res := NewFixer().Apply(rec, diag)
	assert.True(t, res.Applied)
	assert.NotEmpty(t, res.Warning)
	assert.NotContains(t, res.Changes, "cik")

	// Stale facts cleared, wrong CIK left in place for a human to resolve.
	assert.Equal(t, "0001234567", rec.CIK)
	assert.Nil(t, rec.Target)
	assert.Nil(t, rec.AnnouncedDate)
	assert.Equal(t, model.StatusSearching, rec.Status)
}

func TestApplyRefusesUnconfirmedDiagnosis(t *testing.T) {
	rec := wrongIdentityRecord()
	res := NewFixer().Apply(rec, model.Diagnosis{RootCause: model.RootCauseWrongIdentity})
	assert.False(t, res.Applied)
	assert.Empty(t, res.Changes)
	assert.Equal(t, "0001234567", rec.CIK)
	assert.NotNil(t, rec.Target)
}

func TestApplyRefusesUnknownRootCause(t *testing.T) {
	rec := wrongIdentityRecord()
	res := NewFixer().Apply(rec, model.Diagnosis{Confirmed: true, RootCause: "stale_extraction"})
	assert.False(t, res.Applied)
	assert.NotNil(t, rec.Target)
}
