package precedence

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
)

// DefaultOverrideRankGap is how many precedence levels higher an older
// filing must rank to override a more recent one. Two levels keeps
// adjacent-precedence sources filed close together from thrashing.
const DefaultOverrideRankGap = 2

// Config holds the tunable thresholds of the precedence model.
type Config struct {
	// OverrideRankGap is the minimum rank advantage an older filing needs
	// to beat a newer one within the same category.
	OverrideRankGap int `yaml:"override_rank_gap" mapstructure:"override_rank_gap"`
}

// Proposed is a candidate value extracted from a filing.
type Proposed struct {
	Value      any
	Source     string
	FilingDate *time.Time
}

// Decision is the outcome of one precedence evaluation. It has no side
// effects until passed to Apply.
type Decision struct {
	ShouldUpdate  bool       `json:"should_update"`
	Reason        string     `json:"reason"`
	CurrentSource string     `json:"current_source,omitempty"`
	CurrentDate   *time.Time `json:"current_date,omitempty"`
	Category      Category   `json:"category"`
}

// Manager evaluates and applies precedence decisions for tracked fields.
type Manager struct {
	rankGap int
}

// NewManager creates a Manager. A zero OverrideRankGap falls back to the
// default of 2.
func NewManager(cfg Config) *Manager {
	gap := cfg.OverrideRankGap
	if gap <= 0 {
		gap = DefaultOverrideRankGap
	}
	return &Manager{rankGap: gap}
}

// Decide determines whether the proposed value should overwrite the current
// state of the field. Pure: identical inputs always produce the identical
// decision, and nothing is written until Apply.
func (m *Manager) Decide(rec *model.Record, field string, p Proposed) Decision {
	cat := CategoryOf(field)
	rules := RulesFor(cat)

	spec, ok := SpecFor(field)
	if !ok {
		return Decision{Reason: fmt.Sprintf("field %s not tracked", field), Category: cat}
	}

	prov := rec.ProvenanceFor(field)
	d := Decision{
		CurrentSource: prov.Source,
		CurrentDate:   prov.FilingDate,
		Category:      cat,
	}

	current := spec.Get(rec)
	if current == nil {
		d.ShouldUpdate = true
		d.Reason = "field empty"
		return d
	}

	if valuesEqual(spec.Kind, current, p.Value) {
		d.Reason = "value unchanged"
		return d
	}

	if prov.Source == "" {
		d.ShouldUpdate = true
		d.Reason = "no source tracked"
		return d
	}

	curRank := Rank(prov.Source, rules.Order)
	newRank := Rank(p.Source, rules.Order)

	// Static IPO facts are set once; only a strictly more authoritative
	// filing type may revise them, no matter how recent the challenger.
	if cat == IPOStatic {
		if newRank < curRank {
			d.ShouldUpdate = true
			d.Reason = fmt.Sprintf("%s outranks %s for static field", p.Source, prov.Source)
		} else {
			d.Reason = fmt.Sprintf("%s does not outrank %s for static field", p.Source, prov.Source)
		}
		return d
	}

	if p.FilingDate != nil && prov.FilingDate != nil {
		days := int(p.FilingDate.Sub(*prov.FilingDate).Hours() / 24)
		switch {
		case days > 0:
			d.ShouldUpdate = true
			d.Reason = fmt.Sprintf("more recent filing (%d days newer)", days)
			return d
		case days < 0:
			if newRank <= curRank-m.rankGap {
				d.ShouldUpdate = true
				d.Reason = fmt.Sprintf("%s outranks %s by %d levels despite being older", p.Source, prov.Source, curRank-newRank)
			} else {
				d.Reason = fmt.Sprintf("older filing without sufficient rank advantage (%s vs %s)", p.Source, prov.Source)
			}
			return d
		}
		// Same day: fall through to rank comparison.
	}

	if newRank < curRank {
		d.ShouldUpdate = true
		d.Reason = fmt.Sprintf("%s outranks %s", p.Source, prov.Source)
	} else {
		d.Reason = fmt.Sprintf("%s does not outrank %s", p.Source, prov.Source)
	}
	return d
}

// Apply writes the proposed value, source, and filing date to the record if
// the decision calls for it. No-op otherwise.
func (m *Manager) Apply(rec *model.Record, field string, p Proposed, d Decision) error {
	if !d.ShouldUpdate {
		return nil
	}
	spec, ok := SpecFor(field)
	if !ok {
		return eris.Errorf("precedence: field %s not tracked", field)
	}
	if err := spec.Set(rec, p.Value); err != nil {
		return eris.Wrapf(err, "precedence: apply %s", field)
	}
	rec.SetProvenance(field, p.Source, p.FilingDate)

	zap.L().Info("precedence: field updated",
		zap.String("ticker", rec.Ticker),
		zap.String("field", field),
		zap.String("source", p.Source),
		zap.String("reason", d.Reason),
	)
	return nil
}

// valuesEqual compares a current value (from a FieldSpec getter) with a raw
// proposed value. Exact equality, not fuzzy; unparseable proposed values
// compare unequal and are left for Apply to reject.
func valuesEqual(kind Kind, current, proposed any) bool {
	if proposed == nil {
		return current == nil
	}
	switch kind {
	case KindFloat:
		p, err := coerceFloat(proposed)
		if err != nil || p == nil {
			return false
		}
		c, ok := current.(float64)
		return ok && c == *p
	case KindDate:
		p, err := coerceDate(proposed)
		if err != nil || p == nil {
			return false
		}
		c, ok := current.(time.Time)
		return ok && c.Equal(*p)
	case KindString:
		p, err := coerceString(proposed)
		if err != nil || p == nil {
			return false
		}
		c, ok := current.(string)
		return ok && c == *p
	}
	return false
}
