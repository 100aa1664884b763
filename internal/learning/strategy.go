package learning

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/precedence"
	"github.com/sells-group/spac-sync/internal/store"
)

// SearchStrategyFor derives where extraction should look first for a field:
// the modal filing type of past successes, with the next most common types
// as fallbacks. With no history it falls back to a static per-category
// default.
func (s *Store) SearchStrategyFor(ctx context.Context, field, ticker string) (*model.SearchStrategy, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.cfg.StrategyWindowDays)
	cases, err := s.db.ListLearningCases(ctx, store.CaseFilter{
		IssueTypes:   []string{model.IssueExtractionSuccess},
		Field:        field,
		Since:        since,
		PreferTicker: ticker,
		Limit:        100,
	})
	if err != nil {
		return nil, eris.Wrap(err, "learning: strategy query")
	}

	if len(cases) == 0 {
		strategy := defaultStrategy(field)
		zap.L().Debug("learning: no history, using default strategy",
			zap.String("field", field),
			zap.String("primary", strategy.PrimarySource),
		)
		return strategy, nil
	}

	counts := make(map[string]int)
	sections := make(map[string]bool)
	var sectionHints []string
	for _, c := range cases {
		var detail successDetail
		if json.Unmarshal([]byte(c.OriginalData), &detail) != nil || detail.FilingType == "" {
			continue
		}
		counts[detail.FilingType]++
		if detail.Section != "" && !sections[detail.Section] && len(sectionHints) < 3 {
			sections[detail.Section] = true
			sectionHints = append(sectionHints, detail.Section)
		}
	}

	if len(counts) == 0 {
		return defaultStrategy(field), nil
	}

	type typeCount struct {
		filingType string
		n          int
	}
	ranked := make([]typeCount, 0, len(counts))
	total := 0
	for ft, n := range counts {
		ranked = append(ranked, typeCount{ft, n})
		total += n
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].n != ranked[j].n {
			return ranked[i].n > ranked[j].n
		}
		return ranked[i].filingType < ranked[j].filingType
	})

	strategy := &model.SearchStrategy{
		Field:         field,
		PrimarySource: ranked[0].filingType,
		SectionHints:  sectionHints,
		LookbackDays:  s.cfg.StrategyWindowDays,
		Confidence:    float64(ranked[0].n) / float64(total),
		PastSuccesses: total,
	}
	for _, tc := range ranked[1:] {
		if len(strategy.FallbackSources) == 2 {
			break
		}
		strategy.FallbackSources = append(strategy.FallbackSources, tc.filingType)
	}
	return strategy, nil
}

// defaultStrategy is the static fallback table keyed by field category.
func defaultStrategy(field string) *model.SearchStrategy {
	switch precedence.CategoryOf(field) {
	case precedence.Periodic:
		return &model.SearchStrategy{
			Field:           field,
			PrimarySource:   model.Form10Q,
			FallbackSources: []string{model.Form10K, model.Form8K},
			LookbackDays:    120,
		}
	case precedence.EventBased:
		return &model.SearchStrategy{
			Field:           field,
			PrimarySource:   model.Form8K,
			FallbackSources: []string{model.FormDEFM14A},
			LookbackDays:    60,
		}
	case precedence.IPOStatic, precedence.IPOMutable:
		return &model.SearchStrategy{
			Field:           field,
			PrimarySource:   model.FormS1,
			FallbackSources: []string{model.Form424B4},
			LookbackDays:    365,
		}
	default:
		return &model.SearchStrategy{
			Field:           field,
			PrimarySource:   model.Form8K,
			FallbackSources: []string{model.Form10Q},
			LookbackDays:    90,
		}
	}
}
