package learning

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/store"
)

// Bucket caps for a lesson bundle.
const (
	maxFormatWarnings  = 5
	maxFilingHints     = 3
	maxCommonMistakes  = 3
	maxSuccessPatterns = 3
)

var defaultLessonIssueTypes = []string{
	model.IssueFormatError,
	model.IssueExtractionSuccess,
	model.IssueValidationError,
}

// LessonsFor aggregates recent learning cases for a field into the buckets
// extraction prompts consume. Classification is substring-based on the
// free-text notes; the structured original_data payload supplements it
// where present.
func (s *Store) LessonsFor(ctx context.Context, field string) (*model.LessonBundle, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.cfg.LessonWindowDays)
	cases, err := s.db.ListLearningCases(ctx, store.CaseFilter{
		IssueTypes: defaultLessonIssueTypes,
		Field:      field,
		Since:      since,
		Limit:      50,
	})
	if err != nil {
		return nil, eris.Wrap(err, "learning: lessons query")
	}

	bundle := &model.LessonBundle{Field: field, TotalLearnings: len(cases)}
	seenAgents := make(map[string]bool)

	for _, c := range cases {
		notes := strings.TrimSpace(c.LearningNotes)

		if c.OriginalData != "" {
			var detail successDetail
			if json.Unmarshal([]byte(c.OriginalData), &detail) == nil && detail.Agent != "" && !seenAgents[detail.Agent] {
				seenAgents[detail.Agent] = true
				bundle.ContributingScans = append(bundle.ContributingScans, detail.Agent)
			}
		}

		if notes == "" {
			continue
		}

		switch c.IssueType {
		case model.IssueFormatError:
			if len(bundle.FormatWarnings) < maxFormatWarnings {
				bundle.FormatWarnings = append(bundle.FormatWarnings, notes)
			}
		case model.IssueValidationError:
			if len(bundle.CommonMistakes) < maxCommonMistakes {
				bundle.CommonMistakes = append(bundle.CommonMistakes, notes)
			}
		case model.IssueExtractionSuccess:
			// "found in" in the notes marks a filing-location hint.
			if strings.Contains(strings.ToLower(notes), "found in") {
				if len(bundle.FilingHints) < maxFilingHints {
					bundle.FilingHints = append(bundle.FilingHints, notes)
				}
			} else if len(bundle.SuccessPatterns) < maxSuccessPatterns {
				bundle.SuccessPatterns = append(bundle.SuccessPatterns, notes)
			}
		}
	}

	return bundle, nil
}
