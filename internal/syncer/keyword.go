package syncer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/spac-sync/internal/model"
)

// Per-field patterns for the fallback extractor. Group 1 is the raw value.
// Deliberately shallow: production extraction plugs in through Extractor.
var keywordPatterns = map[string]*regexp.Regexp{
	"target":             regexp.MustCompile(`(?i)business combination with ([A-Z][A-Za-z0-9 .,&'-]{2,60}?)(?:\s+\(|,|\.|\z)`),
	"trust_per_share":    regexp.MustCompile(`(?i)\$([\d.]+) per (?:public )?share (?:held )?in (?:the )?trust`),
	"shares_outstanding": regexp.MustCompile(`(?i)([\d,]+) (?:ordinary |common )?shares (?:issued and )?outstanding`),
	"ipo_price":          regexp.MustCompile(`(?i)at (?:a price of )?\$([\d.]+) per unit`),
	"extension_months":   regexp.MustCompile(`(?i)extend[a-z ]* by (?:up to )?(\d+)(?:\s*\(\d+\))? months?`),
}

// Dollar amounts that filings state with a trailing unit word. Group 1 is
// the number, group 2 the unit; the unit is applied here as a multiplier so
// "$345.6 million" exits the extractor already scaled.
var keywordScaledPatterns = map[string]*regexp.Regexp{
	"trust_value": regexp.MustCompile(`(?i)\$([\d,.]+)\s*(million|billion)? (?:held |deposited )?in(?:to)? (?:the )?trust account`),
	"ipo_size":    regexp.MustCompile(`(?i)initial public offering of \$([\d,.]+)\s*(million|billion)?`),
}

var unitMultipliers = map[string]float64{
	"million": 1e6,
	"billion": 1e9,
}

var keywordDatePatterns = map[string]*regexp.Regexp{
	"announced_date": regexp.MustCompile(`(?i)(?:announced|entered into)[a-z ,]*on (\w+ \d{1,2}, \d{4})`),
	"completed_date": regexp.MustCompile(`(?i)(?:consummated|completed|closed)[a-z ,]*on (\w+ \d{1,2}, \d{4})`),
	"deadline":       regexp.MustCompile(`(?i)(?:must consummate|deadline of|by) (\w+ \d{1,2}, \d{4})`),
	"ipo_date":       regexp.MustCompile(`(?i)initial public offering[a-z ,]*on (\w+ \d{1,2}, \d{4})`),
}

// KeywordExtractor is the built-in fallback Extractor. It scans the raw
// document text for boilerplate phrasings and returns the first capture.
func KeywordExtractor(_ context.Context, field string, _ model.Filing, doc string) (any, bool) {
	if re, ok := keywordDatePatterns[field]; ok {
		m := re.FindStringSubmatch(doc)
		if m == nil {
			return nil, false
		}
		t, err := time.Parse("January 2, 2006", m[1])
		if err != nil {
			return nil, false
		}
		return t, true
	}
	if re, ok := keywordScaledPatterns[field]; ok {
		m := re.FindStringSubmatch(doc)
		if m == nil {
			return nil, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			return nil, false
		}
		if mult, ok := unitMultipliers[strings.ToLower(m[2])]; ok {
			f *= mult
		}
		return f, true
	}
	re, ok := keywordPatterns[field]
	if !ok {
		return nil, false
	}
	m := re.FindStringSubmatch(doc)
	if m == nil {
		return nil, false
	}
	return strings.TrimSpace(m[1]), true
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
