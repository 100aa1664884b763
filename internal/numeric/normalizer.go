// Package numeric normalizes human- and model-formatted numbers ("$275M",
// "1,234,567", "5M shares") into plain floats before they reach precedence
// logic or persistence.
package numeric

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// sentinels are non-value strings that normalize to nil.
var sentinels = map[string]bool{
	"n/a":  true,
	"na":   true,
	"tbd":  true,
	"tba":  true,
	"-":    true,
	"none": true,
	"null": true,
	"":     true,
}

// suffix multipliers, matched case-insensitively on the last character.
var multipliers = map[byte]float64{
	'k': 1e3,
	'm': 1e6,
	'b': 1e9,
	't': 1e12,
}

// unit words stripped before suffix detection.
var unitWords = []string{"shares", "share", "million", "billion", "trillion", "usd", "dollars"}

// Parse converts a value of any reasonable type into a float. Returns nil
// for sentinel non-values and anything unparseable. Never panics.
func Parse(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case *float64:
		return v
	case string:
		return parseString(v)
	default:
		return nil
	}
}

func parseString(s string) *float64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if sentinels[s] {
		return nil
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	for _, w := range unitWords {
		s = strings.TrimSpace(strings.TrimSuffix(s, w))
	}
	if s == "" {
		return nil
	}

	if mult, ok := multipliers[s[len(s)-1]]; ok && len(s) > 1 {
		if base, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-1]), 64); err == nil {
			f := base * mult
			return &f
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// SanitizeFields runs Parse over the named keys of an extraction result,
// leaving all other keys untouched. This is the mandatory gate between
// model output and persistence.
func SanitizeFields(result map[string]any, fields []string) map[string]any {
	for _, field := range fields {
		raw, ok := result[field]
		if !ok || raw == nil {
			continue
		}
		parsed := Parse(raw)
		if parsed == nil {
			zap.L().Debug("numeric: unparseable value dropped",
				zap.String("field", field),
				zap.Any("raw", raw),
			)
			result[field] = nil
			continue
		}
		result[field] = *parsed
	}
	return result
}
