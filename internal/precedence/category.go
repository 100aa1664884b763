// Package precedence decides whether a value extracted from a filing should
// overwrite the current database state, based on a per-field-category model
// of filing-type authority and recency.
package precedence

import "github.com/sells-group/spac-sync/internal/model"

// Category groups tracked fields by how their ground truth evolves.
type Category string

const (
	// EventBased fields change when a discrete corporate event happens
	// (deal announced, deal closed). The event filing is authoritative.
	EventBased Category = "event_based"

	// Periodic fields are restated every reporting period (trust value).
	Periodic Category = "periodic"

	// IPOStatic fields are fixed at IPO and never legitimately change.
	IPOStatic Category = "ipo_static"

	// IPOMutable fields are set at IPO but can be amended later
	// (deadline extensions voted by shareholders).
	IPOMutable Category = "ipo_mutable"
)

// Rules holds the precedence order for one category. Index in Order is the
// precedence rank: lower is more authoritative.
type Rules struct {
	Order             []string
	RecencyMatters    bool
	RecencyWindowDays int
}

var categoryRules = map[Category]Rules{
	EventBased: {
		Order:          []string{model.Form8K, model.FormDEFM14A, model.FormDEF14A, model.FormS4, model.Form425, model.Form10Q, model.Form10K},
		RecencyMatters: true,
	},
	Periodic: {
		Order:             []string{model.Form10Q, model.Form10K, model.Form8K, model.FormDEF14A},
		RecencyMatters:    true,
		RecencyWindowDays: 120,
	},
	IPOStatic: {
		Order: []string{model.Form424B4, model.FormS1, model.Form8K},
	},
	IPOMutable: {
		Order:          []string{model.FormDEF14A, model.Form8K, model.FormS1},
		RecencyMatters: true,
	},
}

var fieldCategories = map[string]Category{
	"ipo_date":  IPOStatic,
	"ipo_size":  IPOStatic,
	"ipo_price": IPOStatic,

	"trust_value":        Periodic,
	"trust_per_share":    Periodic,
	"shares_outstanding": Periodic,

	"target":         EventBased,
	"announced_date": EventBased,
	"completed_date": EventBased,
	"status":         EventBased,

	"deadline":         IPOMutable,
	"extension_months": IPOMutable,
}

// CategoryOf returns the category a field belongs to. Unmapped fields
// default to Periodic.
func CategoryOf(field string) Category {
	if c, ok := fieldCategories[field]; ok {
		return c
	}
	return Periodic
}

// RulesFor returns the precedence rules for a category.
func RulesFor(c Category) Rules {
	return categoryRules[c]
}

// Rank returns the precedence rank of a filing type within an ordered list.
// Unknown types rank below everything in the list.
func Rank(filingType string, order []string) int {
	for i, t := range order {
		if t == filingType {
			return i
		}
	}
	return len(order)
}
