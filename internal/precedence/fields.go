package precedence

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/spac-sync/internal/model"
)

// Kind is the value type a tracked field holds.
type Kind int

const (
	KindFloat Kind = iota
	KindDate
	KindString
)

// FieldSpec gives the precedence manager typed access to one tracked field
// without reflection: a getter and setter closure over *model.Record.
type FieldSpec struct {
	Name string
	Kind Kind
	Get  func(*model.Record) any
	Set  func(*model.Record, any) error
	// Clear resets the field to unset.
	Clear func(*model.Record)
}

var fieldSpecs = map[string]FieldSpec{
	"ipo_date":           dateField("ipo_date", func(r *model.Record) **time.Time { return &r.IPODate }),
	"ipo_size":           floatField("ipo_size", func(r *model.Record) **float64 { return &r.IPOSize }),
	"ipo_price":          floatField("ipo_price", func(r *model.Record) **float64 { return &r.IPOPrice }),
	"trust_value":        floatField("trust_value", func(r *model.Record) **float64 { return &r.TrustValue }),
	"trust_per_share":    floatField("trust_per_share", func(r *model.Record) **float64 { return &r.TrustPerShare }),
	"shares_outstanding": floatField("shares_outstanding", func(r *model.Record) **float64 { return &r.SharesOutstanding }),
	"target":             stringField("target", func(r *model.Record) **string { return &r.Target }),
	"announced_date":     dateField("announced_date", func(r *model.Record) **time.Time { return &r.AnnouncedDate }),
	"completed_date":     dateField("completed_date", func(r *model.Record) **time.Time { return &r.CompletedDate }),
	"deadline":           dateField("deadline", func(r *model.Record) **time.Time { return &r.Deadline }),
	"extension_months":   floatField("extension_months", func(r *model.Record) **float64 { return &r.ExtensionMonths }),
	"status": {
		Name: "status",
		Kind: KindString,
		Get: func(r *model.Record) any {
			if r.Status == "" {
				return nil
			}
			return r.Status
		},
		Set: func(r *model.Record, v any) error {
			s, err := coerceString(v)
			if err != nil {
				return err
			}
			if s == nil {
				r.Status = ""
			} else {
				r.Status = *s
			}
			return nil
		},
		Clear: func(r *model.Record) { r.Status = "" },
	},
}

// SpecFor returns the accessor spec for a field name, or false when the
// field is not tracked.
func SpecFor(field string) (FieldSpec, bool) {
	s, ok := fieldSpecs[field]
	return s, ok
}

// TrackedFields returns the names of all fields the precedence manager
// knows how to read and write.
func TrackedFields() []string {
	out := make([]string, 0, len(fieldSpecs))
	for name := range fieldSpecs {
		out = append(out, name)
	}
	return out
}

func floatField(name string, ptr func(*model.Record) **float64) FieldSpec {
	return FieldSpec{
		Name: name,
		Kind: KindFloat,
		Get: func(r *model.Record) any {
			if p := *ptr(r); p != nil {
				return *p
			}
			return nil
		},
		Set: func(r *model.Record, v any) error {
			f, err := coerceFloat(v)
			if err != nil {
				return err
			}
			*ptr(r) = f
			return nil
		},
		Clear: func(r *model.Record) { *ptr(r) = nil },
	}
}

func dateField(name string, ptr func(*model.Record) **time.Time) FieldSpec {
	return FieldSpec{
		Name: name,
		Kind: KindDate,
		Get: func(r *model.Record) any {
			if p := *ptr(r); p != nil {
				return *p
			}
			return nil
		},
		Set: func(r *model.Record, v any) error {
			t, err := coerceDate(v)
			if err != nil {
				return err
			}
			*ptr(r) = t
			return nil
		},
		Clear: func(r *model.Record) { *ptr(r) = nil },
	}
}

func stringField(name string, ptr func(*model.Record) **string) FieldSpec {
	return FieldSpec{
		Name: name,
		Kind: KindString,
		Get: func(r *model.Record) any {
			if p := *ptr(r); p != nil {
				return *p
			}
			return nil
		},
		Set: func(r *model.Record, v any) error {
			s, err := coerceString(v)
			if err != nil {
				return err
			}
			*ptr(r) = s
			return nil
		},
		Clear: func(r *model.Record) { *ptr(r) = nil },
	}
}

func coerceFloat(v any) (*float64, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return &n, nil
	case float32:
		f := float64(n)
		return &f, nil
	case int:
		f := float64(n)
		return &f, nil
	case int64:
		f := float64(n)
		return &f, nil
	case *float64:
		return n, nil
	default:
		return nil, eris.Errorf("precedence: expected numeric value, got %T", v)
	}
}

func coerceDate(v any) (*time.Time, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &d, nil
	case *time.Time:
		return d, nil
	case string:
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, eris.Wrapf(err, "precedence: parse date %q", d)
		}
		return &t, nil
	default:
		return nil, eris.Errorf("precedence: expected date value, got %T", v)
	}
}

func coerceString(v any) (*string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		if s == "" {
			return nil, nil
		}
		return &s, nil
	case *string:
		return s, nil
	default:
		return nil, eris.Errorf("precedence: expected string value, got %T", v)
	}
}
