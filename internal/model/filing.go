package model

import "time"

// Common EDGAR form types this system reasons about.
const (
	Form8K      = "8-K"
	Form10Q     = "10-Q"
	Form10K     = "10-K"
	FormS1      = "S-1"
	FormS4      = "S-4"
	Form424B4   = "424B4"
	FormDEF14A  = "DEF 14A"
	FormDEFM14A = "DEFM14A"
	Form425     = "425"
	Form15      = "15"
	Form25NSE   = "25-NSE"
)

// Filing is a dated, typed regulatory document returned by the registry.
type Filing struct {
	Type            string    `json:"type"`
	Date            time.Time `json:"date"`
	URL             string    `json:"url"`
	AccessionNumber string    `json:"accession_number,omitempty"`
	Summary         string    `json:"summary,omitempty"`
}
