// Package edgar is a rate-limited client for the SEC EDGAR full-text search
// and submissions APIs. Results are best-effort: a missing document or an
// empty search is returned as nil, not an error.
package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/internal/resilience"
)

// SICBlankCheck is the SIC code EDGAR assigns to blank-check companies.
// A SPAC's CIK should resolve to it; anything else suggests a wrong mapping.
const SICBlankCheck = "6770"

// Options configures the client. Zero values get SEC-appropriate defaults.
type Options struct {
	SearchBaseURL      string
	SubmissionsBaseURL string
	ArchivesBaseURL    string
	UserAgent          string
	RequestsPerSec     float64
	Timeout            time.Duration
	MaxRetries         int
}

// Client talks to EDGAR. All requests go through one shared rate limiter;
// callers must not fan out concurrently against it.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates an EDGAR client.
func New(opts Options) *Client {
	if opts.SearchBaseURL == "" {
		opts.SearchBaseURL = "https://efts.sec.gov/LATEST/search-index"
	}
	if opts.SubmissionsBaseURL == "" {
		opts.SubmissionsBaseURL = "https://data.sec.gov/submissions"
	}
	if opts.ArchivesBaseURL == "" {
		opts.ArchivesBaseURL = "https://www.sec.gov/Archives"
	}
	if opts.RequestsPerSec <= 0 {
		// SEC caps automated clients at 10 req/s; stay under it.
		opts.RequestsPerSec = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	retryCfg := resilience.DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retryCfg.MaxAttempts = opts.MaxRetries
	}
	return &Client{
		opts:    opts,
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		retry:   retryCfg,
	}
}

// CompanyInfo is the identity slice of an EDGAR submissions record.
type CompanyInfo struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sic_description"`
	Tickers        []string `json:"tickers"`
}

// IsBlankCheck reports whether the company's SIC code marks it as a
// blank-check (SPAC) entity.
func (c *CompanyInfo) IsBlankCheck() bool {
	return c != nil && c.SIC == SICBlankCheck
}

// CompanyMatch is one hit from a company-name search.
type CompanyMatch struct {
	CIK  string `json:"cik"`
	Name string `json:"name"`
}

// eftsResponse mirrors the EDGAR EFTS search result shape.
type eftsResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				CIK             string `json:"entity_cik"`
				EntityName      string `json:"entity_name"`
				FormType        string `json:"form_type"`
				FileDate        string `json:"file_date"`
				AccessionNumber string `json:"accession_no"`
				FileDescription string `json:"file_description"`
			} `json:"_source"`
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// submissionsResponse mirrors data.sec.gov/submissions/CIK##########.json.
type submissionsResponse struct {
	CIK            json.RawMessage `json:"cik"`
	Name           string          `json:"name"`
	SIC            string          `json:"sic"`
	SICDescription string          `json:"sicDescription"`
	Tickers        []string        `json:"tickers"`
	Filings        struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// SearchFilings returns up to count filings of one form type for an entity,
// newest first. A nil slice means nothing found.
func (c *Client) SearchFilings(ctx context.Context, cik, filingType string, count int) ([]model.Filing, error) {
	if count <= 0 {
		count = 10
	}
	sub, err := c.submissions(ctx, cik)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	recent := sub.Filings.Recent
	// The submissions payload is parallel arrays; a truncated response can
	// leave them uneven, so bound the scan by the shortest.
	n := min(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber), len(recent.PrimaryDocument))
	var filings []model.Filing
	for i := 0; i < n; i++ {
		if len(filings) == count {
			break
		}
		if filingType != "" && recent.Form[i] != filingType {
			continue
		}
		date, err := time.Parse("2006-01-02", recent.FilingDate[i])
		if err != nil {
			continue
		}
		filings = append(filings, model.Filing{
			Type:            recent.Form[i],
			Date:            date,
			AccessionNumber: recent.AccessionNumber[i],
			URL:             c.documentURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i]),
		})
	}
	return filings, nil
}

// FullTextSearch runs an EFTS query constrained to form types and a date
// range. Used by the deadline scan for exhibit-level matches.
func (c *Client) FullTextSearch(ctx context.Context, query, forms string, from, to time.Time) ([]model.Filing, error) {
	u := fmt.Sprintf("%s?q=%s&forms=%s&dateRange=custom&startdt=%s&enddt=%s",
		c.opts.SearchBaseURL, query, forms,
		from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var resp eftsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "edgar: decode search response")
	}

	var filings []model.Filing
	for _, hit := range resp.Hits.Hits {
		date, err := time.Parse("2006-01-02", hit.Source.FileDate)
		if err != nil {
			continue
		}
		filings = append(filings, model.Filing{
			Type:            hit.Source.FormType,
			Date:            date,
			AccessionNumber: hit.Source.AccessionNumber,
			Summary:         hit.Source.FileDescription,
		})
	}
	return filings, nil
}

// CompanyByCIK resolves a CIK to company identity. Nil when EDGAR has no
// submissions record for it.
func (c *Client) CompanyByCIK(ctx context.Context, cik string) (*CompanyInfo, error) {
	sub, err := c.submissions(ctx, cik)
	if err != nil || sub == nil {
		return nil, err
	}
	return &CompanyInfo{
		CIK:            normalizeCIK(cik),
		Name:           sub.Name,
		SIC:            sub.SIC,
		SICDescription: sub.SICDescription,
		Tickers:        sub.Tickers,
	}, nil
}

// SearchCompanyByName searches EFTS for entities whose name matches.
func (c *Client) SearchCompanyByName(ctx context.Context, name string) ([]CompanyMatch, error) {
	u := fmt.Sprintf("%s?q=%q", c.opts.SearchBaseURL, name)
	body, err := c.get(ctx, u)
	if err != nil || body == nil {
		return nil, err
	}

	var resp eftsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "edgar: decode company search")
	}

	seen := make(map[string]bool)
	var matches []CompanyMatch
	for _, hit := range resp.Hits.Hits {
		if seen[hit.Source.CIK] {
			continue
		}
		seen[hit.Source.CIK] = true
		matches = append(matches, CompanyMatch{CIK: hit.Source.CIK, Name: hit.Source.EntityName})
	}
	return matches, nil
}

// EarliestFilingDate returns the date of the oldest filing in the entity's
// recent submissions window, or nil when none exist.
func (c *Client) EarliestFilingDate(ctx context.Context, cik string) (*time.Time, error) {
	sub, err := c.submissions(ctx, cik)
	if err != nil || sub == nil {
		return nil, err
	}
	var earliest *time.Time
	for _, d := range sub.Filings.Recent.FilingDate {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		if earliest == nil || t.Before(*earliest) {
			earliest = &t
		}
	}
	return earliest, nil
}

// FetchDocument downloads a filing document. Empty string when the document
// is gone (404), mirroring the registry's best-effort contract.
func (c *Client) FetchDocument(ctx context.Context, url string) (string, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// documentURL builds the archive URL for a filing's primary document.
func (c *Client) documentURL(cik, accession, primaryDoc string) string {
	return fmt.Sprintf("%s/edgar/data/%s/%s/%s",
		c.opts.ArchivesBaseURL,
		strings.TrimLeft(normalizeCIK(cik), "0"),
		strings.ReplaceAll(accession, "-", ""),
		primaryDoc,
	)
}

func (c *Client) submissions(ctx context.Context, cik string) (*submissionsResponse, error) {
	u := fmt.Sprintf("%s/CIK%s.json", c.opts.SubmissionsBaseURL, normalizeCIK(cik))
	body, err := c.get(ctx, u)
	if err != nil || body == nil {
		return nil, err
	}
	var sub submissionsResponse
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, eris.Wrapf(err, "edgar: decode submissions %s", cik)
	}
	return &sub, nil
}

// get performs one rate-limited, retried GET. A 404 comes back as (nil, nil).
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	notFound := false

	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return eris.Wrapf(err, "edgar: build request %s", url)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			notFound = true
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return resilience.NewTransientError(
				eris.Errorf("edgar: %s returned %d", url, resp.StatusCode), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return eris.Errorf("edgar: %s returned %d", url, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return eris.Wrapf(err, "edgar: read body %s", url)
	})
	if err != nil {
		return nil, err
	}
	if notFound {
		zap.L().Debug("edgar: not found", zap.String("url", url))
		return nil, nil
	}
	return body, nil
}

// normalizeCIK zero-pads a CIK to the 10 digits EDGAR URLs expect.
func normalizeCIK(cik string) string {
	cik = strings.TrimSpace(strings.TrimLeft(cik, "0"))
	if _, err := strconv.Atoi(cik); err != nil {
		return cik
	}
	if len(cik) < 10 {
		cik = strings.Repeat("0", 10-len(cik)) + cik
	}
	return cik
}
