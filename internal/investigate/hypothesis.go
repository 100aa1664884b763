package investigate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/spac-sync/internal/model"
	"github.com/sells-group/spac-sync/pkg/anthropic"
)

// The verification-step vocabulary is closed: the evidence collector
// pattern-matches on these exact phrases, and the prompt instructs the
// backend to use only them.
const (
	phraseCIKLookup       = "Query EDGAR company data for the current CIK"
	phraseSICCheck        = "Check the SIC code classification for the current CIK"
	phraseCIKSearchByName = "Search EDGAR by company name for the correct CIK"
	phraseDateConsistency = "Compare the announced date against the IPO date for consistency"
)

var canonicalSteps = []string{
	phraseCIKLookup,
	phraseSICCheck,
	phraseCIKSearchByName,
	phraseDateConsistency,
}

// ParseStepKind classifies a verification-step phrase by substring. Matching
// is deliberately tolerant of surrounding prose; anything unrecognized maps
// to StepUnknown and is skipped (and logged) at collection time.
func ParseStepKind(text string) model.StepKind {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "sic"):
		return model.StepSICCheck
	case strings.Contains(t, "name"):
		return model.StepCIKSearchByName
	case strings.Contains(t, "cik"):
		return model.StepCIKLookup
	case strings.Contains(t, "date") || strings.Contains(t, "consistency"):
		return model.StepDateConsistency
	default:
		return model.StepUnknown
	}
}

// Generator proposes ranked root-cause hypotheses for an anomaly. With a
// backend it asks the model; without one, or when the response cannot be
// parsed, it degrades to a deterministic rule.
type Generator struct {
	backend anthropic.Client
	model   string
}

// NewGenerator creates a Generator. A nil backend selects the rule-based
// path unconditionally.
func NewGenerator(backend anthropic.Client, modelID string) *Generator {
	return &Generator{backend: backend, model: modelID}
}

// Generate returns hypotheses ordered by likelihood descending. Past
// learning cases bias the model toward outcomes that actually happened.
func (g *Generator) Generate(ctx context.Context, anomaly model.Anomaly, ictx Context, past []model.LearningCase) []model.Hypothesis {
	if g.backend == nil {
		return g.fallback(anomaly)
	}

	resp, err := g.backend.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 2048,
		System:    "You are a data-quality analyst for a SPAC filings database. Respond with JSON only.",
		Prompt:    g.buildPrompt(anomaly, ictx, past),
	})
	if err != nil {
		zap.L().Warn("investigate: hypothesis backend failed, using rule-based fallback",
			zap.String("ticker", ictx.Ticker),
			zap.Error(err),
		)
		return g.fallback(anomaly)
	}
	resp.Usage.LogUsage(resp.Model, "hypothesis")

	hyps, err := parseHypotheses(resp.Text)
	if err != nil || len(hyps) == 0 {
		zap.L().Warn("investigate: unparseable hypothesis response, using rule-based fallback",
			zap.String("ticker", ictx.Ticker),
			zap.Error(err),
		)
		return g.fallback(anomaly)
	}
	return hyps
}

func (g *Generator) buildPrompt(anomaly model.Anomaly, ictx Context, past []model.LearningCase) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Anomaly detected for SPAC %s (CIK %s):\n", ictx.Ticker, ictx.CIK)
	fmt.Fprintf(&sb, "Type: %s\nSeverity: %s\nDescription: %s\n", anomaly.Type, anomaly.Severity, anomaly.Description)
	if len(anomaly.Evidence) > 0 {
		ev, _ := json.Marshal(anomaly.Evidence)
		fmt.Fprintf(&sb, "Evidence: %s\n", ev)
	}

	if len(past) > 0 {
		sb.WriteString("\nPast cases of this issue class:\n")
		for i, c := range past {
			if i == 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s): outcome %s\n", c.Ticker, c.CreatedAt.Format("2006-01-02"), outcomeLine(c))
		}
	}

	sb.WriteString("\nPropose 3-5 ranked root-cause hypotheses as a JSON array. Each element:\n")
	sb.WriteString(`{"rank": n, "likelihood": 0-100, "root_cause": "...", "reasoning": "...", "verification_steps": [...], "fix_if_true": "..."}` + "\n")
	sb.WriteString("verification_steps must use only these exact phrases:\n")
	for _, s := range canonicalSteps {
		fmt.Fprintf(&sb, "- %s\n", s)
	}
	return sb.String()
}

// outcomeLine compresses a stored fix into one outcome word for the prompt.
func outcomeLine(c model.LearningCase) string {
	fix := strings.ToLower(c.FinalFix)
	switch {
	case strings.Contains(fix, "extension"):
		return "extension found"
	case strings.Contains(fix, "completion") || strings.Contains(fix, "completed"):
		return "completion found"
	case strings.Contains(fix, "termination") || strings.Contains(fix, "terminated"):
		return "termination found"
	default:
		return "none"
	}
}

// fallback is the deterministic rule used when no backend is available:
// exactly one wrong-identity hypothesis for temporal inconsistencies,
// nothing for anything else.
func (g *Generator) fallback(anomaly model.Anomaly) []model.Hypothesis {
	if anomaly.Type != model.AnomalyTemporalInconsistency {
		return nil
	}
	return []model.Hypothesis{{
		Rank:       1,
		Likelihood: 90,
		RootCause:  model.RootCauseWrongIdentity,
		Reasoning:  "a deal announced years before the IPO means the record almost certainly points at a reused or misassigned CIK",
		Steps:      makeSteps(canonicalSteps),
		FixIfTrue:  "repoint the record to the correct CIK and clear stale deal facts",
	}}
}

type rawHypothesis struct {
	Rank              int      `json:"rank"`
	Likelihood        int      `json:"likelihood"`
	RootCause         string   `json:"root_cause"`
	Reasoning         string   `json:"reasoning"`
	VerificationSteps []string `json:"verification_steps"`
	FixIfTrue         string   `json:"fix_if_true"`
}

func parseHypotheses(text string) ([]model.Hypothesis, error) {
	var raw []rawHypothesis
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, err
	}

	hyps := make([]model.Hypothesis, 0, len(raw))
	for _, r := range raw {
		hyps = append(hyps, model.Hypothesis{
			Rank:       r.Rank,
			Likelihood: r.Likelihood,
			RootCause:  r.RootCause,
			Reasoning:  r.Reasoning,
			Steps:      makeSteps(r.VerificationSteps),
			FixIfTrue:  r.FixIfTrue,
		})
	}

	sort.SliceStable(hyps, func(i, j int) bool { return hyps[i].Likelihood > hyps[j].Likelihood })
	for i := range hyps {
		hyps[i].Rank = i + 1
	}
	return hyps, nil
}

func makeSteps(texts []string) []model.VerificationStep {
	steps := make([]model.VerificationStep, 0, len(texts))
	for _, t := range texts {
		steps = append(steps, model.VerificationStep{Text: t, Kind: ParseStepKind(t)})
	}
	return steps
}

// cleanJSON strips markdown fences and slices out the outermost JSON array
// or object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	var end int
	if text[start] == '[' {
		end = strings.LastIndex(text, "]")
	} else {
		end = strings.LastIndex(text, "}")
	}
	if end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
