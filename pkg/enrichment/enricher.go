package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/civicreach/govlead/pkg/models"
	"github.com/civicreach/govlead/pkg/tracing"
)

// EnrichmentResult holds the qualitative signals suggested for a lead.
type EnrichmentResult struct {
	PainPoints    []string `json:"pain_points"`
	TechStack     []string `json:"tech_stack"`
	BuyingSignals []string `json:"buying_signals"`
	Summary       string   `json:"summary"`
}

// Enricher asks an LLM for qualitative signals about an institution.
type Enricher struct {
	llm    LLMClient
	logger ectologger.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(llm LLMClient, logger ectologger.Logger) *Enricher {
	return &Enricher{
		llm:    llm,
		logger: logger,
	}
}

// EnrichLead prompts the model with the lead's public profile and parses the
// suggested signals. Existing lead data is passed as context so the model
// extends rather than repeats it.
func (e *Enricher) EnrichLead(ctx context.Context, lead *models.Lead) (*EnrichmentResult, error) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Enricher.EnrichLead")
	defer span.End()

	prompt := buildEnrichmentPrompt(lead)

	raw, err := e.llm.Generate(ctx, prompt)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": lead.ID}).Error("Enrichment generation failed")
		return nil, err
	}

	result, err := parseEnrichmentResponse(raw)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"lead_id": lead.ID}).Error("Failed to parse enrichment response")
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"lead_id":        lead.ID,
		"pain_points":    len(result.PainPoints),
		"buying_signals": len(result.BuyingSignals),
	}).Debug("Enriched lead")

	return result, nil
}

func buildEnrichmentPrompt(lead *models.Lead) string {
	var b strings.Builder
	b.WriteString("You are a government-sector sales researcher. Based on the institution profile below, suggest qualitative signals for outreach.\n\n")
	fmt.Fprintf(&b, "Institution: %s\n", lead.InstitutionName)
	fmt.Fprintf(&b, "State: %s\n", lead.State)
	if lead.County != "" {
		fmt.Fprintf(&b, "County: %s\n", lead.County)
	}
	if lead.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", lead.Department)
	}
	if lead.Population > 0 {
		fmt.Fprintf(&b, "Population served: %d\n", lead.Population)
	}
	if len(lead.TechStack) > 0 {
		fmt.Fprintf(&b, "Known tech stack: %s\n", strings.Join(lead.TechStack, ", "))
	}
	if len(lead.PainPoints) > 0 {
		fmt.Fprintf(&b, "Known pain points: %s\n", strings.Join(lead.PainPoints, ", "))
	}
	b.WriteString("\nRespond with only a JSON object with these keys:\n")
	b.WriteString(`{"pain_points": ["..."], "tech_stack": ["..."], "buying_signals": ["..."], "summary": "..."}`)
	b.WriteString("\nDo not repeat signals already listed above.")
	return b.String()
}

// parseEnrichmentResponse tolerates markdown fences and prose around the JSON
// object.
func parseEnrichmentResponse(raw string) (*EnrichmentResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in enrichment response")
	}
	cleaned = cleaned[start : end+1]

	var result EnrichmentResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("invalid enrichment response: %w", err)
	}
	return &result, nil
}
