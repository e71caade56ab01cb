package enrichment

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicreach/govlead/pkg/models"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func newTestEnricher(llm LLMClient) *Enricher {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	return NewEnricher(llm, logger)
}

func TestEnricher_EnrichLead(t *testing.T) {
	ctx := context.Background()
	lead := &models.Lead{
		ID:              7,
		InstitutionName: "Franklin County Office",
		State:           "OH",
		County:          "Franklin",
		Population:      130000,
		TechStack:       models.StringList{"Tyler Munis"},
	}

	t.Run("parses a plain JSON response", func(t *testing.T) {
		llm := &fakeLLM{response: `{"pain_points": ["legacy ERP"], "tech_stack": ["Accela"], "buying_signals": ["RFP posted"], "summary": "Mid-size county modernizing permits."}`}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		require.NoError(t, err)

		assert.Equal(t, []string{"legacy ERP"}, result.PainPoints)
		assert.Equal(t, []string{"Accela"}, result.TechStack)
		assert.Equal(t, []string{"RFP posted"}, result.BuyingSignals)
		assert.Equal(t, "Mid-size county modernizing permits.", result.Summary)
	})

	t.Run("tolerates markdown fences", func(t *testing.T) {
		llm := &fakeLLM{response: "```json\n{\"pain_points\": [\"paper permits\"], \"summary\": \"ok\"}\n```"}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		require.NoError(t, err)
		assert.Equal(t, []string{"paper permits"}, result.PainPoints)
	})

	t.Run("tolerates prose around the object", func(t *testing.T) {
		llm := &fakeLLM{response: "Here are my suggestions:\n{\"buying_signals\": [\"new CIO hired\"]}\nLet me know if you need more."}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		require.NoError(t, err)
		assert.Equal(t, []string{"new CIO hired"}, result.BuyingSignals)
	})

	t.Run("prompt includes the lead profile", func(t *testing.T) {
		llm := &fakeLLM{response: `{}`}
		enricher := newTestEnricher(llm)

		_, err := enricher.EnrichLead(ctx, lead)
		require.NoError(t, err)

		require.Len(t, llm.prompts, 1)
		prompt := llm.prompts[0]
		assert.Contains(t, prompt, "Institution: Franklin County Office")
		assert.Contains(t, prompt, "State: OH")
		assert.Contains(t, prompt, "County: Franklin")
		assert.Contains(t, prompt, "Tyler Munis")
	})

	t.Run("rejects responses without a JSON object", func(t *testing.T) {
		llm := &fakeLLM{response: "I cannot help with that."}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		assert.Nil(t, result)
		assert.Error(t, err)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		llm := &fakeLLM{response: `{"pain_points": [unquoted]}`}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		assert.Nil(t, result)
		assert.Error(t, err)
	})

	t.Run("propagates generation errors", func(t *testing.T) {
		llm := &fakeLLM{err: errors.New("rate limited")}
		enricher := newTestEnricher(llm)

		result, err := enricher.EnrichLead(ctx, lead)
		assert.Nil(t, result)
		assert.EqualError(t, err, "rate limited")
	})
}
