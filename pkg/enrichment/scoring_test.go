package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicreach/govlead/pkg/models"
)

func TestScoreLead(t *testing.T) {
	t.Run("empty lead scores zero", func(t *testing.T) {
		assert.Equal(t, 0, ScoreLead(&models.Lead{}))
	})

	t.Run("population brackets", func(t *testing.T) {
		tests := []struct {
			population int64
			expected   int
		}{
			{0, 0},
			{1, 6},
			{24_999, 6},
			{25_000, 12},
			{100_000, 20},
			{500_000, 25},
			{2_000_000, 25},
		}
		for _, tt := range tests {
			lead := &models.Lead{Population: tt.population}
			assert.Equal(t, tt.expected, ScoreLead(lead), "population %d", tt.population)
		}
	})

	t.Run("tech maturity scales to 15 points", func(t *testing.T) {
		assert.Equal(t, 15, ScoreLead(&models.Lead{TechMaturityScore: 100}))
		assert.Equal(t, 7, ScoreLead(&models.Lead{TechMaturityScore: 50}))
		assert.Equal(t, 0, ScoreLead(&models.Lead{TechMaturityScore: 0}))
	})

	t.Run("signals and pain points are capped", func(t *testing.T) {
		lead := &models.Lead{
			BuyingSignals: models.StringList{"a", "b", "c", "d", "e"},
			PainPoints:    models.StringList{"a", "b", "c", "d", "e"},
		}
		// 24 signal points plus 12 pain point points
		assert.Equal(t, 36, ScoreLead(lead))
	})

	t.Run("contactability points", func(t *testing.T) {
		lead := &models.Lead{
			Email:          "clerk@franklin.gov",
			Phone:          "(614) 555-0142",
			DecisionMakers: models.DecisionMakers{{Name: "Pat Lee"}},
		}
		assert.Equal(t, 14, ScoreLead(lead))
	})

	t.Run("never exceeds 100", func(t *testing.T) {
		lead := &models.Lead{
			Population:        900_000,
			AnnualBudget:      120_000_000,
			TechMaturityScore: 100,
			BuyingSignals:     models.StringList{"a", "b", "c", "d"},
			PainPoints:        models.StringList{"a", "b", "c", "d"},
			Email:             "clerk@franklin.gov",
			Phone:             "(614) 555-0142",
			DecisionMakers:    models.DecisionMakers{{Name: "Pat Lee"}},
		}
		assert.Equal(t, 100, ScoreLead(lead))
	})

	t.Run("deterministic", func(t *testing.T) {
		lead := &models.Lead{
			Population:    130_000,
			AnnualBudget:  45_000_000,
			BuyingSignals: models.StringList{"RFP posted"},
		}
		first := ScoreLead(lead)
		assert.Equal(t, first, ScoreLead(lead))
		assert.Equal(t, 38, first)
	})
}
