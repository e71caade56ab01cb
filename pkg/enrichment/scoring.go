package enrichment

import "github.com/civicreach/govlead/pkg/models"

// Scoring weights. The total possible is 100.
const (
	maxPopulationPoints = 25
	maxBudgetPoints     = 10
	maxMaturityPoints   = 15
	maxSignalPoints     = 24
	maxPainPoints       = 12
)

// ScoreLead computes a 0-100 priority score from firmographics and signals.
// Pure and deterministic so re-scoring an unchanged lead is a no-op.
func ScoreLead(lead *models.Lead) int {
	score := 0

	switch {
	case lead.Population >= 500_000:
		score += maxPopulationPoints
	case lead.Population >= 100_000:
		score += 20
	case lead.Population >= 25_000:
		score += 12
	case lead.Population > 0:
		score += 6
	}

	if lead.AnnualBudget > 0 {
		score += maxBudgetPoints
	}

	if lead.TechMaturityScore > 0 {
		score += lead.TechMaturityScore * maxMaturityPoints / 100
	}

	signalPoints := len(lead.BuyingSignals) * 8
	if signalPoints > maxSignalPoints {
		signalPoints = maxSignalPoints
	}
	score += signalPoints

	painPoints := len(lead.PainPoints) * 4
	if painPoints > maxPainPoints {
		painPoints = maxPainPoints
	}
	score += painPoints

	if lead.Email != "" {
		score += 4
	}
	if lead.Phone != "" {
		score += 4
	}
	if len(lead.DecisionMakers) > 0 {
		score += 6
	}

	if score > 100 {
		score = 100
	}
	return score
}
