package config

import "github.com/MikeSquared-Agency/Canopy/internal/analysis"

// AnalysisSettings converts the analysis section into analyzer defaults.
func (c *Config) AnalysisSettings() analysis.Settings {
	a := c.Analysis
	return analysis.Settings{
		Indicators: analysis.IndicatorColumns{
			Environmental: a.Indicators.Environmental,
			Policy:        a.Indicators.Policy,
		},
		MaxK:          a.KMeans.MaxK,
		MaxIterations: a.KMeans.MaxIterations,
		Seed:          a.KMeans.Seed,
		TopN:          a.Recommender.TopN,
		Balance: analysis.BalanceWeights{
			Price:          a.Recommender.Balance.Price,
			Sustainability: a.Recommender.Balance.Sustainability,
		},
	}
}
