package models

import "time"

// WeightsPoint is one row of the weight history, Time is zero when no index was supplied
type WeightsPoint struct {
	Epoch   int                `json:"epoch"`
	Time    time.Time          `json:"time,omitzero"`
	Weights map[string]float64 `json:"weights"`
}

type WealthPoint struct {
	Epoch  int       `json:"epoch"`
	Time   time.Time `json:"time,omitzero"`
	Wealth float64   `json:"wealth"`
}

type PortfolioSnapshot struct {
	Universe []string       `json:"universe"`
	Weights  []WeightsPoint `json:"weights"`
	Wealth   []WealthPoint  `json:"wealth"`
}

type PortfolioSummary struct {
	Strategy         string             `json:"strategy"`
	Universe         []string           `json:"universe"`
	Epochs           int                `json:"epochs"`
	InitialWealth    float64            `json:"initialWealth"`
	FinalWealth      float64            `json:"finalWealth"`
	TotalReturn      float64            `json:"totalReturn"`
	AnnualizedReturn float64            `json:"annualizedReturn"`
	LatestWeights    map[string]float64 `json:"latestWeights"`
}
