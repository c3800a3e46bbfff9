package analysis

import (
	"fmt"
	"math"
)

// BalanceWeights sets the relative importance of price and sustainability
// when ranking the balanced recommendation list.
// Both weights must sum to 1.0 (±0.001 tolerance).
type BalanceWeights struct {
	Price          float64 `json:"price" yaml:"price"`
	Sustainability float64 `json:"sustainability" yaml:"sustainability"`
}

// DefaultBalance weighs price and sustainability equally.
func DefaultBalance() BalanceWeights {
	return BalanceWeights{Price: 0.5, Sustainability: 0.5}
}

// Sum returns the total of both weights.
func (w BalanceWeights) Sum() float64 {
	return w.Price + w.Sustainability
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w BalanceWeights) Validate() error {
	if w.Price < 0 || w.Sustainability < 0 {
		return invalid("balance", "weights", "negative weight: price=%f sustainability=%f", w.Price, w.Sustainability)
	}
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return invalid("balance", "weights", "weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	return nil
}

// ColumnWeight is the entropy and derived weight of one indicator column.
type ColumnWeight struct {
	Column  string  `json:"column"`
	Entropy float64 `json:"entropy"`
	Weight  float64 `json:"weight"`
}

// EntropyWeights is the outcome of entropy weighting over both indicator groups.
// WEnv and WPolicy always sum to 1.
type EntropyWeights struct {
	WEnv          float64        `json:"w_env"`
	WPolicy       float64        `json:"w_policy"`
	EnvEntropy    float64        `json:"env_entropy"`
	PolicyEntropy float64        `json:"policy_entropy"`
	EnvColumns    []ColumnWeight `json:"env_columns"`
	PolicyColumns []ColumnWeight `json:"policy_columns"`

	EnvScores    []float64 `json:"-"`
	PolicyScores []float64 `json:"-"`
}

// String renders the group weights for log lines.
func (w EntropyWeights) String() string {
	return fmt.Sprintf("env=%.4f policy=%.4f", w.WEnv, w.WPolicy)
}
