package core

import (
	"fmt"

	m "olps/models"
)

// Optimizer decides the weights for the next epoch.
// history holds every price relative observed before the epoch being decided, it must not be modified.
type Optimizer interface {
	Name() string
	Decide(history [][]float64, previous []float64) ([]float64, error)
}

func NewOptimizer(strategy m.Strategy, nAssets int, epsilon float64) (Optimizer, error) {
	switch strategy {
	case m.FollowTheLoser:
		p, err := NewPAMROptimizer(nAssets, epsilon)
		if err != nil {
			return nil, err
		}
		return p, nil
	case m.FollowTheLeader:
		f, err := NewFTLOptimizer(nAssets, FTLSettings{})
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%v is not a recognized strategy", strategy)
	}
}
