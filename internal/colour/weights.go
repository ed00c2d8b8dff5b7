package colour

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizeWeights turns per-point cluster labels into the fraction of points
// belonging to each of k clusters. Clusters without points get weight 0 and
// the weights sum to 1.
func NormalizeWeights(labels []int, k int) ([]float64, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: cluster count must be at least 1, got %d", ErrInvalidInput, k)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no labels to weigh", ErrInvalidInput)
	}

	hist := make([]float64, k)
	for i, l := range labels {
		if l < 0 || l >= k {
			return nil, fmt.Errorf("%w: label %d at index %d outside [0, %d)", ErrInvalidInput, l, i, k)
		}
		hist[l]++
	}

	floats.Scale(1/floats.Sum(hist), hist)
	return hist, nil
}
