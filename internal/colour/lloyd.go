package colour

import (
	"fmt"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// pixelObservation adapts a pixel to the clusters.Observation interface.
type pixelObservation clusters.Coordinates

func (o pixelObservation) Coordinates() clusters.Coordinates {
	return clusters.Coordinates(o)
}

func (o pixelObservation) Distance(point clusters.Coordinates) float64 {
	var sum float64
	for i, v := range o {
		d := v - point[i]
		sum += d * d
	}
	return sum
}

// LloydClusterer delegates clustering to github.com/muesli/kmeans.
// The library seeds its own generator, so results are not reproducible.
type LloydClusterer struct {
	deltaThreshold float64
}

// NewLloydClusterer creates a LloydClusterer that stops once fewer than 1% of
// points change cluster in an iteration.
func NewLloydClusterer() *LloydClusterer {
	return &LloydClusterer{deltaThreshold: 0.01}
}

// Cluster partitions points with the library's Lloyd iterations. Labels are
// the nearest returned centre for every point.
func (c *LloydClusterer) Cluster(points []RGB, k int) (*Clustering, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: cluster count must be at least 1, got %d", ErrInvalidInput, k)
	}

	dataset := make(clusters.Observations, len(points))
	for i, p := range points {
		dataset[i] = pixelObservation{float64(p.R), float64(p.G), float64(p.B)}
	}

	km, err := kmeans.NewWithOptions(c.deltaThreshold, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClusteringFailed, err)
	}

	partition, err := km.Partition(dataset, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClusteringFailed, err)
	}
	if len(partition) != k {
		return nil, fmt.Errorf("%w: expected %d clusters, got %d", ErrClusteringFailed, k, len(partition))
	}

	centroids := make([]Point, k)
	for i, cl := range partition {
		if len(cl.Center) != 3 {
			return nil, fmt.Errorf("%w: cluster %d has %d dimensions", ErrClusteringFailed, i, len(cl.Center))
		}
		centroids[i] = Point{R: cl.Center[0], G: cl.Center[1], B: cl.Center[2]}
	}

	labels := make([]int, len(points))
	for i, p := range points {
		labels[i] = nearestCentroid(toPoint(p), centroids)
	}

	return &Clustering{
		Centroids: meanCentroids(pointsOf(points), labels, centroids),
		Labels:    labels,
	}, nil
}

func pointsOf(pixels []RGB) []Point {
	points := make([]Point, len(pixels))
	for i, p := range pixels {
		points[i] = toPoint(p)
	}
	return points
}
