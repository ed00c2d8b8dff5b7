package colour

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Clustering is the result of partitioning a pixel stream into K clusters.
type Clustering struct {
	// Centroids holds one real-valued centre per cluster index.
	Centroids []Point
	// Labels holds the cluster index assigned to each input point.
	Labels []int
}

// Clusterer partitions points into exactly k clusters.
// Implementations may leave clusters empty; they must never return more or
// fewer than k centroids.
type Clusterer interface {
	Cluster(points []RGB, k int) (*Clustering, error)
}

// KMeansClusterer implements Lloyd's algorithm with k-means++ seeding.
// It owns its random source and is not safe for concurrent use.
type KMeansClusterer struct {
	maxIterations int
	convergence   float64
	rng           *rand.Rand
}

// NewKMeansClusterer creates a KMeansClusterer. A nil seed produces a
// time-seeded, non-reproducible clusterer.
func NewKMeansClusterer(seed *int64) *KMeansClusterer {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	return &KMeansClusterer{
		maxIterations: 50,
		convergence:   0.5,
		rng:           rand.New(rand.NewSource(s)), // #nosec G404 - clustering does not need crypto randomness
	}
}

// Cluster runs k-means over points.
func (c *KMeansClusterer) Cluster(points []RGB, k int) (*Clustering, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: cluster count must be at least 1, got %d", ErrInvalidInput, k)
	}
	if len(points) < k {
		return nil, fmt.Errorf("%w: %d pixels cannot form %d clusters", ErrClusteringFailed, len(points), k)
	}

	data := make([]Point, len(points))
	for i, p := range points {
		data[i] = toPoint(p)
	}

	centroids := c.initializeCentroidsKMeansPlusPlus(data, k)
	labels := make([]int, len(data))
	for i, point := range data {
		labels[i] = nearestCentroid(point, centroids)
	}

	for range c.maxIterations {
		newCentroids := c.recalculateCentroids(data, labels, k)

		movement := 0.0
		for i := range centroids {
			movement += math.Sqrt(centroids[i].distanceSq(newCentroids[i]))
		}
		centroids = newCentroids

		changed := 0
		for i, point := range data {
			nearest := nearestCentroid(point, centroids)
			if labels[i] != nearest {
				labels[i] = nearest
				changed++
			}
		}

		if changed == 0 || movement/float64(k) < c.convergence {
			break
		}
	}

	// Centres must be the means of the final assignment.
	return &Clustering{
		Centroids: meanCentroids(data, labels, centroids),
		Labels:    labels,
	}, nil
}

// initializeCentroidsKMeansPlusPlus picks initial centroids with probability
// proportional to the squared distance from the nearest chosen centroid.
func (c *KMeansClusterer) initializeCentroidsKMeansPlusPlus(points []Point, k int) []Point {
	centroids := make([]Point, 0, k)
	centroids = append(centroids, points[c.rng.Intn(len(points))])

	distances := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, point := range points {
			minDist := math.MaxFloat64
			for _, centroid := range centroids {
				minDist = min(minDist, point.distanceSq(centroid))
			}
			distances[i] = minDist
			total += minDist
		}

		if total == 0 {
			// Every point coincides with a chosen centroid; duplicate the
			// last one so the cluster count still holds.
			centroids = append(centroids, centroids[len(centroids)-1])
			continue
		}

		target := c.rng.Float64() * total
		cumulative := 0.0
		chosen := len(points) - 1
		for i, dist := range distances {
			cumulative += dist
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

// recalculateCentroids moves each centroid to the mean of its points.
// Empty clusters are reseeded from the point farthest from its centroid.
func (c *KMeansClusterer) recalculateCentroids(points []Point, labels []int, k int) []Point {
	centroids := make([]Point, k)
	counts := make([]int, k)
	for i, point := range points {
		cluster := labels[i]
		centroids[cluster].R += point.R
		centroids[cluster].G += point.G
		centroids[cluster].B += point.B
		counts[cluster]++
	}

	for i := range k {
		if counts[i] == 0 {
			continue
		}
		n := float64(counts[i])
		centroids[i] = Point{R: centroids[i].R / n, G: centroids[i].G / n, B: centroids[i].B / n}
	}

	for i := range k {
		if counts[i] > 0 {
			continue
		}
		farthest, farthestDist := -1, 0.0
		for j, point := range points {
			if counts[labels[j]] < 2 {
				continue
			}
			if d := point.distanceSq(centroids[labels[j]]); d > farthestDist {
				farthest, farthestDist = j, d
			}
		}
		if farthest < 0 {
			// Degenerate stream: no point can be moved without emptying
			// another cluster. Park the centroid on a random point.
			centroids[i] = points[c.rng.Intn(len(points))]
			continue
		}
		counts[labels[farthest]]--
		labels[farthest] = i
		counts[i] = 1
		centroids[i] = points[farthest]
	}

	return centroids
}

// nearestCentroid returns the index of the closest centroid; ties go to the
// lowest index.
func nearestCentroid(point Point, centroids []Point) int {
	minDist := math.MaxFloat64
	nearest := 0
	for i, centroid := range centroids {
		if dist := point.distanceSq(centroid); dist < minDist {
			minDist = dist
			nearest = i
		}
	}
	return nearest
}

// meanCentroids returns the per-label means of points. Clusters with no
// points keep their previous centre.
func meanCentroids(points []Point, labels []int, previous []Point) []Point {
	k := len(previous)
	sums := make([]Point, k)
	counts := make([]int, k)
	for i, point := range points {
		l := labels[i]
		sums[l].R += point.R
		sums[l].G += point.G
		sums[l].B += point.B
		counts[l]++
	}

	centroids := make([]Point, k)
	for i := range k {
		if counts[i] == 0 {
			centroids[i] = previous[i]
			continue
		}
		n := float64(counts[i])
		centroids[i] = Point{R: sums[i].R / n, G: sums[i].G / n, B: sums[i].B / n}
	}
	return centroids
}
