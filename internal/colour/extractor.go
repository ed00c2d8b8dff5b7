package colour

import (
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"
)

// Extractor defines the interface for palette extraction.
type Extractor interface {
	// Extract extracts an ordered colour palette from an image.
	Extract(img image.Image) (*Palette, error)
}

// Algorithm represents the clustering algorithm used for extraction.
type Algorithm string

const (
	// AlgorithmKMeans uses the built-in k-means++ clusterer.
	AlgorithmKMeans Algorithm = "kmeans"

	// AlgorithmLloyd uses the muesli/kmeans library with random initialisation.
	AlgorithmLloyd Algorithm = "lloyd"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmKMeans,
		AlgorithmLloyd,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// ExtractorOptions tunes a PaletteExtractor.
type ExtractorOptions struct {
	// Seed makes the kmeans algorithm reproducible. Ignored by lloyd.
	Seed *int64

	// MaxSamples caps how many pixels are clustered. Zero clusters every pixel.
	// The cluster count is always derived from the full image, and a cap
	// below it is raised to the cluster count.
	MaxSamples int

	// Logger receives debug output. Defaults to a null logger.
	Logger hclog.Logger
}

// NewClusterer creates the Clusterer for the given algorithm.
// Returns an error if the algorithm is not recognised.
func NewClusterer(alg Algorithm, opts ExtractorOptions) (Clusterer, error) {
	switch alg {
	case AlgorithmKMeans:
		return NewKMeansClusterer(opts.Seed), nil
	case AlgorithmLloyd:
		return NewLloydClusterer(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// PaletteExtractor runs the full pipeline: unique-colour counting, cluster
// count selection, clustering, weighting and sorting.
// A PaletteExtractor is not safe for concurrent use.
type PaletteExtractor struct {
	clusterer  Clusterer
	maxSamples int
	logger     hclog.Logger
}

// NewExtractor creates a PaletteExtractor based on the specified algorithm.
func NewExtractor(alg Algorithm, opts ExtractorOptions) (*PaletteExtractor, error) {
	clusterer, err := NewClusterer(alg, opts)
	if err != nil {
		return nil, err
	}
	return NewExtractorWithClusterer(clusterer, opts), nil
}

// NewExtractorWithClusterer creates a PaletteExtractor around any Clusterer.
func NewExtractorWithClusterer(clusterer Clusterer, opts ExtractorOptions) *PaletteExtractor {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PaletteExtractor{
		clusterer:  clusterer,
		maxSamples: opts.MaxSamples,
		logger:     logger.Named("extractor"),
	}
}

// Extract returns the sorted palette of img. The palette length is
// ClusterCount of the image's distinct colours.
func (e *PaletteExtractor) Extract(img image.Image) (*Palette, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image cannot be nil", ErrInvalidInput)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: image has no pixels (%dx%d)", ErrInvalidInput, bounds.Dx(), bounds.Dy())
	}

	pixels := Pixels(img)
	unique := UniqueColours(pixels)
	k := ClusterCount(unique)

	// A sample never drops below k pixels, or it could not fill k clusters.
	limit := e.maxSamples
	if limit > 0 {
		limit = max(limit, k)
	}
	sample := samplePixels(pixels, limit)
	e.logger.Debug("clustering pixels",
		"width", bounds.Dx(), "height", bounds.Dy(),
		"unique", unique, "clusters", k, "samples", len(sample))

	clustering, err := e.clusterer.Cluster(sample, k)
	if err != nil {
		return nil, err
	}
	if len(clustering.Centroids) != k || len(clustering.Labels) != len(sample) {
		return nil, fmt.Errorf("%w: clusterer returned %d centroids and %d labels for k=%d and %d pixels",
			ErrClusteringFailed, len(clustering.Centroids), len(clustering.Labels), k, len(sample))
	}

	weights, err := NormalizeWeights(clustering.Labels, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClusteringFailed, err)
	}

	colours := make([]RGB, k)
	for i, c := range clustering.Centroids {
		colours[i] = c.RGB()
	}

	palette := NewPaletteWithWeights(colours, weights)
	palette.Sort()

	e.logger.Debug("palette extracted", "colours", palette.ToHex())
	return palette, nil
}

// ExtractPalette extracts a palette with the default kmeans algorithm.
func ExtractPalette(img image.Image) (*Palette, error) {
	e, err := NewExtractor(AlgorithmKMeans, ExtractorOptions{})
	if err != nil {
		return nil, err
	}
	return e.Extract(img)
}
