package colour

import "errors"

var (
	// ErrInvalidInput is returned when the pipeline is handed an empty or
	// malformed image, or inconsistent intermediate data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClusteringFailed is returned when the clustering stage cannot
	// partition the pixel stream into the requested number of clusters.
	ErrClusteringFailed = errors.New("clustering failed")
)
